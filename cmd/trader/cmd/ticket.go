package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxflip/api"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Serve the HTTP order ticket",
	Long: `Ticket serves a small HTTP API for manual entries:

  GET  /health
  GET  /symbols
  POST /buy   {"symbol": "EURUSD", "stop_loss_pips": 10}
  POST /sell  {"symbol": "EURUSD", "stop_loss_pips": 10}

Every click sizes the trade from the account and submits one order.

Example:
  trader ticket --addr :8080`,
	RunE: runTicket,
}

var ticketAddr string

func init() {
	rootCmd.AddCommand(ticketCmd)
	ticketCmd.Flags().StringVar(&ticketAddr, "addr", "", "listen address (overrides ticket.addr)")
}

func runTicket(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ticketAddr != "" {
		cfg.Ticket.Addr = ticketAddr
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	h := api.NewHandler(a.trader, cfg.Ticket.Symbols, version, a.log)
	srv := &http.Server{
		Addr:              cfg.Ticket.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("ticket listening", "addr", cfg.Ticket.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve ticket: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown ticket: %w", err)
	}
	a.log.Info("ticket stopped")
	return nil
}
