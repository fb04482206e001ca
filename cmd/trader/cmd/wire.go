package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/broker/oanda"
	"github.com/rustyeddy/fxflip/broker/sim"
	"github.com/rustyeddy/fxflip/config"
	"github.com/rustyeddy/fxflip/internal/logging"
	"github.com/rustyeddy/fxflip/journal"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/pricing"
	"github.com/rustyeddy/fxflip/telemetry"
	"github.com/rustyeddy/fxflip/trader"
)

// app holds everything built from the config for one command run.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	gw      broker.Gateway
	quotes  market.QuoteProvider
	journal journal.Journal
	tel     *telemetry.Provider
	metrics *telemetry.Metrics
	trader  *trader.Trader

	closers []io.Closer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath, envPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	log, closer, err := logging.New(logging.Options{
		Dir:    cfg.Log.Dir,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a.log = log
	a.closers = append(a.closers, closer)

	a.tel, err = telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "fxflip",
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	a.metrics, err = telemetry.NewMetrics(a.tel.Meter)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	a.gw, a.quotes, err = buildMarket(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.journal, err = journal.Open(cfg.Journal.Type, cfg.Journal.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	a.trader, err = trader.New(trader.Options{
		Gateway: a.gw,
		Quotes:  a.quotes,
		Journal: a.journal,
		Metrics: a.metrics,
		Logger:  a.log,
		Sizing:  trader.SizingFromConfig(cfg),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.log.Debug("app ready",
		"broker", cfg.Broker.Kind,
		"quotes", cfg.Quotes.Provider,
		"journal", cfg.Journal.Type)
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil && a.log != nil {
			a.log.Error("close journal", "err", err)
		}
	}
	if a.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tel.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Error("telemetry shutdown", "err", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// buildMarket builds the broker gateway and the quote provider. Both are
// wrapped in timeouts.
func buildMarket(cfg *config.Config) (broker.Gateway, market.QuoteProvider, error) {
	var base market.QuoteProvider
	switch cfg.Quotes.Provider {
	case "yahoo":
		base = pricing.NewYahoo(cfg.Quotes.Proxy)
	case "static":
		base = pricing.Static(cfg.Quotes.Static)
	case "broker":
		// filled in from the gateway below
	default:
		return nil, nil, fmt.Errorf("unknown quote provider %q", cfg.Quotes.Provider)
	}
	if base != nil && cfg.Quotes.Provider != "static" && len(cfg.Quotes.Static) > 0 {
		base = pricing.Chain{pricing.Static(cfg.Quotes.Static), base}
	}

	var gw broker.Gateway
	switch cfg.Broker.Kind {
	case "paper":
		feed := base
		if feed == nil {
			if len(cfg.Quotes.Static) == 0 {
				return nil, nil, errors.New("paper broker with broker quotes needs quotes.static prices")
			}
			feed = pricing.Static(cfg.Quotes.Static)
		}
		gw = sim.NewEngine(sim.Config{
			Balance:  cfg.Broker.Paper.Balance,
			Currency: cfg.Broker.Paper.Currency,
			Leverage: cfg.Account.Leverage,
			Prices:   pricing.WithTimeout(feed, cfg.Quotes.Timeout),
		})
	case "oanda":
		c, err := oanda.NewClient(oanda.Config{
			Environment: cfg.Broker.Environment,
			AccountID:   cfg.Broker.AccountID,
			Token:       cfg.Broker.Token,
			Timeout:     cfg.Broker.Timeout,
			AllowLive:   cfg.Broker.AllowLive,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create oanda client: %w", err)
		}
		gw = c
	default:
		return nil, nil, errors.New("broker.kind must be 'paper' or 'oanda'")
	}
	gw = broker.WithTimeout(gw, cfg.Broker.Timeout)

	quotes := base
	if quotes == nil {
		quotes = pricing.FromBroker{Ticks: gw}
	}
	return gw, pricing.WithTimeout(quotes, cfg.Quotes.Timeout), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
