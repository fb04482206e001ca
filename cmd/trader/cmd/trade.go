package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/trader"
)

var tradeCmd = &cobra.Command{
	Use:       "trade <buy|sell>",
	Short:     "Place one risk-sized entry",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"buy", "sell"},
	Long: `Trade sizes and submits a single order, the same way the loop and the
ticket do, then prints the outcome.

Examples:
  trader trade sell --symbol EURUSD --stop-pips 10
  trader trade buy --symbol USDJPY --stop-pips 15 --pending-price 151.20`,
	RunE: runTrade,
}

var (
	tradeSymbol       string
	tradeStopPips     float64
	tradePendingPrice float64
)

func init() {
	rootCmd.AddCommand(tradeCmd)

	tradeCmd.Flags().StringVarP(&tradeSymbol, "symbol", "s", "", "pair to trade (defaults to bot.symbol)")
	tradeCmd.Flags().Float64Var(&tradeStopPips, "stop-pips", 0, "stop loss distance in pips (defaults to bot.stop_loss_pips)")
	tradeCmd.Flags().Float64Var(&tradePendingPrice, "pending-price", 0, "enter with a stop-limit order at this price")
}

func runTrade(cmd *cobra.Command, args []string) error {
	dir, err := market.ParseDirection(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := trader.EntryRequest{
		Symbol:       cfg.Bot.Symbol,
		Direction:    dir,
		StopLossPips: cfg.Bot.StopLossPips,
		Source:       trader.SourceCLI,
	}
	if tradeSymbol != "" {
		req.Symbol = tradeSymbol
	}
	if tradeStopPips > 0 {
		req.StopLossPips = tradeStopPips
	}
	if tradePendingPrice > 0 {
		p := tradePendingPrice
		req.PendingPrice = &p
	}

	tk, err := a.trader.Enter(ctx, req)
	if err != nil {
		return fmt.Errorf("trade: %w", err)
	}

	fmt.Println(tk.Summary())
	fmt.Printf("%s %s %.2f lots @ %.5f  SL %.5f  TP %.5f\n",
		tk.Plan.Kind, tk.Plan.Symbol, tk.Plan.Size, tk.Plan.Entry, tk.Plan.StopLoss, tk.Plan.TakeProfit)
	if !tk.Result.Success {
		return fmt.Errorf("order failed: %s", tk.Result.Comment)
	}
	return nil
}
