package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxflip/trader"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision loop",
	Long: `Run polls the broker on a fixed interval. With no position open it
enters: the first time in the configured start direction, afterwards in
the direction the last closed trade suggests (flip after a loss, keep
after a win). Stop with Ctrl-C.

Example:
  trader run -c fxflip.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	settings, err := trader.SettingsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("bot settings: %w", err)
	}
	loop, err := trader.NewLoop(trader.LoopOptions{
		Settings: settings,
		Trader:   a.trader,
		Gateway:  a.gw,
		Journal:  a.journal,
		Metrics:  a.metrics,
		Logger:   a.log,
	})
	if err != nil {
		return err
	}

	a.log.Info("starting trader",
		"symbol", settings.Symbol,
		"broker", cfg.Broker.Kind,
		"risk_percent", cfg.Account.RiskPercent,
		"leverage", cfg.Account.Leverage)
	return loop.Run(ctx)
}
