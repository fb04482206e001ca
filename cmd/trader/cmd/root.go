package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Risk-sized, alternating-direction FX trading bot",
	Long: `Trader places one risk-sized order at a time on a single FX pair.

When a position closes it looks at the result: a loss flips the direction
of the next entry, a win keeps it. Stops are set from a pip distance and
targets at three times that distance.

It provides:
  - run     the polling decision loop
  - ticket  an HTTP order ticket (buy/sell with a stop)
  - trade   one entry from the command line
  - calc    the position size calculator, offline
  - journal queries over the SQLite audit journal

Brokers: an in-memory paper engine and OANDA v20.`,
	SilenceUsage: true,
}

var (
	cfgPath string
	envPath string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file with credentials, skipped if missing")
}
