package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxflip/risk"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Size a position without touching a broker",
	Long: `Calc runs the position size calculator on the numbers you give it.

The conversion rate prices one unit of the pair's base currency in the
account currency: 1 for EURUSD in a EUR account, USDEUR for USDJPY.

Example:
  trader calc --balance 10000 --leverage 5 --risk 1 --stop-pips 10`,
	RunE: runCalc,
}

var (
	calcBalance  float64
	calcLeverage float64
	calcRisk     float64
	calcStopPips float64
	calcRate     float64
)

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().Float64VarP(&calcBalance, "balance", "b", 10_000, "account balance")
	calcCmd.Flags().Float64VarP(&calcLeverage, "leverage", "l", 5, "account leverage")
	calcCmd.Flags().Float64VarP(&calcRisk, "risk", "r", 1, "risk percent per trade (1 = 1%)")
	calcCmd.Flags().Float64Var(&calcStopPips, "stop-pips", 10, "stop loss distance in pips")
	calcCmd.Flags().Float64Var(&calcRate, "rate", 1, "base to account currency conversion rate")
}

func runCalc(cmd *cobra.Command, args []string) error {
	res, err := risk.Calculate(risk.Inputs{
		Balance:        calcBalance,
		Leverage:       calcLeverage,
		RiskPercent:    calcRisk,
		StopLossPips:   calcStopPips,
		ConversionRate: calcRate,
	})
	if err != nil {
		return err
	}

	r := res.Rounded()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Money at risk:            %.2f\n", r.MoneyAtRisk)
	fmt.Fprintf(out, "Risk respecting lot size: %.2f\n", r.RiskRespectingSize)
	fmt.Fprintf(out, "Max size (leverage):      %.2f\n", r.MaxSize)
	fmt.Fprintf(out, "Pip value:                %.2f\n", r.PipValue)
	fmt.Fprintf(out, "Trade size:               %.2f\n", res.TradeSize())
	return nil
}
