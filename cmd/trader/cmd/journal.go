package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxflip/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite audit journal",
	Long: `Query order and trade records written by the loop, the ticket and the
trade command.

Subcommands:
  order  - Show one order by ID
  orders - List orders submitted in a window
  trades - List closed trades in a window with totals

Examples:
  trader journal orders --days 1
  trader journal trades --db ./fxflip.sqlite --days 7`,
}

var journalOrderCmd = &cobra.Command{
	Use:   "order <id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrder,
}

var journalOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders",
	Args:  cobra.NoArgs,
	RunE:  runJournalOrders,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List closed trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrades,
}

var (
	journalDBPath string
	journalDays   int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalOrderCmd)
	journalCmd.AddCommand(journalOrdersCmd)
	journalCmd.AddCommand(journalTradesCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (defaults to journal.path)")
	journalCmd.PersistentFlags().IntVar(&journalDays, "days", 1, "look back this many days")
}

func openJournal() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		if cfg.Journal.Type != "sqlite" {
			return nil, fmt.Errorf("journal.type is %q; pass --db to read a SQLite journal", cfg.Journal.Type)
		}
		path = cfg.Journal.Path
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func window() (time.Time, time.Time) {
	end := time.Now().UTC()
	return end.AddDate(0, 0, -journalDays), end
}

func runJournalOrder(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	o, err := j.GetOrder(args[0])
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	printOrder(cmd, o)
	return nil
}

func runJournalOrders(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end := window()
	orders, err := j.ListOrdersBetween(start, end)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No orders found.")
		return nil
	}
	for _, o := range orders {
		printOrder(cmd, o)
	}
	return nil
}

func printOrder(cmd *cobra.Command, o journal.OrderRecord) {
	status := "Failed"
	if o.Success {
		status = "Success"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-6s %-4s %-24s %.2f @ %.5f  SL %.5f  TP %.5f  %s (%s)\n",
		o.Time.Format(time.RFC3339), o.ID, o.Symbol, o.Direction, o.Kind,
		o.Size, o.Entry, o.StopLoss, o.TakeProfit, status, o.Comment)
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end := window()
	trades, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, t := range trades {
		fmt.Fprintf(out, "%s  %s  %-6s %-4s %.2f lots  %+.2f\n",
			t.CloseTime.Format(time.RFC3339), t.TradeID, t.Symbol, t.Direction, t.Size, t.Profit)
	}

	s := journal.Summarize(trades)
	if s.Trades == 0 {
		fmt.Fprintln(out, "No trades completed")
		return nil
	}
	fmt.Fprintf(out, "\nProfit: %.2f  Lost trades: %d  Win trades: %d  Win Ratio: %.2f%%\n",
		s.Net, s.Losses, s.Wins, s.WinRatio()*100)
	return nil
}
