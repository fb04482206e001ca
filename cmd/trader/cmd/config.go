package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxflip/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate, show or validate configuration",
	Long: `Manage the trader configuration.

Subcommands:
  init     - Generate a default configuration file
  show     - Print the effective configuration (file, .env and environment)
  validate - Validate a configuration file

Examples:
  trader config init -o fxflip.yaml
  trader config show -c fxflip.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "fxflip.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  trader run -c %s\n", configInitOutput)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := *cfg
	if out.Broker.Token != "" {
		out.Broker.Token = "********"
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgPath)
	fmt.Printf("  Bot: %s start %s, stop %.1f pips, poll %s\n",
		cfg.Bot.Symbol, cfg.Bot.StartDirection, cfg.Bot.StopLossPips, cfg.Bot.PollInterval)
	fmt.Printf("  Account: risk %.2f%%, leverage %.0f\n", cfg.Account.RiskPercent, cfg.Account.Leverage)
	fmt.Printf("  Broker: %s  Quotes: %s  Journal: %s\n", cfg.Broker.Kind, cfg.Quotes.Provider, cfg.Journal.Type)
	return nil
}
