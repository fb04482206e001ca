package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxflip/market"
)

// Config is the process-wide configuration. It is read once at startup.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Account   AccountConfig   `yaml:"account"`
	Broker    BrokerConfig    `yaml:"broker"`
	Quotes    QuotesConfig    `yaml:"quotes"`
	Log       LogConfig       `yaml:"log"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Ticket    TicketConfig    `yaml:"ticket"`
}

type BotConfig struct {
	Symbol         string        `yaml:"symbol"`
	StartDirection string        `yaml:"start_direction"` // LONG|SHORT
	StopLossPips   float64       `yaml:"stop_loss_pips"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	HistoryDays    int           `yaml:"history_days"`
	Pending        PendingConfig `yaml:"pending"`
}

// PendingConfig switches entries to stop-limit orders at a fixed price.
type PendingConfig struct {
	Enabled bool    `yaml:"enabled"`
	Price   float64 `yaml:"price"`
}

type AccountConfig struct {
	// BaseCurrency is the currency sizing converts into. Empty uses the
	// broker account's currency.
	BaseCurrency string  `yaml:"base_currency"`
	RiskPercent  float64 `yaml:"risk_percent"` // 1 = 1%
	Leverage     float64 `yaml:"leverage"`
}

type BrokerConfig struct {
	Kind        string        `yaml:"kind"` // paper|oanda
	Environment string        `yaml:"environment"`
	AccountID   string        `yaml:"account_id"`
	Token       string        `yaml:"token,omitempty"`
	AllowLive   bool          `yaml:"allow_live"`
	Timeout     time.Duration `yaml:"timeout"`
	Paper       PaperConfig   `yaml:"paper"`
}

type PaperConfig struct {
	Balance  float64 `yaml:"balance"`
	Currency string  `yaml:"currency"`
}

type QuotesConfig struct {
	Provider string             `yaml:"provider"` // yahoo|broker|static
	Proxy    string             `yaml:"proxy,omitempty"`
	Timeout  time.Duration      `yaml:"timeout"`
	Static   map[string]float64 `yaml:"static,omitempty"`
}

type LogConfig struct {
	Dir    string `yaml:"dir"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JournalConfig struct {
	Type string `yaml:"type"` // none|csv|sqlite
	Path string `yaml:"path,omitempty"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	Environment  string `yaml:"environment"`
}

type TicketConfig struct {
	Addr    string   `yaml:"addr"`
	Symbols []string `yaml:"symbols"`
}

func Default() *Config {
	return &Config{
		Bot: BotConfig{
			Symbol:         "EURUSD",
			StartDirection: "SHORT",
			StopLossPips:   10,
			PollInterval:   10 * time.Second,
			HistoryDays:    2,
		},
		Account: AccountConfig{
			BaseCurrency: "EUR",
			RiskPercent:  1,
			Leverage:     5,
		},
		Broker: BrokerConfig{
			Kind:        "paper",
			Environment: "practice",
			Timeout:     15 * time.Second,
			Paper: PaperConfig{
				Balance:  10000,
				Currency: "EUR",
			},
		},
		Quotes: QuotesConfig{
			Provider: "yahoo",
			Timeout:  15 * time.Second,
		},
		Log: LogConfig{
			Dir:    "logs",
			Level:  "debug",
			Format: "text",
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Telemetry: TelemetryConfig{
			Environment: "dev",
		},
		Ticket: TicketConfig{
			Addr:    ":8080",
			Symbols: market.InstrumentNames(),
		},
	}
}

// Load reads envFile (if it exists), overlays path on the defaults, applies
// environment overrides and validates. path may be empty.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("OANDA_TOKEN", &c.Broker.Token)
	set("OANDA_ACCOUNT_ID", &c.Broker.AccountID)
	set("TRADER_SYMBOL", &c.Bot.Symbol)
	set("TRADER_START_DIRECTION", &c.Bot.StartDirection)
	set("HTTPS_PROXY", &c.Quotes.Proxy)
	set("TRADER_LOG_DIR", &c.Log.Dir)
}

// Normalize canonicalizes symbols and currency codes in place.
func (c *Config) Normalize() error {
	sym, err := market.NormalizeSymbol(c.Bot.Symbol)
	if err != nil {
		return fmt.Errorf("bot.symbol: %w", err)
	}
	c.Bot.Symbol = sym

	for i, s := range c.Ticket.Symbols {
		sym, err := market.NormalizeSymbol(s)
		if err != nil {
			return fmt.Errorf("ticket.symbols[%d]: %w", i, err)
		}
		c.Ticket.Symbols[i] = sym
	}

	c.Account.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.Account.BaseCurrency))
	c.Broker.Paper.Currency = strings.ToUpper(strings.TrimSpace(c.Broker.Paper.Currency))
	c.Bot.StartDirection = strings.ToUpper(strings.TrimSpace(c.Bot.StartDirection))

	static := make(map[string]float64, len(c.Quotes.Static))
	for k, v := range c.Quotes.Static {
		sym, err := market.NormalizeSymbol(k)
		if err != nil {
			return fmt.Errorf("quotes.static[%s]: %w", k, err)
		}
		static[sym] = v
	}
	c.Quotes.Static = static
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Bot.StartDirection {
	case "LONG", "SHORT":
	default:
		return fmt.Errorf("bot.start_direction must be LONG or SHORT (got %q)", c.Bot.StartDirection)
	}
	if c.Bot.StopLossPips <= 0 {
		return fmt.Errorf("bot.stop_loss_pips must be positive")
	}
	if c.Bot.PollInterval < time.Second {
		return fmt.Errorf("bot.poll_interval must be at least 1s")
	}
	if c.Bot.HistoryDays <= 0 {
		return fmt.Errorf("bot.history_days must be positive")
	}
	if c.Bot.Pending.Enabled && c.Bot.Pending.Price <= 0 {
		return fmt.Errorf("bot.pending.price must be positive when pending is enabled")
	}

	if c.Account.BaseCurrency != "" && len(c.Account.BaseCurrency) != 3 {
		return fmt.Errorf("account.base_currency must be a 3 letter code")
	}
	if c.Account.RiskPercent <= 0 || c.Account.RiskPercent > 100 {
		return fmt.Errorf("account.risk_percent must be between 0 and 100")
	}
	if c.Account.Leverage <= 0 {
		return fmt.Errorf("account.leverage must be positive")
	}

	switch c.Broker.Kind {
	case "paper":
		if c.Broker.Paper.Balance <= 0 {
			return fmt.Errorf("broker.paper.balance must be positive")
		}
		if len(c.Broker.Paper.Currency) != 3 {
			return fmt.Errorf("broker.paper.currency must be a 3 letter code")
		}
	case "oanda":
		if c.Broker.Token == "" {
			return fmt.Errorf("broker.token (or OANDA_TOKEN) is required for oanda")
		}
		if c.Broker.AccountID == "" {
			return fmt.Errorf("broker.account_id (or OANDA_ACCOUNT_ID) is required for oanda")
		}
	default:
		return fmt.Errorf("broker.kind must be 'paper' or 'oanda'")
	}

	switch c.Quotes.Provider {
	case "yahoo", "broker":
	case "static":
		if len(c.Quotes.Static) == 0 {
			return fmt.Errorf("quotes.static prices required for static provider")
		}
	default:
		return fmt.Errorf("quotes.provider must be 'yahoo', 'broker' or 'static'")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s type", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if len(c.Ticket.Symbols) == 0 {
		return fmt.Errorf("ticket.symbols must not be empty")
	}
	return nil
}

// SaveToFile writes the configuration as YAML. The broker token is never
// written.
func (c *Config) SaveToFile(path string) error {
	out := *c
	out.Broker.Token = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
