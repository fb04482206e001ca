package trader

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxflip/config"
	"github.com/rustyeddy/fxflip/market"
)

// Settings are the loop's fixed inputs, copied out of the config at
// startup.
type Settings struct {
	Symbol         string
	StartDirection market.Direction
	StopLossPips   float64
	PollInterval   time.Duration
	HistoryDays    int

	// PendingPrice, when set, enters with stop-limit orders at that price.
	PendingPrice *float64
}

func (s Settings) pendingPrice() *float64 {
	if s.PendingPrice == nil {
		return nil
	}
	p := *s.PendingPrice
	return &p
}

func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	dir, err := market.ParseDirection(cfg.Bot.StartDirection)
	if err != nil {
		return Settings{}, fmt.Errorf("bot.start_direction: %w", err)
	}
	sym, err := market.NormalizeSymbol(cfg.Bot.Symbol)
	if err != nil {
		return Settings{}, fmt.Errorf("bot.symbol: %w", err)
	}

	s := Settings{
		Symbol:         sym,
		StartDirection: dir,
		StopLossPips:   cfg.Bot.StopLossPips,
		PollInterval:   cfg.Bot.PollInterval,
		HistoryDays:    cfg.Bot.HistoryDays,
	}
	if cfg.Bot.Pending.Enabled {
		p := cfg.Bot.Pending.Price
		s.PendingPrice = &p
	}
	return s, nil
}

// Sizing holds the account-level inputs to position sizing.
type Sizing struct {
	// BaseCurrency overrides the broker account currency for conversion.
	BaseCurrency string
	RiskPercent  float64
	Leverage     float64
}

func SizingFromConfig(cfg *config.Config) Sizing {
	return Sizing{
		BaseCurrency: cfg.Account.BaseCurrency,
		RiskPercent:  cfg.Account.RiskPercent,
		Leverage:     cfg.Account.Leverage,
	}
}
