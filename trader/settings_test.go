package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxflip/config"
	"github.com/rustyeddy/fxflip/market"
)

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s, err := SettingsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", s.Symbol)
	assert.Equal(t, market.Sell, s.StartDirection)
	assert.Equal(t, 10.0, s.StopLossPips)
	assert.Equal(t, 2, s.HistoryDays)
	assert.Nil(t, s.PendingPrice)

	cfg.Bot.StartDirection = "LONG"
	cfg.Bot.Pending.Enabled = true
	cfg.Bot.Pending.Price = 1.08726
	s, err = SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, market.Buy, s.StartDirection)
	require.NotNil(t, s.PendingPrice)
	assert.Equal(t, 1.08726, *s.PendingPrice)

	// callers get their own copy of the pending price
	p := s.pendingPrice()
	*p = 2
	assert.Equal(t, 1.08726, *s.PendingPrice)

	sz := SizingFromConfig(cfg)
	assert.Equal(t, "EUR", sz.BaseCurrency)
	assert.Equal(t, 1.0, sz.RiskPercent)
	assert.Equal(t, 5.0, sz.Leverage)
}

func TestSettingsFromConfig_BadDirection(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Bot.StartDirection = "FLAT"
	_, err := SettingsFromConfig(cfg)
	assert.Error(t, err)
}
