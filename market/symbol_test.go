package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"EURUSD", "EURUSD", false},
		{"eur/usd", "EURUSD", false},
		{"EUR_USD", "EURUSD", false},
		{"USDEUR=X", "USDEUR", false},
		{" gbpjpy ", "GBPJPY", false},
		{"EURUS", "", true},
		{"EUR1SD", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeSymbol(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   float64
	}{
		{"USDJPY", 0.01},
		{"EURUSD", 0.0001},
		{"GBPJPY", 0.01},
		{"EURJPY", 0.01}, // not in the table, resolved by the yen rule
		{"EURNOK", 0.0001},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PipSize(tt.symbol))
		})
	}
}

func TestPointAndDecimals(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.00001, Point("EURUSD"), 1e-15)
	assert.InDelta(t, 0.001, Point("USDJPY"), 1e-15)
	assert.Equal(t, 5, PriceDecimals("EURUSD"))
	assert.Equal(t, 3, PriceDecimals("USDJPY"))
}

func TestCurrencies(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "USD", BaseCurrency("USDJPY"))
	assert.Equal(t, "JPY", QuoteCurrency("USDJPY"))
	assert.Equal(t, "", BaseCurrency("US"))
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"LONG", Buy, false},
		{"short", Sell, false},
		{"BUY", Buy, false},
		{"sell", Sell, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, -1.0, Sell.Sign())
	assert.Equal(t, "Long", Buy.Label())
}

func TestInstrumentNamesSorted(t *testing.T) {
	t.Parallel()

	names := InstrumentNames()
	require.Len(t, names, len(Instruments))
	assert.Equal(t, "AUDJPY", names[0])
	assert.Equal(t, "USDJPY", names[len(names)-1])
}
