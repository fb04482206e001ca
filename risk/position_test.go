package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_Scenario(t *testing.T) {
	t.Parallel()

	got, err := Calculate(Inputs{
		Balance:        10000,
		Leverage:       5,
		RiskPercent:    1,
		StopLossPips:   10,
		ConversionRate: 1,
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, got.MoneyAtRisk, 1e-9)
	assert.InDelta(t, 1.0, got.RiskRespectingSize, 1e-9)
	assert.InDelta(t, 10.0, got.PipValue, 1e-9)
	assert.InDelta(t, 0.5, got.MaxSize, 1e-9)
	assert.Equal(t, 0.5, got.TradeSize())
}

func TestCalculate_MaxSizeFormula(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		balance  float64
		leverage float64
		rate     float64
	}{
		{"eur account", 10000, 30, 1},
		{"converted", 2500, 5, 0.92},
		{"small", 150, 1, 1.27},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Calculate(Inputs{
				Balance:        tt.balance,
				Leverage:       tt.leverage,
				RiskPercent:    1,
				StopLossPips:   20,
				ConversionRate: tt.rate,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.balance*tt.leverage/(UnitsPerLot*tt.rate), got.MaxSize)
		})
	}
}

func TestCalculate_MoneyAtRiskIdentity(t *testing.T) {
	t.Parallel()

	for _, risk := range []float64{0.25, 1, 2.5, 100} {
		for _, pips := range []float64{0.1, 5, 37.5, 200} {
			for _, rate := range []float64{0.0067, 0.92, 1, 1.31} {
				in := Inputs{
					Balance:        12345.67,
					Leverage:       30,
					RiskPercent:    risk,
					StopLossPips:   pips,
					ConversionRate: rate,
				}
				got, err := Calculate(in)
				require.NoError(t, err)

				lhs := got.RiskRespectingSize * pips * PipValuePerLot * rate
				rhs := in.Balance * risk / 100
				assert.InDelta(t, rhs, lhs, 0.01)
			}
		}
	}
}

func TestTradeSize_NeverExceedsEitherBound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Inputs
	}{
		{"risk bound", Inputs{Balance: 10000, Leverage: 500, RiskPercent: 1, StopLossPips: 13, ConversionRate: 1}},
		{"margin bound", Inputs{Balance: 10000, Leverage: 1, RiskPercent: 100, StopLossPips: 1, ConversionRate: 1}},
		{"converted", Inputs{Balance: 7777, Leverage: 30, RiskPercent: 2, StopLossPips: 17, ConversionRate: 0.6789}},
		{"tiny", Inputs{Balance: 10, Leverage: 1, RiskPercent: 1, StopLossPips: 50, ConversionRate: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Calculate(tt.in)
			require.NoError(t, err)

			size := got.TradeSize()
			assert.LessOrEqual(t, size, got.MaxSize)
			assert.LessOrEqual(t, size, got.RiskRespectingSize)
			assert.GreaterOrEqual(t, size, 0.0)
		})
	}
}

func TestCalculate_Preconditions(t *testing.T) {
	t.Parallel()

	valid := Inputs{Balance: 1000, Leverage: 5, RiskPercent: 1, StopLossPips: 10, ConversionRate: 1}

	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"zero stop", func(in *Inputs) { in.StopLossPips = 0 }},
		{"negative stop", func(in *Inputs) { in.StopLossPips = -3 }},
		{"zero rate", func(in *Inputs) { in.ConversionRate = 0 }},
		{"negative rate", func(in *Inputs) { in.ConversionRate = -1 }},
		{"zero leverage", func(in *Inputs) { in.Leverage = 0 }},
		{"zero risk", func(in *Inputs) { in.RiskPercent = 0 }},
		{"risk over 100", func(in *Inputs) { in.RiskPercent = 100.5 }},
		{"zero balance", func(in *Inputs) { in.Balance = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := valid
			tt.mutate(&in)
			_, err := Calculate(in)
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestResultRounded(t *testing.T) {
	t.Parallel()

	r := Result{
		MaxSize:            1.23456,
		RiskRespectingSize: 0.666666,
		MoneyAtRisk:        99.995,
		PipValue:           6.66666,
	}.Rounded()

	assert.Equal(t, 1.23, r.MaxSize)
	assert.Equal(t, 0.67, r.RiskRespectingSize)
	assert.Equal(t, 100.0, r.MoneyAtRisk)
	assert.Equal(t, 6.67, r.PipValue)
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 3.0, RR(1.1000, 1.0990, 1.1030), 1e-9)
	assert.InDelta(t, 3.0, RR(150.00, 150.10, 149.70), 1e-9)
	assert.Equal(t, 0.0, RR(1, 1, 2))
	assert.InDelta(t, 10.0, StopDistancePips(1.1000, 1.0990, 0.0001), 1e-9)
}
