package trader

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Statistics are running totals over the closed trades the loop has seen.
// Record returns a new value; the receiver is not changed.
type Statistics struct {
	Profit decimal.Decimal
	Wins   int
	Losses int
}

func (s Statistics) Record(profit float64) Statistics {
	s.Profit = s.Profit.Add(decimal.NewFromFloat(profit))
	if IsWin(profit) {
		s.Wins++
	} else {
		s.Losses++
	}
	return s
}

func (s Statistics) Trades() int {
	return s.Wins + s.Losses
}

// WinRatio is the win percentage rounded to 2 places. ok is false before
// any trade completes.
func (s Statistics) WinRatio() (pct float64, ok bool) {
	if s.Trades() == 0 {
		return 0, false
	}
	r := decimal.NewFromInt(int64(s.Wins)).
		Div(decimal.NewFromInt(int64(s.Trades()))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	pct, _ = r.Float64()
	return pct, true
}

func (s Statistics) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("profit", s.Profit.StringFixed(2)),
		slog.Int("lost_trades", s.Losses),
		slog.Int("win_trades", s.Wins),
	}
	if pct, ok := s.WinRatio(); ok {
		attrs = append(attrs, slog.Float64("win_ratio_pct", pct))
	} else {
		attrs = append(attrs, slog.String("win_ratio_pct", "no trades completed"))
	}
	return slog.GroupValue(attrs...)
}
