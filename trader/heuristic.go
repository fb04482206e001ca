package trader

import (
	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/market"
)

// IsWin counts a break-even trade as a win.
func IsWin(profit float64) bool {
	return profit >= 0
}

// NextDirection keeps the last direction after a win and reverses it after
// a loss.
func NextDirection(last broker.ClosedTrade) market.Direction {
	if IsWin(last.Profit) {
		return last.Direction
	}
	return last.Direction.Opposite()
}
