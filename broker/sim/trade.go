package sim

import (
	"time"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/risk"
)

type Trade struct {
	ID         string
	Symbol     string
	Direction  market.Direction
	Size       float64 // lots
	EntryPrice float64
	OpenTime   time.Time

	StopLoss   float64
	TakeProfit float64

	// Realized
	ClosePrice float64
	CloseTime  time.Time
	RealizedPL float64 // account currency
	Reason     string
	Open       bool
}

// Units is the signed position in base currency.
func (t *Trade) Units() float64 {
	return t.Size * risk.UnitsPerLot * t.Direction.Sign()
}

// mark is the price the trade would close at: bid for longs, ask for shorts.
func (t *Trade) mark(tick market.Tick) float64 {
	if t.Direction == market.Sell {
		return tick.Ask
	}
	return tick.Bid
}

func (t *Trade) hitStopLoss(price float64) bool {
	if t.StopLoss == 0 {
		return false
	}
	if t.Direction == market.Buy {
		return price <= t.StopLoss
	}
	return price >= t.StopLoss
}

func (t *Trade) hitTakeProfit(price float64) bool {
	if t.TakeProfit == 0 {
		return false
	}
	if t.Direction == market.Buy {
		return price >= t.TakeProfit
	}
	return price <= t.TakeProfit
}

// UnrealizedPL is the open profit in account currency.
func (t *Trade) UnrealizedPL(price, quoteToAccount float64) float64 {
	plQuote := t.Units() * (price - t.EntryPrice)
	return plQuote * quoteToAccount
}

// TradeMargin is the margin a position ties up in account currency.
func TradeMargin(units, baseToAccount, leverage float64) float64 {
	if units < 0 {
		units = -units
	}
	if leverage <= 0 {
		leverage = 1
	}
	return units * baseToAccount / leverage
}

// resting is an untriggered pending entry.
type resting struct {
	ID         string
	Symbol     string
	Direction  market.Direction
	Size       float64
	Trigger    float64
	Fill       float64
	StopLoss   float64
	TakeProfit float64
	Placed     time.Time
}

func (r *resting) triggered(tick market.Tick) bool {
	if r.Direction == market.Buy {
		return tick.Ask >= r.Trigger
	}
	return tick.Bid <= r.Trigger
}
