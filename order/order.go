package order

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/risk"
)

type Kind string

const (
	MarketBuy            Kind = "market-buy"
	MarketSell           Kind = "market-sell"
	PendingStopLimitBuy  Kind = "pending-stop-limit-buy"
	PendingStopLimitSell Kind = "pending-stop-limit-sell"
)

func (k Kind) Pending() bool {
	return k == PendingStopLimitBuy || k == PendingStopLimitSell
}

func kindFor(d market.Direction, pending bool) Kind {
	switch {
	case pending && d == market.Sell:
		return PendingStopLimitSell
	case pending:
		return PendingStopLimitBuy
	case d == market.Sell:
		return MarketSell
	default:
		return MarketBuy
	}
}

const (
	// Deviation is the accepted slippage in points (pip/10).
	Deviation = 20

	RewardRiskRatio = 3.0

	Comment = "fxflip entry"
)

type Params struct {
	Symbol       string
	Direction    market.Direction
	Size         float64 // lots
	StopLossPips float64
	PipSize      float64
	Ask          float64

	// PendingPrice turns the entry into a stop-limit order at that price.
	PendingPrice *float64
}

// Plan is a fully derived order. It is built once by Derive and handed to
// a gateway unchanged.
type Plan struct {
	Kind       Kind
	Symbol     string
	Direction  market.Direction
	Size       float64
	Entry      float64
	StopLimit  float64 // set for pending kinds, equal to Entry
	StopLoss   float64
	TakeProfit float64
	Deviation  int
	Comment    string
}

// Derive computes entry, stop loss and take profit for an entry request.
// The take profit distance is always RewardRiskRatio times the stop distance.
func Derive(p Params) (Plan, error) {
	if !p.Direction.Valid() {
		return Plan{}, fmt.Errorf("%w: direction %q", risk.ErrPrecondition, p.Direction)
	}
	if p.Size <= 0 {
		return Plan{}, fmt.Errorf("%w: size must be > 0 (got %v)", risk.ErrPrecondition, p.Size)
	}
	if p.StopLossPips <= 0 {
		return Plan{}, fmt.Errorf("%w: stop loss pips must be > 0 (got %v)", risk.ErrPrecondition, p.StopLossPips)
	}
	if p.PipSize <= 0 {
		return Plan{}, fmt.Errorf("%w: pip size must be > 0 (got %v)", risk.ErrPrecondition, p.PipSize)
	}

	entry := p.Ask
	if p.PendingPrice != nil {
		entry = *p.PendingPrice
	}
	if entry <= 0 {
		return Plan{}, fmt.Errorf("%w: entry price must be > 0 (got %v)", risk.ErrPrecondition, entry)
	}

	slDist := p.StopLossPips * p.PipSize
	tpDist := slDist * RewardRiskRatio
	sign := p.Direction.Sign()

	plan := Plan{
		Kind:       kindFor(p.Direction, p.PendingPrice != nil),
		Symbol:     p.Symbol,
		Direction:  p.Direction,
		Size:       p.Size,
		Entry:      entry,
		StopLoss:   entry - sign*slDist,
		TakeProfit: entry + sign*tpDist,
		Deviation:  Deviation,
		Comment:    Comment,
	}
	if plan.Kind.Pending() {
		plan.StopLimit = entry
	}
	if plan.TakeProfit <= 0 {
		return Plan{}, fmt.Errorf("%w: take profit %v not positive; stop too wide for entry %v",
			risk.ErrPrecondition, plan.TakeProfit, entry)
	}
	return plan, nil
}

// Validate re-checks price ordering and the reward:risk ratio.
func (p Plan) Validate() error {
	switch p.Direction {
	case market.Buy:
		if !(p.StopLoss < p.Entry && p.Entry < p.TakeProfit) {
			return fmt.Errorf("buy plan must have SL < entry < TP (sl=%v entry=%v tp=%v)", p.StopLoss, p.Entry, p.TakeProfit)
		}
	case market.Sell:
		if !(p.TakeProfit < p.Entry && p.Entry < p.StopLoss) {
			return fmt.Errorf("sell plan must have TP < entry < SL (tp=%v entry=%v sl=%v)", p.TakeProfit, p.Entry, p.StopLoss)
		}
	default:
		return fmt.Errorf("unknown direction %q", p.Direction)
	}
	if p.Size <= 0 {
		return fmt.Errorf("size must be > 0 (got %v)", p.Size)
	}

	sl := math.Abs(p.Entry - p.StopLoss)
	tp := math.Abs(p.TakeProfit - p.Entry)
	if math.Abs(tp-RewardRiskRatio*sl) > 1e-9*math.Max(1, p.Entry) {
		return fmt.Errorf("take profit distance %v is not %.0fx stop distance %v", tp, RewardRiskRatio, sl)
	}
	if p.Kind.Pending() && p.StopLimit != p.Entry {
		return fmt.Errorf("pending plan stop-limit %v must equal entry %v", p.StopLimit, p.Entry)
	}
	return nil
}

// PendingSize is the lot size used for pending entries: one lot step less
// than the sized lot.
func PendingSize(size float64) (float64, error) {
	shaved, _ := decimal.NewFromFloat(size).Sub(decimal.NewFromFloat(risk.LotStep)).Round(2).Float64()
	if shaved <= 0 {
		return 0, fmt.Errorf("%w: pending size %v leaves nothing to trade", risk.ErrPrecondition, size)
	}
	return shaved, nil
}
