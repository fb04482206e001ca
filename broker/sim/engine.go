package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/fxflip/broker"
	"github.com/rustyeddy/fxflip/internal/id"
	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
	"github.com/rustyeddy/fxflip/risk"
)

// Broker comments for requests the engine refuses.
const (
	CommentNoMoney      = "No money"
	CommentNoPrices     = "No prices"
	CommentInvalidPrice = "Invalid price"
	CommentInvalid      = "Invalid request"
	CommentRequote      = "Requote"
)

var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeAlreadyClosed = errors.New("trade already closed")
)

var _ broker.Gateway = (*Engine)(nil)

type Config struct {
	Balance  float64
	Currency string
	Leverage float64

	// Prices, when set, feeds ticks for symbols the engine is asked about,
	// so a paper account can follow a live quote source.
	Prices market.QuoteProvider

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Engine is an in-memory paper broker. Market orders fill against the last
// tick, pending stop entries rest until the tick crosses them and open
// trades close on their stop loss or take profit.
type Engine struct {
	mu       sync.Mutex
	acct     broker.Account
	leverage float64
	ticks    *market.TickStore
	prices   market.QuoteProvider
	clock    func() time.Time

	trades  map[string]*Trade
	pending map[string]*resting
	closed  []broker.ClosedTrade

	rejectNext string
}

func NewEngine(cfg Config) *Engine {
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if cfg.Leverage <= 0 {
		cfg.Leverage = 30
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{
		acct: broker.Account{
			ID:         "paper",
			Currency:   cfg.Currency,
			Balance:    cfg.Balance,
			FreeMargin: cfg.Balance,
		},
		leverage: cfg.Leverage,
		ticks:    market.NewTickStore(),
		prices:   cfg.Prices,
		clock:    cfg.Clock,
		trades:   make(map[string]*Trade),
		pending:  make(map[string]*resting),
	}
}

func (e *Engine) Account(ctx context.Context) (broker.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct, nil
}

// Ticks exposes the engine's price store.
func (e *Engine) Ticks() *market.TickStore {
	return e.ticks
}

func (e *Engine) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	if err := e.refresh(ctx, symbol); err != nil {
		return market.Tick{}, err
	}
	t, err := e.ticks.Get(symbol)
	if err != nil {
		return market.Tick{}, fmt.Errorf("tick %s: %w", symbol, err)
	}
	return t, nil
}

// refresh pulls a fresh price from the configured source, if any, and runs
// it through UpdatePrice so triggers fire.
func (e *Engine) refresh(ctx context.Context, symbol string) error {
	if e.prices == nil {
		return nil
	}
	p, err := e.prices.Price(ctx, symbol)
	if err != nil {
		return fmt.Errorf("tick %s: %w", symbol, err)
	}
	return e.UpdatePrice(market.Tick{Symbol: symbol, Time: e.clock(), Bid: p, Ask: p})
}

// HasOpenPosition counts open trades and resting entries for symbol.
func (e *Engine) HasOpenPosition(ctx context.Context, symbol string) (bool, error) {
	if err := e.refresh(ctx, symbol); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.trades {
		if t.Open && t.Symbol == symbol {
			return true, nil
		}
	}
	for _, r := range e.pending {
		if r.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) LastClosedTrade(ctx context.Context, symbol string, since time.Time) (broker.ClosedTrade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return broker.MostRecent(e.closed, symbol, since)
}

// RejectNext makes the next submission fail with comment.
func (e *Engine) RejectNext(comment string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejectNext = comment
}

func (e *Engine) SubmitOrder(ctx context.Context, plan order.Plan) (broker.SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orderID := id.NewAt(e.clock())

	if e.rejectNext != "" {
		c := e.rejectNext
		e.rejectNext = ""
		return broker.NewResult(orderID, c), nil
	}
	if err := plan.Validate(); err != nil {
		return broker.NewResult(orderID, CommentInvalid), nil
	}

	tick, err := e.ticks.Get(plan.Symbol)
	if err != nil {
		return broker.NewResult(orderID, CommentNoPrices), nil
	}

	required, err := e.marginForLocked(plan.Symbol, plan.Size*risk.UnitsPerLot)
	if err != nil {
		return broker.NewResult(orderID, CommentNoPrices), nil
	}
	if required > e.acct.FreeMargin {
		return broker.NewResult(orderID, CommentNoMoney), nil
	}

	if plan.Kind.Pending() {
		if plan.Direction == market.Buy && plan.Entry <= tick.Ask ||
			plan.Direction == market.Sell && plan.Entry >= tick.Bid {
			return broker.NewResult(orderID, CommentInvalidPrice), nil
		}
		e.pending[orderID] = &resting{
			ID:         orderID,
			Symbol:     plan.Symbol,
			Direction:  plan.Direction,
			Size:       plan.Size,
			Trigger:    plan.Entry,
			Fill:       plan.StopLimit,
			StopLoss:   plan.StopLoss,
			TakeProfit: plan.TakeProfit,
			Placed:     e.clock(),
		}
		return broker.NewResult(orderID, broker.StatusExecuted), nil
	}

	fill := tick.Ask
	if plan.Direction == market.Sell {
		fill = tick.Bid
	}
	slip := float64(plan.Deviation) * market.Point(plan.Symbol)
	if math.Abs(fill-plan.Entry) > slip+1e-12 {
		return broker.NewResult(orderID, CommentRequote), nil
	}

	e.openLocked(orderID, plan.Symbol, plan.Direction, plan.Size, fill, plan.StopLoss, plan.TakeProfit, tickTime(tick, e.clock))
	if err := e.recomputeLocked(); err != nil {
		return broker.SubmitResult{}, err
	}
	return broker.NewResult(orderID, broker.StatusExecuted), nil
}

func tickTime(t market.Tick, clock func() time.Time) time.Time {
	if t.Time.IsZero() {
		return clock()
	}
	return t.Time
}

func (e *Engine) openLocked(tradeID, symbol string, dir market.Direction, size, price, sl, tp float64, at time.Time) {
	e.trades[tradeID] = &Trade{
		ID:         tradeID,
		Symbol:     symbol,
		Direction:  dir,
		Size:       size,
		EntryPrice: price,
		StopLoss:   sl,
		TakeProfit: tp,
		OpenTime:   at,
		Open:       true,
	}
}

// UpdatePrice stores a tick, fills resting entries it crosses and closes
// trades whose stop loss or take profit it reaches.
func (e *Engine) UpdatePrice(tick market.Tick) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticks.Set(tick)
	at := tickTime(tick, e.clock)

	for _, rid := range sortedKeys(e.pending) {
		r := e.pending[rid]
		if r.Symbol != tick.Symbol || !r.triggered(tick) {
			continue
		}
		delete(e.pending, rid)
		e.openLocked(r.ID, r.Symbol, r.Direction, r.Size, r.Fill, r.StopLoss, r.TakeProfit, at)
	}

	for _, tid := range sortedKeys(e.trades) {
		t := e.trades[tid]
		if !t.Open || t.Symbol != tick.Symbol {
			continue
		}

		mark := t.mark(tick)
		switch {
		case t.hitStopLoss(mark):
			if err := e.closeLocked(t, t.StopLoss, at, "StopLoss"); err != nil {
				return err
			}
		case t.hitTakeProfit(mark):
			if err := e.closeLocked(t, t.TakeProfit, at, "TakeProfit"); err != nil {
				return err
			}
		}
	}

	return e.recomputeLocked()
}

// CloseTrade closes an open trade at the current market price.
func (e *Engine) CloseTrade(ctx context.Context, tradeID, reason string) error {
	if reason == "" {
		reason = "ManualClose"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.trades[tradeID]
	if !ok {
		return fmt.Errorf("close trade: %w: %q", ErrTradeNotFound, tradeID)
	}
	if !t.Open {
		return fmt.Errorf("close trade: %w: %q", ErrTradeAlreadyClosed, tradeID)
	}

	tick, err := e.ticks.Get(t.Symbol)
	if err != nil {
		return fmt.Errorf("close trade: no price for %q: %w", t.Symbol, err)
	}
	if err := e.closeLocked(t, t.mark(tick), tickTime(tick, e.clock), reason); err != nil {
		return err
	}
	return e.recomputeLocked()
}

// OpenTrades lists open trades ordered by id.
func (e *Engine) OpenTrades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Trade, 0, len(e.trades))
	for _, tid := range sortedKeys(e.trades) {
		if t := e.trades[tid]; t.Open {
			out = append(out, *t)
		}
	}
	return out
}

func (e *Engine) closeLocked(t *Trade, price float64, at time.Time, reason string) error {
	rate, err := e.toAccountLocked(market.QuoteCurrency(t.Symbol))
	if err != nil {
		return fmt.Errorf("close %s: %w", t.ID, err)
	}

	pl := t.UnrealizedPL(price, rate)
	t.ClosePrice = price
	t.CloseTime = at
	t.RealizedPL = pl
	t.Reason = reason
	t.Open = false

	e.acct.Balance += pl
	e.closed = append(e.closed, broker.ClosedTrade{
		ID:        t.ID,
		Symbol:    t.Symbol,
		Direction: t.Direction,
		Size:      t.Size,
		Profit:    pl,
		Time:      at,
	})
	return nil
}

// recomputeLocked refreshes margin figures. Free margin is equity minus the
// margin in use, so a flat account reports free margin equal to balance.
func (e *Engine) recomputeLocked() error {
	equity := e.acct.Balance
	var used float64

	for _, t := range e.trades {
		if !t.Open {
			continue
		}
		tick, err := e.ticks.Get(t.Symbol)
		if err != nil {
			return err
		}
		rate, err := e.toAccountLocked(market.QuoteCurrency(t.Symbol))
		if err != nil {
			return err
		}
		equity += t.UnrealizedPL(t.mark(tick), rate)

		m, err := e.marginForLocked(t.Symbol, t.Units())
		if err != nil {
			return err
		}
		used += m
	}

	e.acct.MarginUsed = used
	e.acct.FreeMargin = equity - used
	return nil
}

func (e *Engine) marginForLocked(symbol string, units float64) (float64, error) {
	rate, err := e.toAccountLocked(market.BaseCurrency(symbol))
	if err != nil {
		return 0, err
	}
	return TradeMargin(units, rate, e.leverage), nil
}

// toAccountLocked prices one unit of ccy in account currency from the
// direct or inverse pair in the tick store.
func (e *Engine) toAccountLocked(ccy string) (float64, error) {
	acct := e.acct.Currency
	if ccy == acct {
		return 1, nil
	}
	if t, err := e.ticks.Get(ccy + acct); err == nil && t.Mid() > 0 {
		return t.Mid(), nil
	}
	if t, err := e.ticks.Get(acct + ccy); err == nil && t.Mid() > 0 {
		return 1 / t.Mid(), nil
	}
	if e.prices != nil {
		// conversion pairs are fetched once and then kept
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if p, err := e.prices.Price(ctx, ccy+acct); err == nil && p > 0 {
			e.ticks.Set(market.Tick{Symbol: ccy + acct, Time: e.clock(), Bid: p, Ask: p})
			return p, nil
		}
		if p, err := e.prices.Price(ctx, acct+ccy); err == nil && p > 0 {
			e.ticks.Set(market.Tick{Symbol: acct + ccy, Time: e.clock(), Bid: p, Ask: p})
			return 1 / p, nil
		}
	}
	return 0, fmt.Errorf("%s to %s: %w", ccy, acct, market.ErrQuoteUnavailable)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
