package market

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQuoteUnavailable is returned when no usable price exists for a symbol.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// QuoteProvider returns a current price for a currency pair.
type QuoteProvider interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// TickSource returns the current bid/ask for a symbol.
type TickSource interface {
	Tick(ctx context.Context, symbol string) (Tick, error)
}

type Tick struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (ps *TickStore) Set(t Tick) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.ticks[t.Symbol] = t
}

func (ps *TickStore) Get(symbol string) (Tick, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	t, ok := ps.ticks[symbol]
	if !ok {
		return Tick{}, ErrQuoteUnavailable
	}
	return t, nil
}
