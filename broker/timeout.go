package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fxflip/market"
	"github.com/rustyeddy/fxflip/order"
)

const DefaultTimeout = 15 * time.Second

type timeoutGateway struct {
	next Gateway
	d    time.Duration
}

// WithTimeout bounds every call on g. A submission that runs out of time is
// reported as ErrOrderRejected.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutGateway{next: g, d: d}
}

func (g *timeoutGateway) Account(ctx context.Context) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.Account(ctx)
}

func (g *timeoutGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	t, err := g.next.Tick(ctx, symbol)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return market.Tick{}, fmt.Errorf("tick %s: %w: %v", symbol, market.ErrQuoteUnavailable, err)
	}
	return t, err
}

func (g *timeoutGateway) HasOpenPosition(ctx context.Context, symbol string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.HasOpenPosition(ctx, symbol)
}

func (g *timeoutGateway) LastClosedTrade(ctx context.Context, symbol string, since time.Time) (ClosedTrade, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.LastClosedTrade(ctx, symbol, since)
}

func (g *timeoutGateway) SubmitOrder(ctx context.Context, plan order.Plan) (SubmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	res, err := g.next.SubmitOrder(ctx, plan)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrOrderRejected) {
		return SubmitResult{}, fmt.Errorf("submit %s: %w: %v", plan.Symbol, ErrOrderRejected, err)
	}
	return res, err
}
