package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fxflip/market"
)

const DefaultTimeout = 15 * time.Second

type timeoutProvider struct {
	next market.QuoteProvider
	d    time.Duration
}

// WithTimeout bounds each lookup on p. A lookup that runs out of time is
// reported as market.ErrQuoteUnavailable.
func WithTimeout(p market.QuoteProvider, d time.Duration) market.QuoteProvider {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutProvider{next: p, d: d}
}

func (t *timeoutProvider) Price(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	p, err := t.next.Price(ctx, symbol)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, market.ErrQuoteUnavailable) {
		return 0, fmt.Errorf("quote %s: %w: %v", symbol, market.ErrQuoteUnavailable, err)
	}
	return p, err
}
