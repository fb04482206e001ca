package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/fxflip/market"
)

// FromBroker prices symbols from a broker's bid/ask feed. Pairs the broker
// does not list are priced from their inverse, so USDEUR resolves through
// EURUSD.
type FromBroker struct {
	Ticks market.TickSource
}

func (b FromBroker) Price(ctx context.Context, symbol string) (float64, error) {
	p, err := b.mid(ctx, symbol)
	if err == nil {
		return p, nil
	}

	inverse := market.QuoteCurrency(symbol) + market.BaseCurrency(symbol)
	if len(inverse) != 6 {
		return 0, err
	}
	ip, ierr := b.mid(ctx, inverse)
	if ierr != nil {
		return 0, fmt.Errorf("broker %s: %w", symbol, errors.Join(err, ierr))
	}
	return 1 / ip, nil
}

func (b FromBroker) mid(ctx context.Context, symbol string) (float64, error) {
	t, err := b.Ticks.Tick(ctx, symbol)
	if err != nil {
		if errors.Is(err, market.ErrQuoteUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("broker %s: %w: %v", symbol, market.ErrQuoteUnavailable, err)
	}
	if m := t.Mid(); m > 0 {
		return m, nil
	}
	return 0, fmt.Errorf("broker %s: %w", symbol, market.ErrQuoteUnavailable)
}
