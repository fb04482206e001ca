package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/fxflip/market"
)

// Static serves fixed prices, for offline use and tests.
type Static map[string]float64

func (s Static) Price(ctx context.Context, symbol string) (float64, error) {
	if p, ok := s[symbol]; ok && p > 0 {
		return p, nil
	}
	return 0, fmt.Errorf("static %s: %w", symbol, market.ErrQuoteUnavailable)
}

// Chain asks each provider in turn and returns the first price.
type Chain []market.QuoteProvider

func (c Chain) Price(ctx context.Context, symbol string) (float64, error) {
	var errs []error
	for _, p := range c {
		price, err := p.Price(ctx, symbol)
		if err == nil {
			return price, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return 0, fmt.Errorf("no providers for %s: %w", symbol, market.ErrQuoteUnavailable)
	}
	return 0, errors.Join(errs...)
}
