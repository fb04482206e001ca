package market

import (
	"context"
	"fmt"
)

// ConversionSymbol returns the synthetic pair that converts the traded
// symbol's base currency into the account currency. ok is false when the
// two currencies match and no conversion is needed.
func ConversionSymbol(traded, accountCurrency string) (sym string, ok bool) {
	base := BaseCurrency(traded)
	if base == accountCurrency {
		return "", false
	}
	return base + accountCurrency, true
}

// ConversionRate resolves the base-to-account rate for traded.
//
// EURUSD in a EUR account -> 1.0, no quote fetched
// USDJPY in a EUR account -> price of USDEUR
func ConversionRate(ctx context.Context, quotes QuoteProvider, traded, accountCurrency string) (float64, error) {
	sym, ok := ConversionSymbol(traded, accountCurrency)
	if !ok {
		return 1.0, nil
	}

	px, err := quotes.Price(ctx, sym)
	if err != nil {
		return 0, fmt.Errorf("conversion rate %s: %w: %v", sym, ErrQuoteUnavailable, err)
	}
	if px <= 0 {
		return 0, fmt.Errorf("conversion rate %s: %w: non-positive price %v", sym, ErrQuoteUnavailable, px)
	}
	return px, nil
}
