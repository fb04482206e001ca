package market

import (
	"fmt"
	"strings"
)

// NormalizeSymbol accepts "EURUSD", "eur/usd", "EUR_USD" or a Yahoo style
// "EURUSD=X" and returns the 6 letter upper case pair code.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	sym = strings.TrimSuffix(sym, "=X")
	sym = strings.NewReplacer("_", "", "/", "", "-", "").Replace(sym)

	if len(sym) != 6 {
		return "", fmt.Errorf("invalid symbol %q: want a 6 letter currency pair", s)
	}
	for _, r := range sym {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid symbol %q: want a 6 letter currency pair", s)
		}
	}
	return sym, nil
}

// BaseCurrency is the first currency of a normalized pair.
func BaseCurrency(symbol string) string {
	if len(symbol) < 3 {
		return ""
	}
	return symbol[:3]
}

// QuoteCurrency is the second currency of a normalized pair.
func QuoteCurrency(symbol string) string {
	if len(symbol) < 6 {
		return ""
	}
	return symbol[3:6]
}

func containsJPY(symbol string) bool {
	return strings.Contains(strings.ToUpper(symbol), "JPY")
}
