// market/instruments.go
package market

import (
	"math"
	"sort"
)

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

// Instruments lists the pairs offered on the interactive ticket.
var Instruments = map[string]InstrumentMeta{
	"EURUSD": {Name: "EURUSD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBPUSD": {Name: "GBPUSD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"EURGBP": {Name: "EURGBP", BaseCurrency: "EUR", QuoteCurrency: "GBP", PipLocation: -4},
	"USDJPY": {Name: "USDJPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"USDCAD": {Name: "USDCAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
	"USDCHF": {Name: "USDCHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4},
	"AUDUSD": {Name: "AUDUSD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"GBPJPY": {Name: "GBPJPY", BaseCurrency: "GBP", QuoteCurrency: "JPY", PipLocation: -2},
	"AUDJPY": {Name: "AUDJPY", BaseCurrency: "AUD", QuoteCurrency: "JPY", PipLocation: -2},
	"NZDUSD": {Name: "NZDUSD", BaseCurrency: "NZD", QuoteCurrency: "USD", PipLocation: -4},
}

// InstrumentNames returns the keys of Instruments in sorted order.
func InstrumentNames() []string {
	names := make([]string, 0, len(Instruments))
	for k := range Instruments {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PipSize returns the price increment of one pip: 0.01 for yen pairs,
// 0.0001 for everything else.
func PipSize(symbol string) float64 {
	if meta, ok := Instruments[symbol]; ok {
		return pipSize(meta.PipLocation)
	}
	if containsJPY(symbol) {
		return 0.01
	}
	return 0.0001
}

func pipSize(loc int) float64 {
	switch loc {
	case -2:
		return 0.01
	case -4:
		return 0.0001
	}
	return math.Pow(10, float64(loc))
}

// Point is the smallest quoted increment, a tenth of a pip.
func Point(symbol string) float64 {
	return PipSize(symbol) / 10
}

// PriceDecimals is the number of decimals a price for symbol is quoted with.
func PriceDecimals(symbol string) int {
	if PipSize(symbol) >= 0.01 {
		return 3
	}
	return 5
}
