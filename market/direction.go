package market

import (
	"fmt"
	"strings"
)

// Direction is the side of a trade.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// ParseDirection accepts BUY/SELL as well as the LONG/SHORT start
// direction notation.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return Buy, nil
	case "SELL", "SHORT":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want LONG|SHORT or BUY|SELL)", s)
	}
}

func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// Sign is +1 for buys and -1 for sells.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

// Label is the Long/Short wording used in log lines.
func (d Direction) Label() string {
	if d == Sell {
		return "Short"
	}
	return "Long"
}

func (d Direction) Valid() bool {
	return d == Buy || d == Sell
}
