package broker

import (
	"sort"
	"time"
)

// MostRecent returns the latest trade for symbol closed at or after since.
func MostRecent(trades []ClosedTrade, symbol string, since time.Time) (ClosedTrade, error) {
	matched := make([]ClosedTrade, 0, len(trades))
	for _, t := range trades {
		if t.Symbol != symbol {
			continue
		}
		if t.Time.Before(since) {
			continue
		}
		matched = append(matched, t)
	}
	if len(matched) == 0 {
		return ClosedTrade{}, ErrNoClosedTrade
	}

	// most recent first; ties keep the later entry
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Time.After(matched[j].Time)
	})
	best := matched[0]
	for _, t := range matched[1:] {
		if !t.Time.Equal(best.Time) {
			break
		}
		best = t
	}
	return best, nil
}
