package risk

import "errors"

// ErrPrecondition marks inputs that would produce infinite or meaningless
// sizes and prices.
var ErrPrecondition = errors.New("precondition violation")

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is the reward to risk ratio of a bracket.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// StopDistancePips converts a price distance into pips.
func StopDistancePips(entry, stop, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	return abs(entry-stop) / pipSize
}
