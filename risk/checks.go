package risk

import (
	"fmt"
	"strings"
)

const (
	CodeMarginInUse = "MARGIN_IN_USE"
	CodeRiskTooHigh = "RISK_TOO_HIGH"
	CodeRRTooLow    = "RR_TOO_LOW"
	CodeNoStop      = "NO_STOP_OR_ENTRY"
	CodeNoSize      = "NO_SIZE"
)

// Policy holds the pre-submit limits.
type Policy struct {
	MaxRiskPercent float64 // 1 = 1% of balance
	MinRR          float64

	// RequireFlatMargin refuses entries while any margin is in use.
	RequireFlatMargin bool
}

type Intent struct {
	Lots           float64
	Entry          float64
	Stop           float64
	TakeProfit     float64
	PipSize        float64
	ConversionRate float64
}

type Snapshot struct {
	Balance    float64
	FreeMargin float64
	MarginUsed float64
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRisk    float64 // account currency
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether a violation with code was raised.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (d Decision) String() string {
	if d.Allowed {
		return "allowed"
	}
	msgs := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		msgs = append(msgs, v.Code+": "+v.Msg)
	}
	return strings.Join(msgs, "; ")
}

// PlannedRisk is what the account loses if the stop is hit.
func PlannedRisk(lots, entry, stop, pipSize, conversionRate float64) float64 {
	return lots * StopDistancePips(entry, stop, pipSize) * PipValuePerLot * conversionRate
}

// MarginInUse reports whether the account already has margin committed.
func MarginInUse(acct Snapshot) bool {
	return acct.FreeMargin != acct.Balance
}

// Evaluate checks an entry against the policy before it is submitted.
func Evaluate(p Policy, in Intent, acct Snapshot) Decision {
	d := Decision{Allowed: true}

	if p.RequireFlatMargin && MarginInUse(acct) {
		d.add(CodeMarginInUse,
			fmt.Sprintf("free margin %.2f != balance %.2f", acct.FreeMargin, acct.Balance))
		return d
	}

	if in.Entry == 0 || in.Stop == 0 {
		d.add(CodeNoStop, "entry/stop must be set")
		return d
	}
	if in.Lots <= 0 {
		d.add(CodeNoSize, "size must be positive")
		return d
	}

	d.PlannedRisk = PlannedRisk(in.Lots, in.Entry, in.Stop, in.PipSize, in.ConversionRate)
	if acct.Balance > 0 {
		d.PlannedRiskPct = 100 * d.PlannedRisk / acct.Balance
	}
	d.PlannedRR = RR(in.Entry, in.Stop, in.TakeProfit)

	// pip arithmetic on prices leaves float noise in the last digits
	const tolerance = 1e-6
	if p.MaxRiskPercent > 0 && d.PlannedRiskPct > p.MaxRiskPercent+tolerance {
		d.add(CodeRiskTooHigh,
			fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%", d.PlannedRiskPct, p.MaxRiskPercent))
	}
	if p.MinRR > 0 && d.PlannedRR+tolerance < p.MinRR {
		d.add(CodeRRTooLow,
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}

	return d
}
