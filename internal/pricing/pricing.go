// Package pricing implements the occupancy-sensitive pricing rules.  All
// functions are pure; money is handled in integer cents and the price
// factor in integer percent so that tier multiplications stay exact.
package pricing

import "time"

// FactorPercent maps a sector occupancy ratio (0.0 to 1.0) to the price
// multiplier in percent:
//   - below 25% occupancy: 90 (10% discount)
//   - 25% to below 50%:    100 (no change)
//   - 50% to below 75%:    110 (10% increase)
//   - 75% and above:       125 (25% increase)
//
// Tier boundaries are inclusive on the lower bound: a ratio of exactly
// 0.25 maps to 100, not 90.
func FactorPercent(ratio float64) int {
	switch {
	case ratio < 0.25:
		return 90
	case ratio < 0.50:
		return 100
	case ratio < 0.75:
		return 110
	default:
		return 125
	}
}

// BillableHours converts a stay duration into whole billable hours.
// The duration is truncated to whole minutes first, then rounded up to
// the next hour: a 61-minute stay bills 2 hours, a 30-minute stay bills 1.
func BillableHours(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	minutes := int64(d / time.Minute)
	return (minutes + 59) / 60
}

// SettleCents computes the final price in cents for a stay between entry
// and exit:  basePriceCents * billableHours * factorPercent / 100.
// The duration is measured from entry time, not parked time.  A
// non-positive duration prices at zero.
func SettleCents(basePriceCents int64, entry, exit time.Time, factorPercent int) int64 {
	hours := BillableHours(exit.Sub(entry))
	return basePriceCents * hours * int64(factorPercent) / 100
}
