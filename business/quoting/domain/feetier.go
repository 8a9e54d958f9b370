// Package domain contains the core domain types for the quoting context.
package domain

import "strconv"

// Fee tiers in hundredths of a bip.
const (
	FeeTier001 uint32 = 100   // 0.01%
	FeeTier005 uint32 = 500   // 0.05%
	FeeTier030 uint32 = 3000  // 0.30%
	FeeTier100 uint32 = 10000 // 1.00%
)

// FeeTiers is the canonical concentrated-liquidity fee tier set, in
// ascending order.
var FeeTiers = []uint32{FeeTier001, FeeTier005, FeeTier030, FeeTier100}

// tickSpacings maps each fee tier to its minimum tick increment.
var tickSpacings = map[uint32]int64{
	FeeTier001: 1,
	FeeTier005: 10,
	FeeTier030: 60,
	FeeTier100: 200,
}

// TickSpacing returns the tick spacing for a fee tier, or 0 when the tier
// is not canonical.
func TickSpacing(feeTier uint32) int64 {
	return tickSpacings[feeTier]
}

// IsCanonicalFeeTier reports whether the tier belongs to the standard set.
func IsCanonicalFeeTier(feeTier uint32) bool {
	_, ok := tickSpacings[feeTier]
	return ok
}

// FeeTierPercent formats a fee tier as a bare percentage, e.g. 500 -> "0.05".
func FeeTierPercent(feeTier uint32) string {
	return strconv.FormatFloat(float64(feeTier)/10000.0, 'f', -1, 64)
}
