package domain

import "fmt"

// WarningLevel classifies a quote's price impact.
type WarningLevel string

const (
	WarningLow      WarningLevel = "low"
	WarningMedium   WarningLevel = "medium"
	WarningHigh     WarningLevel = "high"
	WarningVeryHigh WarningLevel = "very-high"
	WarningExtreme  WarningLevel = "extreme"
)

// Warning carries the classified price impact of a quote.
type Warning struct {
	Level       WarningLevel
	ShouldBlock bool
	Message     string
}

// ClassifyImpact buckets a price-impact percentage into a warning.
// Bands: [0,1) low, [1,3) medium, [3,5) high, [5,15) very-high,
// [15,inf) extreme. Only extreme should block execution.
func ClassifyImpact(impactPercent float64) Warning {
	var level WarningLevel
	switch {
	case impactPercent < 1:
		level = WarningLow
	case impactPercent < 3:
		level = WarningMedium
	case impactPercent < 5:
		level = WarningHigh
	case impactPercent < 15:
		level = WarningVeryHigh
	default:
		level = WarningExtreme
	}

	return Warning{
		Level:       level,
		ShouldBlock: level == WarningExtreme,
		Message:     warningMessage(level, impactPercent),
	}
}

func warningMessage(level WarningLevel, impactPercent float64) string {
	switch level {
	case WarningLow:
		return ""
	case WarningMedium:
		return fmt.Sprintf("Price impact of %.2f%% is noticeable for this pool", impactPercent)
	case WarningHigh:
		return fmt.Sprintf("High price impact of %.2f%%, consider a smaller trade", impactPercent)
	case WarningVeryHigh:
		return fmt.Sprintf("Very high price impact of %.2f%%, this trade moves the pool significantly", impactPercent)
	default:
		return fmt.Sprintf("Extreme price impact of %.2f%%, this trade is likely a mistake", impactPercent)
	}
}
