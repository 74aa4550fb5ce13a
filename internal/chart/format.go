package chart

import (
	"fmt"
	"math"
)

// AbbreviateAxisValue formats a y tick: millions as "1.5 M€", thousands as
// "12.0 K€", smaller values as whole numbers without a unit.
func AbbreviateAxisValue(v float64, currency string) string {
	switch abs := math.Abs(v); {
	case abs >= 1e6:
		return fmt.Sprintf("%.1f M%s", v/1e6, currency)
	case abs >= 1e3:
		return fmt.Sprintf("%.1f K%s", v/1e3, currency)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func percentLabel(label string, share float64) string {
	return fmt.Sprintf("%s (%.1f%%)", label, share*100)
}
