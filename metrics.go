package yield

import (
	"fmt"
	"math"
)

// Unit conversion of the cylindrical log volume model.
const diameterFactor = 20000

func GrossWastePct(waste, gross float64) float64 {
	if gross > 0 {
		return waste / gross * 100
	}
	return 0
}

func GrossYieldPct(gross, input float64) float64 {
	if input > 0 {
		return gross / input * 100
	}
	return 0
}

func NetYieldPct(net, input float64) float64 {
	if input > 0 {
		return net / input * 100
	}
	return 0
}

// Diameter back-calculates the mean log diameter of an order. There is no
// meaningful diameter for a zero denominator, so that is an error rather
// than 0.
func Diameter(input, avgStems, stems float64) (float64, error) {
	den := math.Pi * avgStems * stems
	if den == 0 {
		return 0, errZeroDenominator
	}
	q := input / den
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("no real diameter for volume ratio %v", q)
	}
	return math.Sqrt(q) * diameterFactor, nil
}

var strengthClasses = []struct {
	below float64
	class string
}{
	{100, "0"},
	{150, "1a"},
	{200, "1b"},
	{250, "2a"},
	{300, "2b"},
	{350, "3a"},
	{400, "3b"},
}

func StrengthClass(diameter float64) string {
	for _, c := range strengthClasses {
		if diameter < c.below {
			return c.class
		}
	}
	return "unknown"
}

// FeedRate is the processed input volume per hour of runtime.
func FeedRate(input, runtimeMinutes float64) float64 {
	if runtimeMinutes != 0 {
		return input / (runtimeMinutes / 60)
	}
	return 0
}
