package stats

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when a test has an empty sample.
var ErrInsufficientData = errors.New("insufficient data")

// Round rounds half to even at the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

// Percent returns part/total*100 rounded to two decimals. ok is false when
// total is zero.
func Percent(part, total int) (rate float64, ok bool) {
	if total == 0 {
		return 0, false
	}
	return Round(float64(part)/float64(total)*100, 2), true
}

type ZTestResult struct {
	Z      float64
	PValue float64
}

// TwoProportionZTest compares two observed proportions under the pooled
// null hypothesis that they are equal. The p-value is two-sided, taken from
// the upper normal tail as erfc(|z|/√2) so it stays positive far out.
// When the pooled variance is zero (no conversions anywhere, or only
// conversions) the proportions are identical and the result is z=0, p=1.
func TwoProportionZTest(counts, nobs [2]int) (ZTestResult, error) {
	if nobs[0] <= 0 || nobs[1] <= 0 {
		return ZTestResult{}, ErrInsufficientData
	}
	if counts[0] < 0 || counts[1] < 0 || counts[0] > nobs[0] || counts[1] > nobs[1] {
		return ZTestResult{}, errors.New("counts must be between 0 and the sample size")
	}

	n1, n2 := float64(nobs[0]), float64(nobs[1])
	p1 := float64(counts[0]) / n1
	p2 := float64(counts[1]) / n2
	pooled := float64(counts[0]+counts[1]) / (n1 + n2)

	variance := pooled * (1 - pooled) * (1/n1 + 1/n2)
	if variance == 0 {
		return ZTestResult{Z: 0, PValue: 1}, nil
	}

	z := (p1 - p2) / math.Sqrt(variance)
	return ZTestResult{
		Z:      z,
		PValue: math.Erfc(math.Abs(z) / math.Sqrt2),
	}, nil
}
