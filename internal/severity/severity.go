// Package severity computes percent biomass loss and bins it into ordinal
// burn-severity categories.
package severity

import (
	"fmt"
	"math"
	"sort"
)

// Label is an ordinal burn-severity category. The zero value is Unlabeled.
type Label int

const (
	Unlabeled Label = iota
	Low
	Moderate
	Severe
)

// Labels are the real categories in ascending order.
var Labels = []Label{Low, Moderate, Severe}

// Bin edges in percent biomass lost.
const (
	LowMin      = 0.0
	ModerateMin = 30.0
	SevereMin   = 70.0
	SevereMax   = 100.0
)

// EpochSplitYear divides fires scored on the 1990/2000 AGB pair from those
// scored on the 2000/2010 pair.
const EpochSplitYear = 2000

func (l Label) String() string {
	switch l {
	case Low:
		return "Low"
	case Moderate:
		return "Moderate"
	case Severe:
		return "Severe"
	default:
		return ""
	}
}

// ParseLabel is the inverse of String. The empty string maps to Unlabeled.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "":
		return Unlabeled, nil
	case "Low":
		return Low, nil
	case "Moderate":
		return Moderate, nil
	case "Severe":
		return Severe, nil
	}
	return Unlabeled, fmt.Errorf("unknown severity label %q", s)
}

// PercentLoss is the share of before lost by after, in percent. A
// non-positive or missing baseline yields NaN rather than an infinity.
func PercentLoss(before, after float64) float64 {
	if math.IsNaN(before) || math.IsNaN(after) || before <= 0 {
		return math.NaN()
	}
	return (before - after) / before * 100
}

// EarlyLoss scores fires up to and including 2000.
func EarlyLoss(agb1990, agb2000 float64) float64 {
	return PercentLoss(agb1990, agb2000)
}

// LateLoss scores fires after 2000.
func LateLoss(agb2000, agb2010 float64) float64 {
	return PercentLoss(agb2000, agb2010)
}

// Compute returns the percent loss over the decade bracketing date.
func Compute(agb1990, agb2000, agb2010, date float64) float64 {
	if date > EpochSplitYear {
		return LateLoss(agb2000, agb2010)
	}
	return EarlyLoss(agb1990, agb2000)
}

// Bin maps a percent loss onto Low (0,30), Moderate [30,70) or Severe
// [70,100]. Zero, negative, above-100 and NaN values are Unlabeled.
func Bin(v float64) Label {
	switch {
	case math.IsNaN(v), v <= LowMin, v > SevereMax:
		return Unlabeled
	case v < ModerateMin:
		return Low
	case v < SevereMin:
		return Moderate
	default:
		return Severe
	}
}

// Classify computes the severity value and its label for one pixel.
func Classify(agb1990, agb2000, agb2010, date float64) (float64, Label) {
	v := Compute(agb1990, agb2000, agb2010, date)
	return v, Bin(v)
}

// Active returns the distinct real labels present in ls, ascending.
func Active(ls []Label) []Label {
	seen := make(map[Label]bool)
	for _, l := range ls {
		if l != Unlabeled {
			seen[l] = true
		}
	}
	out := make([]Label, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
