package analysis

import (
	"fmt"
	"math/rand/v2"

	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// Run fits linear and quadratic recovery models for every analysed severity
// and recovery pair, and F-tests the FTestPairs. A subset too small for a fit
// is recorded in AnalysisErrors and the run continues.
func Run(subsets *Subsets, opts Options) *Results {
	results := NewResults()

	for si, label := range AnalysedSeverities {
		sub := subsets.Get(label)
		if sub == nil || sub.Len() == 0 {
			results.AnalysisErrors = append(results.AnalysisErrors,
				fmt.Sprintf("%s subset is empty, no models fitted", label))
			continue
		}

		for pi, pair := range RecoveryPairs {
			x, y := columns(sub, pair)
			// One split per subset and pair so both models see the same data.
			src := rand.NewPCG(opts.Seed, uint64(si*len(RecoveryPairs)+pi))
			part, err := TrainTestSplit(x, y, opts.TestFraction, src)
			if err != nil {
				results.AnalysisErrors = append(results.AnalysisErrors,
					fmt.Sprintf("%s %s: %v", label, pair, err))
				continue
			}

			for _, fitter := range []struct {
				model ModelType
				fit   func(*Partition) (*Fit, error)
			}{
				{ModelLinear, FitLinear},
				{ModelQuadratic, FitQuadratic},
			} {
				f, err := fitter.fit(part)
				if err != nil {
					results.AnalysisErrors = append(results.AnalysisErrors,
						fmt.Sprintf("%s %s %s: %v", label, pair, fitter.model, err))
					continue
				}
				f.Severity = label
				f.Pair = pair
				results.Fits = append(results.Fits, *f)
			}
		}

		for _, pair := range FTestPairs {
			x, y := columns(sub, pair)
			fr, err := FTest(x, y)
			if err != nil {
				results.AnalysisErrors = append(results.AnalysisErrors,
					fmt.Sprintf("%s %s F-test: %v", label, pair, err))
				continue
			}
			fr.Severity = label
			fr.Pair = pair
			results.FTests = append(results.FTests, *fr)
		}
	}
	return results
}

func columns(t *table.Table, p Pair) ([]float64, []float64) {
	return t.Float(p.Predictor), t.Float(p.Response)
}

// FitsFor returns the fits of one severity, in run order.
func (r *Results) FitsFor(l severity.Label) []Fit {
	out := make([]Fit, 0)
	for _, f := range r.Fits {
		if f.Severity == l {
			out = append(out, f)
		}
	}
	return out
}
