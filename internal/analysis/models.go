package analysis

import (
	"errors"

	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// ErrInsufficientData is returned when a subset is too small to fit or test.
var ErrInsufficientData = errors.New("insufficient data")

// ModelType names a regression model.
type ModelType string

const (
	ModelLinear    ModelType = "linear"
	ModelQuadratic ModelType = "quadratic"
)

// Pair is a predictor/response column pair handed to the regressions.
type Pair struct {
	Predictor table.Column
	Response  table.Column
}

func (p Pair) String() string {
	return string(p.Response) + " ~ " + string(p.Predictor)
}

// RecoveryPairs relate burn scar age to 2010 biomass and productivity.
var RecoveryPairs = []Pair{
	{Predictor: table.BurnScarAge, Response: table.AGB2010},
	{Predictor: table.BurnScarAge, Response: table.NEP2010},
}

// FTestPairs are the pairs tested against an intercept-only model.
var FTestPairs = []Pair{
	{Predictor: table.BurnScarAge, Response: table.NEP2010},
}

// Fit holds one fitted model scored on its held-out partition.
type Fit struct {
	Severity     severity.Label
	Pair         Pair
	Model        ModelType
	Coefficients []float64 // c0 + c1*x + c2*x^2 ...
	RMSE         float64
	RSquared     float64
	NTrain       int
	NTest        int
	Observed     []float64 // test partition responses
	Predicted    []float64 // model predictions for Observed
}

// Residuals returns observed minus predicted for the test partition.
func (f *Fit) Residuals() []float64 {
	out := make([]float64, len(f.Observed))
	for i := range f.Observed {
		out[i] = f.Observed[i] - f.Predicted[i]
	}
	return out
}

// Predict evaluates the fitted polynomial at x.
func (f *Fit) Predict(x float64) float64 {
	y, p := 0.0, 1.0
	for _, c := range f.Coefficients {
		y += c * p
		p *= x
	}
	return y
}

// FResult is a univariate F-test of a response on one predictor.
type FResult struct {
	Severity severity.Label
	Pair     Pair
	F        float64
	P        float64
	N        int
}

// Results holds all fits for one run.
type Results struct {
	Fits           []Fit
	FTests         []FResult
	AnalysisErrors []string // per-fit failures; a run continues past them
}

func NewResults() *Results {
	return &Results{
		Fits:           make([]Fit, 0),
		FTests:         make([]FResult, 0),
		AnalysisErrors: make([]string, 0),
	}
}

// Options control the train/test split.
type Options struct {
	TestFraction float64
	Seed         uint64
}

// DefaultOptions mirror a 60/40 train/test split.
func DefaultOptions() Options {
	return Options{TestFraction: 0.4, Seed: 1}
}
