package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Partition is a train/test split of paired samples.
type Partition struct {
	XTrain, YTrain []float64
	XTest, YTest   []float64
}

// TrainTestSplit holds out ceil(testFraction*n) random pairs for testing.
func TrainTestSplit(x, y []float64, testFraction float64, src rand.Source) (*Partition, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x has %d values, y has %d", len(x), len(y))
	}
	n := len(x)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n < 2 || nTest < 1 || nTest >= n {
		return nil, fmt.Errorf("%w: cannot split %d samples with test fraction %v", ErrInsufficientData, n, testFraction)
	}

	testIdx := make([]int, nTest)
	sampleuv.WithoutReplacement(testIdx, n, src)
	isTest := make([]bool, n)
	for _, i := range testIdx {
		isTest[i] = true
	}

	p := &Partition{
		XTrain: make([]float64, 0, n-nTest),
		YTrain: make([]float64, 0, n-nTest),
		XTest:  make([]float64, 0, nTest),
		YTest:  make([]float64, 0, nTest),
	}
	for i := 0; i < n; i++ {
		if isTest[i] {
			p.XTest = append(p.XTest, x[i])
			p.YTest = append(p.YTest, y[i])
		} else {
			p.XTrain = append(p.XTrain, x[i])
			p.YTrain = append(p.YTrain, y[i])
		}
	}
	return p, nil
}

// FitLinear fits y = c0 + c1*x on the training partition and scores it on
// the test partition.
func FitLinear(p *Partition) (*Fit, error) {
	if err := checkPartition(p, 2); err != nil {
		return nil, err
	}
	intercept, slope := stat.LinearRegression(p.XTrain, p.YTrain, nil, false)
	if math.IsNaN(intercept) || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return nil, fmt.Errorf("%w: predictor has no variance", ErrInsufficientData)
	}
	f := &Fit{
		Model:        ModelLinear,
		Coefficients: []float64{intercept, slope},
	}
	score(f, p)
	return f, nil
}

// FitQuadratic fits y = c0 + c1*x + c2*x^2 by least squares (QR).
func FitQuadratic(p *Partition) (*Fit, error) {
	if err := checkPartition(p, 3); err != nil {
		return nil, err
	}
	coeff, err := fitPolynomial(p.XTrain, p.YTrain, 2)
	if err != nil {
		return nil, err
	}
	f := &Fit{
		Model:        ModelQuadratic,
		Coefficients: coeff,
	}
	score(f, p)
	return f, nil
}

func fitPolynomial(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	if n < degree+2 {
		return nil, fmt.Errorf("%w: %d training samples for degree %d", ErrInsufficientData, n, degree)
	}

	// Vandermonde matrix
	X := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= degree; j++ {
			X.Set(i, j, math.Pow(x[i], float64(j)))
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)

	coeffs := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(coeffs, false, yv); err != nil {
		return nil, fmt.Errorf("%w: polynomial system is singular: %v", ErrInsufficientData, err)
	}

	out := make([]float64, degree+1)
	for i := range out {
		out[i] = coeffs.AtVec(i)
	}
	return out, nil
}

func checkPartition(p *Partition, params int) error {
	if len(p.XTrain) < params+1 {
		return fmt.Errorf("%w: %d training samples for %d parameters", ErrInsufficientData, len(p.XTrain), params)
	}
	if len(p.XTest) < 2 {
		return fmt.Errorf("%w: %d test samples", ErrInsufficientData, len(p.XTest))
	}
	return nil
}

func score(f *Fit, p *Partition) {
	f.NTrain = len(p.XTrain)
	f.NTest = len(p.XTest)
	f.Observed = append([]float64(nil), p.YTest...)
	f.Predicted = make([]float64, len(p.XTest))
	var sumSq float64
	for i, x := range p.XTest {
		f.Predicted[i] = f.Predict(x)
		d := f.Observed[i] - f.Predicted[i]
		sumSq += d * d
	}
	f.RMSE = math.Sqrt(sumSq / float64(len(p.XTest)))
	f.RSquared = stat.RSquaredFrom(f.Predicted, f.Observed, nil)
}

// FTest scores a univariate regression of y on x against the intercept-only
// model: F = r²/(1-r²)·(n-2) on (1, n-2) degrees of freedom.
func FTest(x, y []float64) (*FResult, error) {
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("x has %d values, y has %d", n, len(y))
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: %d samples for an F-test", ErrInsufficientData, n)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil, fmt.Errorf("%w: a variable has no variance", ErrInsufficientData)
	}
	r2 := r * r
	dof := float64(n - 2)
	res := &FResult{N: n}
	if r2 >= 1 {
		res.F = math.Inf(1)
		res.P = 0
		return res, nil
	}
	res.F = r2 / (1 - r2) * dof
	res.P = distuv.F{D1: 1, D2: dof}.Survival(res.F)
	return res, nil
}

// GroupMeans averages y for each distinct x, ordered by x.
func GroupMeans(x, y []float64) ([]float64, []float64) {
	groups := make(map[float64][]float64)
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		groups[x[i]] = append(groups[x[i]], y[i])
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	means := make([]float64, len(keys))
	for i, k := range keys {
		means[i] = stat.Mean(groups[k], nil)
	}
	return keys, means
}
