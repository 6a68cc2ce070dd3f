package analysis

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

func labelledTable(labels ...severity.Label) *table.Table {
	t := table.NewTable(1, len(labels))
	for i, l := range labels {
		t.Rows = append(t.Rows, table.Observation{
			Pixel:         i,
			SeverityLabel: l,
			BurnScarAge:   float64(1 + i%19),
			AGB2010:       2 + 0.3*float64(1+i%19),
			NEP2010:       100 - 4*float64(1+i%19) + float64(i%3),
		})
	}
	return t
}

func TestSplitIsDisjointAndExhaustive(t *testing.T) {
	tbl := labelledTable(severity.Moderate, severity.Severe, severity.Severe, severity.Moderate, severity.Severe)
	s := Split(tbl)

	if s.Moderate.Len() != 2 || s.Severe.Len() != 3 {
		t.Fatalf("moderate %d, severe %d", s.Moderate.Len(), s.Severe.Len())
	}
	if s.Total() != tbl.Len() {
		t.Errorf("subsets hold %d rows, table has %d", s.Total(), tbl.Len())
	}
	seen := make(map[int]int)
	for _, sub := range []*table.Table{s.Moderate, s.Severe} {
		for _, o := range sub.Rows {
			seen[o.Pixel]++
		}
	}
	for px, n := range seen {
		if n != 1 {
			t.Errorf("pixel %d appears in %d subsets", px, n)
		}
	}
	if s.Get(severity.Low) != nil {
		t.Error("Low is not an analysed subset")
	}
}

func TestTrainTestSplit(t *testing.T) {
	x := make([]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i * 10)
	}

	p, err := TrainTestSplit(x, y, 0.4, rand.NewPCG(7, 0))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(p.XTest) != 4 || len(p.XTrain) != 6 {
		t.Fatalf("train %d, test %d, want 6/4", len(p.XTrain), len(p.XTest))
	}
	seen := make(map[float64]bool)
	for i, v := range append(append([]float64(nil), p.XTrain...), p.XTest...) {
		if seen[v] {
			t.Errorf("value %v appears twice (position %d)", v, i)
		}
		seen[v] = true
	}
	for i := range p.XTest {
		if p.YTest[i] != p.XTest[i]*10 {
			t.Errorf("test pair %d misaligned: %v, %v", i, p.XTest[i], p.YTest[i])
		}
	}

	again, _ := TrainTestSplit(x, y, 0.4, rand.NewPCG(7, 0))
	for i := range p.XTest {
		if again.XTest[i] != p.XTest[i] {
			t.Fatal("same seed must give the same split")
		}
	}

	if _, err := TrainTestSplit(x[:1], y[:1], 0.4, rand.NewPCG(1, 0)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFitLinearRecoversLine(t *testing.T) {
	p := &Partition{
		XTrain: []float64{1, 2, 3, 4, 5},
		YTrain: []float64{5, 8, 11, 14, 17},
		XTest:  []float64{6, 7},
		YTest:  []float64{20, 23},
	}
	f, err := FitLinear(p)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(f.Coefficients[0]-2) > 1e-9 || math.Abs(f.Coefficients[1]-3) > 1e-9 {
		t.Errorf("coefficients = %v, want [2 3]", f.Coefficients)
	}
	if f.RMSE > 1e-9 {
		t.Errorf("RMSE = %v, want 0", f.RMSE)
	}
	if math.Abs(f.RSquared-1) > 1e-9 {
		t.Errorf("R² = %v, want 1", f.RSquared)
	}
	if f.NTrain != 5 || f.NTest != 2 {
		t.Errorf("n = %d/%d", f.NTrain, f.NTest)
	}
	for _, r := range f.Residuals() {
		if math.Abs(r) > 1e-9 {
			t.Errorf("residual %v, want 0", r)
		}
	}
}

func TestFitQuadraticRecoversParabola(t *testing.T) {
	q := func(x float64) float64 { return 1 + 0.5*x + 0.25*x*x }
	p := &Partition{}
	for x := 0.0; x < 10; x++ {
		p.XTrain = append(p.XTrain, x)
		p.YTrain = append(p.YTrain, q(x))
	}
	for _, x := range []float64{12, 15, 18} {
		p.XTest = append(p.XTest, x)
		p.YTest = append(p.YTest, q(x))
	}
	f, err := FitQuadratic(p)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := []float64{1, 0.5, 0.25}
	for i, w := range want {
		if math.Abs(f.Coefficients[i]-w) > 1e-6 {
			t.Errorf("c%d = %v, want %v", i, f.Coefficients[i], w)
		}
	}
	if f.RMSE > 1e-6 {
		t.Errorf("RMSE = %v", f.RMSE)
	}
}

func TestFitInsufficientData(t *testing.T) {
	tests := []struct {
		name string
		p    *Partition
		fit  func(*Partition) (*Fit, error)
	}{
		{"linear too few train", &Partition{XTrain: []float64{1, 2}, YTrain: []float64{1, 2}, XTest: []float64{3, 4}, YTest: []float64{3, 4}}, FitLinear},
		{"linear one test", &Partition{XTrain: []float64{1, 2, 3}, YTrain: []float64{1, 2, 3}, XTest: []float64{3}, YTest: []float64{3}}, FitLinear},
		{"linear constant predictor", &Partition{XTrain: []float64{2, 2, 2}, YTrain: []float64{1, 2, 3}, XTest: []float64{2, 2}, YTest: []float64{3, 4}}, FitLinear},
		{"quadratic too few train", &Partition{XTrain: []float64{1, 2, 3}, YTrain: []float64{1, 2, 3}, XTest: []float64{3, 4}, YTest: []float64{3, 4}}, FitQuadratic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fit(tt.p); !errors.Is(err, ErrInsufficientData) {
				t.Fatalf("expected ErrInsufficientData, got %v", err)
			}
		})
	}
}

func TestFTest(t *testing.T) {
	res, err := FTest([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5})
	if err != nil {
		t.Fatalf("ftest: %v", err)
	}
	if math.Abs(res.F-4.5) > 1e-9 {
		t.Errorf("F = %v, want 4.5", res.F)
	}
	if math.Abs(res.P-0.12403) > 1e-3 {
		t.Errorf("p = %v, want ~0.124", res.P)
	}
	if res.N != 5 {
		t.Errorf("N = %d", res.N)
	}

	perfect, err := FTest([]float64{1, 2, 3}, []float64{2, 4, 6})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(perfect.F, 1) || perfect.P != 0 {
		t.Errorf("perfect fit F=%v p=%v", perfect.F, perfect.P)
	}

	if _, err := FTest([]float64{1, 2}, []float64{1, 2}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := FTest([]float64{1, 1, 1}, []float64{1, 2, 3}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for constant x, got %v", err)
	}
}

func TestGroupMeans(t *testing.T) {
	xs, means := GroupMeans([]float64{3, 1, 3, 1, 2, math.NaN()}, []float64{10, 2, 20, 4, 7, 99})
	wantX := []float64{1, 2, 3}
	wantM := []float64{3, 7, 15}
	if len(xs) != 3 {
		t.Fatalf("got %v", xs)
	}
	for i := range wantX {
		if xs[i] != wantX[i] || means[i] != wantM[i] {
			t.Errorf("group %d = (%v, %v), want (%v, %v)", i, xs[i], means[i], wantX[i], wantM[i])
		}
	}
}

func TestRunReportsEmptySubset(t *testing.T) {
	labels := make([]severity.Label, 30)
	for i := range labels {
		labels[i] = severity.Moderate
	}
	s := Split(labelledTable(labels...))
	res := Run(s, DefaultOptions())

	if got := len(res.FitsFor(severity.Moderate)); got != 4 {
		t.Errorf("moderate fits = %d, want 4 (2 pairs x 2 models)", got)
	}
	if got := len(res.FitsFor(severity.Severe)); got != 0 {
		t.Errorf("severe fits = %d, want 0", got)
	}
	if len(res.FTests) != 1 || res.FTests[0].Severity != severity.Moderate {
		t.Errorf("ftests = %+v", res.FTests)
	}
	if len(res.AnalysisErrors) != 1 {
		t.Errorf("errors = %v, want one empty-subset entry", res.AnalysisErrors)
	}
	for _, f := range res.Fits {
		if f.NTest != 12 || f.NTrain != 18 {
			t.Errorf("%s %s split %d/%d, want 18/12", f.Pair, f.Model, f.NTrain, f.NTest)
		}
	}
}
