package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/carbon_recovery_go/internal/analysis"
)

// DiagnosticPlotKey names the diagnostic figure of a fit in the plot map.
func DiagnosticPlotKey(f *analysis.Fit) string {
	return fmt.Sprintf("diag_%s_%s_%s", f.Severity, f.Pair.Response, f.Model)
}

// CreateDiagnosticPlot draws observed against predicted values and the
// residual histogram of a fit's test partition, side by side.
func CreateDiagnosticPlot(f *analysis.Fit) ([]byte, error) {
	if f == nil || len(f.Observed) == 0 {
		return nil, fmt.Errorf("fit has no test predictions")
	}

	pts := make(plotter.XYs, len(f.Observed))
	for i := range f.Observed {
		pts[i] = plotter.XY{X: f.Observed[i], Y: f.Predicted[i]}
	}

	sp := plot.New()
	sp.Title.Text = "True and Predicted Y-Values"
	sp.X.Label.Text = "True Y-Values"
	sp.Y.Label.Text = "Predicted Y-Values"
	sp.Add(plotter.NewGrid())
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction scatter: %v", err)
	}
	sc.GlyphStyle.Color = colorFor(f.Severity)
	sc.GlyphStyle.Radius = vg.Points(2)
	sp.Add(sc)

	hp := plot.New()
	hp.Title.Text = "Residuals of True and Predicted Y-Values"
	hp.X.Label.Text = "Residual Value"
	hp.Y.Label.Text = "Frequency"
	hist, err := plotter.NewHist(plotter.Values(f.Residuals()), histogramBins(len(f.Observed)))
	if err != nil {
		return nil, fmt.Errorf("failed to create residual histogram: %v", err)
	}
	hist.FillColor = colorFor(f.Severity)
	hp.Add(hist)

	return renderGrid([]*plot.Plot{sp, hp}, vg.Points(900), vg.Points(380))
}

// histogramBins follows the square-root rule, capped to keep bars readable.
func histogramBins(n int) int {
	bins := 1
	for bins*bins < n {
		bins++
	}
	if bins > 40 {
		bins = 40
	}
	return bins
}
