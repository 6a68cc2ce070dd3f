package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/table"
)

// maxScarAge bounds the x axis: fires in 1991-2009 are 1 to 19 years old in 2010.
const maxScarAge = 20

// CreateMeanRecoveryPlot draws the per-age mean of response against burn scar
// age, one line per severity.
func CreateMeanRecoveryPlot(subsets *analysis.Subsets, response table.Column) ([]byte, error) {
	if subsets == nil || subsets.Total() == 0 {
		return nil, fmt.Errorf("no observations to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mean %s Recovery by Burn Severity", response)
	p.X.Label.Text = labelScarAge
	p.Y.Label.Text = responseLabel(response)
	p.X.Min = 0
	p.X.Max = maxScarAge
	p.X.Tick.Marker = plot.ConstantTicks(generateTicks(0, maxScarAge, 2))
	p.Add(plotter.NewGrid())

	linesPlotted := false
	for _, label := range analysis.AnalysedSeverities {
		sub := subsets.Get(label)
		if sub.Len() == 0 {
			continue
		}
		ages, means := analysis.GroupMeans(sub.Float(table.BurnScarAge), sub.Float(response))
		if len(ages) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(ages))
		for i := range ages {
			pts[i] = plotter.XY{X: ages[i], Y: means[i]}
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create line for %s: %v", label, err)
		}
		line.Color = colorFor(label)
		line.LineStyle.Width = vg.Points(1.5)
		points.Color = colorFor(label)
		p.Add(line, points)
		p.Legend.Add(label.String(), line, points)
		linesPlotted = true
	}
	if !linesPlotted {
		return nil, fmt.Errorf("no %s values to plot", response)
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)

	return renderPNG(p, vg.Points(800), vg.Points(400))
}

func responseLabel(c table.Column) string {
	switch c {
	case table.AGB2010:
		return labelAGB2010
	case table.NEP2010:
		return labelNEP2010
	case table.BurnScarAge:
		return labelScarAge
	}
	return string(c)
}
