package report

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// CreateSeverityCountPlot draws pixel counts per fire year, one bar group per
// active severity category.
func CreateSeverityCountPlot(t *table.Table) ([]byte, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("no observations to count")
	}

	counts := make(map[severity.Label]map[int]int)
	yearSet := make(map[int]bool)
	for _, o := range t.Rows {
		if o.SeverityLabel == severity.Unlabeled {
			continue
		}
		year := int(o.Date)
		yearSet[year] = true
		if counts[o.SeverityLabel] == nil {
			counts[o.SeverityLabel] = make(map[int]int)
		}
		counts[o.SeverityLabel][year]++
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	active := t.ActiveSeverities()
	if len(active) == 0 {
		return nil, fmt.Errorf("no labelled observations to count")
	}

	p := plot.New()
	p.Title.Text = "Pixel Frequencies for Burn Severity Categories"
	p.X.Label.Text = "Fire Year"
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())

	barWidth := vg.Points(8)
	for i, label := range active {
		vals := make(plotter.Values, len(years))
		for j, y := range years {
			vals[j] = float64(counts[label][y])
		}
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return nil, fmt.Errorf("failed to create bars for %s: %v", label, err)
		}
		bars.Color = colorFor(label)
		bars.LineStyle.Width = 0
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(active)-1)/2)
		p.Add(bars)
		p.Legend.Add(label.String(), bars)
	}

	names := make([]string, len(years))
	for i, y := range years {
		names[i] = fmt.Sprintf("%d", y)
	}
	p.NominalX(names...)
	p.Legend.Top = true

	return renderPNG(p, vg.Points(800), vg.Points(400))
}

// CreateScatterPlot draws y against x colored by severity category.
func CreateScatterPlot(t *table.Table, x, y table.Column, title string) ([]byte, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("no observations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = responseLabel(x)
	p.Y.Label.Text = responseLabel(y)
	p.Add(plotter.NewGrid())

	for _, label := range t.ActiveSeverities() {
		sub := t.Subset(func(o *table.Observation) bool { return o.SeverityLabel == label })
		pts, err := xyPoints(sub, x, y)
		if err != nil {
			return nil, err
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter for %s: %v", label, err)
		}
		sc.GlyphStyle.Color = colorFor(label)
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add(label.String(), sc)
	}
	p.Legend.Top = true

	return renderPNG(p, vg.Points(600), vg.Points(450))
}

// CreateRecoveryFacetPlot draws burn scar age against response, one panel per
// severity. With mean set, each panel shows the per-age mean instead of every
// pixel.
func CreateRecoveryFacetPlot(subsets *analysis.Subsets, response table.Column, mean bool) ([]byte, error) {
	if subsets == nil || subsets.Total() == 0 {
		return nil, fmt.Errorf("no observations to plot")
	}

	plots := make([]*plot.Plot, 0, len(analysis.AnalysedSeverities))
	for i, label := range analysis.AnalysedSeverities {
		sub := subsets.Get(label)

		p := plot.New()
		prefix := ""
		if mean {
			prefix = "Mean "
		}
		p.Title.Text = fmt.Sprintf("%s%s after %s Burns", prefix, shortName(response), label)
		p.X.Label.Text = labelScarAge
		if i == 0 {
			p.Y.Label.Text = responseLabel(response)
		}
		p.X.Min = 0
		p.X.Max = maxScarAge
		p.X.Tick.Marker = plot.ConstantTicks(generateTicks(0, maxScarAge, 2))
		p.Add(plotter.NewGrid())

		var pts plotter.XYs
		if mean {
			ages, means := analysis.GroupMeans(sub.Float(table.BurnScarAge), sub.Float(response))
			pts = make(plotter.XYs, len(ages))
			for j := range ages {
				pts[j] = plotter.XY{X: ages[j], Y: means[j]}
			}
		} else {
			var err error
			pts, err = xyPoints(sub, table.BurnScarAge, response)
			if err != nil {
				return nil, err
			}
		}

		if len(pts) > 0 {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, fmt.Errorf("failed to create scatter for %s: %v", label, err)
			}
			sc.GlyphStyle.Color = colorFor(label)
			sc.GlyphStyle.Radius = vg.Points(2)
			if mean {
				sc.GlyphStyle.Radius = vg.Points(3)
			}
			p.Add(sc)
		}
		plots = append(plots, p)
	}

	return renderGrid(plots, vg.Points(900), vg.Points(400))
}

// xyPoints pairs two columns, skipping rows where either is missing.
func xyPoints(t *table.Table, x, y table.Column) (plotter.XYs, error) {
	pts := make(plotter.XYs, 0, t.Len())
	for i := range t.Rows {
		o := &t.Rows[i]
		xv, okX := o.Float(x)
		yv, okY := o.Float(y)
		if !okX || !okY {
			return nil, fmt.Errorf("columns %s and %s must be numeric", x, y)
		}
		if o.IsMissing(x) || o.IsMissing(y) {
			continue
		}
		pts = append(pts, plotter.XY{X: xv, Y: yv})
	}
	return pts, nil
}

func shortName(c table.Column) string {
	switch c {
	case table.AGB2010:
		return "AGB"
	case table.NEP2010:
		return "NEP"
	}
	return string(c)
}
