package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// BoundaryColormap assigns one color per interval between boundaries.
type BoundaryColormap struct {
	Boundaries []float64     // N+1 boundaries for N colors
	Colors     []color.Color // N colors
	UnderColor color.Color   // below the first boundary
	OverColor  color.Color   // at or above the last boundary
	NaNColor   color.Color
}

// Color returns the color for a given z value.
func (cm *BoundaryColormap) Color(z float64) color.Color {
	if math.IsNaN(z) {
		return cm.NaNColor
	}
	if z < cm.Boundaries[0] {
		return cm.UnderColor
	}
	for i := 0; i < len(cm.Colors); i++ {
		if z >= cm.Boundaries[i] && z < cm.Boundaries[i+1] {
			return cm.Colors[i]
		}
	}
	return cm.OverColor
}

// Palette samples the colormap at steps+1 evenly spaced values from min to
// max. A HeatMap with the same Min and Max then honours the boundaries to
// within one step.
func (cm *BoundaryColormap) Palette(min, max float64, steps int) palette.Palette {
	colors := make([]color.Color, steps+1)
	for i := range colors {
		colors[i] = cm.Color(min + (max-min)*float64(i)/float64(steps))
	}
	return colorList(colors)
}

// colorList is a fixed palette.
type colorList []color.Color

func (l colorList) Colors() []color.Color { return l }

// severityColormap colors the Moderate and Severe classes. The last boundary
// sits just above 100 so that 100 itself is Severe.
func severityColormap() *BoundaryColormap {
	return &BoundaryColormap{
		Boundaries: []float64{severity.ModerateMin, severity.SevereMin, severity.SevereMax + 1e-9},
		Colors:     []color.Color{colorFor(severity.Moderate), colorFor(severity.Severe)},
		UnderColor: colorFor(severity.Low),
		OverColor:  color.Black,
		NaNColor:   color.Gray{Y: 235},
	}
}

// severityGrid exposes the table's Burn_Severity over the source raster. Rows
// are flipped so that raster row 0 (north) is drawn at the top.
type severityGrid struct {
	rows, cols int
	z          []float64
}

func newSeverityGrid(t *table.Table) *severityGrid {
	g := &severityGrid{rows: t.GridRows, cols: t.GridCols, z: make([]float64, t.GridRows*t.GridCols)}
	for i := range g.z {
		g.z[i] = math.NaN()
	}
	for _, o := range t.Rows {
		if o.Pixel >= 0 && o.Pixel < len(g.z) {
			g.z[o.Pixel] = o.BurnSeverity
		}
	}
	return g
}

func (g *severityGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g *severityGrid) Z(c, r int) float64 { return g.z[(g.rows-1-r)*g.cols+c] }
func (g *severityGrid) X(c int) float64    { return float64(c) }
func (g *severityGrid) Y(r int) float64    { return float64(r) }

// CreateSeverityMapPlot draws Burn_Severity of the cleaned pixels over the
// study grid. Pixels removed by the pipeline are drawn as NaN.
func CreateSeverityMapPlot(t *table.Table) ([]byte, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("no observations to map")
	}
	if t.GridRows == 0 || t.GridCols == 0 {
		return nil, fmt.Errorf("table has no grid dimensions")
	}

	cm := severityColormap()
	minV, maxV := severity.ModerateMin, severity.SevereMax
	hm := plotter.NewHeatMap(newSeverityGrid(t), cm.Palette(minV, maxV, 140))
	hm.Min = minV
	hm.Max = maxV
	hm.Underflow = cm.UnderColor
	hm.Overflow = cm.OverColor
	hm.NaN = cm.NaNColor

	p := plot.New()
	p.Title.Text = "Burn Severity of Retained Pixels"
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row (north up)"
	p.X.Min = -0.5
	p.X.Max = float64(t.GridCols) - 0.5
	p.Y.Min = -0.5
	p.Y.Max = float64(t.GridRows) - 0.5
	p.Add(hm)

	for _, l := range analysis.AnalysedSeverities {
		swatch, err := plotter.NewScatter(plotter.XYs{{}})
		if err != nil {
			return nil, err
		}
		swatch.GlyphStyle.Color = colorFor(l)
		swatch.GlyphStyle.Radius = vg.Points(4)
		p.Legend.Add(l.String(), swatch)
	}
	p.Legend.Top = true

	width := vg.Points(800)
	height := width * vg.Length(float64(t.GridRows)/float64(t.GridCols))
	if height < vg.Points(300) {
		height = vg.Points(300)
	}
	if height > vg.Points(1000) {
		height = vg.Points(1000)
	}
	return renderPNG(p, width, height)
}
