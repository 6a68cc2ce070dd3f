package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/user/carbon_recovery_go/internal/severity"
)

// Plot keys used in the plot image map handed to BuildPDFReport.
const (
	PlotSeverityCounts  = "severity_counts"
	PlotAGBvsNEP        = "scatter_agb_nep"
	PlotAGBFacetRaw     = "facet_agb_raw"
	PlotAGBFacetMean    = "facet_agb_mean"
	PlotNEPFacetRaw     = "facet_nep_raw"
	PlotNEPFacetMean    = "facet_nep_mean"
	PlotMeanRecoveryAGB = "line_mean_agb"
	PlotMeanRecoveryNEP = "line_mean_nep"
	PlotSeverityMap     = "heatmap_severity"
)

// Colors per severity, after seaborn's "muted" palette.
var severityColors = map[severity.Label]color.Color{
	severity.Low:      color.RGBA{R: 0x6a, G: 0xcc, B: 0x64, A: 255}, // green
	severity.Moderate: color.RGBA{R: 0xee, G: 0x85, B: 0x4a, A: 255}, // orange
	severity.Severe:   color.RGBA{R: 0xd6, G: 0x5f, B: 0x5f, A: 255}, // red
}

var neutralColor = color.RGBA{R: 0x48, G: 0x78, B: 0xd0, A: 255}

// Axis labels for the study columns.
const (
	labelScarAge = "Burn Scar Age (Years)"
	labelAGB2010 = "Aboveground Biomass at 2010 (Kg-C per M-2)"
	labelNEP2010 = "Net Ecosystem Productivity at 2010 (g-C per M-2)"
)

func colorFor(l severity.Label) color.Color {
	if c, ok := severityColors[l]; ok {
		return c
	}
	return neutralColor
}

// renderPNG writes a single plot to PNG bytes.
func renderPNG(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// renderGrid lays plots out in one row sharing aligned axes and writes PNG bytes.
func renderGrid(plots []*plot.Plot, width, height vg.Length) ([]byte, error) {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for j, p := range plots {
		p.Draw(canvases[0][j])
	}

	buf := new(bytes.Buffer)
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot grid to buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// generateTicks creates labelled ticks from min to max in steps of step.
func generateTicks(min, max, step int) []plot.Tick {
	var ticks []plot.Tick
	if step <= 0 {
		step = 1
	}
	for i := min; i <= max; i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
	}
	if len(ticks) == 0 {
		ticks = append(ticks, plot.Tick{Value: float64(min), Label: fmt.Sprintf("%d", min)})
	}
	return ticks
}
