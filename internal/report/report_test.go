package report

import (
	"bytes"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/pipeline"
	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// cleanedTable builds a 6x5 grid table where every other pixel survived
// cleaning, alternating Moderate and Severe.
func cleanedTable() *table.Table {
	t := table.NewTable(6, 5)
	for px := 0; px < 30; px += 2 {
		age := float64(1 + px%10)
		label, sev := severity.Moderate, 45.0
		if (px/2)%2 == 1 {
			label, sev = severity.Severe, 85.0
		}
		t.Rows = append(t.Rows, table.Observation{
			Pixel:         px,
			Date:          2010 - age,
			BurnScarAge:   age,
			BurnSeverity:  sev,
			SeverityLabel: label,
			AGB2010:       1.5 + 0.2*age,
			NEP2010:       120 - 3*age + float64(px%3),
		})
	}
	return t
}

func assertPNG(t *testing.T, name string, img []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("%s: output is not a PNG (%d bytes)", name, len(img))
	}
}

func TestPlotsRenderPNG(t *testing.T) {
	tbl := cleanedTable()
	subsets := analysis.Split(tbl)

	img, err := CreateSeverityCountPlot(tbl)
	assertPNG(t, PlotSeverityCounts, img, err)

	img, err = CreateScatterPlot(tbl, table.AGB2010, table.NEP2010, "AGB vs NEP")
	assertPNG(t, PlotAGBvsNEP, img, err)

	img, err = CreateRecoveryFacetPlot(subsets, table.AGB2010, false)
	assertPNG(t, PlotAGBFacetRaw, img, err)

	img, err = CreateRecoveryFacetPlot(subsets, table.NEP2010, true)
	assertPNG(t, PlotNEPFacetMean, img, err)

	img, err = CreateMeanRecoveryPlot(subsets, table.AGB2010)
	assertPNG(t, PlotMeanRecoveryAGB, img, err)

	img, err = CreateSeverityMapPlot(tbl)
	assertPNG(t, PlotSeverityMap, img, err)
}

func TestPlotsRejectEmptyInput(t *testing.T) {
	empty := table.NewTable(2, 2)
	if _, err := CreateSeverityCountPlot(empty); err == nil {
		t.Error("count plot of an empty table should fail")
	}
	if _, err := CreateScatterPlot(empty, table.AGB2010, table.NEP2010, ""); err == nil {
		t.Error("scatter of an empty table should fail")
	}
	if _, err := CreateSeverityMapPlot(empty); err == nil {
		t.Error("map of an empty table should fail")
	}
	if _, err := CreateMeanRecoveryPlot(analysis.Split(empty), table.NEP2010); err == nil {
		t.Error("mean plot of empty subsets should fail")
	}
	if _, err := CreateDiagnosticPlot(&analysis.Fit{}); err == nil {
		t.Error("diagnostic plot without predictions should fail")
	}
}

func TestSeverityGridMarksDroppedPixels(t *testing.T) {
	tbl := cleanedTable()
	g := newSeverityGrid(tbl)

	c, r := g.Dims()
	if c != 5 || r != 6 {
		t.Fatalf("dims %dx%d, want 5x6", c, r)
	}
	// Pixel 0 is raster row 0, drawn at the top (plot row 5).
	if got := g.Z(0, 5); got != 45 {
		t.Errorf("pixel 0 = %v, want 45", got)
	}
	// Pixel 1 was dropped.
	if got := g.Z(1, 5); !math.IsNaN(got) {
		t.Errorf("pixel 1 = %v, want NaN", got)
	}
	// Pixel 2 is the second retained row, Severe.
	if got := g.Z(2, 5); got != 85 {
		t.Errorf("pixel 2 = %v, want 85", got)
	}
}

func TestBoundaryColormap(t *testing.T) {
	cm := severityColormap()
	tests := []struct {
		z    float64
		want color.Color
	}{
		{10, cm.UnderColor},
		{30, colorFor(severity.Moderate)},
		{69.99, colorFor(severity.Moderate)},
		{70, colorFor(severity.Severe)},
		{100, colorFor(severity.Severe)},
		{150, cm.OverColor},
		{math.NaN(), cm.NaNColor},
	}
	for _, tt := range tests {
		if got := cm.Color(tt.z); got != tt.want {
			t.Errorf("Color(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
	if n := len(cm.Palette(30, 100, 140).Colors()); n != 141 {
		t.Errorf("palette has %d colors, want 141", n)
	}
}

func TestHistogramBins(t *testing.T) {
	for n, want := range map[int]int{1: 1, 4: 2, 10: 4, 100: 10, 10000: 40} {
		if got := histogramBins(n); got != want {
			t.Errorf("histogramBins(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestBuildPDFReport(t *testing.T) {
	tbl := cleanedTable()
	subsets := analysis.Split(tbl)
	results := analysis.Run(subsets, analysis.DefaultOptions())
	if len(results.Fits) == 0 {
		t.Fatalf("no fits: %v", results.AnalysisErrors)
	}

	plots := make(map[string][]byte)
	img, err := CreateSeverityCountPlot(tbl)
	assertPNG(t, PlotSeverityCounts, img, err)
	plots[PlotSeverityCounts] = img

	diag, err := CreateDiagnosticPlot(&results.Fits[0])
	assertPNG(t, "diagnostic", diag, err)
	plots[DiagnosticPlotKey(&results.Fits[0])] = diag

	data := &ReportData{
		RunID:       "test-run",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Pipeline: &pipeline.Report{
			Steps: []pipeline.StepReport{
				{Name: "exclude_burn_years", RowsIn: 30, RowsOut: 15, Columns: 8},
			},
			Warnings: []string{"remap_forest_types: 1 rows have an unmapped forest type code"},
		},
		SeverityCounts: tbl.SeverityCounts(),
		Results:        results,
	}

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := BuildPDFReport(path, data, plots); err != nil {
		t.Fatalf("BuildPDFReport: %v", err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("report does not start with a PDF header")
	}
}

func TestBuildPDFReportWithoutResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := BuildPDFReport(path, &ReportData{RunID: "empty"}, nil); err != nil {
		t.Fatalf("BuildPDFReport: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
	if err := BuildPDFReport(path, nil, nil); err == nil {
		t.Error("nil report data should fail")
	}
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		0:           "0.0000",
		1.23456:     "1.2346",
		123456:      "1.235e+05",
		0.0001:      "1.000e-04",
		math.Inf(1): "inf",
	}
	for v, want := range tests {
		if got := formatFloat(v); got != want {
			t.Errorf("formatFloat(%v) = %q, want %q", v, got, want)
		}
	}
	if got := formatFloat(math.NaN()); got != "n/a" {
		t.Errorf("formatFloat(NaN) = %q", got)
	}
}
