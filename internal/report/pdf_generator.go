package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/log"
	"github.com/user/carbon_recovery_go/internal/pipeline"
	"github.com/user/carbon_recovery_go/internal/severity"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// ReportData is everything the PDF shows apart from the figures.
type ReportData struct {
	RunID          string
	GeneratedAt    time.Time
	Pipeline       *pipeline.Report
	SeverityCounts map[severity.Label]int
	Results        *analysis.Results
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // tracked by hand for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["warning"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(160, 80, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() { // significant F-tests
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string, styleName string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))
	if !s.pdf.Ok() {
		return
	}

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, styleName, "C")
	}
	s.addSpacer(2)
}

// writeTable draws a header row and body rows. cellStyle picks the style of
// each body cell; nil means "tableCell" throughout.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string, cellStyle func(row, col int) string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	drawHeader := func() {
		s.applyStyle("tableHeader")
		x := pdfMargin
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(s.lineHeight * 2)
	drawHeader()
	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			drawHeader()
		}
		x := pdfMargin
		for c, cell := range row {
			style := "tableCell"
			if cellStyle != nil {
				style = cellStyle(r, c)
			}
			s.applyStyle(style)
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[c], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			x += widths[c]
		}
		s.currentY += s.lineHeight
	}
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	case math.Abs(v) >= 1e5 || (v != 0 && math.Abs(v) < 1e-3):
		return fmt.Sprintf("%.3e", v)
	}
	return fmt.Sprintf("%.4f", v)
}

func formatCoefficients(cs []float64) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ", "
		}
		out += formatFloat(c)
	}
	return out
}

// figureDef places one plot image in the report.
type figureDef struct {
	Key     string
	Title   string
	Caption string
	Aspect  float64 // height / width
	Width   float64 // fraction of the content width
}

var overviewFigures = []figureDef{
	{PlotSeverityCounts, "Severity Counts by Fire Year", "Pixel frequencies for burn severity categories per fire year", 0.5, 0.85},
	{PlotAGBvsNEP, "Biomass and Productivity", "AGB_2010 against NEP_2010 by burn severity", 0.75, 0.6},
	{PlotSeverityMap, "Burn Severity Map", "Burn severity (%) over the study grid; grey cells were dropped during cleaning", 0.75, 0.6},
}

var recoveryFigures = []figureDef{
	{PlotAGBFacetRaw, "AGB Recovery", "Burn scar age against AGB_2010 per severity", 0.44, 0.95},
	{PlotAGBFacetMean, "Mean AGB Recovery", "Per-age mean AGB_2010 per severity", 0.44, 0.95},
	{PlotNEPFacetRaw, "NEP Recovery", "Burn scar age against NEP_2010 per severity", 0.44, 0.95},
	{PlotNEPFacetMean, "Mean NEP Recovery", "Per-age mean NEP_2010 per severity", 0.44, 0.95},
	{PlotMeanRecoveryAGB, "Mean AGB Recovery Trajectories", "Per-age mean AGB_2010 for moderate and severe burns", 0.5, 0.85},
	{PlotMeanRecoveryNEP, "Mean NEP Recovery Trajectories", "Per-age mean NEP_2010 for moderate and severe burns", 0.5, 0.85},
}

func (s *pdfStyler) addFigure(fig figureDef, plotImages map[string][]byte) {
	s.writeParagraph(fig.Title, "h2", "L")
	imgBytes, ok := plotImages[fig.Key]
	if !ok || len(imgBytes) == 0 {
		s.writeParagraph(fmt.Sprintf("Plot for %s not available.", fig.Title), "normal", "L")
		s.addSpacer(2)
		return
	}
	width := pdfContentWidth * fig.Width
	s.addImage(imgBytes, fig.Key, width, width*fig.Aspect, fig.Caption, "normal")
}

// BuildPDFReport writes the run report to filepath. plotImages maps the Plot*
// keys and DiagnosticPlotKey names to PNG bytes; missing plots are noted in
// place.
func BuildPDFReport(filepath string, data *ReportData, plotImages map[string][]byte) error {
	if data == nil {
		return fmt.Errorf("no report data")
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph("Post-Fire Carbon Recovery Report", "h1", "C")
	styler.addSpacer(3)
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	styler.writeParagraph(fmt.Sprintf("Run %s, generated %s", data.RunID, generated.Format(time.RFC1123)), "normal", "C")
	styler.addSpacer(5)

	writePipelineSection(styler, data.Pipeline)
	writeSeveritySection(styler, data.SeverityCounts)

	styler.newPage()
	writeRegressionSection(styler, data.Results)

	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(5)
	for _, fig := range overviewFigures {
		styler.addFigure(fig, plotImages)
	}
	for _, fig := range recoveryFigures {
		styler.addFigure(fig, plotImages)
	}

	if data.Results != nil && len(data.Results.Fits) > 0 {
		styler.newPage()
		styler.writeParagraph("Model Diagnostics", "h1", "C")
		styler.addSpacer(5)
		for i := range data.Results.Fits {
			f := &data.Results.Fits[i]
			styler.addFigure(figureDef{
				Key:     DiagnosticPlotKey(f),
				Title:   fmt.Sprintf("%s: %s (%s)", f.Severity, f.Pair, f.Model),
				Caption: "Test partition: true against predicted values and residual distribution",
				Aspect:  0.42,
				Width:   0.9,
			}, plotImages)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	log.Infow("Writing PDF report", "path", filepath, "pages", pdf.PageNo())
	return pdf.OutputFileAndClose(filepath)
}

func writePipelineSection(s *pdfStyler, rep *pipeline.Report) {
	s.writeParagraph("Cleaning Pipeline", "h2", "L")
	if rep == nil || len(rep.Steps) == 0 {
		s.writeParagraph("No cleaning steps recorded.", "normal", "L")
		s.addSpacer(5)
		return
	}

	rows := make([][]string, len(rep.Steps))
	for i, st := range rep.Steps {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			st.Name,
			fmt.Sprintf("%d", st.RowsIn),
			fmt.Sprintf("%d", st.RowsOut),
			fmt.Sprintf("%d", st.Columns),
			st.Note,
		}
	}
	s.writeTable(
		[]string{"#", "Step", "Rows In", "Rows Out", "Columns", "Note"},
		[]float64{0.05, 0.2, 0.1, 0.1, 0.08, 0.47},
		rows, nil)
	s.addSpacer(3)

	for _, w := range rep.Warnings {
		s.writeParagraph("Warning: "+w, "warning", "L")
	}
	s.addSpacer(5)
}

func writeSeveritySection(s *pdfStyler, counts map[severity.Label]int) {
	s.writeParagraph("Severity Categories", "h2", "L")
	if len(counts) == 0 {
		s.writeParagraph("No labelled observations remain after cleaning.", "normal", "L")
		s.addSpacer(5)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	rows := make([][]string, 0, len(counts))
	for _, l := range severity.Labels {
		n, ok := counts[l]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			l.String(),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total)),
		})
	}
	s.writeTable([]string{"Severity", "Pixels", "Share"}, []float64{0.3, 0.2, 0.2}, rows, nil)
	s.addSpacer(5)
}

func writeRegressionSection(s *pdfStyler, res *analysis.Results) {
	s.writeParagraph("Regression Models", "h2", "L")
	if res == nil {
		s.writeParagraph("No analysis results to display.", "normal", "L")
		return
	}

	if len(res.Fits) > 0 {
		rows := make([][]string, len(res.Fits))
		for i, f := range res.Fits {
			rows[i] = []string{
				f.Severity.String(),
				f.Pair.String(),
				string(f.Model),
				formatCoefficients(f.Coefficients),
				formatFloat(f.RMSE),
				formatFloat(f.RSquared),
				fmt.Sprintf("%d / %d", f.NTrain, f.NTest),
			}
		}
		s.writeTable(
			[]string{"Severity", "Model", "Type", "Coefficients (c0, c1, ...)", "RMSE", "R-squared", "Train / Test"},
			[]float64{0.1, 0.2, 0.09, 0.3, 0.1, 0.09, 0.12},
			rows, nil)
	} else {
		s.writeParagraph("No models could be fitted.", "normal", "L")
	}
	s.addSpacer(5)

	s.writeParagraph("F-Tests", "h2", "L")
	if len(res.FTests) > 0 {
		rows := make([][]string, len(res.FTests))
		for i, ft := range res.FTests {
			rows[i] = []string{
				ft.Severity.String(),
				ft.Pair.String(),
				formatFloat(ft.F),
				formatFloat(ft.P),
				fmt.Sprintf("%d", ft.N),
			}
		}
		s.writeTable(
			[]string{"Severity", "Model", "F", "p-value", "N"},
			[]float64{0.15, 0.3, 0.2, 0.2, 0.15},
			rows,
			func(row, col int) string {
				if col == 3 && res.FTests[row].P < 0.05 {
					return "tableCellRed"
				}
				return "tableCell"
			})
	} else {
		s.writeParagraph("No F-tests could be computed.", "normal", "L")
	}
	s.addSpacer(5)

	if len(res.AnalysisErrors) > 0 {
		s.writeParagraph("Analysis Errors", "h2", "L")
		for _, e := range res.AnalysisErrors {
			s.writeParagraph(e, "warning", "L")
		}
	}
}
