package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/user/carbon_recovery_go/internal/analysis"
	"github.com/user/carbon_recovery_go/internal/config"
	"github.com/user/carbon_recovery_go/internal/log"
	"github.com/user/carbon_recovery_go/internal/pipeline"
	"github.com/user/carbon_recovery_go/internal/raster"
	"github.com/user/carbon_recovery_go/internal/report"
	"github.com/user/carbon_recovery_go/internal/store"
	"github.com/user/carbon_recovery_go/internal/table"
)

// App runs one end-to-end analysis.
type App struct {
	cfg          *config.Config
	fromSnapshot string

	// Populated by Run.
	RunID      string
	Table      *table.Table
	Pipeline   *pipeline.Report
	Results    *analysis.Results
	ReportPath string
}

// NewApp creates an App. When fromSnapshot is set the rasters are not read.
func NewApp(cfg *config.Config, fromSnapshot string) *App {
	return &App{cfg: cfg, fromSnapshot: fromSnapshot}
}

func (a *App) sendStatus(message string) {
	log.Info(message)
}

func (a *App) sendStatusList(header string, items []string) {
	if len(items) == 0 {
		return
	}
	log.Warn(header)
	for _, e := range items {
		log.Warnf("- %s", e)
	}
}

// Run loads the data, cleans it, fits the recovery models and writes the
// report. Cancelling ctx stops the run between stages.
func (a *App) Run(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	t, err := a.loadTable(ctx)
	if err != nil {
		return err
	}
	a.sendStatus(fmt.Sprintf("Assembled %d pixels (%d x %d grid).", t.Len(), t.GridRows, t.GridCols))

	if a.cfg.SnapshotPath != "" && a.fromSnapshot == "" {
		path := a.cfg.OutputPath(a.cfg.SnapshotPath)
		if err := table.SaveSnapshotFile(path, t); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		a.sendStatus(fmt.Sprintf("Snapshot written: %s", path))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	a.sendStatus("Cleaning pixel table...")
	t, a.Pipeline = pipeline.Run(t)
	a.Table = t
	a.sendStatus(fmt.Sprintf("Cleaning complete. %d pixels retained.", t.Len()))
	a.sendStatusList("Cleaning Warnings:", a.Pipeline.Warnings)

	if err := ctx.Err(); err != nil {
		return err
	}
	subsets := analysis.Split(t)
	a.sendStatus(fmt.Sprintf("Analyzing %d moderate and %d severe pixels (test fraction %.2f, seed %d)...",
		subsets.Moderate.Len(), subsets.Severe.Len(), a.cfg.TestFraction, a.cfg.Seed))
	a.Results = analysis.Run(subsets, analysis.Options{TestFraction: a.cfg.TestFraction, Seed: a.cfg.Seed})
	a.sendStatus(fmt.Sprintf("Analysis complete. %d fits, %d F-tests.", len(a.Results.Fits), len(a.Results.FTests)))
	a.sendStatusList("Analysis Warnings/Errors:", a.Results.AnalysisErrors)

	if err := ctx.Err(); err != nil {
		return err
	}
	var db *store.Store
	if a.cfg.DatabasePath != "" {
		db, err = store.Open(a.cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		a.RunID, err = db.BeginRun(ctx, a.cfg.JSON())
		if err != nil {
			return err
		}
	} else {
		a.RunID = uuid.NewString()
	}

	a.sendStatus("Generating plots...")
	plotImages := a.generatePlots(t, subsets)
	a.sendStatus(fmt.Sprintf("Plot generation complete. %d plots.", len(plotImages)))

	if err := ctx.Err(); err != nil {
		return err
	}
	a.ReportPath = a.cfg.OutputPath(a.cfg.ReportPath)
	a.sendStatus(fmt.Sprintf("Generating PDF: %s...", a.ReportPath))
	data := &report.ReportData{
		RunID:          a.RunID,
		GeneratedAt:    time.Now(),
		Pipeline:       a.Pipeline,
		SeverityCounts: t.SeverityCounts(),
		Results:        a.Results,
	}
	if err := report.BuildPDFReport(a.ReportPath, data, plotImages); err != nil {
		return fmt.Errorf("error generating PDF report: %w", err)
	}
	a.sendStatus(fmt.Sprintf("PDF report successfully generated: %s", a.ReportPath))

	if db != nil {
		if err := a.save(ctx, db); err != nil {
			return err
		}
		a.sendStatus(fmt.Sprintf("Run %s stored in %s", a.RunID, db.Path()))
	}
	return nil
}

func (a *App) loadTable(ctx context.Context) (*table.Table, error) {
	if a.fromSnapshot != "" {
		a.sendStatus(fmt.Sprintf("Reading snapshot: %s", a.fromSnapshot))
		t, err := table.LoadSnapshotFile(a.fromSnapshot)
		if err != nil {
			return nil, fmt.Errorf("error reading snapshot: %w", err)
		}
		return t, nil
	}

	paths := make(map[raster.LayerName]string, len(raster.LayerNames))
	for _, name := range raster.LayerNames {
		paths[name] = a.cfg.LayerPath(name)
	}
	a.sendStatus(fmt.Sprintf("Loading %d raster layers from %s", len(paths), a.cfg.InputDir))
	layers, err := raster.NewLoader(paths).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading rasters: %w", err)
	}
	a.sendStatusList("Raster Warnings:", layers.Warnings)

	t, err := table.FromLayers(layers)
	if err != nil {
		return nil, fmt.Errorf("error assembling table: %w", err)
	}
	return t, nil
}

type plotConfig struct {
	Name   string
	Create func() ([]byte, error)
}

// generatePlots renders every figure, writes each to the output directory and
// returns them keyed for the report. Failed plots are logged and skipped.
func (a *App) generatePlots(t *table.Table, subsets *analysis.Subsets) map[string][]byte {
	plotConfigs := []plotConfig{
		{report.PlotSeverityCounts, func() ([]byte, error) { return report.CreateSeverityCountPlot(t) }},
		{report.PlotAGBvsNEP, func() ([]byte, error) {
			return report.CreateScatterPlot(t, table.AGB2010, table.NEP2010, "AGB_2010 vs NEP_2010 by Burn Severity")
		}},
		{report.PlotAGBFacetRaw, func() ([]byte, error) { return report.CreateRecoveryFacetPlot(subsets, table.AGB2010, false) }},
		{report.PlotAGBFacetMean, func() ([]byte, error) { return report.CreateRecoveryFacetPlot(subsets, table.AGB2010, true) }},
		{report.PlotNEPFacetRaw, func() ([]byte, error) { return report.CreateRecoveryFacetPlot(subsets, table.NEP2010, false) }},
		{report.PlotNEPFacetMean, func() ([]byte, error) { return report.CreateRecoveryFacetPlot(subsets, table.NEP2010, true) }},
		{report.PlotMeanRecoveryAGB, func() ([]byte, error) { return report.CreateMeanRecoveryPlot(subsets, table.AGB2010) }},
		{report.PlotMeanRecoveryNEP, func() ([]byte, error) { return report.CreateMeanRecoveryPlot(subsets, table.NEP2010) }},
		{report.PlotSeverityMap, func() ([]byte, error) { return report.CreateSeverityMapPlot(t) }},
	}
	for i := range a.Results.Fits {
		f := &a.Results.Fits[i]
		plotConfigs = append(plotConfigs, plotConfig{
			Name:   report.DiagnosticPlotKey(f),
			Create: func() ([]byte, error) { return report.CreateDiagnosticPlot(f) },
		})
	}

	plotImages := make(map[string][]byte, len(plotConfigs))
	for _, pc := range plotConfigs {
		log.Debugf("Plot: %s", pc.Name)
		imgBytes, err := pc.Create()
		if err != nil {
			a.sendStatus(fmt.Sprintf("Error generating plot %s: %v", pc.Name, err))
			continue
		}
		plotImages[pc.Name] = imgBytes
		path := filepath.Join(a.cfg.OutputDir, pc.Name+".png")
		if err := os.WriteFile(path, imgBytes, 0644); err != nil {
			log.Warnf("failed to write %s: %v", path, err)
		}
	}
	return plotImages
}

func (a *App) save(ctx context.Context, db *store.Store) error {
	if err := db.SaveSteps(ctx, a.RunID, a.Pipeline); err != nil {
		return err
	}
	if err := db.SaveObservations(ctx, a.RunID, a.Table); err != nil {
		return err
	}
	return db.SaveResults(ctx, a.RunID, a.Results)
}
