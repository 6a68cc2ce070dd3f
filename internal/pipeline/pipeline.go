// Package pipeline narrows the assembled pixel table to fire-affected
// Longleaf/Slash Pine pixels and derives the recovery columns.
//
// Steps run in a fixed order; later steps read columns added by earlier ones.
// Every step only removes rows or adds columns.
package pipeline

import (
	"fmt"

	"github.com/user/carbon_recovery_go/internal/log"
	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// ExcludedBurnYears are Burn_Year codes outside the 1991-2009 window:
// never burned, 1986, 1990 and 2010.
var ExcludedBurnYears = []float64{0, 16, 20, 40}

// TargetForestType is the only forest group kept for analysis.
const TargetForestType = "Longleaf/Slash Pine"

const (
	baseYear    = 1970
	endpointAge = 40 // Burn_Year of the 2010 endpoint
)

// Step is one named transformation of the table.
type Step struct {
	Name  string
	Apply func(t *table.Table) string // returns an optional note for the report
}

// StepReport records the shape of the table after a step.
type StepReport struct {
	Name    string
	RowsIn  int
	RowsOut int
	Columns int
	Note    string
}

// Report summarizes a pipeline run.
type Report struct {
	Steps    []StepReport
	Warnings []string
}

// Steps returns the cleaning steps in execution order.
func Steps() []Step {
	return []Step{
		{"exclude_burn_years", excludeBurnYears},
		{"add_agb_deltas", addDeltas},
		{"keep_agb_loss", keepBiomassLoss},
		{"add_temporal_columns", addTemporal},
		{"add_burn_severity", addSeverity},
		{"add_severity_label", addSeverityLabel},
		{"remap_forest_types", remapForestTypes},
		{"drop_missing", dropMissing},
		{"keep_target_forest", keepTargetForest},
		{"drop_low_severity", dropLowSeverity},
		{"refresh_categories", refreshCategories},
	}
}

// Run applies every step to t in place and returns it with a report.
func Run(t *table.Table) (*table.Table, *Report) {
	return RunSteps(t, Steps())
}

// RunSteps applies steps in order.
func RunSteps(t *table.Table, steps []Step) (*table.Table, *Report) {
	report := &Report{
		Steps:    make([]StepReport, 0, len(steps)),
		Warnings: make([]string, 0),
	}
	for _, s := range steps {
		in := t.Len()
		note := s.Apply(t)
		sr := StepReport{
			Name:    s.Name,
			RowsIn:  in,
			RowsOut: t.Len(),
			Columns: len(t.Columns),
			Note:    note,
		}
		report.Steps = append(report.Steps, sr)
		log.Infow("pipeline step", "step", sr.Name, "rows_in", sr.RowsIn, "rows_out", sr.RowsOut, "columns", sr.Columns)
		if note != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", s.Name, note))
		}
	}
	if t.Len() == 0 {
		report.Warnings = append(report.Warnings, "pipeline removed every row")
	}
	return t, report
}

func excludeBurnYears(t *table.Table) string {
	t.Filter(func(o *table.Observation) bool {
		for _, y := range ExcludedBurnYears {
			if o.BurnYear == y {
				return false
			}
		}
		return true
	})
	return ""
}

func addDeltas(t *table.Table) string {
	t.Each(func(o *table.Observation) {
		o.Minus9000 = o.AGB1990 - o.AGB2000
		o.Minus0010 = o.AGB2000 - o.AGB2010
	})
	t.AddColumn(table.Minus9000)
	t.AddColumn(table.Minus0010)
	return ""
}

// keepBiomassLoss drops pixels whose biomass did not fall in either decade.
func keepBiomassLoss(t *table.Table) string {
	t.Filter(func(o *table.Observation) bool {
		return o.Minus9000 > 0 || o.Minus0010 > 0
	})
	return ""
}

func addTemporal(t *table.Table) string {
	t.Each(func(o *table.Observation) {
		o.Date = baseYear + o.BurnYear
		o.BurnScarAge = endpointAge - o.BurnYear
	})
	t.AddColumn(table.Date)
	t.AddColumn(table.BurnScarAge)
	return ""
}

func addSeverity(t *table.Table) string {
	undefined := 0
	t.Each(func(o *table.Observation) {
		o.BurnSeverity = severity.Compute(o.AGB1990, o.AGB2000, o.AGB2010, o.Date)
		if o.IsMissing(table.BurnSeverity) {
			undefined++
		}
	})
	t.AddColumn(table.BurnSeverity)
	if undefined > 0 {
		return fmt.Sprintf("%d rows have a non-positive AGB baseline; severity left missing", undefined)
	}
	return ""
}

func addSeverityLabel(t *table.Table) string {
	unlabeled := 0
	t.Each(func(o *table.Observation) {
		o.SeverityLabel = severity.Bin(o.BurnSeverity)
		if o.SeverityLabel == severity.Unlabeled {
			unlabeled++
		}
	})
	t.AddColumn(table.SeverityLabel)
	if unlabeled > 0 {
		return fmt.Sprintf("%d rows fall outside (0, 100] and are unlabeled", unlabeled)
	}
	return ""
}

func remapForestTypes(t *table.Table) string {
	if unmapped := table.RemapForestTypes(t); unmapped > 0 {
		return fmt.Sprintf("%d rows have an unmapped forest type code", unmapped)
	}
	return ""
}

func dropMissing(t *table.Table) string {
	cols := t.Columns
	t.Filter(func(o *table.Observation) bool {
		for _, c := range cols {
			if o.IsMissing(c) {
				return false
			}
		}
		return true
	})
	return ""
}

func keepTargetForest(t *table.Table) string {
	t.Filter(func(o *table.Observation) bool {
		return o.ForestType.Name == TargetForestType
	})
	return ""
}

func dropLowSeverity(t *table.Table) string {
	t.Filter(func(o *table.Observation) bool {
		return o.SeverityLabel != severity.Low
	})
	return ""
}

// refreshCategories reports the active severity categories. Categories are
// derived from the rows, so removed ones cannot linger.
func refreshCategories(t *table.Table) string {
	active := t.ActiveSeverities()
	names := make([]string, len(active))
	for i, l := range active {
		names[i] = l.String()
	}
	log.Debugf("active severity categories: %v", names)
	return ""
}
