package analysis

import (
	"github.com/user/carbon_recovery_go/internal/severity"
	"github.com/user/carbon_recovery_go/internal/table"
)

// AnalysedSeverities are the categories analysed separately.
var AnalysedSeverities = []severity.Label{severity.Moderate, severity.Severe}

// Subsets partitions the cleaned table by severity.
type Subsets struct {
	Moderate *table.Table
	Severe   *table.Table
}

// Split partitions t by exact label match. t is not modified.
func Split(t *table.Table) *Subsets {
	return &Subsets{
		Moderate: bySeverity(t, severity.Moderate),
		Severe:   bySeverity(t, severity.Severe),
	}
}

func bySeverity(t *table.Table, l severity.Label) *table.Table {
	return t.Subset(func(o *table.Observation) bool { return o.SeverityLabel == l })
}

// Get returns the subset for l, or nil for labels that are not analysed.
func (s *Subsets) Get(l severity.Label) *table.Table {
	switch l {
	case severity.Moderate:
		return s.Moderate
	case severity.Severe:
		return s.Severe
	}
	return nil
}

// Total is the combined row count of both subsets.
func (s *Subsets) Total() int {
	return s.Moderate.Len() + s.Severe.Len()
}
