package table

import (
	"math"
	"strconv"

	"github.com/user/carbon_recovery_go/internal/severity"
)

// Column is a table column name. Names are a fixed external contract.
type Column string

const (
	AGB1990       Column = "AGB_1990"
	AGB2000       Column = "AGB_2000"
	AGB2010       Column = "AGB_2010"
	ForestType    Column = "Forest_Type"
	NEP1990       Column = "NEP_1990"
	NEP2000       Column = "NEP_2000"
	NEP2010       Column = "NEP_2010"
	BurnYear      Column = "Burn_Year"
	Minus9000     Column = "Minus_90_00"
	Minus0010     Column = "Minus_00_10"
	Date          Column = "Date"
	BurnScarAge   Column = "Burn_Scar_Age"
	BurnSeverity  Column = "Burn_Severity"
	SeverityLabel Column = "Severity_Label"
)

// NumSourceColumns is the number of raster-backed columns.
const NumSourceColumns = 8

// SourceColumns are the raster-backed columns in stacking order.
var SourceColumns = []Column{AGB1990, AGB2000, AGB2010, ForestType, NEP1990, NEP2000, NEP2010, BurnYear}

// DerivedColumns are added by the cleaning pipeline, in the order it adds them.
var DerivedColumns = []Column{Minus9000, Minus0010, Date, BurnScarAge, BurnSeverity, SeverityLabel}

// Forest is a forest-group code and, once remapped, its descriptive name.
// A sample that is not a finite integer is kept in Raw and never named.
type Forest struct {
	Code    int     `msgpack:"code"`
	Name    string  `msgpack:"name"`
	Missing bool    `msgpack:"missing"`
	Invalid bool    `msgpack:"invalid"`
	Raw     float64 `msgpack:"raw"` // set when Invalid
}

// String renders the name, or the raw code when the code is unmapped.
func (f Forest) String() string {
	switch {
	case f.Missing:
		return ""
	case f.Name != "":
		return f.Name
	case f.Invalid:
		return strconv.FormatFloat(f.Raw, 'g', -1, 64)
	}
	return strconv.Itoa(f.Code)
}

// Observation is one pixel of the study region. Missing numeric values are NaN.
type Observation struct {
	Pixel int `msgpack:"pixel"` // row-major index of the source cell

	AGB1990    float64 `msgpack:"agb_1990"`
	AGB2000    float64 `msgpack:"agb_2000"`
	AGB2010    float64 `msgpack:"agb_2010"`
	ForestType Forest  `msgpack:"forest_type"`
	NEP1990    float64 `msgpack:"nep_1990"`
	NEP2000    float64 `msgpack:"nep_2000"`
	NEP2010    float64 `msgpack:"nep_2010"`
	BurnYear   float64 `msgpack:"burn_year"`

	Minus9000     float64        `msgpack:"minus_90_00"`
	Minus0010     float64        `msgpack:"minus_00_10"`
	Date          float64        `msgpack:"date"`
	BurnScarAge   float64        `msgpack:"burn_scar_age"`
	BurnSeverity  float64        `msgpack:"burn_severity"`
	SeverityLabel severity.Label `msgpack:"severity_label"`
}

// Float returns a numeric column value by name. Forest_Type yields its code;
// Severity_Label is not numeric and reports ok=false.
func (o *Observation) Float(col Column) (float64, bool) {
	switch col {
	case AGB1990:
		return o.AGB1990, true
	case AGB2000:
		return o.AGB2000, true
	case AGB2010:
		return o.AGB2010, true
	case ForestType:
		switch {
		case o.ForestType.Missing:
			return math.NaN(), true
		case o.ForestType.Invalid:
			return o.ForestType.Raw, true
		}
		return float64(o.ForestType.Code), true
	case NEP1990:
		return o.NEP1990, true
	case NEP2000:
		return o.NEP2000, true
	case NEP2010:
		return o.NEP2010, true
	case BurnYear:
		return o.BurnYear, true
	case Minus9000:
		return o.Minus9000, true
	case Minus0010:
		return o.Minus0010, true
	case Date:
		return o.Date, true
	case BurnScarAge:
		return o.BurnScarAge, true
	case BurnSeverity:
		return o.BurnSeverity, true
	default:
		return 0, false
	}
}

// IsMissing reports whether the value in col is missing.
func (o *Observation) IsMissing(col Column) bool {
	switch col {
	case ForestType:
		return o.ForestType.Missing
	case SeverityLabel:
		return o.SeverityLabel == severity.Unlabeled
	}
	v, ok := o.Float(col)
	return ok && math.IsNaN(v)
}

// Table is the pixel table. Columns lists the columns populated so far.
type Table struct {
	Columns  []Column      `msgpack:"columns"`
	Rows     []Observation `msgpack:"rows"`
	GridRows int           `msgpack:"grid_rows"`
	GridCols int           `msgpack:"grid_cols"`
}

// NewTable creates an empty table over the source columns.
func NewTable(gridRows, gridCols int) *Table {
	cols := make([]Column, len(SourceColumns))
	copy(cols, SourceColumns)
	return &Table{
		Columns:  cols,
		Rows:     make([]Observation, 0, gridRows*gridCols),
		GridRows: gridRows,
		GridCols: gridCols,
	}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether col has been populated.
func (t *Table) HasColumn(col Column) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn marks col as populated. Adding an existing column is a no-op.
func (t *Table) AddColumn(col Column) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// Filter keeps the rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(*Observation) bool) {
	out := t.Rows[:0]
	for i := range t.Rows {
		if keep(&t.Rows[i]) {
			out = append(out, t.Rows[i])
		}
	}
	t.Rows = out
}

// Each applies fn to every row in place.
func (t *Table) Each(fn func(*Observation)) {
	for i := range t.Rows {
		fn(&t.Rows[i])
	}
}

// Float extracts a numeric column by name.
func (t *Table) Float(col Column) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for i := range t.Rows {
		v, ok := t.Rows[i].Float(col)
		if !ok {
			v = math.NaN()
		}
		out = append(out, v)
	}
	return out
}

// Labels extracts the severity label column.
func (t *Table) Labels() []severity.Label {
	out := make([]severity.Label, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Rows[i].SeverityLabel
	}
	return out
}

// ActiveSeverities lists the severity categories that have at least one row.
func (t *Table) ActiveSeverities() []severity.Label {
	return severity.Active(t.Labels())
}

// SeverityCounts counts rows per active severity category. Categories with
// no rows are absent.
func (t *Table) SeverityCounts() map[severity.Label]int {
	counts := make(map[severity.Label]int)
	for i := range t.Rows {
		if l := t.Rows[i].SeverityLabel; l != severity.Unlabeled {
			counts[l]++
		}
	}
	return counts
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Columns:  append([]Column(nil), t.Columns...),
		Rows:     append([]Observation(nil), t.Rows...),
		GridRows: t.GridRows,
		GridCols: t.GridCols,
	}
	return c
}

// Subset returns a new table with the rows matching keep; t is unchanged.
func (t *Table) Subset(keep func(*Observation) bool) *Table {
	s := &Table{
		Columns:  append([]Column(nil), t.Columns...),
		Rows:     make([]Observation, 0),
		GridRows: t.GridRows,
		GridCols: t.GridCols,
	}
	for i := range t.Rows {
		if keep(&t.Rows[i]) {
			s.Rows = append(s.Rows, t.Rows[i])
		}
	}
	return s
}
