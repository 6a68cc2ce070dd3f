package table

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/user/carbon_recovery_go/internal/raster"
	"github.com/user/carbon_recovery_go/internal/severity"
)

// makeGrids builds eight 2x3 grids where grid i, cell k holds i*100 + k.
func makeGrids() []*raster.Grid {
	grids := make([]*raster.Grid, NumSourceColumns)
	for i := range grids {
		g := raster.NewGrid(2, 3)
		for k := range g.Data {
			g.Data[k] = float64(i*100 + k)
		}
		grids[i] = g
	}
	return grids
}

func TestFlattenRowMajor(t *testing.T) {
	g, err := raster.NewGridFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	got := Flatten(g)
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if got[i] != want {
			t.Errorf("flat[%d] = %v, want %v", i, got[i], want)
		}
	}
	got[0] = 99
	if g.Data[0] == 99 {
		t.Error("Flatten must copy, not alias, the grid data")
	}
}

func TestStackPreservesAlignment(t *testing.T) {
	grids := makeGrids()
	stacked, err := Stack(grids)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	if len(stacked) != 6 {
		t.Fatalf("got %d rows, want 6", len(stacked))
	}
	for r, row := range stacked {
		if len(row) != NumSourceColumns {
			t.Fatalf("row %d has %d columns", r, len(row))
		}
		for c, v := range row {
			if want := Flatten(grids[c])[r]; v != want {
				t.Errorf("stacked[%d][%d] = %v, want %v", r, c, v, want)
			}
		}
	}
}

func TestStackShapeMismatch(t *testing.T) {
	grids := makeGrids()
	grids[5] = raster.NewGrid(3, 2)
	if _, err := Stack(grids); !errors.Is(err, raster.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestAssembleNamesColumns(t *testing.T) {
	stacked, err := Stack(makeGrids())
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := Assemble(stacked, 2, 3)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(tbl.Columns) != NumSourceColumns {
		t.Fatalf("got %d columns", len(tbl.Columns))
	}
	for i, c := range SourceColumns {
		if tbl.Columns[i] != c {
			t.Errorf("column %d = %s, want %s", i, tbl.Columns[i], c)
		}
	}

	row := tbl.Rows[4]
	if row.Pixel != 4 {
		t.Errorf("pixel = %d, want 4", row.Pixel)
	}
	for i, c := range SourceColumns {
		v, ok := row.Float(c)
		if !ok || v != float64(i*100+4) {
			t.Errorf("%s = %v, want %v", c, v, i*100+4)
		}
	}
	if !math.IsNaN(row.BurnSeverity) || row.SeverityLabel != severity.Unlabeled {
		t.Error("derived columns must start missing")
	}

	if _, err := Assemble([][]float64{{1, 2}}, 1, 1); err == nil {
		t.Error("expected error for short row")
	}
}

func TestRemapForestTypes(t *testing.T) {
	tbl := NewTable(1, 4)
	tbl.Rows = []Observation{
		{ForestType: Forest{Code: 140}},
		{ForestType: Forest{Code: 990}},
		{ForestType: Forest{Code: 123}},
		{ForestType: Forest{Missing: true}},
	}

	if unmapped := RemapForestTypes(tbl); unmapped != 1 {
		t.Errorf("unmapped = %d, want 1", unmapped)
	}
	want := []string{"Longleaf/Slash Pine", "Exotic Hardwoods", "123", ""}
	for i, w := range want {
		if got := tbl.Rows[i].ForestType.String(); got != w {
			t.Errorf("row %d forest type = %q, want %q", i, got, w)
		}
	}

	once := tbl.Clone()
	RemapForestTypes(tbl)
	for i := range tbl.Rows {
		if tbl.Rows[i].ForestType != once.Rows[i].ForestType {
			t.Errorf("row %d changed on second remap: %+v -> %+v", i, once.Rows[i].ForestType, tbl.Rows[i].ForestType)
		}
	}
}

func TestForestCodesMatchExactly(t *testing.T) {
	samples := []float64{140, 140.4, 139.6, math.Inf(1), math.Inf(-1), 1e12, math.NaN()}
	stacked := make([][]float64, len(samples))
	for i, v := range samples {
		stacked[i] = []float64{10, 5, 4, v, 1, 1, 1, 25}
	}
	tbl, err := Assemble(stacked, 1, len(samples))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if unmapped := RemapForestTypes(tbl); unmapped != 5 {
		t.Errorf("unmapped = %d, want 5", unmapped)
	}
	want := []string{"Longleaf/Slash Pine", "140.4", "139.6", "+Inf", "-Inf", "1e+12", ""}
	for i, w := range want {
		ft := tbl.Rows[i].ForestType
		if got := ft.String(); got != w {
			t.Errorf("sample %v: forest type = %q, want %q", samples[i], got, w)
		}
		if i > 0 && ft.Name != "" {
			t.Errorf("sample %v was named %q", samples[i], ft.Name)
		}
	}
	if v, _ := tbl.Rows[1].Float(ForestType); v != 140.4 {
		t.Errorf("Forest_Type value = %v, want the raw sample 140.4", v)
	}
	if !tbl.Rows[len(samples)-1].IsMissing(ForestType) {
		t.Error("NaN forest sample should be missing")
	}
}

func TestFilterAndSubset(t *testing.T) {
	stacked, _ := Stack(makeGrids())
	tbl, _ := Assemble(stacked, 2, 3)

	even := tbl.Subset(func(o *Observation) bool { return o.Pixel%2 == 0 })
	if even.Len() != 3 || tbl.Len() != 6 {
		t.Fatalf("subset len %d, table len %d", even.Len(), tbl.Len())
	}

	tbl.Filter(func(o *Observation) bool { return o.Pixel >= 4 })
	if tbl.Len() != 2 || tbl.Rows[0].Pixel != 4 || tbl.Rows[1].Pixel != 5 {
		t.Errorf("filter kept %+v", tbl.Rows)
	}
}

func TestSeverityCountsOmitsEmptyCategories(t *testing.T) {
	tbl := NewTable(1, 3)
	tbl.Rows = []Observation{
		{SeverityLabel: severity.Moderate},
		{SeverityLabel: severity.Severe},
		{SeverityLabel: severity.Moderate},
	}
	counts := tbl.SeverityCounts()
	if _, ok := counts[severity.Low]; ok {
		t.Error("Low must not appear when it has no rows")
	}
	if counts[severity.Moderate] != 2 || counts[severity.Severe] != 1 {
		t.Errorf("counts = %v", counts)
	}
	active := tbl.ActiveSeverities()
	if len(active) != 2 || active[0] != severity.Moderate || active[1] != severity.Severe {
		t.Errorf("active = %v", active)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	stacked, _ := Stack(makeGrids())
	tbl, _ := Assemble(stacked, 2, 3)
	RemapForestTypes(tbl)
	tbl.Rows[0].SeverityLabel = severity.Severe
	tbl.Rows[0].BurnSeverity = 75
	tbl.AddColumn(BurnSeverity)

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, tbl); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Len() != tbl.Len() || got.GridRows != 2 || got.GridCols != 3 {
		t.Fatalf("got %d rows %dx%d", got.Len(), got.GridRows, got.GridCols)
	}
	if !got.HasColumn(BurnSeverity) {
		t.Error("column list not restored")
	}
	if got.Rows[0].SeverityLabel != severity.Severe || got.Rows[0].BurnSeverity != 75 {
		t.Errorf("row 0 = %+v", got.Rows[0])
	}
	if !math.IsNaN(got.Rows[1].BurnSeverity) {
		t.Error("NaN must survive the snapshot")
	}
}
