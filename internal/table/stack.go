package table

import (
	"fmt"
	"math"

	"github.com/user/carbon_recovery_go/internal/raster"
)

// Flatten copies a grid into a 1D slice in row-major order.
func Flatten(g *raster.Grid) []float64 {
	out := make([]float64, g.Len())
	copy(out, g.Data)
	return out
}

// Stack flattens each grid and combines them so that column i is grid i and
// row r holds the same source cell across every column.
func Stack(grids []*raster.Grid) ([][]float64, error) {
	if len(grids) == 0 {
		return nil, nil
	}
	rows, cols := grids[0].Shape()
	flat := make([][]float64, len(grids))
	for i, g := range grids {
		if g == nil {
			return nil, fmt.Errorf("grid %d is nil", i)
		}
		if g.Rows != rows || g.Cols != cols {
			return nil, fmt.Errorf("%w: grid %d is %dx%d, grid 0 is %dx%d",
				raster.ErrShapeMismatch, i, g.Rows, g.Cols, rows, cols)
		}
		flat[i] = Flatten(g)
	}

	n := rows * cols
	out := make([][]float64, n)
	for r := 0; r < n; r++ {
		row := make([]float64, len(grids))
		for c := range flat {
			row[c] = flat[c][r]
		}
		out[r] = row
	}
	return out, nil
}

// Assemble names the stacked columns with SourceColumns. Row r keeps r as its
// pixel key.
func Assemble(stacked [][]float64, gridRows, gridCols int) (*Table, error) {
	t := NewTable(gridRows, gridCols)
	for r, row := range stacked {
		if len(row) != NumSourceColumns {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", r, len(row), NumSourceColumns)
		}
		t.Rows = append(t.Rows, Observation{
			Pixel:        r,
			AGB1990:      row[0],
			AGB2000:      row[1],
			AGB2010:      row[2],
			ForestType:   forestTypeFromValue(row[3]),
			NEP1990:      row[4],
			NEP2000:      row[5],
			NEP2010:      row[6],
			BurnYear:     row[7],
			Minus9000:    math.NaN(),
			Minus0010:    math.NaN(),
			Date:         math.NaN(),
			BurnScarAge:  math.NaN(),
			BurnSeverity: math.NaN(),
		})
	}
	return t, nil
}

// FromLayers runs Stack and Assemble over a loaded layer set.
func FromLayers(layers *raster.Layers) (*Table, error) {
	if err := layers.CheckShapes(); err != nil {
		return nil, err
	}
	grids := layers.Ordered()
	stacked, err := Stack(grids)
	if err != nil {
		return nil, err
	}
	return Assemble(stacked, grids[0].Rows, grids[0].Cols)
}

// forestTypeFromValue keeps integral samples as codes. Fractional or infinite
// samples cannot match a code exactly and are marked Invalid.
func forestTypeFromValue(v float64) Forest {
	switch {
	case math.IsNaN(v):
		return Forest{Missing: true}
	case math.IsInf(v, 0), v != math.Trunc(v), v < math.MinInt32, v > math.MaxInt32:
		return Forest{Invalid: true, Raw: v}
	}
	return Forest{Code: int(v)}
}
