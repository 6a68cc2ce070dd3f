package raster

import (
	"errors"
	"fmt"
)

// LayerName identifies one of the study rasters.
type LayerName string

const (
	AGB1990    LayerName = "AGB_1990"
	AGB2000    LayerName = "AGB_2000"
	AGB2010    LayerName = "AGB_2010"
	ForestType LayerName = "Forest_Type"
	NEP1990    LayerName = "NEP_1990"
	NEP2000    LayerName = "NEP_2000"
	NEP2010    LayerName = "NEP_2010"
	BurnYear   LayerName = "Burn_Year"
)

// LayerNames lists the layers in table column order.
var LayerNames = []LayerName{AGB1990, AGB2000, AGB2010, ForestType, NEP1990, NEP2000, NEP2010, BurnYear}

// Valid reports whether n is one of the eight study layers.
func (n LayerName) Valid() bool {
	for _, l := range LayerNames {
		if n == l {
			return true
		}
	}
	return false
}

var (
	// ErrShapeMismatch is returned when layers do not share one grid shape.
	ErrShapeMismatch = errors.New("raster layers have different shapes")
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported raster format")
)

// Grid is a 2D numeric raster stored row-major: cell (r, c) is Data[r*Cols+c].
type Grid struct {
	Rows int
	Cols int
	Data []float64
}

// NewGrid allocates a zeroed rows x cols grid.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewGridFromRows builds a grid from a slice of equal-length rows.
func NewGridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return &Grid{}, nil
	}
	g := NewGrid(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != g.Cols {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), g.Cols)
		}
		copy(g.Data[r*g.Cols:], row)
	}
	return g, nil
}

func (g *Grid) At(r, c int) float64 {
	return g.Data[r*g.Cols+c]
}

func (g *Grid) Set(r, c int, v float64) {
	g.Data[r*g.Cols+c] = v
}

// Len is the number of cells.
func (g *Grid) Len() int {
	return g.Rows * g.Cols
}

// Shape returns (rows, cols).
func (g *Grid) Shape() (int, int) {
	return g.Rows, g.Cols
}

// Layers holds one decoded grid per study layer.
type Layers struct {
	Grids    map[LayerName]*Grid
	Warnings []string // non-fatal issues found while decoding
}

// NewLayers initializes an empty layer set.
func NewLayers() *Layers {
	return &Layers{
		Grids:    make(map[LayerName]*Grid),
		Warnings: make([]string, 0),
	}
}

// Ordered returns the grids in LayerNames order. Missing layers are nil.
func (l *Layers) Ordered() []*Grid {
	out := make([]*Grid, len(LayerNames))
	for i, name := range LayerNames {
		out[i] = l.Grids[name]
	}
	return out
}

// CheckShapes verifies all eight layers are present and co-shaped.
func (l *Layers) CheckShapes() error {
	var rows, cols int
	for i, name := range LayerNames {
		g, ok := l.Grids[name]
		if !ok || g == nil {
			return fmt.Errorf("layer %s not loaded", name)
		}
		if i == 0 {
			rows, cols = g.Shape()
			continue
		}
		if g.Rows != rows || g.Cols != cols {
			return fmt.Errorf("%w: %s is %dx%d, %s is %dx%d",
				ErrShapeMismatch, name, g.Rows, g.Cols, LayerNames[0], rows, cols)
		}
	}
	return nil
}
