package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ASCIIGridDecoder reads ESRI ASCII grids (.asc). Cells equal to the header's
// NODATA_value become NaN.
type ASCIIGridDecoder struct{}

type asciiHeader struct {
	ncols, nrows int
	nodata       float64
	hasNodata    bool
}

func (ASCIIGridDecoder) Decode(r io.Reader) (*Grid, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	var warnings []string
	hdr := asciiHeader{}
	var pending string

	// Header keys precede the first numeric token.
	for sc.Scan() {
		tok := sc.Text()
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			pending = tok
			break
		}
		if !sc.Scan() {
			return nil, nil, fmt.Errorf("header key %q has no value", tok)
		}
		val := sc.Text()
		switch strings.ToLower(tok) {
		case "ncols":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid ncols %q: %w", val, err)
			}
			hdr.ncols = n
		case "nrows":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid nrows %q: %w", val, err)
			}
			hdr.nrows = n
		case "nodata_value":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid NODATA_value %q: %w", val, err)
			}
			hdr.nodata, hdr.hasNodata = v, true
		case "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize":
			// georeferencing is not needed; layers are assumed co-registered
		default:
			warnings = append(warnings, fmt.Sprintf("ignoring unknown header key %q", tok))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if hdr.ncols <= 0 || hdr.nrows <= 0 {
		return nil, nil, fmt.Errorf("missing or invalid ncols/nrows (%d x %d)", hdr.nrows, hdr.ncols)
	}

	g := NewGrid(hdr.nrows, hdr.ncols)
	n := 0
	nodataCells := 0
	store := func(tok string) error {
		if n >= len(g.Data) {
			return fmt.Errorf("more than %d values in grid body", len(g.Data))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("cell %d: %w", n, err)
		}
		if hdr.hasNodata && v == hdr.nodata {
			v = math.NaN()
			nodataCells++
		}
		g.Data[n] = v
		n++
		return nil
	}

	if pending != "" {
		if err := store(pending); err != nil {
			return nil, nil, err
		}
	}
	for sc.Scan() {
		if err := store(sc.Text()); err != nil {
			return nil, nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if n != len(g.Data) {
		return nil, nil, fmt.Errorf("grid body has %d values, expected %d", n, len(g.Data))
	}
	if nodataCells > 0 {
		warnings = append(warnings, fmt.Sprintf("%d NODATA cells set to NaN", nodataCells))
	}
	return g, warnings, nil
}
