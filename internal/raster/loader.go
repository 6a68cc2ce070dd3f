package raster

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Decoder turns an encoded raster into a Grid.
type Decoder interface {
	Decode(r io.Reader) (*Grid, []string, error)
}

// DecoderFor picks a decoder from the file extension.
func DecoderFor(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFFDecoder{}, nil
	case ".asc":
		return ASCIIGridDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// DecodeFile opens and decodes a single raster file.
func DecodeFile(path string) (*Grid, []string, error) {
	dec, err := DecoderFor(path)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open raster file: %w", err)
	}
	defer file.Close()

	g, warnings, err := dec.Decode(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return g, warnings, nil
}

// Loader reads the eight study layers from explicit paths.
type Loader struct {
	Paths map[LayerName]string
}

// NewLoader creates a Loader from a layer -> path map.
func NewLoader(paths map[LayerName]string) *Loader {
	return &Loader{Paths: paths}
}

// Load decodes every layer and fails fast when shapes disagree.
func (l *Loader) Load(ctx context.Context) (*Layers, error) {
	layers := NewLayers()
	for _, name := range LayerNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := l.Paths[name]
		if !ok || path == "" {
			return nil, fmt.Errorf("no path for layer %s", name)
		}
		g, warnings, err := DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
		for _, w := range warnings {
			layers.Warnings = append(layers.Warnings, fmt.Sprintf("%s: %s", name, w))
		}
		layers.Grids[name] = g
	}
	if err := layers.CheckShapes(); err != nil {
		return nil, err
	}
	return layers, nil
}
