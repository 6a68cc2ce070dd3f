package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"
)

// TIFFDecoder reads single-band integer TIFFs. The sample value of a cell is
// its gray intensity, or its palette index for paletted images.
type TIFFDecoder struct{}

func (TIFFDecoder) Decode(r io.Reader) (*Grid, []string, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		var unsupported tiff.UnsupportedError
		if errors.As(err, &unsupported) {
			// float sample formats land here
			return nil, nil, fmt.Errorf("%w: %v (export float layers as .asc grids)", ErrUnsupportedFormat, err)
		}
		return nil, nil, err
	}
	return gridFromImage(img), nil, nil
}

func gridFromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dy(), b.Dx())

	switch im := img.(type) {
	case *image.Gray:
		for y := 0; y < g.Rows; y++ {
			for x := 0; x < g.Cols; x++ {
				g.Set(y, x, float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Gray16:
		for y := 0; y < g.Rows; y++ {
			for x := 0; x < g.Cols; x++ {
				g.Set(y, x, float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Paletted:
		for y := 0; y < g.Rows; y++ {
			for x := 0; x < g.Cols; x++ {
				g.Set(y, x, float64(im.ColorIndexAt(b.Min.X+x, b.Min.Y+y)))
			}
		}
	default:
		for y := 0; y < g.Rows; y++ {
			for x := 0; x < g.Cols; x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				g.Set(y, x, float64(c.Y))
			}
		}
	}
	return g
}
