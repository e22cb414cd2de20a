// Package rgbimage holds rendered 8-bit images and the per-pixel sample
// database a render accumulates into.
package rgbimage

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pathtrace/pixel"
)

// Image is a row-major grid of colors.  Row 0 is the top of the picture.
type Image struct {
	RowSize, ColSize int
	Pixels           []pixel.Color
}

func New(rowSize, colSize int) *Image {
	return &Image{
		RowSize: rowSize,
		ColSize: colSize,
		Pixels:  make([]pixel.Color, rowSize*colSize),
	}
}

func (im *Image) Set(r, c int, col pixel.Color) {
	im.Pixels[r*im.ColSize+c] = col
}

func (im *Image) Get(r, c int) pixel.Color {
	return im.Pixels[r*im.ColSize+c]
}

// WritePPM writes the image as a plain-text (P3) PPM file.
func (im *Image) WritePPM(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.ColSize, im.RowSize); err != nil {
		return fmt.Errorf("while writing PPM header: %w", err)
	}

	for _, p := range im.Pixels {
		if _, err := fmt.Fprintf(bw, "%v\n", p); err != nil {
			return fmt.Errorf("while writing PPM pixel: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing PPM: %w", err)
	}
	return nil
}

func (im *Image) toNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.ColSize, im.RowSize))
	for r := 0; r < im.RowSize; r++ {
		for c := 0; c < im.ColSize; c++ {
			p := im.Get(r, c)
			out.SetNRGBA(c, r, color.NRGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return out
}

func (im *Image) WritePNG(w io.Writer) error {
	if err := png.Encode(w, im.toNRGBA()); err != nil {
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	return nil
}

// WriteFile writes the image to name, choosing PPM or PNG by the extension.
func (im *Image) WriteFile(name string) error {
	var write func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".ppm":
		write = im.WritePPM
	case ".png":
		write = im.WritePNG
	default:
		return fmt.Errorf("unsupported output extension %q", ext)
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating output file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}
