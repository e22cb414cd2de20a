// Package pixel holds 8-bit colors and the per-pixel sample accumulator.
package pixel

import (
	"fmt"
	"math"

	"pathtrace/vmath/vec3"
)

// Color is a packed 8-bit-per-channel RGB color.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

func (c Color) String() string {
	return fmt.Sprintf("%d %d %d", c.R, c.G, c.B)
}

// Vec maps the color onto [0, 1] per channel.
func (c Color) Vec() vec3.T {
	return vec3.T{
		float64(c.R) / 255.0,
		float64(c.G) / 255.0,
		float64(c.B) / 255.0,
	}
}

// FromFloats maps [0, 1] onto [0, 255], truncating.  Values outside the range
// saturate, and NaN maps to 0.
func FromFloats(r, g, b float64) Color {
	return Color{
		R: channelFromFloat(r),
		G: channelFromFloat(g),
		B: channelFromFloat(b),
	}
}

func FromVec(v vec3.T) Color {
	return FromFloats(v[0], v[1], v[2])
}

func channelFromFloat(f float64) uint8 {
	if math.IsNaN(f) || f <= 0.0 {
		return 0
	}
	if f >= 1.0 {
		return 255
	}
	return uint8(f * 255.0)
}

// Gamma applies approximate gamma-2 correction on the 0-255 scale.
func Gamma(c Color) Color {
	return Color{
		R: gammaChannel(c.R),
		G: gammaChannel(c.G),
		B: gammaChannel(c.B),
	}
}

func gammaChannel(c uint8) uint8 {
	return uint8(math.Sqrt(float64(c)/255.0) * 255.0)
}

// Accumulator is a running per-channel sum of color samples.
type Accumulator struct {
	R, G, B uint64
	N       uint64
}

func (a *Accumulator) Add(c Color) {
	a.R += uint64(c.R)
	a.G += uint64(c.G)
	a.B += uint64(c.B)
	a.N++
}

// Average divides each channel sum by the sample count.  An empty
// accumulator averages to black.
func (a *Accumulator) Average() Color {
	if a.N == 0 {
		return Black
	}
	return Color{
		R: uint8(a.R / a.N),
		G: uint8(a.G / a.N),
		B: uint8(a.B / a.N),
	}
}

// Resolve is the displayable pixel value: the gamma-corrected average.
func (a *Accumulator) Resolve() Color {
	return Gamma(a.Average())
}
