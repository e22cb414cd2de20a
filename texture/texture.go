// Package texture provides surface-color lookups.
//
// A Texture is a pure function of surface coordinates and position.  All of
// the constructors here return closures over immutable values, so textures
// can be shared freely between primitives and render goroutines.
package texture

import (
	"math"

	"pathtrace/pixel"
	"pathtrace/vmath/vec3"
)

type Texture func(u, v float64, p vec3.Point) pixel.Color

func Constant(c pixel.Color) Texture {
	return func(u, v float64, p vec3.Point) pixel.Color {
		return c
	}
}

// DefaultCheckerPeriod gives the same cells as the sign of
// sin(10x)*sin(10y)*sin(10z).
const DefaultCheckerPeriod = math.Pi / 10

// Checker alternates between odd and even in 3D cells of side period.
func Checker(period float64, odd, even Texture) Texture {
	return func(u, v float64, p vec3.Point) pixel.Color {
		parity := int64(0)
		for i := 0; i < 3; i++ {
			parity += int64(math.Floor(p[i] / period))
		}

		if parity&1 == 1 {
			return odd(u, v, p)
		}
		return even(u, v, p)
	}
}

// Perlin is gray gradient noise.  scale is the noise frequency in cells per
// world unit.
func Perlin(scale float64) Texture {
	return func(u, v float64, p vec3.Point) pixel.Color {
		n := Noise(vec3.MulVS(p.Vec(), scale))
		g := 0.5 * (1.0 + n)
		return pixel.FromFloats(g, g, g)
	}
}

// Marble is Perlin turbulence phase-shifting a sine stripe along Z.
func Marble(scale float64) Texture {
	return func(u, v float64, p vec3.Point) pixel.Color {
		g := 0.5 * (1.0 + math.Sin(scale*p[2]+10.0*Turbulence(p.Vec(), 7)))
		return pixel.FromFloats(g, g, g)
	}
}

// A multiplicative hash (in Knuth's style), that makes use of the fact that we
// only use 24 input bits.
func hashmul(x uint32) uint32 {
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x)
	return x
}

// perlinDotGrad picks one of 12 edge gradients for the lattice cell and dots
// it with the offset (d0, d1, d2).  The four extra cases repeat gradients to
// make the table a power of two.
func perlinDotGrad(c0, c1, c2 uint32, d0, d1, d2 float64) float64 {
	hash := hashmul(((c0 & 0xff) << 16) | ((c1 & 0xff) << 8) | (c2 & 0xff))

	switch hash & 0x0f {
	case 0x0:
		return d0 + d1
	case 0x1:
		return d0 - d1
	case 0x2:
		return -d0 + d1
	case 0x3:
		return -d0 - d1

	case 0x4:
		return d1 + d2
	case 0x5:
		return d1 - d2
	case 0x6:
		return -d1 + d2
	case 0x7:
		return -d1 - d2

	case 0x8:
		return d2 + d0
	case 0x9:
		return d2 - d0
	case 0xa:
		return -d2 + d0
	case 0xb:
		return -d2 - d0

	case 0xc:
		return d0 + d1
	case 0xd:
		return -d0 + d1
	case 0xe:
		return -d1 + d2
	default:
		return -d1 - d2
	}
}

func fade(x float64) float64 {
	return x * x * x * (x*(x*6.0-15.0) + 10.0)
}

func lerp(t, a, b float64) float64 {
	return (1-t)*a + t*b
}

// Noise is 3D gradient noise, roughly in [-1, 1] and zero on lattice points.
func Noise(p vec3.T) float64 {
	fx := math.Floor(p[0])
	fy := math.Floor(p[1])
	fz := math.Floor(p[2])

	cx := uint32(int32(fx) & 0xff)
	cy := uint32(int32(fy) & 0xff)
	cz := uint32(int32(fz) & 0xff)

	x := p[0] - fx
	y := p[1] - fy
	z := p[2] - fz

	return lerp(fade(z),
		lerp(fade(y),
			lerp(fade(x),
				perlinDotGrad(cx+0, cy+0, cz+0, x-0, y-0, z-0),
				perlinDotGrad(cx+1, cy+0, cz+0, x-1, y-0, z-0),
			),
			lerp(fade(x),
				perlinDotGrad(cx+0, cy+1, cz+0, x-0, y-1, z-0),
				perlinDotGrad(cx+1, cy+1, cz+0, x-1, y-1, z-0),
			),
		),
		lerp(fade(y),
			lerp(fade(x),
				perlinDotGrad(cx+0, cy+0, cz+1, x-0, y-0, z-1),
				perlinDotGrad(cx+1, cy+0, cz+1, x-1, y-0, z-1),
			),
			lerp(fade(x),
				perlinDotGrad(cx+0, cy+1, cz+1, x-0, y-1, z-1),
				perlinDotGrad(cx+1, cy+1, cz+1, x-1, y-1, z-1),
			),
		),
	)
}

// Turbulence sums depth octaves of |Noise|.
func Turbulence(p vec3.T, depth int) float64 {
	accum := 0.0
	weight := 1.0
	for i := 0; i < depth; i++ {
		accum += weight * math.Abs(Noise(p))
		weight *= 0.5
		p = vec3.MulVS(p, 2.0)
	}
	return accum
}
