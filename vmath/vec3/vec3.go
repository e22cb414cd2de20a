package vec3

import (
	"math"
	"math/rand"
)

// T is a displacement in 3-space.
type T [3]float64

// Point is a position in 3-space.  Points and displacements share a
// representation, but only displacements can be scaled or normalized.
type Point [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func Neg(v T) T {
	return T{-v[0], -v[1], -v[2]}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

// MulVV is the component-wise product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Lerp returns (1-t)*a + t*b.
func Lerp(t float64, a, b T) T {
	return T{
		(1-t)*a[0] + t*b[0],
		(1-t)*a[1] + t*b[1],
		(1-t)*a[2] + t*b[2],
	}
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// AddPV moves point p by displacement v.
func AddPV(p Point, v T) Point {
	return Point{
		p[0] + v[0],
		p[1] + v[1],
		p[2] + v[2],
	}
}

func SubPV(p Point, v T) Point {
	return Point{
		p[0] - v[0],
		p[1] - v[1],
		p[2] - v[2],
	}
}

// SubPP returns the displacement that takes b to a.
func SubPP(a, b Point) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// Vec returns the displacement from the origin to p.
func (p Point) Vec() T {
	return T(p)
}

// UnitBallDistribution returns a point uniformly distributed inside the unit
// ball.
func UnitBallDistribution(rng *rand.Rand) T {
	result := T{}
	for {
		result[0] = 2 * (rng.Float64() - 0.5)
		result[1] = 2 * (rng.Float64() - 0.5)
		result[2] = 2 * (rng.Float64() - 0.5)
		if result.NormSquared() < 1.0 {
			return result
		}
	}
}
