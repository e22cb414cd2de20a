package affinetransform

import (
	"math"

	"pathtrace/vmath/mat33"
	"pathtrace/vmath/vec3"
)

type AffineTransform struct {
	Linear mat33.T
	Offset vec3.T
}

func Identity() AffineTransform {
	return AffineTransform{
		Linear: mat33.Identity(),
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Scale(s float64) AffineTransform {
	return AffineTransform{
		Linear: mat33.T{Elts: [9]float64{s, 0.0, 0.0, 0.0, s, 0.0, 0.0, 0.0, s}},
		Offset: vec3.T{0.0, 0.0, 0.0},
	}
}

func Translate(x vec3.T) AffineTransform {
	result := Identity()
	result.Offset = x
	return result
}

// RotateY rotates counter-clockwise about the Y axis, looking down from +Y.
// The angle is in degrees.
func RotateY(degrees float64) AffineTransform {
	sin, cos := math.Sincos(degrees * math.Pi / 180.0)
	return AffineTransform{
		Linear: mat33.T{Elts: [9]float64{
			cos, 0.0, sin,
			0.0, 1.0, 0.0,
			-sin, 0.0, cos,
		}},
	}
}

// Compose returns the transform that applies b, then a.
func Compose(a, b AffineTransform) AffineTransform {
	return AffineTransform{
		Linear: mat33.MulMM(a.Linear, b.Linear),
		Offset: vec3.AddVV(a.Offset, mat33.MulMV(a.Linear, b.Offset)),
	}
}

func TransformPoint(a AffineTransform, b vec3.Point) vec3.Point {
	return vec3.Point(vec3.AddVV(mat33.MulMV(a.Linear, b.Vec()), a.Offset))
}
