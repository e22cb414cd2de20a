package ray

import (
	"math"

	"pathtrace/vmath/vec3"
)

// Span is a closed parameter interval [Lo, Hi] along a ray.
type Span struct {
	Lo, Hi float64
}

// Contains reports whether Lo <= t <= Hi.
func (s Span) Contains(t float64) bool {
	return s.Lo <= t && t <= s.Hi
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Ray is immutable once constructed; Direction need not be unit length.
type Ray struct {
	Origin    vec3.Point
	Direction vec3.T
}

func (r Ray) Eval(t float64) vec3.Point {
	return vec3.Point{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}
}

// RaySegment is a query: the ray, restricted to TheSegment.
type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}

// WithHi returns a copy of the query with its far bound moved to hi.
func (q RaySegment) WithHi(hi float64) RaySegment {
	q.TheSegment.Hi = hi
	return q
}
