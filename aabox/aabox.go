package aabox

import (
	"math"

	"pathtrace/ray"
	"pathtrace/vmath/vec3"
)

// AABox is an axis-aligned box, stored as one span per axis.
type AABox struct {
	Spans [3]ray.Span
}

// New returns the box with corners min and max.
func New(min, max vec3.T) AABox {
	return AABox{
		Spans: [3]ray.Span{
			{Lo: min[0], Hi: max[0]},
			{Lo: min[1], Hi: max[1]},
			{Lo: min[2], Hi: max[2]},
		},
	}
}

// AccumZeroAABox is the identity for MinContainingAABox.
func AccumZeroAABox() AABox {
	return AABox{
		Spans: [3]ray.Span{
			{Lo: math.Inf(1), Hi: math.Inf(-1)},
			{Lo: math.Inf(1), Hi: math.Inf(-1)},
			{Lo: math.Inf(1), Hi: math.Inf(-1)},
		},
	}
}

// FromPoints returns the tightest box containing every point.
func FromPoints(points ...vec3.Point) AABox {
	result := AccumZeroAABox()
	for _, p := range points {
		for i := 0; i < 3; i++ {
			if p[i] < result.Spans[i].Lo {
				result.Spans[i].Lo = p[i]
			}
			if p[i] > result.Spans[i].Hi {
				result.Spans[i].Hi = p[i]
			}
		}
	}
	return result
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		Spans: [3]ray.Span{
			ray.MinContainingSpan(a.Spans[0], b.Spans[0]),
			ray.MinContainingSpan(a.Spans[1], b.Spans[1]),
			ray.MinContainingSpan(a.Spans[2], b.Spans[2]),
		},
	}
}

func (a AABox) Min() vec3.T {
	return vec3.T{a.Spans[0].Lo, a.Spans[1].Lo, a.Spans[2].Lo}
}

func (a AABox) Max() vec3.T {
	return vec3.T{a.Spans[0].Hi, a.Spans[1].Hi, a.Spans[2].Hi}
}

// PadDegenerate widens every zero-width axis by pad on each side, so that flat
// primitives still get a box with positive volume.
func (a AABox) PadDegenerate(pad float64) AABox {
	for i := range a.Spans {
		if a.Spans[i].Lo == a.Spans[i].Hi {
			a.Spans[i].Lo -= pad
			a.Spans[i].Hi += pad
		}
	}
	return a
}

// Contains reports whether b lies entirely inside a.
func (a AABox) Contains(b AABox) bool {
	for i := range a.Spans {
		if b.Spans[i].Lo < a.Spans[i].Lo || a.Spans[i].Hi < b.Spans[i].Hi {
			return false
		}
	}
	return true
}

// RayTest is the slab test: it reports whether the query's segment overlaps
// the box.
//
// A zero direction component gives infinite plane crossings, which is
// consistent: the ray is then always or never inside that slab.  When the
// origin also lies on a slab plane the crossing is NaN, and NaN never narrows
// the window.
func RayTest(query ray.RaySegment, b AABox) bool {
	tMin := query.TheSegment.Lo
	tMax := query.TheSegment.Hi

	for i := 0; i < 3; i++ {
		invD := 1.0 / query.TheRay.Direction[i]
		t0 := (b.Spans[i].Lo - query.TheRay.Origin[i]) * invD
		t1 := (b.Spans[i].Hi - query.TheRay.Origin[i]) * invD
		if invD < 0.0 {
			t0, t1 = t1, t0
		}

		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}

		if tMax <= tMin {
			return false
		}
	}

	return true
}
