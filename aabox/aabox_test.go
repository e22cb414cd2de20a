package aabox

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pathtrace/ray"
	"pathtrace/vmath/vec3"
)

func query(origin vec3.Point, dir vec3.T, lo, hi float64) ray.RaySegment {
	return ray.RaySegment{
		TheRay:     ray.Ray{Origin: origin, Direction: dir},
		TheSegment: ray.Span{Lo: lo, Hi: hi},
	}
}

func TestRayTest(t *testing.T) {
	unit := New(vec3.T{0, 0, 0}, vec3.T{1, 1, 1})
	inf := math.Inf(1)

	testCases := []struct {
		desc  string
		query ray.RaySegment
		want  bool
	}{
		{
			desc:  "straight through",
			query: query(vec3.Point{0.5, 0.5, -1}, vec3.T{0, 0, 1}, 0, inf),
			want:  true,
		},
		{
			desc:  "pointing away",
			query: query(vec3.Point{0.5, 0.5, -1}, vec3.T{0, 0, -1}, 0, inf),
			want:  false,
		},
		{
			desc:  "passes beside",
			query: query(vec3.Point{2, 0.5, -1}, vec3.T{0, 0, 1}, 0, inf),
			want:  false,
		},
		{
			desc:  "window ends before the box",
			query: query(vec3.Point{0.5, 0.5, -1}, vec3.T{0, 0, 1}, 0, 0.5),
			want:  false,
		},
		{
			desc:  "window starts after the box",
			query: query(vec3.Point{0.5, 0.5, -1}, vec3.T{0, 0, 1}, 3, inf),
			want:  false,
		},
		{
			desc:  "origin inside",
			query: query(vec3.Point{0.5, 0.5, 0.5}, vec3.T{1, 1, 1}, 0, inf),
			want:  true,
		},
		{
			desc:  "diagonal negative direction",
			query: query(vec3.Point{2, 2, 2}, vec3.T{-1, -1, -1}, 0, inf),
			want:  true,
		},
		{
			desc:  "origin on a slab plane with zero direction on that axis",
			query: query(vec3.Point{0, 0.5, -1}, vec3.T{0, 0, 1}, 0, inf),
			want:  true,
		},
		{
			desc:  "zero direction outside the slab",
			query: query(vec3.Point{-1, 0.5, -1}, vec3.T{0, 0, 1}, 0, inf),
			want:  false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := RayTest(tc.query, unit); got != tc.want {
				t.Errorf("RayTest(%+v) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestMinContainingAABox(t *testing.T) {
	a := New(vec3.T{0, 0, 0}, vec3.T{1, 1, 1})
	b := New(vec3.T{-1, 0.5, 0.5}, vec3.T{0.5, 2, 0.5})

	got := MinContainingAABox(a, b)
	want := New(vec3.T{-1, 0, 0}, vec3.T{1, 2, 1})
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Wrong union; diff (-got +want)\n%s", diff)
	}
	if !got.Contains(a) || !got.Contains(b) {
		t.Errorf("Union %+v does not contain its inputs", got)
	}
}

func TestPadDegenerate(t *testing.T) {
	flat := FromPoints(vec3.Point{0, 0, 0}, vec3.Point{1, 1, 0}).PadDegenerate(0.001)
	want := New(vec3.T{0, 0, -0.001}, vec3.T{1, 1, 0.001})
	if diff := cmp.Diff(flat, want); diff != "" {
		t.Errorf("Wrong padding; diff (-got +want)\n%s", diff)
	}

	// A ray hitting the flat box head-on must still pass the slab test.
	q := query(vec3.Point{0.5, 0.5, 1}, vec3.T{0, 0, -1}, 0, math.Inf(1))
	if !RayTest(q, flat) {
		t.Errorf("Ray missed the padded flat box")
	}
}
