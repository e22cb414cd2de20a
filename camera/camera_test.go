package camera

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pathtrace/vmath/vec3"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func axisAligned() Params {
	return Params{
		LookFrom:  vec3.Point{0, 0, 0},
		LookAt:    vec3.Point{0, 0, -1},
		Up:        vec3.T{0, 1, 0},
		VFOV:      90,
		Aspect:    2,
		FocusDist: 1,
	}
}

func TestViewport(t *testing.T) {
	c := NewThinLens(axisAligned())

	type viewport struct {
		LowerLeft            vec3.Point
		Horizontal, Vertical vec3.T
		LensRadius           float64
	}
	got := viewport{c.LowerLeft, c.Horizontal, c.Vertical, c.LensRadius}
	want := viewport{
		LowerLeft:  vec3.Point{-2, -1, -1},
		Horizontal: vec3.T{4, 0, 0},
		Vertical:   vec3.T{0, 2, 0},
	}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Wrong viewport; diff (-got +want)\n%s", diff)
	}

	basis := []vec3.T{c.Basis.Column(0), c.Basis.Column(1), c.Basis.Column(2)}
	if diff := cmp.Diff(basis, []vec3.T{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, approx); diff != "" {
		t.Errorf("Wrong basis; diff (-got +want)\n%s", diff)
	}
}

func TestPinholeRays(t *testing.T) {
	// A pinhole camera never touches the rng.
	c := NewThinLens(axisAligned())

	testCases := []struct {
		s, t float64
		want vec3.T
	}{
		{0.5, 0.5, vec3.T{0, 0, -1}},
		{0, 0, vec3.T{-2, -1, -1}},
		{1, 1, vec3.T{2, 1, -1}},
	}
	for _, tc := range testCases {
		r := c.ImageToRay(tc.s, tc.t, nil)
		if diff := cmp.Diff(r.Origin, vec3.Point{0, 0, 0}); diff != "" {
			t.Errorf("Ray does not start at the eye; diff (-got +want)\n%s", diff)
		}
		if diff := cmp.Diff(r.Direction, tc.want, approx); diff != "" {
			t.Errorf("Wrong direction for (%v, %v); diff (-got +want)\n%s", tc.s, tc.t, diff)
		}
	}
}

func TestThinLensFocus(t *testing.T) {
	p := axisAligned()
	p.LookFrom = vec3.Point{1, 2, 3}
	p.LookAt = vec3.Point{-4, 0, 0}
	p.Aperture = 0.5
	p.FocusDist = 6
	c := NewThinLens(p)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		s, tt := rng.Float64(), rng.Float64()
		r := c.ImageToRay(s, tt, rng)

		lensOffset := vec3.SubPP(r.Origin, p.LookFrom)
		if lensOffset.Norm() >= c.LensRadius {
			t.Fatalf("Ray origin %v is outside the lens", r.Origin)
		}
		if d := vec3.IProd(lensOffset, c.Basis.Column(2)); d > 1e-9 || d < -1e-9 {
			t.Fatalf("Ray origin %v is off the lens plane", r.Origin)
		}

		// Every ray through the lens reaches the same point on the focus plane.
		target := vec3.AddPV(c.LowerLeft, vec3.AddVV(vec3.MulVS(c.Horizontal, s), vec3.MulVS(c.Vertical, tt)))
		if diff := cmp.Diff(r.Eval(1), target, approx); diff != "" {
			t.Fatalf("Ray misses its focus point; diff (-got +want)\n%s", diff)
		}
	}
}
