package scene

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pathtrace/camera"
	"pathtrace/contact"
	"pathtrace/geometry"
	"pathtrace/material"
	"pathtrace/pixel"
	"pathtrace/ray"
	"pathtrace/texture"
	"pathtrace/vmath/vec3"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// bounceOut sends every ray straight out along the surface normal.
type bounceOut struct {
	attenuation vec3.T
}

func (b *bounceOut) Scatter(c contact.Contact, rng *rand.Rand) (material.Scatter, bool) {
	return material.Scatter{
		Ray:         ray.Ray{Origin: c.P, Direction: c.N},
		Attenuation: b.attenuation,
	}, true
}

type absorber struct{}

func (absorber) Scatter(c contact.Contact, rng *rand.Rand) (material.Scatter, bool) {
	return material.Scatter{}, false
}

func newScene(prims ...geometry.Primitive) *Scene {
	sc := &Scene{
		Camera: camera.NewThinLens(camera.Params{
			LookFrom:  vec3.Point{0, 0, 0},
			LookAt:    vec3.Point{0, 0, -1},
			Up:        vec3.T{0, 1, 0},
			VFOV:      90,
			Aspect:    2,
			FocusDist: 1,
		}),
		Background: DefaultBackground(),
	}
	for _, p := range prims {
		sc.Add(p)
	}
	sc.Crush(rand.New(rand.NewSource(1)))
	return sc
}

var towardCenter = ray.Ray{Origin: vec3.Point{0, 0, 0}, Direction: vec3.T{0, 0, -1}}

func TestBackground(t *testing.T) {
	bg := DefaultBackground()

	testCases := []struct {
		desc string
		dir  vec3.T
		want vec3.T
	}{
		{"straight up", vec3.T{0, 5, 0}, vec3.T{0.5, 0.7, 1.0}},
		{"straight down", vec3.T{0, -1, 0}, vec3.T{1, 1, 1}},
		{"horizontal", vec3.T{0, 0, -1}, vec3.T{0.75, 0.85, 1.0}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if diff := cmp.Diff(bg.Eval(tc.dir), tc.want, approx); diff != "" {
				t.Errorf("diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestSampleRayMiss(t *testing.T) {
	sc := newScene()
	rng := rand.New(rand.NewSource(1))

	up := ray.Ray{Direction: vec3.T{0, 1, 0}}
	if diff := cmp.Diff(sc.SampleRay(up, rng, DefaultMaxDepth), vec3.T{0.5, 0.7, 1.0}, approx); diff != "" {
		t.Errorf("diff (-got +want)\n%s", diff)
	}
}

func TestSampleRayDepthLimit(t *testing.T) {
	sc := newScene(&geometry.Sphere{
		Center:   vec3.Point{0, 0, -1},
		Radius:   0.5,
		Material: &bounceOut{attenuation: vec3.T{0.5, 0.5, 0.5}},
	})
	rng := rand.New(rand.NewSource(1))

	// The only hit bounces straight back toward the camera and escapes
	// horizontally.
	if diff := cmp.Diff(sc.SampleRay(towardCenter, rng, 0), vec3.T{}); diff != "" {
		t.Errorf("Depth 0; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(sc.SampleRay(towardCenter, rng, 1), vec3.T{0.375, 0.425, 0.5}, approx); diff != "" {
		t.Errorf("Depth 1; diff (-got +want)\n%s", diff)
	}
}

func TestSampleRayAbsorbed(t *testing.T) {
	sc := newScene(&geometry.Sphere{Center: vec3.Point{0, 0, -1}, Radius: 0.5, Material: absorber{}})
	rng := rand.New(rand.NewSource(1))

	if diff := cmp.Diff(sc.SampleRay(towardCenter, rng, DefaultMaxDepth), vec3.T{}); diff != "" {
		t.Errorf("diff (-got +want)\n%s", diff)
	}
}

func twoSpheres() *Scene {
	gray := &material.Lambertian{Albedo: texture.Constant(pixel.FromFloats(0.5, 0.5, 0.5))}
	return newScene(
		&geometry.Sphere{Center: vec3.Point{0, 0, -1}, Radius: 0.5, Material: gray},
		&geometry.Sphere{Center: vec3.Point{0, -100.5, -1}, Radius: 100, Material: gray},
	)
}

func TestSampleRayTwoSpheres(t *testing.T) {
	sc := twoSpheres()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		r := sc.Camera.ImageToRay(rng.Float64(), rng.Float64(), rng)
		got := sc.SampleRay(r, rng, DefaultMaxDepth)
		for _, c := range got {
			if !(c >= 0 && c <= 1) {
				t.Fatalf("SampleRay(%+v) = %v, outside [0, 1]", r, got)
			}
		}
	}
}

func TestNormalRay(t *testing.T) {
	sc := twoSpheres()

	if diff := cmp.Diff(sc.NormalRay(towardCenter), vec3.T{0.5, 0.5, 1.0}, approx); diff != "" {
		t.Errorf("Center of the small sphere; diff (-got +want)\n%s", diff)
	}

	up := ray.Ray{Direction: vec3.T{0, 1, 0}}
	if diff := cmp.Diff(sc.NormalRay(up), vec3.T{0.5, 0.7, 1.0}, approx); diff != "" {
		t.Errorf("Sky; diff (-got +want)\n%s", diff)
	}
}

func TestSceneRayIntersectSkipsStart(t *testing.T) {
	sc := twoSpheres()

	// A ray starting on the small sphere's surface and heading out must not
	// hit that surface again.
	r := ray.Ray{Origin: vec3.Point{0, 0, -0.5}, Direction: vec3.T{0, 0, 1}}
	if rec, ok := sc.SceneRayIntersect(r); ok {
		t.Errorf("Unexpected self-intersection at T=%v", rec.T)
	}
}
