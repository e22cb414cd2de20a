// Package scene ties primitives, their accelerator, and a camera together,
// and evaluates light transport along camera rays.
package scene

import (
	"math"
	"math/rand"

	"pathtrace/bvh"
	"pathtrace/camera"
	"pathtrace/geometry"
	"pathtrace/ray"
	"pathtrace/vmath/vec3"
)

// ShadowEpsilon is the start of every scene query.  Scattered rays begin
// exactly on a surface; skipping this much of the ray keeps them from hitting
// that surface again through rounding error.
const ShadowEpsilon = 0.001

// DefaultMaxDepth is the default bounce limit for SampleRay.
const DefaultMaxDepth = 50

// Background is the sky seen by rays that escape the scene: a vertical
// gradient from Horizon (straight down) to Zenith (straight up).
type Background struct {
	Horizon vec3.T
	Zenith  vec3.T
}

func DefaultBackground() Background {
	return Background{
		Horizon: vec3.T{1.0, 1.0, 1.0},
		Zenith:  vec3.T{0.5, 0.7, 1.0},
	}
}

// Eval returns the gradient color seen along dir.
func (b Background) Eval(dir vec3.T) vec3.T {
	unit := vec3.Normalize(dir)
	t := 0.5 * (unit[1] + 1.0)
	return vec3.Lerp(t, b.Horizon, b.Zenith)
}

type Scene struct {
	Primitives []geometry.Primitive
	Camera     camera.Camera
	Background Background

	QueryAccelerator *bvh.Tree
}

// Add is a convenience function to register a primitive and get its index.
func (s *Scene) Add(p geometry.Primitive) int {
	s.Primitives = append(s.Primitives, p)
	return len(s.Primitives) - 1
}

// Crush builds the query accelerator.  The scene must not be modified after
// it is crushed; from then on it is safe for concurrent use.
func (s *Scene) Crush(rng *rand.Rand) {
	s.QueryAccelerator = bvh.Build(s.Primitives, rng)
}

// SceneRayIntersect finds the closest hit along r beyond ShadowEpsilon.
func (s *Scene) SceneRayIntersect(r ray.Ray) (geometry.HitRecord, bool) {
	return s.QueryAccelerator.Hit(ray.RaySegment{
		TheRay:     r,
		TheSegment: ray.Span{Lo: ShadowEpsilon, Hi: math.Inf(1)},
	})
}

// SampleRay returns one noisy estimate of the light arriving along r, with
// each channel nominally in [0, 1].
//
// A path may scatter at most depthLim times.  A path that is absorbed, or
// that hits a surface after depthLim scatters, contributes black.
func (s *Scene) SampleRay(r ray.Ray, rng *rand.Rand, depthLim int) vec3.T {
	curK := vec3.T{1.0, 1.0, 1.0}
	curRay := r

	for depth := 0; ; depth++ {
		hit, ok := s.SceneRayIntersect(curRay)
		if !ok {
			return vec3.MulVV(curK, s.Background.Eval(curRay.Direction))
		}

		if depth >= depthLim {
			return vec3.T{}
		}

		scatter, ok := hit.Material.Scatter(hit.Contact, rng)
		if !ok {
			return vec3.T{}
		}

		curK = vec3.MulVV(curK, scatter.Attenuation)
		curRay = scatter.Ray
	}
}

// NormalRay shades without any bounces: surfaces show their normal mapped
// onto [0, 1]^3, and misses show the background.
func (s *Scene) NormalRay(r ray.Ray) vec3.T {
	hit, ok := s.SceneRayIntersect(r)
	if !ok {
		return s.Background.Eval(r.Direction)
	}
	return vec3.MulVS(vec3.AddVV(hit.N, vec3.T{1.0, 1.0, 1.0}), 0.5)
}
