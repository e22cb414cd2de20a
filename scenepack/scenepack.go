// Package scenepack builds the named scenes the renderer knows about.
package scenepack

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pathtrace/affinetransform"
	"pathtrace/camera"
	"pathtrace/geometry"
	"pathtrace/material"
	"pathtrace/objfile"
	"pathtrace/pixel"
	"pathtrace/ray"
	"pathtrace/scene"
	"pathtrace/texture"
	"pathtrace/vmath/vec3"
)

// Config selects and parameterizes a scene.
type Config struct {
	Name string

	// Aspect is the image width over height.  Zero means 2.
	Aspect float64

	// Seed drives random scene layout and the BVH split axes.
	Seed int64

	// Mesh settings, used only by the "mesh" scene.  The mesh is scaled,
	// then rotated about Y, then translated.  A zero MeshScale means 1.
	MeshPath    string
	MeshScale   float64
	MeshRotateY float64
	MeshOffset  vec3.T
}

type builder func(cfg Config, rng *rand.Rand) (*scene.Scene, error)

var builders = map[string]builder{
	"two-spheres":    twoSpheres,
	"materials":      materials,
	"random-spheres": randomSpheres,
	"perlin":         perlin,
	"mesh":           mesh,
}

// Names lists the known scenes in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs and crushes the scene named by cfg.Name.
func Build(ctx context.Context, cfg Config) (*scene.Scene, error) {
	tracer := otel.Tracer("pathtrace/scenepack")
	var span trace.Span
	_, span = tracer.Start(ctx, "Build")
	defer span.End()

	span.SetAttributes(attribute.String("scene", cfg.Name))

	sc, err := build(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stats := sc.QueryAccelerator.Stats()
	span.SetAttributes(
		attribute.Int64("primitives", int64(len(sc.Primitives))),
		attribute.Int64("bvh_depth", int64(stats.MaxDepth)),
	)
	glog.Infof("Built scene %q: %d primitives, BVH with %d nodes, %d leaves, max depth %d",
		cfg.Name, len(sc.Primitives), stats.Nodes, stats.Leaves, stats.MaxDepth)

	return sc, nil
}

func build(cfg Config) (*scene.Scene, error) {
	b, ok := builders[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", cfg.Name)
	}

	if cfg.Aspect == 0 {
		cfg.Aspect = 2.0
	}
	if cfg.MeshScale == 0 {
		cfg.MeshScale = 1.0
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	sc, err := b(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("while building scene %q: %w", cfg.Name, err)
	}

	sc.Crush(rng)
	return sc, nil
}

func lambertian(r, g, b float64) material.Material {
	return &material.Lambertian{
		Albedo: texture.Constant(pixel.FromFloats(r, g, b)),
	}
}

func checkerGround() material.Material {
	return &material.Lambertian{
		Albedo: texture.Checker(
			texture.DefaultCheckerPeriod,
			texture.Constant(pixel.FromFloats(0.2, 0.3, 0.1)),
			texture.Constant(pixel.FromFloats(0.9, 0.9, 0.9)),
		),
	}
}

func newScene(cam camera.Camera) *scene.Scene {
	return &scene.Scene{
		Camera:     cam,
		Background: scene.DefaultBackground(),
	}
}

// twoSpheres has a fixed axis-aligned viewport.  At aspect 2 the image plane
// spans (-2, -1, -1) to (2, 1, -1).
func twoSpheres(cfg Config, rng *rand.Rand) (*scene.Scene, error) {
	sc := newScene(camera.NewThinLens(camera.Params{
		LookFrom:  vec3.Point{0, 0, 0},
		LookAt:    vec3.Point{0, 0, -1},
		Up:        vec3.T{0, 1, 0},
		VFOV:      90,
		Aspect:    cfg.Aspect,
		FocusDist: 1,
	}))

	sc.Add(&geometry.Sphere{Center: vec3.Point{0, 0, -1}, Radius: 0.5, Material: lambertian(0.5, 0.5, 0.5)})
	sc.Add(&geometry.Sphere{Center: vec3.Point{0, -100.5, -1}, Radius: 100, Material: lambertian(0.5, 0.5, 0.5)})
	return sc, nil
}

func materials(cfg Config, rng *rand.Rand) (*scene.Scene, error) {
	from := vec3.Point{3, 3, 2}
	at := vec3.Point{0, 0, -1}
	sc := newScene(camera.NewThinLens(camera.Params{
		LookFrom:  from,
		LookAt:    at,
		Up:        vec3.T{0, 1, 0},
		VFOV:      20,
		Aspect:    cfg.Aspect,
		Aperture:  0.5,
		FocusDist: vec3.SubPP(from, at).Norm(),
	}))

	glass := &material.Dielectric{RefractiveIndex: 1.5}

	sc.Add(&geometry.Sphere{Center: vec3.Point{0, 0, -1}, Radius: 0.5, Material: lambertian(0.1, 0.2, 0.5)})
	sc.Add(&geometry.Sphere{Center: vec3.Point{0, -100.5, -1}, Radius: 100, Material: checkerGround()})
	sc.Add(&geometry.Sphere{Center: vec3.Point{1, 0, -1}, Radius: 0.5, Material: material.NewMetal(vec3.T{0.8, 0.6, 0.2}, 0.3)})
	sc.Add(&geometry.Sphere{Center: vec3.Point{-1, 0, -1}, Radius: 0.5, Material: glass})
	sc.Add(&geometry.Sphere{Center: vec3.Point{-1, 0, -1}, Radius: -0.45, Material: glass})
	return sc, nil
}

func randomSpheres(cfg Config, rng *rand.Rand) (*scene.Scene, error) {
	sc := newScene(camera.NewThinLens(camera.Params{
		LookFrom:  vec3.Point{13, 2, 3},
		LookAt:    vec3.Point{0, 0, 0},
		Up:        vec3.T{0, 1, 0},
		VFOV:      20,
		Aspect:    cfg.Aspect,
		Aperture:  0.1,
		FocusDist: 10,
	}))

	sc.Add(&geometry.Sphere{Center: vec3.Point{0, -1000, 0}, Radius: 1000, Material: lambertian(0.5, 0.5, 0.5)})

	clearing := vec3.Point{4, 0.2, 0}
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := rng.Float64()
			center := vec3.Point{
				float64(a) + 0.9*rng.Float64(),
				0.2,
				float64(b) + 0.9*rng.Float64(),
			}
			if vec3.SubPP(center, clearing).Norm() <= 0.9 {
				continue
			}

			var m material.Material
			switch {
			case chooseMat < 0.8:
				m = lambertian(
					rng.Float64()*rng.Float64(),
					rng.Float64()*rng.Float64(),
					rng.Float64()*rng.Float64(),
				)
			case chooseMat < 0.95:
				m = material.NewMetal(
					vec3.T{
						0.5 * (1 + rng.Float64()),
						0.5 * (1 + rng.Float64()),
						0.5 * (1 + rng.Float64()),
					},
					0.5*rng.Float64(),
				)
			default:
				m = &material.Dielectric{RefractiveIndex: 1.5}
			}
			sc.Add(&geometry.Sphere{Center: center, Radius: 0.2, Material: m})
		}
	}

	sc.Add(&geometry.Sphere{Center: vec3.Point{0, 1, 0}, Radius: 1, Material: &material.Dielectric{RefractiveIndex: 1.5}})
	sc.Add(&geometry.Sphere{Center: vec3.Point{-4, 1, 0}, Radius: 1, Material: lambertian(0.4, 0.2, 0.1)})
	sc.Add(&geometry.Sphere{Center: vec3.Point{4, 1, 0}, Radius: 1, Material: material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0)})
	return sc, nil
}

func perlin(cfg Config, rng *rand.Rand) (*scene.Scene, error) {
	sc := newScene(camera.NewThinLens(camera.Params{
		LookFrom:  vec3.Point{13, 2, 3},
		LookAt:    vec3.Point{0, 0, 0},
		Up:        vec3.T{0, 1, 0},
		VFOV:      20,
		Aspect:    cfg.Aspect,
		FocusDist: 10,
	}))

	sc.Add(&geometry.Sphere{
		Center:   vec3.Point{0, -1000, 0},
		Radius:   1000,
		Material: &material.Lambertian{Albedo: texture.Perlin(4)},
	})
	sc.Add(&geometry.Sphere{
		Center:   vec3.Point{0, 2, 0},
		Radius:   2,
		Material: &material.Lambertian{Albedo: texture.Marble(4)},
	})
	return sc, nil
}

// mesh stands an OBJ model on a mirrored pedestal over a checker floor.
func mesh(cfg Config, rng *rand.Rand) (*scene.Scene, error) {
	if cfg.MeshPath == "" {
		return nil, fmt.Errorf("no mesh file given")
	}

	m, err := objfile.ParseFile(cfg.MeshPath)
	if err != nil {
		return nil, fmt.Errorf("while loading mesh: %w", err)
	}

	sc := newScene(camera.NewThinLens(camera.Params{
		LookFrom:  vec3.Point{0, 1.5, 4},
		LookAt:    vec3.Point{0, 0.5, 0},
		Up:        vec3.T{0, 1, 0},
		VFOV:      40,
		Aspect:    cfg.Aspect,
		FocusDist: 4,
	}))

	sc.Add(&geometry.Sphere{Center: vec3.Point{0, -1000.5, 0}, Radius: 1000, Material: checkerGround()})
	sc.Add(&geometry.Box{
		Spans: [3]ray.Span{
			{Lo: -1.5, Hi: 1.5},
			{Lo: -0.5, Hi: 0},
			{Lo: -1.5, Hi: 1.5},
		},
		Material: material.NewMetal(vec3.T{0.8, 0.8, 0.8}, 0.05),
	})

	xform := affinetransform.Compose(
		affinetransform.Translate(cfg.MeshOffset),
		affinetransform.Compose(
			affinetransform.RotateY(cfg.MeshRotateY),
			affinetransform.Scale(cfg.MeshScale),
		),
	)
	for _, tri := range m.Triangles(lambertian(0.8, 0.3, 0.3), xform) {
		sc.Add(tri)
	}

	glog.V(1).Infof("Loaded %d vertices and %d faces from %s", len(m.Vertices), len(m.Faces), cfg.MeshPath)
	return sc, nil
}
