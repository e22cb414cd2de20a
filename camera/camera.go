package camera

import (
	"math"
	"math/rand"

	"pathtrace/ray"
	"pathtrace/vmath/mat33"
	"pathtrace/vmath/vec2"
	"pathtrace/vmath/vec3"
)

// Camera maps image-plane coordinates (s, t) in [0, 1]^2 to world rays.
// (0, 0) is the lower-left corner of the image.
type Camera interface {
	ImageToRay(s, t float64, rng *rand.Rand) ray.Ray
}

// Params are the extrinsic and intrinsic camera settings.
type Params struct {
	LookFrom vec3.Point
	LookAt   vec3.Point
	Up       vec3.T

	// Vertical field of view, in degrees.
	VFOV float64

	// Viewport width over height.
	Aspect float64

	// Lens diameter.  Zero gives a pinhole camera with everything in focus.
	Aperture float64

	// Distance from LookFrom to the plane of perfect focus.
	FocusDist float64
}

// ThinLens is a camera with an optional finite aperture, for depth of
// field.  All fields are derived once by NewThinLens.
type ThinLens struct {
	// Columns are the right (u), up (v), and backward (w) unit vectors.
	Basis mat33.T

	Origin     vec3.Point
	LowerLeft  vec3.Point
	Horizontal vec3.T
	Vertical   vec3.T
	LensRadius float64
}

func NewThinLens(p Params) *ThinLens {
	theta := p.VFOV * math.Pi / 180.0
	halfHeight := math.Tan(theta / 2.0)
	halfWidth := p.Aspect * halfHeight

	w := vec3.Normalize(vec3.SubPP(p.LookFrom, p.LookAt))
	u := vec3.Normalize(vec3.CProd(p.Up, w))
	v := vec3.CProd(w, u)

	horizontal := vec3.MulVS(u, 2.0*halfWidth*p.FocusDist)
	vertical := vec3.MulVS(v, 2.0*halfHeight*p.FocusDist)

	lowerLeft := vec3.SubPV(p.LookFrom, vec3.MulVS(horizontal, 0.5))
	lowerLeft = vec3.SubPV(lowerLeft, vec3.MulVS(vertical, 0.5))
	lowerLeft = vec3.SubPV(lowerLeft, vec3.MulVS(w, p.FocusDist))

	return &ThinLens{
		Basis:      mat33.FromColumns(u, v, w),
		Origin:     p.LookFrom,
		LowerLeft:  lowerLeft,
		Horizontal: horizontal,
		Vertical:   vertical,
		LensRadius: p.Aperture / 2.0,
	}
}

func (c *ThinLens) ImageToRay(s, t float64, rng *rand.Rand) ray.Ray {
	origin := c.Origin
	if c.LensRadius > 0.0 {
		rd := vec2.UnitDiskDistribution(rng)
		offset := mat33.MulMV(c.Basis, vec3.T{rd[0] * c.LensRadius, rd[1] * c.LensRadius, 0})
		origin = vec3.AddPV(origin, offset)
	}

	target := vec3.AddPV(c.LowerLeft, vec3.AddVV(vec3.MulVS(c.Horizontal, s), vec3.MulVS(c.Vertical, t)))
	return ray.Ray{
		Origin:    origin,
		Direction: vec3.SubPP(target, origin),
	}
}
