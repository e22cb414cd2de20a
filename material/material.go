// Package material holds the scattering models.
//
// Materials are stateless: every random choice draws from the caller's
// *rand.Rand, so a single material value can be shared by any number of
// primitives and render goroutines.
package material

import (
	"math"
	"math/rand"

	"pathtrace/contact"
	"pathtrace/ray"
	"pathtrace/texture"
	"pathtrace/vmath/vec3"
)

// Scatter is the outcome of a scattering event: the ray to follow next, and
// the per-channel factor to apply to whatever light it brings back.
type Scatter struct {
	Ray         ray.Ray
	Attenuation vec3.T
}

type Material interface {
	// Scatter returns false when the incoming ray is absorbed.
	Scatter(c contact.Contact, rng *rand.Rand) (Scatter, bool)
}

// Lambertian is an ideal diffuse reflector.
type Lambertian struct {
	Albedo texture.Texture
}

func (l *Lambertian) Scatter(c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	dir := vec3.AddVV(c.N, vec3.UnitBallDistribution(rng))
	return Scatter{
		Ray: ray.Ray{
			Origin:    c.P,
			Direction: dir,
		},
		Attenuation: l.Albedo(c.U, c.V, c.P).Vec(),
	}, true
}

// Metal is a specular reflector.  Fuzz perturbs the reflected direction; 0
// is a perfect mirror.
type Metal struct {
	Albedo vec3.T
	Fuzz   float64
}

// NewMetal clamps fuzz into [0, 1].
func NewMetal(albedo vec3.T, fuzz float64) *Metal {
	if fuzz < 0.0 {
		fuzz = 0.0
	}
	if fuzz > 1.0 {
		fuzz = 1.0
	}
	return &Metal{Albedo: albedo, Fuzz: fuzz}
}

func (m *Metal) Scatter(c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	reflected := vec3.Reflect(vec3.Normalize(c.R.Direction), c.N)
	dir := vec3.AddVV(reflected, vec3.MulVS(vec3.UnitBallDistribution(rng), m.Fuzz))

	// A fuzzed reflection that dips below the surface is absorbed.
	if vec3.IProd(dir, c.N) <= 0.0 {
		return Scatter{}, false
	}

	return Scatter{
		Ray: ray.Ray{
			Origin:    c.P,
			Direction: dir,
		},
		Attenuation: m.Albedo,
	}, true
}

// Dielectric is a clear refractive medium such as glass or water.  The
// outside medium is taken to have index 1.
type Dielectric struct {
	RefractiveIndex float64
}

func (d *Dielectric) Scatter(c contact.Contact, rng *rand.Rand) (Scatter, bool) {
	reflected := vec3.Reflect(c.R.Direction, c.N)

	var outwardNormal vec3.T
	var nR, cosine float64
	dn := vec3.IProd(c.R.Direction, c.N)
	if c.Entering() {
		outwardNormal = c.N
		nR = 1.0 / d.RefractiveIndex
		cosine = -dn / c.R.Direction.Norm()
	} else {
		outwardNormal = vec3.Neg(c.N)
		nR = d.RefractiveIndex
		cosine = d.RefractiveIndex * dn / c.R.Direction.Norm()
	}

	result := Scatter{
		Ray: ray.Ray{
			Origin:    c.P,
			Direction: reflected,
		},
		Attenuation: vec3.T{1.0, 1.0, 1.0},
	}

	// Every scatter event consumes exactly one draw.
	u := rng.Float64()

	refracted, ok := Refract(c.R.Direction, outwardNormal, nR)
	if !ok {
		// Total internal reflection.
		return result, true
	}

	// An index-matched boundary reflects nothing, although Schlick's
	// polynomial would still predict reflection at grazing angles.
	if d.RefractiveIndex == 1.0 || u >= Schlick(cosine, d.RefractiveIndex) {
		result.Ray.Direction = refracted
	}
	return result, true
}

// Refract bends v through a surface with unit normal n (pointing toward the
// side v comes from), where nR is the ratio of the incident index to the
// transmitted index.  It returns false on total internal reflection.
func Refract(v, n vec3.T, nR float64) (vec3.T, bool) {
	uv := vec3.Normalize(v)
	dt := vec3.IProd(uv, n)
	snell := 1.0 - nR*nR*(1.0-dt*dt)
	if snell <= 0.0 {
		return vec3.T{}, false
	}

	return vec3.SubVV(
		vec3.MulVS(vec3.SubVV(uv, vec3.MulVS(n, dt)), nR),
		vec3.MulVS(n, math.Sqrt(snell)),
	), true
}

// Schlick approximates the Fresnel reflectance at the given incidence cosine.
func Schlick(cosine, refractiveIndex float64) float64 {
	r0 := (1.0 - refractiveIndex) / (1.0 + refractiveIndex)
	r0 = r0 * r0
	return r0 + (1.0-r0)*math.Pow(1.0-cosine, 5.0)
}
