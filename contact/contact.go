package contact

import (
	"pathtrace/ray"
	"pathtrace/vmath/vec3"
)

// Contact describes where a ray met a surface.
type Contact struct {
	// Ray parameter of the contact point.
	T float64

	// The ray that made contact.
	R ray.Ray

	P vec3.Point

	// Unit surface normal.  Primitives choose its orientation; materials
	// compare it against R.Direction to tell entry from exit.
	N vec3.T

	// Surface coordinates, for textures.
	U, V float64
}

// Entering reports whether the ray hit the side of the surface that N points
// out of.
func (c Contact) Entering() bool {
	return vec3.IProd(c.R.Direction, c.N) <= 0.0
}
