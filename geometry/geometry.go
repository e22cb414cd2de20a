// Package geometry implements ray intersection for the scene primitives.
package geometry

import (
	"math"

	"pathtrace/aabox"
	"pathtrace/contact"
	"pathtrace/material"
	"pathtrace/ray"
	"pathtrace/vmath/vec3"
)

// DegeneratePad is added to each side of a bounding box axis that would
// otherwise have zero width.
const DegeneratePad = 0.001

// HitRecord is a contact together with the material of the surface hit.
type HitRecord struct {
	contact.Contact
	Material material.Material
}

// Primitive is anything a ray can hit.
//
// Hit returns the closest intersection whose parameter lies within the
// query's segment, and false if there is none.  It never reports a hit
// outside the segment.
type Primitive interface {
	Bounds() aabox.AABox
	Hit(query ray.RaySegment) (HitRecord, bool)
}

// Sphere is a sphere with its own material.  A negative radius keeps the
// geometry but turns the normals inward, which is how hollow glass shells are
// built.
type Sphere struct {
	Center   vec3.Point
	Radius   float64
	Material material.Material
}

func (s *Sphere) Bounds() aabox.AABox {
	r := math.Abs(s.Radius)
	ext := vec3.T{r, r, r}
	return aabox.New(vec3.SubPV(s.Center, ext).Vec(), vec3.AddPV(s.Center, ext).Vec()).PadDegenerate(DegeneratePad)
}

func (s *Sphere) Hit(query ray.RaySegment) (HitRecord, bool) {
	if s.Radius == 0.0 {
		return HitRecord{}, false
	}

	d := query.TheRay.Direction
	oc := vec3.SubPP(query.TheRay.Origin, s.Center)

	a := d.NormSquared()
	if a < 1e-12 {
		return HitRecord{}, false
	}
	b := 2.0 * vec3.IProd(oc, d)
	c := oc.NormSquared() - s.Radius*s.Radius

	disc := b*b - 4.0*a*c
	if disc < 0.0 {
		return HitRecord{}, false
	}

	if disc == 0.0 {
		t := -b / (2.0 * a)
		if !query.TheSegment.Contains(t) {
			return HitRecord{}, false
		}
		return s.record(query.TheRay, t), true
	}

	// a > 0, so tNear < tFar.  Either may be the only one in the window;
	// when both are, the nearer one wins.
	sq := math.Sqrt(disc)
	tNear := (-b - sq) / (2.0 * a)
	if query.TheSegment.Contains(tNear) {
		return s.record(query.TheRay, tNear), true
	}
	tFar := (-b + sq) / (2.0 * a)
	if query.TheSegment.Contains(tFar) {
		return s.record(query.TheRay, tFar), true
	}
	return HitRecord{}, false
}

func (s *Sphere) record(r ray.Ray, t float64) HitRecord {
	p := r.Eval(t)
	n := vec3.DivVS(vec3.SubPP(p, s.Center), s.Radius)

	// Spherical coordinates of the outward normal, mapped onto [0, 1].
	outward := n
	if s.Radius < 0.0 {
		outward = vec3.Neg(n)
	}
	phi := math.Atan2(outward[2], outward[0])
	theta := math.Asin(math.Max(-1.0, math.Min(1.0, outward[1])))

	return HitRecord{
		Contact: contact.Contact{
			T: t,
			R: r,
			P: p,
			N: n,
			U: 1.0 - (phi+math.Pi)/(2.0*math.Pi),
			V: (theta + math.Pi/2.0) / math.Pi,
		},
		Material: s.Material,
	}
}

// ParallelEpsilon is the smallest Möller–Trumbore determinant magnitude that
// counts as a hit; smaller values mean the ray is (nearly) parallel to the
// triangle's plane.
const ParallelEpsilon = 1e-5

// Triangle is a flat-shaded triangle.  Build it with NewTriangle so the face
// normal is computed once.
type Triangle struct {
	A, B, C  vec3.Point
	Material material.Material

	edge1, edge2 vec3.T
	normal       vec3.T
}

func NewTriangle(a, b, c vec3.Point, m material.Material) *Triangle {
	t := &Triangle{
		A:        a,
		B:        b,
		C:        c,
		Material: m,
		edge1:    vec3.SubPP(b, a),
		edge2:    vec3.SubPP(c, a),
	}
	t.normal = vec3.Normalize(vec3.CProd(t.edge1, t.edge2))
	return t
}

// Normal is the unit face normal, normalize((B-A) x (C-A)).
func (tr *Triangle) Normal() vec3.T {
	return tr.normal
}

func (tr *Triangle) Bounds() aabox.AABox {
	return aabox.FromPoints(tr.A, tr.B, tr.C).PadDegenerate(DegeneratePad)
}

func (tr *Triangle) Hit(query ray.RaySegment) (HitRecord, bool) {
	d := query.TheRay.Direction

	h := vec3.CProd(d, tr.edge2)
	det := vec3.IProd(tr.edge1, h)
	if math.Abs(det) < ParallelEpsilon {
		return HitRecord{}, false
	}

	f := 1.0 / det
	s := vec3.SubPP(query.TheRay.Origin, tr.A)
	u := f * vec3.IProd(s, h)
	if u < 0.0 {
		return HitRecord{}, false
	}

	q := vec3.CProd(s, tr.edge1)
	v := f * vec3.IProd(d, q)
	if v < 0.0 || u+v > 1.0 {
		return HitRecord{}, false
	}

	t := f * vec3.IProd(tr.edge2, q)
	if !query.TheSegment.Contains(t) {
		return HitRecord{}, false
	}

	return HitRecord{
		Contact: contact.Contact{
			T: t,
			R: query.TheRay,
			P: query.TheRay.Eval(t),
			N: tr.normal,
			U: u,
			V: v,
		},
		Material: tr.Material,
	}, true
}

// Box is a solid axis-aligned box.
type Box struct {
	Spans    [3]ray.Span
	Material material.Material
}

func (b *Box) Bounds() aabox.AABox {
	return aabox.AABox{Spans: b.Spans}.PadDegenerate(DegeneratePad)
}

func (b *Box) Hit(query ray.RaySegment) (HitRecord, bool) {
	cover := ray.Span{Lo: math.Inf(-1), Hi: math.Inf(1)}

	var entryNormal, exitNormal vec3.T
	for i := 0; i < 3; i++ {
		cur := ray.Span{
			Lo: (b.Spans[i].Lo - query.TheRay.Origin[i]) / query.TheRay.Direction[i],
			Hi: (b.Spans[i].Hi - query.TheRay.Origin[i]) / query.TheRay.Direction[i],
		}

		// Crossing the Lo plane first means entering through the -axis face.
		normalComponent := -1.0
		if cur.Hi < cur.Lo {
			cur.Hi, cur.Lo = cur.Lo, cur.Hi
			normalComponent = 1.0
		}

		if cur.IsNaN() {
			// The ray runs inside one of the slab's planes.
			return HitRecord{}, false
		}

		if cover.Lo < cur.Lo {
			cover.Lo = cur.Lo
			entryNormal = vec3.T{}
			entryNormal[i] = normalComponent
		}
		if cur.Hi < cover.Hi {
			cover.Hi = cur.Hi
			exitNormal = vec3.T{}
			exitNormal[i] = -normalComponent
		}

		// A ray that only grazes an edge or corner misses, as in
		// aabox.RayTest.
		if cover.Hi <= cover.Lo {
			return HitRecord{}, false
		}
	}

	var t float64
	var n vec3.T
	switch {
	case query.TheSegment.Contains(cover.Lo):
		t, n = cover.Lo, entryNormal
	case query.TheSegment.Contains(cover.Hi):
		t, n = cover.Hi, exitNormal
	default:
		return HitRecord{}, false
	}

	p := query.TheRay.Eval(t)
	return HitRecord{
		Contact: contact.Contact{
			T: t,
			R: query.TheRay,
			P: p,
			N: n,
		},
		Material: b.Material,
	}, true
}

// List is a plain collection of primitives, searched by linear scan.
type List []Primitive

func (l List) Bounds() aabox.AABox {
	result := aabox.AccumZeroAABox()
	for _, p := range l {
		result = aabox.MinContainingAABox(result, p.Bounds())
	}
	return result
}

func (l List) Hit(query ray.RaySegment) (HitRecord, bool) {
	var closest HitRecord
	found := false
	for _, p := range l {
		if rec, ok := p.Hit(query); ok {
			closest = rec
			found = true
			query = query.WithHi(rec.T)
		}
	}
	return closest, found
}
