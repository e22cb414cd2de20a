// Package bvh is a bounding volume hierarchy over geometry primitives.
package bvh

import (
	"math/rand"
	"sort"

	"pathtrace/aabox"
	"pathtrace/geometry"
	"pathtrace/ray"
)

// Node is one node of the hierarchy.  A node with a non-nil Prim is a leaf;
// otherwise both children are set.
type Node struct {
	// The union of the bounds of everything below this node.
	Bounds aabox.AABox

	Prim geometry.Primitive

	LoChild *Node
	HiChild *Node
}

// Tree is immutable once built and safe for concurrent queries.  A nil Root
// is the empty tree.
type Tree struct {
	Root *Node
}

type element struct {
	prim   geometry.Primitive
	bounds aabox.AABox
}

// Build partitions prims into a tree.  At every split the axis is chosen
// with rng, and the elements are ordered by the low corner of their bounds
// on that axis and halved by count.  The caller's slice is not modified.
func Build(prims []geometry.Primitive, rng *rand.Rand) *Tree {
	elements := make([]element, len(prims))
	for i, p := range prims {
		elements[i] = element{prim: p, bounds: p.Bounds()}
	}

	return &Tree{Root: build(elements, rng)}
}

func build(elements []element, rng *rand.Rand) *Node {
	switch len(elements) {
	case 0:
		return nil
	case 1:
		return leaf(elements[0])
	case 2:
		lo := leaf(elements[0])
		hi := leaf(elements[1])
		return &Node{
			Bounds:  aabox.MinContainingAABox(lo.Bounds, hi.Bounds),
			LoChild: lo,
			HiChild: hi,
		}
	}

	axis := rng.Intn(3)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].bounds.Spans[axis].Lo < elements[j].bounds.Spans[axis].Lo
	})

	mid := len(elements) / 2
	lo := build(elements[:mid], rng)
	hi := build(elements[mid:], rng)
	return &Node{
		Bounds:  aabox.MinContainingAABox(lo.Bounds, hi.Bounds),
		LoChild: lo,
		HiChild: hi,
	}
}

func leaf(e element) *Node {
	return &Node{
		Bounds: e.bounds,
		Prim:   e.prim,
	}
}

// Bounds returns the box around the whole tree, and false for the empty
// tree, which has no box.
func (t *Tree) Bounds() (aabox.AABox, bool) {
	if t.Root == nil {
		return aabox.AABox{}, false
	}
	return t.Root.Bounds, true
}

// Hit returns the closest primitive hit within the query's segment.  It
// agrees with a linear scan over the same primitives.
func (t *Tree) Hit(query ray.RaySegment) (geometry.HitRecord, bool) {
	if t.Root == nil {
		return geometry.HitRecord{}, false
	}
	return t.Root.hit(query)
}

func (n *Node) hit(query ray.RaySegment) (geometry.HitRecord, bool) {
	if !aabox.RayTest(query, n.Bounds) {
		return geometry.HitRecord{}, false
	}

	if n.Prim != nil {
		return n.Prim.Hit(query)
	}

	loRec, loOK := n.LoChild.hit(query)
	hiRec, hiOK := n.HiChild.hit(query)
	switch {
	case loOK && hiOK:
		if hiRec.T < loRec.T {
			return hiRec, true
		}
		return loRec, true
	case loOK:
		return loRec, true
	case hiOK:
		return hiRec, true
	}
	return geometry.HitRecord{}, false
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
}

// Stats walks the tree.  The root is at depth 0.
func (t *Tree) Stats() Stats {
	stats := Stats{}
	if t.Root == nil {
		return stats
	}

	type entry struct {
		node  *Node
		depth int
	}

	workStack := []entry{{t.Root, 0}}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		stats.Nodes++
		if cur.depth > stats.MaxDepth {
			stats.MaxDepth = cur.depth
		}

		if cur.node.Prim != nil {
			stats.Leaves++
			continue
		}

		workStack = append(workStack, entry{cur.node.LoChild, cur.depth + 1})
		workStack = append(workStack, entry{cur.node.HiChild, cur.depth + 1})
	}

	return stats
}
