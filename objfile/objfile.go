// Package objfile reads triangle meshes from Wavefront OBJ files.
//
// Only vertex positions and faces are understood.  Normals, texture
// coordinates, groups, and material libraries are skipped.
package objfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pathtrace/affinetransform"
	"pathtrace/geometry"
	"pathtrace/material"
	"pathtrace/vmath/vec3"
)

// Mesh is an indexed triangle list.  Faces index into Vertices from 0.
type Mesh struct {
	Vertices []vec3.Point
	Faces    [][3]int
}

// Parse reads an OBJ stream.  Quads are split into the triangles (a, b, c)
// and (a, c, d).
func Parse(in io.Reader) (*Mesh, error) {
	m := &Mesh{}

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if err := m.parseVertex(fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "f":
			if err := m.parseFace(fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("while scanning: %w", err)
	}

	return m, nil
}

func ParseFile(name string) (*Mesh, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", name, err)
	}
	return m, nil
}

func (m *Mesh) parseVertex(args []string) error {
	// An optional fourth (w) coordinate is allowed and ignored.
	if len(args) != 3 && len(args) != 4 {
		return fmt.Errorf("vertex has %d coordinates, want 3", len(args))
	}

	var p vec3.Point
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("while parsing vertex coordinate: %w", err)
		}
		p[i] = x
	}

	m.Vertices = append(m.Vertices, p)
	return nil
}

func (m *Mesh) parseFace(args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return fmt.Errorf("face has %d vertices, want 3 or 4", len(args))
	}

	idx := make([]int, len(args))
	for i, a := range args {
		if slash := strings.IndexByte(a, '/'); slash >= 0 {
			a = a[:slash]
		}

		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("while parsing face index: %w", err)
		}

		// Positive indices count from 1; negative ones count back from the
		// most recent vertex.
		switch {
		case n > 0:
			n--
		case n < 0:
			n += len(m.Vertices)
		default:
			return fmt.Errorf("face index 0 is invalid")
		}

		if n < 0 || n >= len(m.Vertices) {
			return fmt.Errorf("face index %s out of range (%d vertices)", args[i], len(m.Vertices))
		}
		idx[i] = n
	}

	m.Faces = append(m.Faces, [3]int{idx[0], idx[1], idx[2]})
	if len(idx) == 4 {
		m.Faces = append(m.Faces, [3]int{idx[0], idx[2], idx[3]})
	}
	return nil
}

// Triangles places the mesh in the world with xform and gives every face
// material mat.
func (m *Mesh) Triangles(mat material.Material, xform affinetransform.AffineTransform) []geometry.Primitive {
	world := make([]vec3.Point, len(m.Vertices))
	for i, v := range m.Vertices {
		world[i] = affinetransform.TransformPoint(xform, v)
	}

	prims := make([]geometry.Primitive, 0, len(m.Faces))
	for _, f := range m.Faces {
		prims = append(prims, geometry.NewTriangle(world[f[0]], world[f[1]], world[f[2]], mat))
	}
	return prims
}
