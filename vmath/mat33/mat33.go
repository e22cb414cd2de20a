package mat33

import (
	"pathtrace/vmath/vec3"
)

// T is a row-major 3x3 matrix.
type T struct {
	Elts [9]float64
}

func Identity() T {
	return T{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// FromColumns builds the matrix whose columns are a, b, and c.
func FromColumns(a, b, c vec3.T) T {
	return T{[9]float64{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}}
}

// Column returns column i of m.
func (m T) Column(i int) vec3.T {
	return vec3.T{m.Elts[i], m.Elts[3+i], m.Elts[6+i]}
}

func MulMM(a, b T) T {
	result := T{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				result.Elts[i*3+j] += a.Elts[i*3+k] * b.Elts[k*3+j]
			}
		}
	}
	return result
}

func MulMV(a T, b vec3.T) vec3.T {
	return vec3.T{
		a.Elts[0]*b[0] + a.Elts[1]*b[1] + a.Elts[2]*b[2],
		a.Elts[3]*b[0] + a.Elts[4]*b[1] + a.Elts[5]*b[2],
		a.Elts[6]*b[0] + a.Elts[7]*b[1] + a.Elts[8]*b[2],
	}
}
