// Package geometry holds the dimension generic kernels used for contact
// detection: swept facet volumes, their bounding boxes and an exact
// penetration test between the simplices that tile them.
package geometry

import (
	"errors"
	"fmt"
)

var ErrDimensionMismatch = errors.New("dimension mismatch")

// VerticesPerFacet is the number of points describing the swept volume of one
// facet of a mesh with topological dimension tdim. The first half are the
// facet vertices, the second half the displaced vertices.
func VerticesPerFacet(tdim int) int {
	return 2 * tdim
}

// CellsPerFacet is the number of simplices in the swept volume cell template
func CellsPerFacet(tdim int) int {
	return binomial(VerticesPerFacet(tdim), tdim+1)
}

var templates = map[int][][]int{}

func init() {
	for _, tdim := range []int{2, 3} {
		templates[tdim] = combinations(VerticesPerFacet(tdim), tdim+1)
	}
}

/*
CellTemplate lists the local point indices of every simplex of a swept volume. Every (tdim+1) subset of the swept
points is a simplex, so the union of the template covers the convex hull of the swept points whether or not the
volume is degenerate. In 2D these are the 4 triangles of the quadrilateral {p0,p1,p0+u0,p1+u1}, in 3D the 15
tetrahedra of the prism over a triangle.
*/
func CellTemplate(tdim int) [][]int {
	tmpl, ok := templates[tdim]
	if !ok {
		panic(fmt.Errorf("%w: no swept volume template for topological dimension %d", ErrDimensionMismatch, tdim))
	}
	return tmpl
}

func binomial(n, k int) (c int) {
	c = 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return
}

// combinations returns all k subsets of 0..n-1 in lexicographic order
func combinations(n, k int) (combos [][]int) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combos = append(combos, append([]int(nil), idx...))
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
