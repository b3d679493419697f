package types

import (
	"fmt"
	"math"
	"sort"
)

/*
FacetKey is an always positive number that stores a facet's vertices as indices in a way that can be compared.
A facet between vertices [4], [9] and [0] will always be stored as [0,4,9], in the ascending order of the index values.

Edges (two vertices) are packed into two 32 bit fields, triangles (three vertices) into three 21 bit fields.
*/
type FacetKey uint64

const (
	edgeBits = 32
	triBits  = 21
)

func NewFacetKey(verts []int) (packed FacetKey) {
	var (
		sorted = make([]int, len(verts))
		bits   int
	)
	copy(sorted, verts)
	sort.Ints(sorted)
	switch len(sorted) {
	case 2:
		bits = edgeBits
	case 3:
		bits = triBits
	default:
		panic(fmt.Errorf("unable to pack %d vertices into a facet key", len(verts)))
	}
	limit := 1<<bits - 1
	if bits == edgeBits {
		limit = math.MaxUint32
	}
	for _, vert := range sorted {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack vertex %d into %d bits, have %v as inputs",
				vert, bits, verts))
		}
	}
	for i, vert := range sorted {
		packed += FacetKey(vert) << (i * bits)
	}
	return
}

// GetVertices unpacks nv sorted vertex indices
func (fk FacetKey) GetVertices(nv int) (verts []int) {
	var bits int
	switch nv {
	case 2:
		bits = edgeBits
	case 3:
		bits = triBits
	default:
		panic(fmt.Errorf("facet keys hold 2 or 3 vertices, asked for %d", nv))
	}
	mask := FacetKey(1<<bits - 1)
	verts = make([]int, nv)
	for i := 0; i < nv; i++ {
		verts[i] = int((fk >> (i * bits)) & mask)
	}
	return
}
