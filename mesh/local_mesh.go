package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/comm"
)

/*
LocalMesh is the part of a partitioned mesh owned by one rank: the elements assigned to it by EToP, plus their
vertices and facets. Facets on a partition boundary appear on both neighboring ranks. Every rank shares the same
read only global Mesh.
*/
type LocalMesh struct {
	Global *Mesh
	comm   comm.Communicator

	Cells        []int   // local cell -> global element
	Vertices     []int   // local vertex -> global vertex
	Facets       []int   // local facet -> global face
	CellVertices [][]int // local cell -> local vertices

	cellLocal, vertexLocal, facetLocal map[int]int
	facetCells                         [][]int // local facet -> local cells
}

func NewLocalMesh(m *Mesh, c comm.Communicator) (lm *LocalMesh, err error) {
	var (
		rank = c.Rank()
	)
	if m.EToP == nil {
		if c.Size() != 1 {
			return nil, fmt.Errorf("mesh must be partitioned to run on %d ranks", c.Size())
		}
	} else if len(m.EToP) != m.NumElements {
		return nil, fmt.Errorf("partition map has %d entries for %d elements", len(m.EToP), m.NumElements)
	}
	lm = &LocalMesh{
		Global:      m,
		comm:        c,
		cellLocal:   make(map[int]int),
		vertexLocal: make(map[int]int),
		facetLocal:  make(map[int]int),
	}
	for k := 0; k < m.NumElements; k++ {
		owner := 0
		if m.EToP != nil {
			owner = m.EToP[k]
		}
		if owner < 0 || owner >= c.Size() {
			return nil, fmt.Errorf("element %d assigned to partition %d, have %d ranks", k, owner, c.Size())
		}
		if owner != rank {
			continue
		}
		lm.cellLocal[k] = len(lm.Cells)
		lm.Cells = append(lm.Cells, k)
	}
	vset := make(map[int]bool)
	fset := make(map[int]bool)
	for _, k := range lm.Cells {
		for _, v := range m.Elements[k] {
			vset[v] = true
		}
		for _, f := range m.EToF[k] {
			fset[f] = true
		}
	}
	lm.Vertices = sortedKeys(vset)
	lm.Facets = sortedKeys(fset)
	for i, v := range lm.Vertices {
		lm.vertexLocal[v] = i
	}
	for i, f := range lm.Facets {
		lm.facetLocal[f] = i
	}
	lm.CellVertices = make([][]int, len(lm.Cells))
	for i, k := range lm.Cells {
		lm.CellVertices[i] = make([]int, len(m.Elements[k]))
		for j, v := range m.Elements[k] {
			lm.CellVertices[i][j] = lm.vertexLocal[v]
		}
	}
	lm.facetCells = make([][]int, len(lm.Facets))
	for i, f := range lm.Facets {
		for _, k := range m.FaceElements(f) {
			if lc, ok := lm.cellLocal[k]; ok {
				lm.facetCells[i] = append(lm.facetCells[i], lc)
			}
		}
	}
	return
}

func sortedKeys(set map[int]bool) (keys []int) {
	keys = make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}

func (lm *LocalMesh) GeometricDimension() int   { return lm.Global.GDim }
func (lm *LocalMesh) TopologicalDimension() int { return lm.Global.TDim }
func (lm *LocalMesh) Comm() comm.Communicator   { return lm.comm }
func (lm *LocalMesh) NumCells() int             { return len(lm.Cells) }
func (lm *LocalMesh) NumVertices() int          { return len(lm.Vertices) }
func (lm *LocalMesh) NumFacets() int            { return len(lm.Facets) }

// FacetVertices returns the local vertex indices of a local facet
func (lm *LocalMesh) FacetVertices(facet int) (verts []int) {
	gverts := lm.Global.Faces[lm.Facets[facet]].Vertices
	verts = make([]int, len(gverts))
	for i, v := range gverts {
		verts[i] = lm.vertexLocal[v]
	}
	return
}

func (lm *LocalMesh) VertexCoordinates(vertex int) r3.Vec {
	x := lm.Global.Vertices[lm.Vertices[vertex]]
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}

// FacetCells lists the local cells incident to a local facet
func (lm *LocalMesh) FacetCells(facet int) []int {
	return lm.facetCells[facet]
}

func (lm *LocalMesh) GlobalFacetIndex(facet int) int   { return lm.Facets[facet] }
func (lm *LocalMesh) GlobalVertexIndex(vertex int) int { return lm.Vertices[vertex] }
func (lm *LocalMesh) GlobalCellIndex(cell int) int     { return lm.Cells[cell] }

func (lm *LocalMesh) LocalFacetIndex(global int) (facet int, ok bool) {
	facet, ok = lm.facetLocal[global]
	return
}

func (lm *LocalMesh) LocalVertexIndex(global int) (vertex int, ok bool) {
	vertex, ok = lm.vertexLocal[global]
	return
}

// LocalFacets returns the local indices of the facets of a boundary marker held by this rank
func (lm *LocalMesh) LocalFacets(marker string) (facets []int, err error) {
	var ids []int
	if ids, err = lm.Global.MarkerFacets(marker); err != nil {
		return
	}
	facets = []int{}
	for _, f := range ids {
		if lf, ok := lm.facetLocal[f]; ok {
			facets = append(facets, lf)
		}
	}
	sort.Ints(facets)
	return
}
