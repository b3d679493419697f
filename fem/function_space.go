// Package fem provides the vector valued, piecewise linear displacement
// field consumed by contact detection, with its distributed dof numbering.
package fem

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/utils"
)

/*
DofMap numbers the dofs of a vector P1 field. A vertex is owned by the lowest rank holding an element around it,
the owned vertices of each rank are numbered contiguously in rank order, and vertex n carries dofs gdim*n+comp.
Every rank derives the same numbering from the shared global mesh.
*/
type DofMap struct {
	gdim         int
	rank         int
	cellDofs     [][]int
	vertexNumber []int // local vertex -> global vertex number
	ownership    *utils.PartitionMap
}

func newDofMap(lm *mesh.LocalMesh) (dm *DofMap) {
	var (
		m    = lm.Global
		np   = lm.Comm().Size()
		gdim = m.GDim
	)
	owner := make([]int, m.NumVertices)
	for v := range owner {
		owner[v] = np
	}
	for k, elem := range m.Elements {
		part := 0
		if m.EToP != nil {
			part = m.EToP[k]
		}
		for _, v := range elem {
			owner[v] = min(owner[v], part)
		}
	}
	var (
		counts = make([]int, np)
		local  = make([]int, m.NumVertices) // index among the owner's vertices
	)
	for v, o := range owner {
		if o == np {
			continue // not used by any element
		}
		local[v] = counts[o]
		counts[o]++
	}
	vertexRanges := utils.NewPartitionMapFromCounts(counts)
	dofCounts := make([]int, np)
	for n, c := range counts {
		dofCounts[n] = gdim * c
	}
	dm = &DofMap{
		gdim:         gdim,
		rank:         lm.Comm().Rank(),
		vertexNumber: make([]int, lm.NumVertices()),
		ownership:    utils.NewPartitionMapFromCounts(dofCounts),
	}
	for lv := range dm.vertexNumber {
		gv := lm.GlobalVertexIndex(lv)
		dm.vertexNumber[lv] = vertexRanges.GetGlobalK(local[gv], owner[gv])
	}
	dm.cellDofs = make([][]int, lm.NumCells())
	for c, verts := range lm.CellVertices {
		dm.cellDofs[c] = make([]int, 0, gdim*len(verts))
		for _, lv := range verts {
			dm.cellDofs[c] = append(dm.cellDofs[c], dm.VertexDofs(lv)...)
		}
	}
	return
}

// CellDofs returns the global dofs of a local cell, vertex major
func (dm *DofMap) CellDofs(cell int) []int {
	return append([]int(nil), dm.cellDofs[cell]...)
}

// OwnershipRange is the half open range of dofs owned by this rank
func (dm *DofMap) OwnershipRange() (first, last int) {
	return dm.ownership.GetBucketRange(dm.rank)
}

// Owner returns the rank owning a global dof, -1 if out of range
func (dm *DofMap) Owner(dof int) int {
	bn, _, _ := dm.ownership.GetBucket(dof)
	return bn
}

func (dm *DofMap) NumGlobalDofs() int { return dm.ownership.MaxIndex }

func (dm *DofMap) NumOwnedDofs() int { return dm.ownership.GetBucketDimension(dm.rank) }

// LocalDof is the position of an owned global dof within the ownership range, ok is false for dofs of other ranks
func (dm *DofMap) LocalDof(dof int) (row int, ok bool) {
	row, _, bn := dm.ownership.GetLocalK(dof)
	if bn < 0 || bn != dm.rank {
		return -1, false
	}
	return row, true
}

// VertexDofs returns the gdim global dofs of a local vertex
func (dm *DofMap) VertexDofs(vertex int) (dofs []int) {
	dofs = make([]int, dm.gdim)
	for comp := range dofs {
		dofs[comp] = dm.gdim*dm.vertexNumber[vertex] + comp
	}
	return
}

// FunctionSpace is the vector P1 Lagrange space over a local mesh
type FunctionSpace struct {
	Mesh   *mesh.LocalMesh
	DofMap *DofMap
	Dim    int
}

func NewVectorFunctionSpace(lm *mesh.LocalMesh) (fs *FunctionSpace, err error) {
	for _, etype := range lm.Global.ElementTypes {
		if etype != mesh.Triangle && etype != mesh.Tet {
			return nil, fmt.Errorf("P1 space needs simplices, mesh has %s elements", etype)
		}
	}
	fs = &FunctionSpace{
		Mesh: lm,
		Dim:  lm.GeometricDimension(),
	}
	fs.DofMap = newDofMap(lm)
	return
}

// TabulateDofCoordinates returns the coordinates of each dof of a local cell, in CellDofs order
func (fs *FunctionSpace) TabulateDofCoordinates(cell int) (coords []r3.Vec) {
	verts := fs.Mesh.CellVertices[cell]
	coords = make([]r3.Vec, 0, fs.Dim*len(verts))
	for _, lv := range verts {
		x := fs.Mesh.VertexCoordinates(lv)
		for comp := 0; comp < fs.Dim; comp++ {
			coords = append(coords, x)
		}
	}
	return
}
