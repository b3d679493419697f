package contact

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/comm"
)

// Mesh is the read only view of a rank's part of the mesh. Facet, vertex and cell arguments are local indices.
type Mesh interface {
	GeometricDimension() int
	TopologicalDimension() int
	Comm() comm.Communicator
	NumFacets() int
	NumVertices() int
	FacetVertices(facet int) []int
	VertexCoordinates(vertex int) r3.Vec
	FacetCells(facet int) []int
	GlobalFacetIndex(facet int) int
	LocalFacetIndex(global int) (facet int, ok bool)
}

// DofMap gives the global dofs of a local cell and the range of dofs this rank owns
type DofMap interface {
	CellDofs(cell int) []int
	OwnershipRange() (first, last int)
}

// Function is the displacement field, evaluated per local vertex
type Function interface {
	DofMap
	VertexDisplacement(vertex int) r3.Vec
	DofCoordinates(cell int) []r3.Vec
	CellCoefficients(cell int) []float64
}
