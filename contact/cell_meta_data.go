package contact

/*
CellMetaData describes a cell on the slave side of a contact: the slave facet it is incident to, and the
coordinates, global dofs and coefficient values of the displacement dofs of the cell. It is built once and the
accessors return copies.
*/
type CellMetaData struct {
	slaveFacet      int // global
	slaveFacetLocal int // local index on the rank owning the slave facet
	gdim            int
	dofCoords       []float64 // gdim values per dof
	cellDofs        []int
	dofCoeffs       []float64
}

func NewCellMetaData(slaveFacet, slaveFacetLocal, gdim int, dofCoords []float64, cellDofs []int,
	dofCoeffs []float64) CellMetaData {
	return CellMetaData{
		slaveFacet:      slaveFacet,
		slaveFacetLocal: slaveFacetLocal,
		gdim:            gdim,
		dofCoords:       append([]float64(nil), dofCoords...),
		cellDofs:        append([]int(nil), cellDofs...),
		dofCoeffs:       append([]float64(nil), dofCoeffs...),
	}
}

func (cm CellMetaData) SlaveFacet() int      { return cm.slaveFacet }
func (cm CellMetaData) SlaveFacetLocal() int { return cm.slaveFacetLocal }
func (cm CellMetaData) NumDofs() int         { return len(cm.cellDofs) }

// DofCoordinates are the dof coordinates, gdim values per dof
func (cm CellMetaData) DofCoordinates() []float64 { return append([]float64(nil), cm.dofCoords...) }
func (cm CellMetaData) CellDofs() []int           { return append([]int(nil), cm.cellDofs...) }
func (cm CellMetaData) DofCoefficients() []float64 {
	return append([]float64(nil), cm.dofCoeffs...)
}
