package contact

import (
	"fmt"

	"github.com/notargets/gocontact/geometry"
	"github.com/notargets/gocontact/utils"
)

// slaveCellMetaData describes the cells incident to a local slave facet
func slaveCellMetaData(mesh Mesh, u Function, facet int) (cells []CellMetaData) {
	var (
		gdim   = mesh.GeometricDimension()
		global = mesh.GlobalFacetIndex(facet)
	)
	for _, cell := range mesh.FacetCells(facet) {
		var coords []float64
		for _, x := range u.DofCoordinates(cell) {
			coords = append(coords, geometry.VecToSlice(x, gdim)...)
		}
		cells = append(cells, NewCellMetaData(global, facet, gdim, coords, u.CellDofs(cell), u.CellCoefficients(cell)))
	}
	return
}

// packCells appends [local facet, ncells, (ndofs, dofs...)...] to ints and the coordinates then coefficients of
// each cell to floats
func packCells(ints []int, floats []float64, facet int, cells []CellMetaData) ([]int, []float64) {
	ints = append(ints, facet, len(cells))
	for _, cm := range cells {
		ints = append(ints, cm.NumDofs())
		ints = append(ints, cm.cellDofs...)
		floats = append(floats, cm.dofCoords...)
		floats = append(floats, cm.dofCoeffs...)
	}
	return ints, floats
}

type cellReader struct {
	ints     []int
	floats   []float64
	ip, fp   int
	gdim     int
	source   int
	overflow bool
}

func (cr *cellReader) nextInts(n int) (vals []int) {
	if n < 0 || cr.ip+n > len(cr.ints) {
		cr.overflow = true
		return nil
	}
	vals = cr.ints[cr.ip : cr.ip+n]
	cr.ip += n
	return
}

func (cr *cellReader) nextFloats(n int) (vals []float64) {
	if n < 0 || cr.fp+n > len(cr.floats) {
		cr.overflow = true
		return nil
	}
	vals = cr.floats[cr.fp : cr.fp+n]
	cr.fp += n
	return
}

func (cr *cellReader) unpackCells(facet int) (cells []CellMetaData, err error) {
	head := cr.nextInts(2)
	if cr.overflow {
		return nil, fmt.Errorf("rank %d sent a truncated cell record for facet %d", cr.source, facet)
	}
	localFacet, ncells := head[0], head[1]
	for i := 0; i < ncells; i++ {
		var (
			nd     = cr.nextInts(1)
			dofs   []int
			coords []float64
			coeffs []float64
		)
		if !cr.overflow {
			dofs = cr.nextInts(nd[0])
			coords = cr.nextFloats(cr.gdim * nd[0])
			coeffs = cr.nextFloats(nd[0])
		}
		if cr.overflow {
			return nil, fmt.Errorf("rank %d sent a truncated cell record for facet %d", cr.source, facet)
		}
		cells = append(cells, NewCellMetaData(facet, localFacet, cr.gdim, coords, dofs, coeffs))
	}
	return
}

/*
exchangeSlaveCells fetches the cell metadata of every slave facet in masterToSlave that is held by another rank. It
is collective: ranks with nothing to ask still answer the requests of the others.
*/
func exchangeSlaveCells(mesh Mesh, u Function, masterToSlave map[int][]int,
	slaveOwner map[int]int) (remote map[int][]CellMetaData, err error) {
	var (
		c        = mesh.Comm()
		np, rank = c.Size(), c.Rank()
		gdim     = mesh.GeometricDimension()
		requests = make([][]int, np)
	)
	for _, slaves := range masterToSlave {
		for _, s := range slaves {
			if owner := slaveOwner[s]; owner != rank {
				requests[owner] = append(requests[owner], s)
			}
		}
	}
	for r := range requests {
		requests[r] = utils.UniqueSortedInts(requests[r])
	}
	var wanted [][]int
	if wanted, err = c.AllToAllInt(requests); err != nil {
		return
	}
	var (
		intReplies   = make([][]int, np)
		floatReplies = make([][]float64, np)
	)
	for r, facets := range wanted {
		for _, s := range facets {
			lf, ok := mesh.LocalFacetIndex(s)
			if !ok {
				return nil, fmt.Errorf("%w: rank %d asked for slave facet %d, not on rank %d",
					ErrFacetOutOfRange, r, s, rank)
			}
			intReplies[r], floatReplies[r] = packCells(intReplies[r], floatReplies[r], lf, slaveCellMetaData(mesh, u, lf))
		}
	}
	var (
		ints   [][]int
		floats [][]float64
	)
	if ints, err = c.AllToAllInt(intReplies); err != nil {
		return
	}
	if floats, err = c.AllToAllFloat64(floatReplies); err != nil {
		return
	}
	remote = make(map[int][]CellMetaData)
	for r, facets := range requests {
		cr := &cellReader{ints: ints[r], floats: floats[r], gdim: gdim, source: r}
		for _, s := range facets {
			if remote[s], err = cr.unpackCells(s); err != nil {
				return nil, err
			}
		}
	}
	return
}
