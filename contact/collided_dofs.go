package contact

import (
	"fmt"

	"github.com/notargets/gocontact/utils"
)

/*
TabulateCollidedCellDofs attributes the dofs of the cells incident to each contacted slave facet to every local cell
incident to its master facet. Dofs inside the ownership range of dofmap go to owned, the rest to offProc, each list
sorted without repeats. Slave facets held by this rank use dofmap directly, the others use the cell metadata
gathered for the master facet.
*/
func TabulateCollidedCellDofs(mesh Mesh, dofmap DofMap, masterToSlave map[int][]int,
	shared map[int][]CellMetaData) (owned, offProc map[int][]int, err error) {
	var (
		first, last = dofmap.OwnershipRange()
	)
	owned = make(map[int][]int)
	offProc = make(map[int][]int)
	for _, m := range sortedKeys(masterToSlave) {
		lm, ok := mesh.LocalFacetIndex(m)
		if !ok {
			return nil, nil, fmt.Errorf("%w: master facet %d is not on this rank", ErrFacetOutOfRange, m)
		}
		var dofs []int
		for _, s := range masterToSlave[m] {
			var slaveDofs []int
			if ls, local := mesh.LocalFacetIndex(s); local {
				for _, cell := range mesh.FacetCells(ls) {
					slaveDofs = append(slaveDofs, dofmap.CellDofs(cell)...)
				}
			} else {
				for _, cm := range shared[m] {
					if cm.SlaveFacet() == s {
						slaveDofs = append(slaveDofs, cm.cellDofs...)
					}
				}
			}
			if len(slaveDofs) == 0 {
				return nil, nil, fmt.Errorf("%w: no cell dofs for slave facet %d of master facet %d",
					ErrNotComputed, s, m)
			}
			dofs = append(dofs, slaveDofs...)
		}
		for _, cell := range mesh.FacetCells(lm) {
			for _, dof := range dofs {
				if dof >= first && dof < last {
					owned[cell] = append(owned[cell], dof)
				} else {
					offProc[cell] = append(offProc[cell], dof)
				}
			}
		}
	}
	for cell := range owned {
		owned[cell] = utils.UniqueSortedInts(owned[cell])
	}
	for cell := range offProc {
		offProc[cell] = utils.UniqueSortedInts(offProc[cell])
	}
	return
}

func mergeCellDofs(dst, src map[int][]int) {
	for cell, dofs := range src {
		dst[cell] = utils.UniqueSortedInts(append(dst[cell], dofs...))
	}
}
