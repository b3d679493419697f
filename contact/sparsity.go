package contact

import (
	"fmt"

	"github.com/notargets/gocontact/utils"
)

// OwnedDofMap numbers the dofs a rank owns as the rows of its block of a distributed matrix
type OwnedDofMap interface {
	DofMap
	NumOwnedDofs() int
	LocalDof(dof int) (row int, ok bool)
}

/*
ContactSparsityPattern is the coupling block an assembler adds for contact on this rank: each owned dof of a master
cell couples to every contact dof, owned or not, of that cell. Rows are the owned dofs in LocalDof order, columns are
global dofs, so the matrix is NumOwnedDofs by numGlobalDofs.
*/
func ContactSparsityPattern(gc *GeometricContact, dofmap OwnedDofMap, numGlobalDofs int) (pattern utils.CSR, err error) {
	if err = gc.require(stageDofMaps, "ContactSparsityPattern"); err != nil {
		return
	}
	var (
		dok   = utils.NewDOK(dofmap.NumOwnedDofs(), numGlobalDofs)
		cells = make(map[int]bool)
	)
	for cell := range gc.localCellToContactDofs {
		cells[cell] = true
	}
	for cell := range gc.localCellToOffProcContactDofs {
		cells[cell] = true
	}
	for _, cell := range sortedKeys(cells) {
		var rows []int
		for _, dof := range dofmap.CellDofs(cell) {
			if row, ok := dofmap.LocalDof(dof); ok {
				rows = append(rows, row)
			}
		}
		cols := append(append([]int(nil), gc.localCellToContactDofs[cell]...), gc.localCellToOffProcContactDofs[cell]...)
		for _, dof := range cols {
			if dof < 0 || dof >= numGlobalDofs {
				return pattern, fmt.Errorf("dof %d outside the %d global dofs", dof, numGlobalDofs)
			}
		}
		dok.AddPattern(rows, cols)
	}
	dok.SetReadOnly("ContactSparsity")
	return dok.ToCSR(), nil
}
