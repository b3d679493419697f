package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

// CheckEdgeSetCollision tests the 2D swept volumes a[ai] and b[bi] for overlap deeper than tol
func CheckEdgeSetCollision(a *SweptMesh, ai int, b *SweptMesh, bi int, tol float64) (bool, error) {
	if a.GDim != 2 || b.GDim != 2 {
		return false, fmt.Errorf("%w: edge set collision needs 2D volumes, have %dD and %dD",
			ErrDimensionMismatch, a.GDim, b.GDim)
	}
	return checkSetCollision(a, ai, b, bi, tol), nil
}

// CheckTriSetCollision tests the 3D swept volumes a[ai] and b[bi] for overlap deeper than tol
func CheckTriSetCollision(a *SweptMesh, ai int, b *SweptMesh, bi int, tol float64) (bool, error) {
	if a.GDim != 3 || b.GDim != 3 {
		return false, fmt.Errorf("%w: triangle set collision needs 3D volumes, have %dD and %dD",
			ErrDimensionMismatch, a.GDim, b.GDim)
	}
	return checkSetCollision(a, ai, b, bi, tol), nil
}

// CheckCollision dispatches on the geometric dimension of the volumes
func CheckCollision(a *SweptMesh, ai int, b *SweptMesh, bi int, tol float64) (bool, error) {
	if a.GDim == 3 {
		return CheckTriSetCollision(a, ai, b, bi, tol)
	}
	return CheckEdgeSetCollision(a, ai, b, bi, tol)
}

/*
checkSetCollision is true when a simplex of one volume overlaps a simplex of the other by more than tol. The hull
of a volume contains all of its simplices, so a hull overlap of at most tol rules out every pair.
*/
func checkSetCollision(a *SweptMesh, ai int, b *SweptMesh, bi int, tol float64) bool {
	var (
		gdim  = a.GDim
		slack = tol - utils.NODETOL
	)
	if BoxPenetration(a.Box(ai), b.Box(bi), gdim) < slack {
		return false
	}
	if depth, ok := PenetrationDepth(a.Volume(ai), b.Volume(bi), gdim); !ok || depth <= tol {
		return false
	}
	var (
		ncells = CellsPerFacet(a.TDim)
		cellsB = make([][]r3.Vec, ncells)
		boxesB = make([]r3.Box, ncells)
	)
	for cb := 0; cb < ncells; cb++ {
		cellsB[cb] = b.Cell(bi, cb)
		boxesB[cb] = BoundingBox(cellsB[cb])
	}
	for ca := 0; ca < ncells; ca++ {
		cellA := a.Cell(ai, ca)
		boxA := BoundingBox(cellA)
		for cb := 0; cb < ncells; cb++ {
			if BoxPenetration(boxA, boxesB[cb], gdim) < slack {
				continue
			}
			if depth, ok := PenetrationDepth(cellA, cellsB[cb], gdim); ok && depth > tol {
				return true
			}
		}
	}
	return false
}
