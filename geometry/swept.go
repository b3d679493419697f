package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

/*
SweptMesh holds the swept volumes of a set of facets. Slot i holds the VerticesPerFacet(TDim) points of the volume
swept by facet Facets[i], its cells are laid out by CellTemplate(TDim).
*/
type SweptMesh struct {
	GDim, TDim int
	Facets     []int
	Points     [][]r3.Vec
	Boxes      []r3.Box
	slotOf     map[int]int
}

func NewSweptMesh(gdim, tdim int) (sm *SweptMesh, err error) {
	if gdim != 2 && gdim != 3 {
		return nil, fmt.Errorf("%w: geometric dimension must be 2 or 3, have %d", ErrDimensionMismatch, gdim)
	}
	if tdim != gdim {
		return nil, fmt.Errorf("%w: swept volumes need topological dimension %d, have %d",
			ErrDimensionMismatch, gdim, tdim)
	}
	sm = &SweptMesh{
		GDim:   gdim,
		TDim:   tdim,
		slotOf: make(map[int]int),
	}
	return
}

// AddVolume stores the swept points of facet and returns its slot
func (sm *SweptMesh) AddVolume(facet int, pts []r3.Vec) (slot int, err error) {
	if len(pts) != VerticesPerFacet(sm.TDim) {
		return -1, fmt.Errorf("%w: facet %d swept volume has %d points, expected %d",
			ErrDimensionMismatch, facet, len(pts), VerticesPerFacet(sm.TDim))
	}
	if sm.GDim == 2 {
		for _, p := range pts {
			if p.Z != 0 {
				return -1, fmt.Errorf("%w: facet %d has a point off the plane in a 2D mesh",
					ErrDimensionMismatch, facet)
			}
		}
	}
	if _, exists := sm.slotOf[facet]; exists {
		return -1, fmt.Errorf("facet %d already has a swept volume", facet)
	}
	slot = len(sm.Facets)
	sm.Facets = append(sm.Facets, facet)
	sm.Points = append(sm.Points, append([]r3.Vec(nil), pts...))
	sm.Boxes = append(sm.Boxes, BoundingBox(pts))
	sm.slotOf[facet] = slot
	return
}

func (sm *SweptMesh) NumVolumes() int { return len(sm.Facets) }

func (sm *SweptMesh) NumCells() int { return len(sm.Facets) * CellsPerFacet(sm.TDim) }

// Slot finds the slot holding facet
func (sm *SweptMesh) Slot(facet int) (slot int, ok bool) {
	slot, ok = sm.slotOf[facet]
	return
}

func (sm *SweptMesh) Volume(slot int) []r3.Vec { return sm.Points[slot] }

func (sm *SweptMesh) Box(slot int) r3.Box { return sm.Boxes[slot] }

// Cell returns the points of simplex c of the volume in slot
func (sm *SweptMesh) Cell(slot, c int) (pts []r3.Vec) {
	tmpl := CellTemplate(sm.TDim)[c]
	pts = make([]r3.Vec, len(tmpl))
	for i, v := range tmpl {
		pts[i] = sm.Points[slot][v]
	}
	return
}

// CellConnectivity numbers the points slot-major and lists each cell's point indices
func (sm *SweptMesh) CellConnectivity() (cells [][]int) {
	var (
		tmpl = CellTemplate(sm.TDim)
		nv   = VerticesPerFacet(sm.TDim)
	)
	cells = make([][]int, 0, sm.NumCells())
	for slot := range sm.Facets {
		for _, t := range tmpl {
			cell := make([]int, len(t))
			for i, v := range t {
				cell[i] = slot*nv + v
			}
			cells = append(cells, cell)
		}
	}
	return
}

// MaxFacetDiameter is the largest undeformed facet diameter over all slots
func (sm *SweptMesh) MaxFacetDiameter() (h float64) {
	nv := VerticesPerFacet(sm.TDim) / 2
	for _, pts := range sm.Points {
		h = math.Max(h, BoxDiameter(BoundingBox(pts[:nv])))
	}
	return
}
