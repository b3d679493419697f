package contact

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/geometry"
	"github.com/notargets/gocontact/utils"
)

const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

// sweptBox is a swept volume bounding box stored in an R-tree
type sweptBox struct {
	facet int // global
	slot  int
	rect  rtreego.Rect
}

func (sb *sweptBox) Bounds() rtreego.Rect { return sb.rect }

// boxPad is how much boxes are grown before searching. R-tree intersection is strict, so touching boxes need a
// positive pad to be reported.
func boxPad(tol float64) float64 {
	return math.Max(tol, utils.NODETOL)
}

func boxRect(box r3.Box, gdim int, pad float64) rtreego.Rect {
	box = geometry.PadBox(box, pad, gdim)
	rect, err := rtreego.NewRectFromPoints(geometry.VecToSlice(box.Min, gdim), geometry.VecToSlice(box.Max, gdim))
	if err != nil {
		panic(err)
	}
	return rect
}

func newBoxTree(gdim int, boxes []*sweptBox) *rtreego.Rtree {
	objs := make([]rtreego.Spatial, len(boxes))
	for i, sb := range boxes {
		objs[i] = sb
	}
	return rtreego.NewTree(gdim, treeMinChildren, treeMaxChildren, objs...)
}

// searchBoxes returns the slots of the tree boxes intersecting rect, sorted, excluding facet
func searchBoxes(tree *rtreego.Rtree, rect rtreego.Rect, facet int) (slots []int) {
	notSelf := func(results []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		return obj.(*sweptBox).facet == facet, false
	}
	for _, obj := range tree.SearchIntersect(rect, notSelf) {
		slots = append(slots, obj.(*sweptBox).slot)
	}
	sort.Ints(slots)
	return
}

func sweptBoxes(sm *geometry.SweptMesh, pad float64) (boxes []*sweptBox) {
	boxes = make([]*sweptBox, sm.NumVolumes())
	for slot, facet := range sm.Facets {
		boxes[slot] = &sweptBox{
			facet: facet,
			slot:  slot,
			rect:  boxRect(sm.Box(slot), sm.GDim, pad),
		}
	}
	return
}

/*
TabulateOnProcessBBoxCollisions lists, for each master slot, the slave slots whose swept volume boxes overlap it.
Boxes are grown by the collision tolerance, so every pair the exact test can report is a candidate. A facet is never
a candidate of itself.
*/
func TabulateOnProcessBBoxCollisions(master, slave *geometry.SweptMesh, tol float64) (candidates [][]int) {
	var (
		pad   = boxPad(tol)
		boxes = sweptBoxes(slave, pad)
		tree  = newBoxTree(slave.GDim, boxes)
	)
	candidates = make([][]int, master.NumVolumes())
	for slot, facet := range master.Facets {
		candidates[slot] = searchBoxes(tree, boxRect(master.Box(slot), master.GDim, pad), facet)
	}
	return
}
