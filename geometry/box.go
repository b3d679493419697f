package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BoundingBox returns the axis aligned box of pts. Boxes of lower dimensional
// sets keep their zero extents, unlike r3.Box.Union which drops them.
func BoundingBox(pts []r3.Vec) (box r3.Box) {
	inf := math.Inf(1)
	box.Min = r3.Vec{X: inf, Y: inf, Z: inf}
	box.Max = r3.Vec{X: -inf, Y: -inf, Z: -inf}
	for _, p := range pts {
		box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	}
	return
}

// PadBox grows the box by pad along each of the first gdim axes
func PadBox(box r3.Box, pad float64, gdim int) r3.Box {
	d := padVec(pad, gdim)
	return r3.Box{Min: r3.Sub(box.Min, d), Max: r3.Add(box.Max, d)}
}

func padVec(pad float64, gdim int) (d r3.Vec) {
	d = r3.Vec{X: pad, Y: pad}
	if gdim == 3 {
		d.Z = pad
	}
	return
}

// BoxesOverlap is true when the boxes share at least one point in the first gdim axes
func BoxesOverlap(a, b r3.Box, gdim int) bool {
	for i := 0; i < gdim; i++ {
		if component(a.Max, i) < component(b.Min, i) || component(b.Max, i) < component(a.Min, i) {
			return false
		}
	}
	return true
}

// BoxPenetration is the smallest overlap depth of two boxes over the first
// gdim axes, negative when they are separated
func BoxPenetration(a, b r3.Box, gdim int) (depth float64) {
	depth = math.Inf(1)
	for i := 0; i < gdim; i++ {
		d := math.Min(component(a.Max, i)-component(b.Min, i), component(b.Max, i)-component(a.Min, i))
		depth = math.Min(depth, d)
	}
	return
}

// BoxDiameter is the length of the box diagonal
func BoxDiameter(box r3.Box) float64 {
	return r3.Norm(r3.Sub(box.Max, box.Min))
}

func component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// FlattenBox packs the box as [minx, miny, (minz,) maxx, maxy, (maxz)]
func FlattenBox(box r3.Box, gdim int) (flat []float64) {
	flat = make([]float64, 2*gdim)
	for i := 0; i < gdim; i++ {
		flat[i] = component(box.Min, i)
		flat[gdim+i] = component(box.Max, i)
	}
	return
}

func UnflattenBox(flat []float64, gdim int) (box r3.Box) {
	box.Min = VecFromSlice(flat[:gdim])
	box.Max = VecFromSlice(flat[gdim : 2*gdim])
	return
}

// VecFromSlice reads 2 or 3 coordinates, missing ones are zero
func VecFromSlice(x []float64) (v r3.Vec) {
	v.X = x[0]
	if len(x) > 1 {
		v.Y = x[1]
	}
	if len(x) > 2 {
		v.Z = x[2]
	}
	return
}

// VecToSlice writes the first gdim coordinates of v
func VecToSlice(v r3.Vec, gdim int) []float64 {
	if gdim == 2 {
		return []float64{v.X, v.Y}
	}
	return []float64{v.X, v.Y, v.Z}
}
