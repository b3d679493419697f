package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/utils"
)

/*
PenetrationDepth measures how deep the origin sits inside the Minkowski difference of two point sets, each taken as
its convex hull. The hull of the difference is bounded by the supporting lines (gdim 2) or planes (gdim 3) through
its points, the depth is the smallest signed distance from the origin to any of them:

	depth > 0   the hulls overlap and depth is the penetration distance
	depth == 0  the hulls touch
	depth < 0   the hulls are separated

A difference with no interior (both hulls flat in a common line or plane) reports minus its distance to the origin,
so coincident degenerate volumes never report overlap. When no line or plane can be formed, ok is false.
*/
func PenetrationDepth(a, b []r3.Vec, gdim int) (depth float64, ok bool) {
	m := make([]r3.Vec, 0, len(a)*len(b))
	for _, pa := range a {
		for _, pb := range b {
			m = append(m, r3.Sub(pa, pb))
		}
	}
	var scale float64
	for _, p := range m {
		scale = math.Max(scale, r3.Norm(p))
	}
	var (
		eps     = utils.NODETOL * (1 + scale)
		minNorm = eps
	)
	if gdim == 3 {
		minNorm *= 1 + scale // cross products scale with length squared
	}
	depth = math.Inf(1)
	visit := func(p0, n r3.Vec) {
		nn := r3.Norm(n)
		if nn <= minNorm {
			return
		}
		n = r3.Scale(1/nn, n)
		var above, below bool
		for _, p := range m {
			s := r3.Dot(n, r3.Sub(p, p0))
			if s > eps {
				above = true
			} else if s < -eps {
				below = true
			}
			if above && below {
				return
			}
		}
		offset := r3.Dot(n, p0)
		var d float64
		switch {
		case above && !below: // outward normal is -n
			d = -offset
		case below && !above:
			d = offset
		default: // flat difference
			d = -math.Abs(offset)
		}
		ok = true
		depth = math.Min(depth, d)
	}
	switch gdim {
	case 2:
		for i := 0; i < len(m); i++ {
			for j := i + 1; j < len(m); j++ {
				e := r3.Sub(m[j], m[i])
				visit(m[i], r3.Vec{X: -e.Y, Y: e.X})
			}
		}
	case 3:
		for i := 0; i < len(m); i++ {
			for j := i + 1; j < len(m); j++ {
				e1 := r3.Sub(m[j], m[i])
				for k := j + 1; k < len(m); k++ {
					visit(m[i], r3.Cross(e1, r3.Sub(m[k], m[i])))
				}
			}
		}
	default:
		panic(ErrDimensionMismatch)
	}
	if !ok {
		depth = math.Inf(-1)
	}
	return
}
