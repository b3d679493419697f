package mesh

import (
	"fmt"
	"math"
)

// Structured meshes for tests and examples, built in memory rather than read from files

const markTol = 1.e-12

// NewRectangleMesh triangulates [x0,x1]x[y0,y1] with nx by ny squares, two
// triangles each, and marks the sides "bottom", "top", "left" and "right"
func NewRectangleMesh(nx, ny int, x0, y0, x1, y1 float64) *Mesh {
	m := NewMesh(2)
	vid := func(i, j int) int { return i + j*(nx+1) }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, []float64{
				x0 + (x1-x0)*float64(i)/float64(nx),
				y0 + (y1-y0)*float64(j)/float64(ny),
				0,
			})
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.AddElement(Triangle, []int{vid(i, j), vid(i+1, j), vid(i+1, j+1)}, 0)
			m.AddElement(Triangle, []int{vid(i, j), vid(i+1, j+1), vid(i, j+1)}, 0)
		}
	}
	mustBuild(m)
	mustMark(m, "bottom", func(x []float64) bool { return math.Abs(x[1]-y0) < markTol })
	mustMark(m, "top", func(x []float64) bool { return math.Abs(x[1]-y1) < markTol })
	mustMark(m, "left", func(x []float64) bool { return math.Abs(x[0]-x0) < markTol })
	mustMark(m, "right", func(x []float64) bool { return math.Abs(x[0]-x1) < markTol })
	return m
}

// NewBoxMesh splits each of nx*ny*nz cubes of the box into 6 tetrahedra
// around its main diagonal, and marks "bottom" (z=min) and "top" (z=max)
func NewBoxMesh(nx, ny, nz int, min, max [3]float64) *Mesh {
	m := NewMesh(3)
	n := [3]int{nx, ny, nz}
	vid := func(i, j, k int) int { return i + (nx+1)*(j+(ny+1)*k) }
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				idx := [3]int{i, j, k}
				x := make([]float64, 3)
				for d := 0; d < 3; d++ {
					x[d] = min[d] + (max[d]-min[d])*float64(idx[d])/float64(n[d])
				}
				m.Vertices = append(m.Vertices, x)
			}
		}
	}
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				corner := func(bits int) int {
					return vid(i+bits&1, j+(bits>>1)&1, k+(bits>>2)&1)
				}
				for _, p := range perms {
					b1 := 1 << p[0]
					b2 := b1 | 1<<p[1]
					m.AddElement(Tet, []int{corner(0), corner(b1), corner(b2), corner(7)}, 0)
				}
			}
		}
	}
	mustBuild(m)
	mustMark(m, "bottom", func(x []float64) bool { return math.Abs(x[2]-min[2]) < markTol })
	mustMark(m, "top", func(x []float64) bool { return math.Abs(x[2]-max[2]) < markTol })
	return m
}

// MarkBoundary adds every boundary face whose vertices all satisfy inside to the named marker
func (m *Mesh) MarkBoundary(name string, inside func(x []float64) bool) error {
	var facets [][]int
	for _, face := range m.Faces {
		if face.Neighbor >= 0 {
			continue
		}
		all := true
		for _, v := range face.Vertices {
			if !inside(m.Vertices[v]) {
				all = false
				break
			}
		}
		if all {
			facets = append(facets, face.Vertices)
		}
	}
	if len(facets) == 0 {
		return fmt.Errorf("marker %s: no boundary faces selected", name)
	}
	return m.AddBoundaryMarker(name, facets)
}

// MergeMeshes appends b to a as a separate body, keeping the element order a then b, and the markers of both
func MergeMeshes(a, b *Mesh) (*Mesh, error) {
	if a.GDim != b.GDim {
		return nil, fmt.Errorf("cannot merge %dD and %dD meshes", a.GDim, b.GDim)
	}
	var (
		m      = NewMesh(a.GDim)
		offset = a.NumVertices
	)
	for _, src := range []*Mesh{a, b} {
		for _, x := range src.Vertices {
			m.Vertices = append(m.Vertices, append([]float64(nil), x...))
		}
	}
	for k, elem := range a.Elements {
		m.AddElement(a.ElementTypes[k], elem, a.ElementTags[k])
	}
	for k, elem := range b.Elements {
		verts := make([]int, len(elem))
		for i, v := range elem {
			verts[i] = v + offset
		}
		m.AddElement(b.ElementTypes[k], verts, b.ElementTags[k])
	}
	if err := m.BuildConnectivity(); err != nil {
		return nil, err
	}
	for bodyNum, src := range []*Mesh{a, b} {
		shift := 0
		if bodyNum == 1 {
			shift = offset
		}
		for i := 0; i < len(src.BoundaryTags); i++ {
			name := src.BoundaryTags[i]
			var facets [][]int
			for _, f := range src.BoundaryFacets[name] {
				verts := make([]int, len(src.Faces[f].Vertices))
				for j, v := range src.Faces[f].Vertices {
					verts[j] = v + shift
				}
				facets = append(facets, verts)
			}
			if err := m.AddBoundaryMarker(name, facets); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

/*
TwoBodyMesh2D is a lower square [0,1]x[-1,0] whose top side is marked "master" and an upper square [0,1]x[gap,1+gap]
whose bottom side is marked "slave". Each body has n by n cells, the lower body's elements come first.
*/
func TwoBodyMesh2D(n int, gap float64) *Mesh {
	lower := NewRectangleMesh(n, n, 0, -1, 1, 0)
	mustMark(lower, "master", func(x []float64) bool { return math.Abs(x[1]) < markTol })
	upper := NewRectangleMesh(n, n, 0, gap, 1, 1+gap)
	mustMark(upper, "slave", func(x []float64) bool { return math.Abs(x[1]-gap) < markTol })
	m, err := MergeMeshes(lower, upper)
	if err != nil {
		panic(err)
	}
	return m
}

// TwoBodyMesh3D is the three dimensional version of TwoBodyMesh2D, with unit cubes stacked along z
func TwoBodyMesh3D(n int, gap float64) *Mesh {
	lower := NewBoxMesh(n, n, n, [3]float64{0, 0, -1}, [3]float64{1, 1, 0})
	mustMark(lower, "master", func(x []float64) bool { return math.Abs(x[2]) < markTol })
	upper := NewBoxMesh(n, n, n, [3]float64{0, 0, gap}, [3]float64{1, 1, 1 + gap})
	mustMark(upper, "slave", func(x []float64) bool { return math.Abs(x[2]-gap) < markTol })
	m, err := MergeMeshes(lower, upper)
	if err != nil {
		panic(err)
	}
	return m
}

func mustBuild(m *Mesh) {
	if err := m.BuildConnectivity(); err != nil {
		panic(err)
	}
}

func mustMark(m *Mesh, name string, inside func(x []float64) bool) {
	if err := m.MarkBoundary(name, inside); err != nil {
		panic(err)
	}
}
