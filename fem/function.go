package fem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Function is a vector field with one value per local vertex, stored vertex major
type Function struct {
	Space  *FunctionSpace
	Vector *mat.VecDense
}

func NewFunction(fs *FunctionSpace) *Function {
	return &Function{
		Space:  fs,
		Vector: mat.NewVecDense(fs.Dim*fs.Mesh.NumVertices(), nil),
	}
}

// Interpolate sets every vertex value to fn evaluated at the vertex
func (f *Function) Interpolate(fn func(x r3.Vec) r3.Vec) {
	for v := 0; v < f.Space.Mesh.NumVertices(); v++ {
		f.SetVertexValue(v, fn(f.Space.Mesh.VertexCoordinates(v)))
	}
}

func (f *Function) SetVertexValue(vertex int, val r3.Vec) {
	comps := [3]float64{val.X, val.Y, val.Z}
	for comp := 0; comp < f.Space.Dim; comp++ {
		f.Vector.SetVec(f.Space.Dim*vertex+comp, comps[comp])
	}
}

// VertexDisplacement returns the field value at a local vertex
func (f *Function) VertexDisplacement(vertex int) (u r3.Vec) {
	if vertex < 0 || vertex >= f.Space.Mesh.NumVertices() {
		panic(fmt.Errorf("vertex %d out of range [0,%d)", vertex, f.Space.Mesh.NumVertices()))
	}
	var comps [3]float64
	for comp := 0; comp < f.Space.Dim; comp++ {
		comps[comp] = f.Vector.AtVec(f.Space.Dim*vertex + comp)
	}
	return r3.Vec{X: comps[0], Y: comps[1], Z: comps[2]}
}

// CellCoefficients returns the dof values of a local cell in CellDofs order
func (f *Function) CellCoefficients(cell int) (coeffs []float64) {
	verts := f.Space.Mesh.CellVertices[cell]
	coeffs = make([]float64, 0, f.Space.Dim*len(verts))
	for _, lv := range verts {
		for comp := 0; comp < f.Space.Dim; comp++ {
			coeffs = append(coeffs, f.Vector.AtVec(f.Space.Dim*lv+comp))
		}
	}
	return
}

func (f *Function) DofCoordinates(cell int) []r3.Vec { return f.Space.TabulateDofCoordinates(cell) }
func (f *Function) CellDofs(cell int) []int          { return f.Space.DofMap.CellDofs(cell) }

func (f *Function) OwnershipRange() (first, last int) { return f.Space.DofMap.OwnershipRange() }
