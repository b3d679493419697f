package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK accumulates a sparse pattern or matrix one entry at a time
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	nr, nc := m.Dims()
	if i < 0 || i >= nr || j < 0 || j >= nc {
		panic(fmt.Errorf("index (%d,%d) out of range for %dx%d matrix named: \"%v\"", i, j, nr, nc, m.name))
	}
	m.M.Set(i, j, val)
}

// AddPattern marks every (row, col) combination as structurally non zero
func (m DOK) AddPattern(rows, cols []int) {
	for _, i := range rows {
		for _, j := range cols {
			m.Set(i, j, 1)
		}
	}
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: true,
		name:     m.name,
	}
}

// CSR is the compressed, read only form handed to an assembler
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) Name() string                  { return m.name }

// RowNonZeros returns the sorted column indices stored in row i
func (m CSR) RowNonZeros(i int) (cols []int) {
	raw := m.RawMatrix()
	cols = make([]int, raw.Indptr[i+1]-raw.Indptr[i])
	copy(cols, raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]])
	sort.Ints(cols)
	return
}
