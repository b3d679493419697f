package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparsePattern(t *testing.T) {
	A := NewDOK(4, 6)
	A.AddPattern([]int{0, 2}, []int{1, 5})
	A.AddPattern([]int{2}, []int{5, 3})
	assert.Equal(t, 5, A.NNZ())
	r, c := A.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 6, c)
	assert.Panics(t, func() { A.Set(4, 0, 1) })

	A.SetReadOnly("A")
	assert.Panics(t, func() { A.Set(0, 0, 1) })

	Acsr := A.ToCSR()
	assert.Equal(t, "A", Acsr.Name())
	assert.Equal(t, []int{1, 5}, Acsr.RowNonZeros(0))
	assert.Equal(t, 0, len(Acsr.RowNonZeros(1)))
	assert.Equal(t, []int{1, 3, 5}, Acsr.RowNonZeros(2))
	assert.Equal(t, 1., Acsr.At(2, 3))
	assert.Equal(t, 0., Acsr.At(3, 3))
}
