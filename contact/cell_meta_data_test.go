package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellMetaDataImmutable(t *testing.T) {
	var (
		coords = []float64{0, 0, 1, 0}
		dofs   = []int{4, 5}
		coeffs = []float64{0.5, -0.5}
	)
	cm := NewCellMetaData(7, 2, 2, coords, dofs, coeffs)
	coords[0], dofs[0], coeffs[0] = 9, 9, 9
	assert.Equal(t, []float64{0, 0, 1, 0}, cm.DofCoordinates())
	assert.Equal(t, []int{4, 5}, cm.CellDofs())
	got := cm.DofCoefficients()
	got[1] = 3
	assert.Equal(t, []float64{0.5, -0.5}, cm.DofCoefficients())
	assert.Equal(t, 7, cm.SlaveFacet())
	assert.Equal(t, 2, cm.SlaveFacetLocal())
}

func TestPackCellsRoundTrip(t *testing.T) {
	cells := []CellMetaData{
		NewCellMetaData(11, 3, 2, []float64{0, 0, 1, 0, 0, 1}, []int{0, 1, 2}, []float64{1, 2, 3}),
		NewCellMetaData(11, 3, 2, []float64{1, 1}, []int{9}, []float64{4}),
	}
	ints, floats := packCells(nil, nil, 3, cells)
	cr := &cellReader{ints: ints, floats: floats, gdim: 2}
	got, err := cr.unpackCells(11)
	require.NoError(t, err)
	assert.Equal(t, cells, got)

	cr = &cellReader{ints: ints[:len(ints)-1], floats: floats, gdim: 2}
	_, err = cr.unpackCells(11)
	assert.Error(t, err)
}
