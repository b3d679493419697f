package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Test packed int for edge facets
		fk := NewFacetKey([]int{1, 0})
		assert.Equal(t, FacetKey(1<<32), fk)
		assert.Equal(t, []int{0, 1}, fk.GetVertices(2))

		fk = NewFacetKey([]int{0, 1})
		assert.Equal(t, FacetKey(1<<32), fk)

		fk = NewFacetKey([]int{100, 1})
		assert.Equal(t, FacetKey(100*(1<<32)+1), fk)
		assert.Equal(t, []int{1, 100}, fk.GetVertices(2))

		fk = NewFacetKey([]int{1<<32 - 1, 1<<32 - 1})
		assert.Equal(t, FacetKey(1<<64-1), fk)
		assert.Equal(t, []int{1<<32 - 1, 1<<32 - 1}, fk.GetVertices(2))

		assert.Panics(t, func() { NewFacetKey([]int{-1, 2}) })
	}
	{ // Triangle facets, order independent
		fk1 := NewFacetKey([]int{9, 0, 4})
		fk2 := NewFacetKey([]int{4, 9, 0})
		assert.Equal(t, fk1, fk2)
		assert.Equal(t, []int{0, 4, 9}, fk1.GetVertices(3))

		big := 1<<21 - 1
		fk := NewFacetKey([]int{big, big - 1, 7})
		assert.Equal(t, []int{7, big - 1, big}, fk.GetVertices(3))

		assert.Panics(t, func() { NewFacetKey([]int{1 << 21, 0, 1}) })
		assert.Panics(t, func() { NewFacetKey([]int{1, 2, 3, 4}) })
		assert.NotEqual(t, NewFacetKey([]int{0, 1, 2}), NewFacetKey([]int{0, 1, 3}))
	}
	{
		tokens := []string{"Master", " slave", "MORTAR", "nonmortar", "wall"}
		roles := []FacetRole{Role_Master, Role_Slave, Role_Master, Role_Slave, Role_None}
		for i, token := range tokens {
			assert.Equal(t, roles[i], NewFacetRole(token))
		}
		assert.Equal(t, "Slave", Role_Slave.String())
	}
}
