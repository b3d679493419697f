package fem

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/mesh"
)

func TestDofMapSerial(t *testing.T) {
	m := mesh.NewRectangleMesh(2, 1, 0, 0, 2, 1)
	lm, err := mesh.NewLocalMesh(m, comm.Self())
	require.NoError(t, err)
	fs, err := NewVectorFunctionSpace(lm)
	require.NoError(t, err)
	dm := fs.DofMap
	first, last := dm.OwnershipRange()
	assert.Equal(t, 0, first)
	assert.Equal(t, 2*m.NumVertices, last)
	assert.Equal(t, 2*m.NumVertices, dm.NumGlobalDofs())
	// single rank numbers vertices in global order
	for c := 0; c < lm.NumCells(); c++ {
		dofs := dm.CellDofs(c)
		require.Len(t, dofs, 6)
		for i, lv := range lm.CellVertices[c] {
			gv := lm.GlobalVertexIndex(lv)
			assert.Equal(t, []int{2 * gv, 2*gv + 1}, dofs[2*i:2*i+2])
		}
		coords := fs.TabulateDofCoordinates(c)
		require.Len(t, coords, 6)
		assert.Equal(t, coords[0], coords[1])
		assert.Equal(t, lm.VertexCoordinates(lm.CellVertices[c][2]), coords[5])
	}
	assert.Equal(t, 0, dm.Owner(0))
	assert.Equal(t, -1, dm.Owner(last))
}

func TestDofMapDistributed(t *testing.T) {
	var (
		np     = 3
		m      = mesh.NewRectangleMesh(3, 2, 0, 0, 3, 2)
		mu     sync.Mutex
		ranges = make([][2]int, np)
		// global vertex -> dofs seen on each rank
		seen = make(map[int][]int)
	)
	require.NoError(t, mesh.PartitionMesh(m, np, "block", false))
	err := comm.Run(np, func(c comm.Communicator) error {
		lm, err := mesh.NewLocalMesh(m, c)
		if err != nil {
			return err
		}
		fs, err := NewVectorFunctionSpace(lm)
		if err != nil {
			return err
		}
		first, last := fs.DofMap.OwnershipRange()
		assert.Equal(t, last-first, fs.DofMap.NumOwnedDofs())
		for dof := 0; dof < fs.DofMap.NumGlobalDofs(); dof++ {
			row, ok := fs.DofMap.LocalDof(dof)
			if dof >= first && dof < last {
				assert.True(t, ok)
				assert.Equal(t, dof-first, row)
			} else {
				assert.False(t, ok)
			}
		}
		_, ok := fs.DofMap.LocalDof(-1)
		assert.False(t, ok)
		mu.Lock()
		defer mu.Unlock()
		ranges[c.Rank()] = [2]int{first, last}
		for lv := 0; lv < lm.NumVertices(); lv++ {
			gv := lm.GlobalVertexIndex(lv)
			dofs := fs.DofMap.VertexDofs(lv)
			if prev, ok := seen[gv]; ok {
				assert.Equal(t, prev, dofs, "vertex %d numbered differently across ranks", gv)
			}
			seen[gv] = dofs
		}
		return nil
	})
	require.NoError(t, err)
	// ranges tile [0, 2*NumVertices)
	next := 0
	for _, r := range ranges {
		assert.Equal(t, next, r[0])
		next = r[1]
	}
	assert.Equal(t, 2*m.NumVertices, next)
	var all []int
	for _, dofs := range seen {
		all = append(all, dofs...)
	}
	sort.Ints(all)
	for i, d := range all {
		assert.Equal(t, i, d)
	}
}

func TestFunctionInterpolate(t *testing.T) {
	m := mesh.NewBoxMesh(1, 1, 1, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	lm, err := mesh.NewLocalMesh(m, comm.Self())
	require.NoError(t, err)
	fs, err := NewVectorFunctionSpace(lm)
	require.NoError(t, err)
	u := NewFunction(fs)
	u.Interpolate(func(x r3.Vec) r3.Vec { return r3.Vec{X: x.Z, Y: 2, Z: -x.X} })
	for v := 0; v < lm.NumVertices(); v++ {
		x := lm.VertexCoordinates(v)
		assert.Equal(t, r3.Vec{X: x.Z, Y: 2, Z: -x.X}, u.VertexDisplacement(v))
	}
	coeffs := u.CellCoefficients(0)
	require.Len(t, coeffs, 12)
	for i, lv := range lm.CellVertices[0] {
		d := u.VertexDisplacement(lv)
		assert.Equal(t, []float64{d.X, d.Y, d.Z}, coeffs[3*i:3*i+3])
	}
	assert.Equal(t, fs.DofMap.CellDofs(0), u.CellDofs(0))
	assert.Panics(t, func() { u.VertexDisplacement(lm.NumVertices()) })
}

func TestFunctionSpaceRejectsQuads(t *testing.T) {
	m := mesh.NewMesh(2)
	m.Vertices = [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	m.AddElement(mesh.Quad, []int{0, 1, 2, 3}, 0)
	require.NoError(t, m.BuildConnectivity())
	lm, err := mesh.NewLocalMesh(m, comm.Self())
	require.NoError(t, err)
	_, err = NewVectorFunctionSpace(lm)
	assert.Error(t, err)
}
