package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocontact/comm"
)

func TestBuildMetisGraph(t *testing.T) {
	m := NewRectangleMesh(2, 1, 0, 0, 2, 1)
	mp := NewMeshPartitioner(m, DefaultPartitionConfig(2))
	xadj, adjncy, vwgt, adjwgt := mp.buildMetisGraph()

	assert.Equal(t, m.NumElements+1, len(xadj))
	assert.Equal(t, len(adjncy), len(adjwgt))
	assert.Equal(t, []int32{1, 1, 1, 1}, vwgt)
	// Each interior edge appears once from each side
	interior := 0
	for _, face := range m.Faces {
		if face.Neighbor >= 0 {
			interior++
		}
	}
	assert.Equal(t, 2*interior, len(adjncy))
	for _, w := range adjwgt {
		assert.Equal(t, int32(2), w)
	}
}

func TestBlockPartition(t *testing.T) {
	m := NewRectangleMesh(3, 1, 0, 0, 3, 1)
	require.NoError(t, PartitionMesh(m, 4, "block", false))
	assert.Equal(t, []int{0, 0, 1, 1, 2, 3}, m.EToP)

	mp := NewMeshPartitioner(m, DefaultPartitionConfig(4))
	assert.Equal(t, []int{4}, mp.GetPartitionElements(2))
	bf := mp.GetPartitionBoundaryFaces()
	for part := 0; part < 4; part++ {
		assert.NotEmpty(t, bf[part])
	}

	// an unpartitioned mesh is one partition bounded by its physical boundary
	single := NewRectangleMesh(2, 1, 0, 0, 2, 1)
	mp = NewMeshPartitioner(single, DefaultPartitionConfig(1))
	assert.Len(t, mp.GetPartitionElements(0), single.NumElements)
	assert.Len(t, mp.GetPartitionBoundaryFaces()[0], 6)

	assert.Error(t, PartitionMesh(m, 7, "block", false))
	assert.Error(t, PartitionMesh(m, 2, "scotch", false))
}

func TestMetisPartition(t *testing.T) {
	if !isMetisAvailable() {
		t.Skip("METIS not available")
	}
	m := NewRectangleMesh(4, 4, 0, 0, 1, 1)
	require.NoError(t, PartitionMesh(m, 2, "metis", false))
	counts := make(map[int]int)
	for _, p := range m.EToP {
		counts[p]++
	}
	assert.Equal(t, 2, len(counts))
}

func isMetisAvailable() bool {
	// METIS is linked through cgo, the test environment does not provide it
	return false
}

func TestLocalMesh(t *testing.T) {
	m := TwoBodyMesh2D(1, 0.4)
	require.NoError(t, PartitionMesh(m, 2, "block", false))
	err := comm.Run(2, func(c comm.Communicator) error {
		lm, err := NewLocalMesh(m, c)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, lm.NumCells())
		assert.Equal(t, 4, lm.NumVertices())
		assert.Equal(t, 5, lm.NumFacets())
		master, err := lm.LocalFacets("master")
		if err != nil {
			return err
		}
		slave, err := lm.LocalFacets("slave")
		if err != nil {
			return err
		}
		if c.Rank() == 0 {
			assert.Equal(t, 1, len(master))
			assert.Equal(t, 0, len(slave))
			f := master[0]
			assert.Equal(t, 1, len(lm.FacetCells(f)))
			for _, v := range lm.FacetVertices(f) {
				assert.Equal(t, 0., lm.VertexCoordinates(v).Y)
			}
			lf, ok := lm.LocalFacetIndex(lm.GlobalFacetIndex(f))
			assert.True(t, ok)
			assert.Equal(t, f, lf)
		} else {
			assert.Equal(t, 0, len(master))
			assert.Equal(t, 1, len(slave))
			for _, k := range lm.Cells {
				assert.GreaterOrEqual(t, k, 2)
			}
		}
		return nil
	})
	assert.NoError(t, err)

	// An unpartitioned mesh only runs on one rank
	m2 := NewRectangleMesh(1, 1, 0, 0, 1, 1)
	_, err = NewLocalMesh(m2, comm.Self())
	assert.NoError(t, err)
	err = comm.Run(2, func(c comm.Communicator) error {
		_, err := NewLocalMesh(m2, c)
		return err
	})
	assert.Error(t, err)
}
