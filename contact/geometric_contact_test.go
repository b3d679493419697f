package contact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/fem"
	"github.com/notargets/gocontact/mesh"
	"github.com/notargets/gocontact/utils"
)

type rankResult struct {
	lm            *mesh.LocalMesh
	fs            *fem.FunctionSpace
	u             *fem.Function
	gc            *GeometricContact
	master, slave []int
}

// runContact runs the three contact stages on np ranks, using the "master" and "slave" markers of m
func runContact(t *testing.T, m *mesh.Mesh, np int, disp func(x r3.Vec) r3.Vec) (results []*rankResult) {
	if np > 1 {
		require.NoError(t, mesh.PartitionMesh(m, np, "block", false))
	}
	results = make([]*rankResult, np)
	err := comm.Run(np, func(c comm.Communicator) (err error) {
		rr := &rankResult{gc: NewGeometricContact(DefaultConfig())}
		if rr.lm, err = mesh.NewLocalMesh(m, c); err != nil {
			return
		}
		if rr.fs, err = fem.NewVectorFunctionSpace(rr.lm); err != nil {
			return
		}
		rr.u = fem.NewFunction(rr.fs)
		rr.u.Interpolate(disp)
		if rr.master, err = rr.lm.LocalFacets("master"); err != nil {
			return
		}
		if rr.slave, err = rr.lm.LocalFacets("slave"); err != nil {
			return
		}
		if err = rr.gc.ContactSurfaceMapVolumeSweep(rr.lm, rr.u, rr.master, rr.slave); err != nil {
			return
		}
		if err = rr.gc.TabulateContactSharedCells(rr.lm, rr.u, rr.master, rr.slave); err != nil {
			return
		}
		if err = rr.gc.TabulateContactCellToSharedDofs(rr.lm, rr.u, rr.master, rr.slave); err != nil {
			return
		}
		results[c.Rank()] = rr
		return
	})
	require.NoError(t, err)
	return
}

func moveUpperBody2D(x r3.Vec) r3.Vec {
	if x.Y > 0.2 {
		return r3.Vec{Y: -0.5}
	}
	return r3.Vec{}
}

func moveUpperBody3D(x r3.Vec) r3.Vec {
	if x.Z > 0.2 {
		return r3.Vec{Z: -0.5}
	}
	return r3.Vec{}
}

func facetCentroid(m *mesh.Mesh, face int) (c r3.Vec) {
	verts := m.Faces[face].Vertices
	for _, v := range verts {
		c = r3.Add(c, r3.Vec{X: m.Vertices[v][0], Y: m.Vertices[v][1], Z: m.Vertices[v][2]})
	}
	return r3.Scale(1/float64(len(verts)), c)
}

// pairSet flattens the facet maps of all ranks
func pairSet(results []*rankResult) (m2s, s2m map[[2]int]int) {
	m2s, s2m = make(map[[2]int]int), make(map[[2]int]int)
	for _, rr := range results {
		for m, slaves := range rr.gc.MasterToSlave() {
			for _, s := range slaves {
				m2s[[2]int{m, s}]++
			}
		}
		for s, masters := range rr.gc.SlaveToMaster() {
			for _, m := range masters {
				s2m[[2]int{m, s}]++
			}
		}
	}
	return
}

func TestSweepSingleProcess2D(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(2, 0.4)
	rr := runContact(t, tm, 1, moveUpperBody2D)[0]
	m2s, s2m := rr.gc.MasterToSlave(), rr.gc.SlaveToMaster()
	// each master facet collides only with the slave facet directly above it
	require.Len(t, m2s, 2)
	require.Len(t, s2m, 2)
	masters, _ := tm.MarkerFacets("master")
	slaves, _ := tm.MarkerFacets("slave")
	for mf, ss := range m2s {
		assert.Contains(t, masters, mf)
		require.Len(t, ss, 1)
		s := ss[0]
		assert.Contains(t, slaves, s)
		assert.NotEqual(t, mf, s)
		assert.InDelta(t, facetCentroid(tm, mf).X, facetCentroid(tm, s).X, 1.e-12)
		assert.Contains(t, s2m[s], mf)
	}
	for s, ms := range s2m {
		for _, mf := range ms {
			assert.Contains(t, m2s[mf], s)
		}
	}
	assert.InDelta(t, 0.5e-8, rr.gc.Tolerance(), 1.e-20)
}

func TestSweepSingleProcess3D(t *testing.T) {
	tm := mesh.TwoBodyMesh3D(1, 0.4)
	rr := runContact(t, tm, 1, moveUpperBody3D)[0]
	m2s, s2m := rr.gc.MasterToSlave(), rr.gc.SlaveToMaster()
	require.Len(t, m2s, 2)
	for mf, ss := range m2s {
		require.Len(t, ss, 1)
		cm, cs := facetCentroid(tm, mf), facetCentroid(tm, ss[0])
		assert.InDelta(t, cm.X, cs.X, 1.e-12)
		assert.InDelta(t, cm.Y, cs.Y, 1.e-12)
		assert.Contains(t, s2m[ss[0]], mf)
	}
	for mf := range m2s {
		cells, err := rr.gc.GetCellMetaData(mf)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, 12, cells[0].NumDofs())
		assert.Len(t, cells[0].DofCoordinates(), 36)
	}
}

func TestZeroDisplacement(t *testing.T) {
	// touching bodies, nothing moves
	tm := mesh.TwoBodyMesh2D(2, 0)
	rr := runContact(t, tm, 1, func(x r3.Vec) r3.Vec { return r3.Vec{} })[0]
	assert.Empty(t, rr.gc.MasterToSlave())
	assert.Empty(t, rr.gc.SlaveToMaster())
	assert.Empty(t, rr.gc.LocalCellsToContactDofs())
	assert.Empty(t, rr.gc.LocalCellToOffProcContactDofs())

	// adjacent facets sharing a corner vertex
	sq := mesh.NewRectangleMesh(2, 2, 0, 0, 1, 1)
	require.NoError(t, sq.MarkBoundary("master", func(x []float64) bool { return x[1] == 0 }))
	require.NoError(t, sq.MarkBoundary("slave", func(x []float64) bool { return x[0] == 0 }))
	rr = runContact(t, sq, 1, func(x r3.Vec) r3.Vec { return r3.Vec{} })[0]
	assert.Empty(t, rr.gc.MasterToSlave())
}

func TestNonOverlappingBoxes(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(2, 5)
	rr := runContact(t, tm, 1, moveUpperBody2D)[0]
	assert.Empty(t, rr.gc.MasterToSlave())
	assert.Empty(t, rr.gc.SlaveToMaster())

	masterVol, err := CreateDisplacementVolumeMesh(rr.lm, rr.master, rr.u)
	require.NoError(t, err)
	slaveVol, err := CreateDisplacementVolumeMesh(rr.lm, rr.slave, rr.u)
	require.NoError(t, err)
	for _, slots := range TabulateOnProcessBBoxCollisions(masterVol, slaveVol, rr.gc.Tolerance()) {
		assert.Empty(t, slots)
	}
}

func TestDofPartitionSingleProcess(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(2, 0.4)
	rr := runContact(t, tm, 1, moveUpperBody2D)[0]
	owned, offProc := rr.gc.LocalCellsToContactDofs(), rr.gc.LocalCellToOffProcContactDofs()
	assert.Empty(t, offProc)
	require.Len(t, owned, 2)
	for mf, slaves := range rr.gc.MasterToSlave() {
		lf, ok := rr.lm.LocalFacetIndex(mf)
		require.True(t, ok)
		expected := map[int]bool{}
		for _, s := range slaves {
			ls, ok := rr.lm.LocalFacetIndex(s)
			require.True(t, ok)
			for _, cell := range rr.lm.FacetCells(ls) {
				for _, dof := range rr.fs.DofMap.CellDofs(cell) {
					expected[dof] = true
				}
			}
		}
		for _, cell := range rr.lm.FacetCells(lf) {
			assertNoRepeats(t, owned[cell])
			assert.Len(t, owned[cell], len(expected))
			for _, dof := range owned[cell] {
				assert.True(t, expected[dof])
			}
		}
		cells, err := rr.gc.GetCellMetaData(mf)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, slaves[0], cells[0].SlaveFacet())
		coeffs := cells[0].DofCoefficients()
		require.Len(t, coeffs, 6)
		for i := 0; i < 3; i++ {
			assert.Equal(t, 0., coeffs[2*i])
			assert.Equal(t, -0.5, coeffs[2*i+1])
		}
	}

	pattern, err := ContactSparsityPattern(rr.gc, rr.fs.DofMap, rr.fs.DofMap.NumGlobalDofs())
	require.NoError(t, err)
	assert.NotZero(t, pattern.NNZ())
	r, c := pattern.Dims()
	assert.Equal(t, rr.fs.DofMap.NumOwnedDofs(), r)
	assert.Equal(t, rr.fs.DofMap.NumGlobalDofs(), c)
	for cell, cols := range owned {
		for _, dof := range rr.fs.DofMap.CellDofs(cell) {
			row, ok := rr.fs.DofMap.LocalDof(dof)
			require.True(t, ok)
			for _, col := range cols {
				assert.Equal(t, 1., pattern.At(row, col))
			}
		}
	}
}

func assertNoRepeats(t *testing.T, dofs []int) {
	seen := make(map[int]bool)
	for _, d := range dofs {
		assert.False(t, seen[d], "dof %d repeated", d)
		seen[d] = true
	}
}

func TestTwoProcessScenario(t *testing.T) {
	// lower body on rank 0, upper body on rank 1
	tm := mesh.TwoBodyMesh2D(1, 0.4)
	results := runContact(t, tm, 2, moveUpperBody2D)
	r0, r1 := results[0], results[1]
	require.Len(t, r0.master, 1)
	require.Empty(t, r0.slave)
	require.Empty(t, r1.master)
	require.Len(t, r1.slave, 1)

	m2s := r0.gc.MasterToSlave()
	require.Len(t, m2s, 1)
	mf := r0.lm.GlobalFacetIndex(r0.master[0])
	sf := r1.lm.GlobalFacetIndex(r1.slave[0])
	assert.Equal(t, []int{sf}, m2s[mf])
	assert.Empty(t, r1.gc.MasterToSlave())
	assert.Empty(t, r0.gc.SlaveToMaster())
	assert.Equal(t, map[int][]int{sf: {mf}}, r1.gc.SlaveToMaster())

	// the slave cell dofs all belong to rank 1
	cells, err := r0.gc.GetCellMetaData(mf)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, sf, cells[0].SlaveFacet())
	assert.Equal(t, r1.slave[0], cells[0].SlaveFacetLocal())
	slaveCell := r1.lm.FacetCells(r1.slave[0])[0]
	assert.Equal(t, r1.fs.DofMap.CellDofs(slaveCell), cells[0].CellDofs())

	masterCell := r0.lm.FacetCells(r0.master[0])[0]
	assert.Empty(t, r0.gc.LocalCellsToContactDofs())
	offProc := r0.gc.LocalCellToOffProcContactDofs()
	require.Len(t, offProc, 1)
	first, last := r1.fs.DofMap.OwnershipRange()
	require.Len(t, offProc[masterCell], 6)
	for _, dof := range offProc[masterCell] {
		assert.True(t, dof >= first && dof < last)
	}
	assert.Empty(t, r1.gc.LocalCellsToContactDofs())
	assert.Empty(t, r1.gc.LocalCellToOffProcContactDofs())
}

func TestDistributedMatchesSerial(t *testing.T) {
	serial := runContact(t, mesh.TwoBodyMesh2D(2, 0.4), 1, moveUpperBody2D)
	serialM2S, _ := pairSet(serial)
	for _, np := range []int{2, 3, 4} {
		tm := mesh.TwoBodyMesh2D(2, 0.4)
		results := runContact(t, tm, np, moveUpperBody2D)
		m2s, s2m := pairSet(results)
		assert.Equal(t, serialM2S, m2s, "np=%d", np)
		// every pair is seen once from the master side and once from the slave side
		assert.Equal(t, m2s, s2m, "np=%d", np)

		for _, rr := range results {
			first, last := rr.fs.DofMap.OwnershipRange()
			owned, offProc := rr.gc.LocalCellsToContactDofs(), rr.gc.LocalCellToOffProcContactDofs()
			expected := make(map[int]map[int]bool)
			for mf := range rr.gc.MasterToSlave() {
				lf, ok := rr.lm.LocalFacetIndex(mf)
				require.True(t, ok)
				cells, err := rr.gc.GetCellMetaData(mf)
				require.NoError(t, err)
				for _, cell := range rr.lm.FacetCells(lf) {
					if expected[cell] == nil {
						expected[cell] = make(map[int]bool)
					}
					for _, cm := range cells {
						for _, dof := range cm.CellDofs() {
							expected[cell][dof] = true
						}
					}
				}
			}
			for cell, dofs := range expected {
				assertNoRepeats(t, owned[cell])
				assertNoRepeats(t, offProc[cell])
				for _, d := range owned[cell] {
					assert.True(t, d >= first && d < last)
				}
				for _, d := range offProc[cell] {
					assert.False(t, d >= first && d < last)
				}
				for _, d := range append(owned[cell], offProc[cell]...) {
					assert.True(t, dofs[d])
				}
				assert.Equal(t, len(dofs), len(owned[cell])+len(offProc[cell]))
			}
		}
	}
}

func TestDistributedMatchesSerial3D(t *testing.T) {
	serial := runContact(t, mesh.TwoBodyMesh3D(2, 0.4), 1, moveUpperBody3D)
	serialM2S, _ := pairSet(serial)
	require.NotEmpty(t, serialM2S)
	for _, np := range []int{2, 3} {
		results := runContact(t, mesh.TwoBodyMesh3D(2, 0.4), np, moveUpperBody3D)
		m2s, s2m := pairSet(results)
		assert.Equal(t, serialM2S, m2s, "np=%d", np)
		assert.Equal(t, m2s, s2m, "np=%d", np)
		for _, rr := range results {
			for mf, slaves := range rr.gc.MasterToSlave() {
				cells, err := rr.gc.GetCellMetaData(mf)
				require.NoError(t, err)
				require.Len(t, cells, len(slaves), "np=%d master %d", np, mf)
				for _, cm := range cells {
					assert.Contains(t, slaves, cm.SlaveFacet())
					assert.Equal(t, 12, cm.NumDofs())
					// the slave body moves down by 0.5
					coeffs := cm.DofCoefficients()
					for i := 2; i < len(coeffs); i += 3 {
						assert.Equal(t, -0.5, coeffs[i])
					}
				}
			}
		}
	}
}

func TestStageOrder(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(1, 0.4)
	lm, err := mesh.NewLocalMesh(tm, comm.Self())
	require.NoError(t, err)
	fs, err := fem.NewVectorFunctionSpace(lm)
	require.NoError(t, err)
	u := fem.NewFunction(fs)
	master, _ := lm.LocalFacets("master")
	slave, _ := lm.LocalFacets("slave")

	gc := NewGeometricContact(DefaultConfig())
	err = gc.TabulateContactSharedCells(lm, u, master, slave)
	assert.True(t, errors.Is(err, ErrNotComputed))
	err = gc.TabulateContactCellToSharedDofs(lm, u, master, slave)
	assert.True(t, errors.Is(err, ErrNotComputed))
	_, err = gc.GetCellMetaData(0)
	assert.True(t, errors.Is(err, ErrNotComputed))
	_, err = ContactSparsityPattern(gc, fs.DofMap, fs.DofMap.NumGlobalDofs())
	assert.True(t, errors.Is(err, ErrNotComputed))

	require.NoError(t, gc.ContactSurfaceMapVolumeSweep(lm, u, master, slave))
	err = gc.TabulateContactCellToSharedDofs(lm, u, master, slave)
	assert.True(t, errors.Is(err, ErrNotComputed))
	require.NoError(t, gc.TabulateContactSharedCells(lm, u, master, slave))
	require.NoError(t, gc.TabulateContactCellToSharedDofs(lm, u, master, slave))

	gc.Reset()
	_, err = gc.GetCellMetaData(0)
	assert.True(t, errors.Is(err, ErrNotComputed))
}

func TestInvalidFacets(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(1, 0.4)
	lm, err := mesh.NewLocalMesh(tm, comm.Self())
	require.NoError(t, err)
	fs, err := fem.NewVectorFunctionSpace(lm)
	require.NoError(t, err)
	u := fem.NewFunction(fs)

	gc := NewGeometricContact(DefaultConfig())
	err = gc.ContactSurfaceMapVolumeSweep(lm, u, []int{lm.NumFacets()}, nil)
	assert.True(t, errors.Is(err, ErrFacetOutOfRange))
	err = gc.ContactSurfaceMapVolumeSweep(lm, u, nil, []int{-1})
	assert.True(t, errors.Is(err, ErrFacetOutOfRange))

	_, err = CreateDeformedSegmentVolume(lm, 0, u, 3)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestReinvocationIsIdempotent(t *testing.T) {
	tm := mesh.TwoBodyMesh2D(1, 0.4)
	lm, err := mesh.NewLocalMesh(tm, comm.Self())
	require.NoError(t, err)
	fs, err := fem.NewVectorFunctionSpace(lm)
	require.NoError(t, err)
	u := fem.NewFunction(fs)
	u.Interpolate(moveUpperBody2D)
	master, _ := lm.LocalFacets("master")
	slave, _ := lm.LocalFacets("slave")

	gc := NewGeometricContact(DefaultConfig())
	require.NoError(t, gc.ContactSurfaceMapVolumeSweep(lm, u, master, slave))
	require.NoError(t, gc.TabulateContactSharedCells(lm, u, master, slave))
	first := make(map[int]int)
	for mf := range gc.MasterToSlave() {
		cells, err := gc.GetCellMetaData(mf)
		require.NoError(t, err)
		first[mf] = len(cells)
	}
	require.NotEmpty(t, first)

	// repeated stages leave the maps as sets
	require.NoError(t, gc.ContactSurfaceMapVolumeSweep(lm, u, master, slave))
	require.NoError(t, gc.TabulateContactSharedCells(lm, u, master, slave))
	require.NoError(t, gc.TabulateContactSharedCells(lm, u, master, slave))
	require.NoError(t, gc.TabulateContactCellToSharedDofs(lm, u, master, slave))
	for mf, slaves := range gc.MasterToSlave() {
		assert.Len(t, slaves, 1)
		cells, err := gc.GetCellMetaData(mf)
		require.NoError(t, err)
		assert.Len(t, cells, first[mf])
	}
	for _, masters := range gc.SlaveToMaster() {
		assert.Len(t, masters, 1)
	}
	for _, dofs := range gc.LocalCellsToContactDofs() {
		assert.Equal(t, utils.UniqueSortedInts(append([]int(nil), dofs...)), dofs)
	}

	gc.Reset()
	assert.Empty(t, gc.MasterToSlave())
	_, err = gc.GetCellMetaData(lm.GlobalFacetIndex(master[0]))
	assert.Error(t, err)
}
