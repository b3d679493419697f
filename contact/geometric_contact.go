// Package contact detects geometric contact between a master and a slave set of boundary facets of a
// deforming, possibly distributed, mesh and tabulates the maps an assembler needs to couple them.
package contact

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/geometry"
)

type stage uint8

const (
	stageUninitialized stage = iota
	stageFacetPairs
	stageCellMetaData
	stageDofMaps
)

func (s stage) String() string {
	return [...]string{"uninitialized", "facet pairs", "cell metadata", "dof maps"}[s]
}

/*
GeometricContact owns the contact maps of one rank. The stages run in order, ContactSurfaceMapVolumeSweep, then
TabulateContactSharedCells, then TabulateContactCellToSharedDofs, each collectively on every rank. Maps are not
cleared when a stage is run again: results accumulate until Reset.

Facets in the facet maps are global indices. A rank holds MasterToSlave entries for its own master facets and
SlaveToMaster entries for its own slave facets, so on one rank the two maps are inverses of each other, and across
ranks the union of the maps is.
*/
type GeometricContact struct {
	Config Config

	stage                         stage
	tol                           float64
	masterToSlave, slaveToMaster  map[int][]int
	slaveOwner                    map[int]int // slave facet -> rank holding it
	cellMetaData                  map[int][]CellMetaData
	tabulated                     map[[2]int]bool // master, slave pairs already in cellMetaData
	localCellToContactDofs        map[int][]int
	localCellToOffProcContactDofs map[int][]int
}

func NewGeometricContact(cfg Config) (gc *GeometricContact) {
	gc = &GeometricContact{Config: cfg}
	gc.Reset()
	return
}

// Reset discards all maps
func (gc *GeometricContact) Reset() {
	gc.stage = stageUninitialized
	gc.tol = 0
	gc.masterToSlave = make(map[int][]int)
	gc.slaveToMaster = make(map[int][]int)
	gc.slaveOwner = make(map[int]int)
	gc.cellMetaData = make(map[int][]CellMetaData)
	gc.tabulated = make(map[[2]int]bool)
	gc.localCellToContactDofs = make(map[int][]int)
	gc.localCellToOffProcContactDofs = make(map[int][]int)
}

func (gc *GeometricContact) logf(c comm.Communicator, format string, args ...interface{}) {
	if gc.Config.Verbose {
		log.Printf("[rank %d] "+format, append([]interface{}{c.Rank()}, args...)...)
	}
}

func (gc *GeometricContact) require(s stage, method string) error {
	if gc.stage < s {
		return fmt.Errorf("%w: %s needs %s, have %s", ErrNotComputed, method, s, gc.stage)
	}
	return nil
}

func checkFacets(mesh Mesh, facets []int, role string) error {
	for _, f := range facets {
		if f < 0 || f >= mesh.NumFacets() {
			return fmt.Errorf("%w: %s facet %d, mesh has %d facets", ErrFacetOutOfRange, role, f, mesh.NumFacets())
		}
	}
	return nil
}

func checkDimensions(mesh Mesh) error {
	gdim, tdim := mesh.GeometricDimension(), mesh.TopologicalDimension()
	if (gdim != 2 && gdim != 3) || tdim != gdim {
		return fmt.Errorf("%w: contact needs matching geometric and topological dimension 2 or 3, have %d and %d",
			ErrDimensionMismatch, gdim, tdim)
	}
	return nil
}

/*
ContactSurfaceMapVolumeSweep sweeps the local master and slave facets along u and records every master and slave
facet pair whose swept volumes collide, on this rank or across ranks.
*/
func (gc *GeometricContact) ContactSurfaceMapVolumeSweep(mesh Mesh, u Function, masterFacets, slaveFacets []int) (err error) {
	var (
		c    = mesh.Comm()
		rank = c.Rank()
	)
	if err = checkDimensions(mesh); err != nil {
		return
	}
	if err = checkFacets(mesh, masterFacets, "master"); err != nil {
		return
	}
	if err = checkFacets(mesh, slaveFacets, "slave"); err != nil {
		return
	}
	var masterVol, slaveVol *geometry.SweptMesh
	if masterVol, err = CreateDisplacementVolumeMesh(mesh, masterFacets, u); err != nil {
		return
	}
	if slaveVol, err = CreateDisplacementVolumeMesh(mesh, slaveFacets, u); err != nil {
		return
	}
	h := math.Max(masterVol.MaxFacetDiameter(), slaveVol.MaxFacetDiameter())
	if h, err = c.AllReduceMaxFloat64(h); err != nil {
		return
	}
	gc.tol = gc.Config.Tolerance * h
	gc.logf(c, "sweeping %d master and %d slave facets, tolerance %g", len(masterFacets), len(slaveFacets), gc.tol)

	var (
		candidates = TabulateOnProcessBBoxCollisions(masterVol, slaveVol, gc.tol)
		nCand      int
		nHits      int
	)
	for mi, slots := range candidates {
		nCand += len(slots)
		for _, si := range slots {
			var hit bool
			if hit, err = geometry.CheckCollision(masterVol, mi, slaveVol, si, gc.tol); err != nil {
				return
			}
			if hit {
				nHits++
				gc.addPair(ContactPair{
					Master: masterVol.Facets[mi], Slave: slaveVol.Facets[si], MasterRank: rank, SlaveRank: rank,
				}, rank)
			}
		}
	}
	gc.logf(c, "on process: %d box candidates, %d collisions", nCand, nHits)

	var pairs []ContactPair
	if pairs, err = TabulateOffProcessDisplacementVolumeMeshPairs(c, masterVol, slaveVol, gc.tol); err != nil {
		return
	}
	for _, p := range pairs {
		gc.addPair(p, rank)
	}
	gc.logf(c, "off process: %d collisions", len(pairs))
	gc.stage = stageFacetPairs
	return
}

func (gc *GeometricContact) addPair(p ContactPair, rank int) {
	if p.MasterRank == rank && !containsInt(gc.masterToSlave[p.Master], p.Slave) {
		gc.masterToSlave[p.Master] = append(gc.masterToSlave[p.Master], p.Slave)
		gc.slaveOwner[p.Slave] = p.SlaveRank
	}
	if p.SlaveRank == rank && !containsInt(gc.slaveToMaster[p.Slave], p.Master) {
		gc.slaveToMaster[p.Slave] = append(gc.slaveToMaster[p.Slave], p.Master)
	}
}

func containsInt(vals []int, val int) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}

/*
TabulateContactSharedCells builds the CellMetaData of the cells incident to every slave facet in contact with a local
master facet. Cells of slave facets held by another rank are sent by that rank.
*/
func (gc *GeometricContact) TabulateContactSharedCells(mesh Mesh, u Function, masterFacets, slaveFacets []int) (err error) {
	if err = gc.require(stageFacetPairs, "TabulateContactSharedCells"); err != nil {
		return
	}
	if err = checkFacets(mesh, masterFacets, "master"); err != nil {
		return
	}
	if err = checkFacets(mesh, slaveFacets, "slave"); err != nil {
		return
	}
	c := mesh.Comm()
	var remote map[int][]CellMetaData
	if remote, err = exchangeSlaveCells(mesh, u, gc.masterToSlave, gc.slaveOwner); err != nil {
		return
	}
	var count int
	for _, m := range sortedKeys(gc.masterToSlave) {
		for _, s := range gc.masterToSlave[m] {
			if gc.tabulated[[2]int{m, s}] {
				continue
			}
			var cells []CellMetaData
			if gc.slaveOwner[s] == c.Rank() {
				lf, ok := mesh.LocalFacetIndex(s)
				if !ok {
					return fmt.Errorf("%w: slave facet %d is not on rank %d", ErrFacetOutOfRange, s, c.Rank())
				}
				cells = slaveCellMetaData(mesh, u, lf)
			} else if cells = remote[s]; len(cells) == 0 {
				return fmt.Errorf("rank %d sent no cells for slave facet %d", gc.slaveOwner[s], s)
			}
			gc.cellMetaData[m] = append(gc.cellMetaData[m], cells...)
			gc.tabulated[[2]int{m, s}] = true
			count += len(cells)
		}
	}
	gc.logf(c, "tabulated %d contact cells for %d master facets", count, len(gc.masterToSlave))
	gc.stage = stageCellMetaData
	return
}

// TabulateContactCellToSharedDofs splits the dofs of the contacted slave cells between the local master cells
func (gc *GeometricContact) TabulateContactCellToSharedDofs(mesh Mesh, u Function, masterFacets, slaveFacets []int) (err error) {
	if err = gc.require(stageCellMetaData, "TabulateContactCellToSharedDofs"); err != nil {
		return
	}
	if err = checkFacets(mesh, masterFacets, "master"); err != nil {
		return
	}
	if err = checkFacets(mesh, slaveFacets, "slave"); err != nil {
		return
	}
	var owned, offProc map[int][]int
	if owned, offProc, err = TabulateCollidedCellDofs(mesh, u, gc.masterToSlave, gc.cellMetaData); err != nil {
		return
	}
	mergeCellDofs(gc.localCellToContactDofs, owned)
	mergeCellDofs(gc.localCellToOffProcContactDofs, offProc)
	gc.logf(mesh.Comm(), "%d master cells with owned contact dofs, %d with off process dofs",
		len(gc.localCellToContactDofs), len(gc.localCellToOffProcContactDofs))
	gc.stage = stageDofMaps
	return
}

// Tolerance is the absolute collision tolerance of the last sweep
func (gc *GeometricContact) Tolerance() float64 { return gc.tol }

func (gc *GeometricContact) MasterToSlave() map[int][]int { return copyMap(gc.masterToSlave) }
func (gc *GeometricContact) SlaveToMaster() map[int][]int { return copyMap(gc.slaveToMaster) }

func (gc *GeometricContact) LocalCellsToContactDofs() map[int][]int {
	return copyMap(gc.localCellToContactDofs)
}

func (gc *GeometricContact) LocalCellToOffProcContactDofs() map[int][]int {
	return copyMap(gc.localCellToOffProcContactDofs)
}

// GetCellMetaData returns the contacted slave cells of a master facet, empty if it has no contact
func (gc *GeometricContact) GetCellMetaData(masterFacet int) ([]CellMetaData, error) {
	if err := gc.require(stageCellMetaData, "GetCellMetaData"); err != nil {
		return nil, err
	}
	return append([]CellMetaData{}, gc.cellMetaData[masterFacet]...), nil
}

func copyMap(src map[int][]int) (dst map[int][]int) {
	dst = make(map[int][]int, len(src))
	for k, v := range src {
		dst[k] = append([]int(nil), v...)
	}
	return
}

func sortedKeys[T any](m map[int]T) (keys []int) {
	keys = make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}
