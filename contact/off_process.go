package contact

import (
	"fmt"

	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/geometry"
	"github.com/notargets/gocontact/types"
)

// ContactPair is a colliding master and slave facet, by global index, and the ranks holding them
type ContactPair struct {
	Master, Slave         int
	MasterRank, SlaveRank int
}

// boxRecords packs [facet, role, box...] for every local swept volume
func boxRecords(master, slave *geometry.SweptMesh) (recs []float64) {
	for _, sm := range []struct {
		vol  *geometry.SweptMesh
		role types.FacetRole
	}{{master, types.Role_Master}, {slave, types.Role_Slave}} {
		for slot, facet := range sm.vol.Facets {
			recs = append(recs, float64(facet), float64(sm.role))
			recs = append(recs, geometry.FlattenBox(sm.vol.Box(slot), sm.vol.GDim)...)
		}
	}
	return
}

type offProcCandidate struct {
	slot      int // local slot
	localRole types.FacetRole
}

/*
TabulateOffProcessDisplacementVolumeMeshPairs finds the collisions between local swept volumes and those of facets
held by other ranks. Every rank gathers the boxes of all swept volumes, tests the remote master boxes against its
local slaves and the remote slave boxes against its local masters, fetches the swept points of each remote
candidate from its owner and runs the exact test on a communicated copy, master volume first.

Both ranks of a pair see the same boxes and the same points, so a collision is found on both sides. Only pairs
with one facet on this rank are returned. All ranks must call this together.
*/
func TabulateOffProcessDisplacementVolumeMeshPairs(c comm.Communicator, master, slave *geometry.SweptMesh,
	tol float64) (pairs []ContactPair, err error) {
	if slave.GDim != master.GDim || slave.TDim != master.TDim {
		return nil, fmt.Errorf("%w: master volumes are %dD, slave volumes %dD",
			ErrDimensionMismatch, master.GDim, slave.GDim)
	}
	var (
		gdim, tdim = master.GDim, master.TDim
		rank, np   = c.Rank(), c.Size()
		pad        = boxPad(tol)
		stride     = 2 + 2*gdim
		nv         = geometry.VerticesPerFacet(tdim)
		masterTree = newBoxTree(gdim, sweptBoxes(master, pad))
		slaveTree  = newBoxTree(gdim, sweptBoxes(slave, pad))
	)
	var allBoxes [][]float64
	if allBoxes, err = c.AllGatherFloat64(boxRecords(master, slave)); err != nil {
		return
	}
	var (
		requests   = make([][]int, np)
		candidates = make([]map[int][]offProcCandidate, np) // remote facet -> local candidates
	)
	for r, recs := range allBoxes {
		if r == rank {
			continue
		}
		if len(recs)%stride != 0 {
			return nil, fmt.Errorf("rank %d sent %d box values, not a multiple of %d", r, len(recs), stride)
		}
		candidates[r] = make(map[int][]offProcCandidate)
		for i := 0; i < len(recs); i += stride {
			var (
				facet = int(recs[i])
				role  = types.FacetRole(recs[i+1])
				rect  = boxRect(geometry.UnflattenBox(recs[i+2:i+stride], gdim), gdim, pad)
				tree  = slaveTree
				local = types.Role_Slave
			)
			if role == types.Role_Slave {
				tree, local = masterTree, types.Role_Master
			}
			for _, slot := range searchBoxes(tree, rect, facet) {
				candidates[r][facet] = append(candidates[r][facet], offProcCandidate{slot: slot, localRole: local})
			}
			if len(candidates[r][facet]) != 0 {
				requests[r] = append(requests[r], facet)
			}
		}
	}
	var wanted [][]int
	if wanted, err = c.AllToAllInt(requests); err != nil {
		return
	}
	replies := make([][]float64, np)
	for r, facets := range wanted {
		for _, facet := range facets {
			var pts []float64
			if slot, ok := master.Slot(facet); ok {
				pts = flattenVolume(master.Volume(slot), gdim)
			} else if slot, ok = slave.Slot(facet); ok {
				pts = flattenVolume(slave.Volume(slot), gdim)
			} else {
				return nil, fmt.Errorf("rank %d requested facet %d, not held by rank %d", r, facet, rank)
			}
			replies[r] = append(replies[r], pts...)
		}
	}
	var received [][]float64
	if received, err = c.AllToAllFloat64(replies); err != nil {
		return
	}
	size := gdim * nv
	for r, facets := range requests {
		if len(received[r]) != size*len(facets) {
			return nil, fmt.Errorf("rank %d returned %d coordinates for %d facets", r, len(received[r]), len(facets))
		}
		for i, facet := range facets {
			var proxy *geometry.SweptMesh
			if proxy, err = CreateCommunicatedPrismMesh(gdim, tdim, received[r][i*size:(i+1)*size], facet); err != nil {
				return
			}
			for _, cand := range candidates[r][facet] {
				var (
					hit  bool
					pair ContactPair
				)
				if cand.localRole == types.Role_Master {
					hit, err = geometry.CheckCollision(master, cand.slot, proxy, 0, tol)
					pair = ContactPair{Master: master.Facets[cand.slot], Slave: facet, MasterRank: rank, SlaveRank: r}
				} else {
					hit, err = geometry.CheckCollision(proxy, 0, slave, cand.slot, tol)
					pair = ContactPair{Master: facet, Slave: slave.Facets[cand.slot], MasterRank: r, SlaveRank: rank}
				}
				if err != nil {
					return nil, err
				}
				if hit {
					pairs = append(pairs, pair)
				}
			}
		}
	}
	return
}
