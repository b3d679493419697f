package mesh

import (
	"fmt"
	"log"
	"math"

	metis "github.com/notargets/go-metis"

	"github.com/notargets/gocontact/utils"
)

// PartitionConfig holds configuration for mesh partitioning
type PartitionConfig struct {
	NumPartitions    int32
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
	Verbose          bool
}

// DefaultPartitionConfig returns default partitioning configuration
func DefaultPartitionConfig(nparts int32) *PartitionConfig {
	return &PartitionConfig{
		NumPartitions:    nparts,
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol", // minimize communication volume
	}
}

// MeshPartitioner assigns elements to ranks
type MeshPartitioner struct {
	mesh   *Mesh
	config *PartitionConfig

	// Cost models
	computeCostModel func(elemType ElementType) int32
	commCostModel    func(faceVertices int, isBoundary bool) int32
}

// NewMeshPartitioner creates a new partitioner for the given mesh
func NewMeshPartitioner(mesh *Mesh, config *PartitionConfig) *MeshPartitioner {
	mp := &MeshPartitioner{
		mesh:   mesh,
		config: config,
	}

	// Contact work is per facet, so every simplex costs the same and a quad
	// carries two triangles worth of facets
	mp.computeCostModel = func(elemType ElementType) int32 {
		switch elemType {
		case Quad:
			return 2
		default:
			return 1
		}
	}

	// Shared vertices carry the dofs exchanged across a partition boundary
	mp.commCostModel = func(faceVertices int, isBoundary bool) int32 {
		if isBoundary {
			return 0
		}
		return int32(faceVertices)
	}

	return mp
}

// Partition performs the mesh partitioning with METIS
func (mp *MeshPartitioner) Partition() error {
	if mp.mesh.NumElements == 0 {
		return fmt.Errorf("cannot partition an empty mesh")
	}
	if mp.config.NumPartitions == 1 {
		mp.mesh.EToP = make([]int, mp.mesh.NumElements)
		return nil
	}
	if mp.config.Verbose {
		log.Printf("Partitioning mesh with %d elements into %d parts",
			mp.mesh.NumElements, mp.config.NumPartitions)
	}

	// Build METIS graph
	xadj, adjncy, vwgt, adjwgt := mp.buildMetisGraph()

	// Set METIS options
	opts := make([]int32, metis.NoOptions)
	err := metis.SetDefaultOptions(opts)
	if err != nil {
		return fmt.Errorf("failed to set METIS options: %w", err)
	}

	// Set objective function
	if mp.config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}

	// Set allowed imbalance
	ubvec := []float32{mp.config.ImbalanceFactor}

	// Handle case where weights might be nil
	var vwgtPtr, adjwgtPtr []int32
	if mp.config.UseVertexWeights {
		vwgtPtr = vwgt
	}
	if mp.config.UseEdgeWeights {
		adjwgtPtr = adjwgt
	}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgtPtr, adjwgtPtr,
		mp.config.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return fmt.Errorf("METIS partitioning failed: %w", err)
	}

	// Store partition assignment
	mp.mesh.EToP = make([]int, mp.mesh.NumElements)
	for i := 0; i < mp.mesh.NumElements; i++ {
		mp.mesh.EToP[i] = int(part[i])
	}

	if mp.config.Verbose {
		mp.analyzePartition(objval)
	}

	return nil
}

// BlockPartition assigns contiguous, balanced element ranges to each partition
func (mp *MeshPartitioner) BlockPartition() error {
	var (
		nparts = int(mp.config.NumPartitions)
		ne     = mp.mesh.NumElements
	)
	if nparts < 1 || nparts > ne {
		return fmt.Errorf("cannot split %d elements into %d partitions", ne, nparts)
	}
	pm := utils.NewPartitionMap(nparts, ne)
	mp.mesh.EToP = make([]int, ne)
	for bn := 0; bn < nparts; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		for k := kMin; k < kMax; k++ {
			mp.mesh.EToP[k] = bn
		}
	}
	if mp.config.Verbose {
		mp.analyzePartition(-1)
	}
	return nil
}

// PartitionMesh partitions m with the named method, "metis" or "block"
func PartitionMesh(m *Mesh, nparts int, method string, verbose bool) error {
	config := DefaultPartitionConfig(int32(nparts))
	config.Verbose = verbose
	mp := NewMeshPartitioner(m, config)
	switch method {
	case "metis":
		return mp.Partition()
	case "block", "":
		return mp.BlockPartition()
	default:
		return fmt.Errorf("unknown partitioner %q, use metis or block", method)
	}
}

// buildMetisGraph converts mesh connectivity to METIS format
func (mp *MeshPartitioner) buildMetisGraph() (xadj, adjncy, vwgt, adjwgt []int32) {
	ne := mp.mesh.NumElements

	// Build vertex weights (computational cost per element)
	if mp.config.UseVertexWeights {
		vwgt = make([]int32, ne)
		for i := 0; i < ne; i++ {
			vwgt[i] = mp.computeCostModel(mp.mesh.ElementTypes[i])
		}
	}

	// Build adjacency and edge weights
	xadj = make([]int32, ne+1)
	adjncy = []int32{}
	adjwgt = []int32{}

	xadj[0] = 0
	for elem := 0; elem < ne; elem++ {
		for faceIdx, neighbor := range mp.mesh.EToE[elem] {
			if neighbor >= 0 && neighbor != elem {
				// Add neighbor
				adjncy = append(adjncy, int32(neighbor))

				// Add edge weight (communication cost)
				if mp.config.UseEdgeWeights {
					faceID := mp.mesh.EToF[elem][faceIdx]
					face := mp.mesh.Faces[faceID]
					adjwgt = append(adjwgt, mp.commCostModel(len(face.Vertices), false))
				}
			}
		}
		xadj[elem+1] = int32(len(adjncy))
	}

	return xadj, adjncy, vwgt, adjwgt
}

// analyzePartition computes and reports partition quality metrics
func (mp *MeshPartitioner) analyzePartition(objval int32) {
	nparts := int(mp.config.NumPartitions)

	partStats := make([]PartitionStats, nparts)
	for i := range partStats {
		partStats[i].ID = i
		partStats[i].ElementTypes = make(map[ElementType]int)
		partStats[i].NumNeighbors = make(map[int]int)
	}

	// Gather element statistics
	for elem := 0; elem < mp.mesh.NumElements; elem++ {
		stats := &partStats[mp.mesh.EToP[elem]]
		stats.NumElements++
		stats.ElementTypes[mp.mesh.ElementTypes[elem]]++
		stats.ComputeLoad += int64(mp.computeCostModel(mp.mesh.ElementTypes[elem]))
	}

	// Analyze communication
	cutEdges := 0
	commVolume := int64(0)
	for elem := 0; elem < mp.mesh.NumElements; elem++ {
		elemPart := mp.mesh.EToP[elem]
		for faceIdx, neighbor := range mp.mesh.EToE[elem] {
			if neighbor >= 0 && neighbor > elem { // Count each edge once
				neighborPart := mp.mesh.EToP[neighbor]
				if elemPart != neighborPart {
					cutEdges++
					face := mp.mesh.Faces[mp.mesh.EToF[elem][faceIdx]]
					commVolume += int64(mp.commCostModel(len(face.Vertices), false))
					partStats[elemPart].NumNeighbors[neighborPart]++
					partStats[neighborPart].NumNeighbors[elemPart]++
				}
			}
		}
	}

	// Compute load imbalance
	avgLoad := float64(0)
	maxLoad := int64(0)
	minLoad := int64(math.MaxInt64)
	for _, stats := range partStats {
		avgLoad += float64(stats.ComputeLoad)
		if stats.ComputeLoad > maxLoad {
			maxLoad = stats.ComputeLoad
		}
		if stats.ComputeLoad < minLoad {
			minLoad = stats.ComputeLoad
		}
	}
	avgLoad /= float64(nparts)
	imbalance := float64(maxLoad)/avgLoad - 1.0

	log.Printf("Partition Analysis:")
	if objval >= 0 {
		log.Printf("  Objective value: %d", objval)
	}
	log.Printf("  Cut edges: %d", cutEdges)
	log.Printf("  Communication volume: %d", commVolume)
	log.Printf("  Load imbalance: %.2f%%", imbalance*100)
	log.Printf("  Load range: [%d, %d], avg: %.1f", minLoad, maxLoad, avgLoad)
	for _, stats := range partStats {
		log.Printf("  Partition %d: %d elements, %d neighbors",
			stats.ID, stats.NumElements, len(stats.NumNeighbors))
	}
}

// PartitionStats holds statistics for a single partition
type PartitionStats struct {
	ID           int
	NumElements  int
	ComputeLoad  int64
	ElementTypes map[ElementType]int
	NumNeighbors map[int]int // neighbor partition -> shared faces
}

// partOf is the partition of an element, an unpartitioned mesh is all partition 0
func (mp *MeshPartitioner) partOf(elem int) int {
	if mp.mesh.EToP == nil {
		return 0
	}
	return mp.mesh.EToP[elem]
}

// GetPartitionBoundaryFaces returns all faces on physical or partition boundaries
func (mp *MeshPartitioner) GetPartitionBoundaryFaces() map[int][]int {
	boundaryFaces := make(map[int][]int) // partition -> face IDs

	for elem := 0; elem < mp.mesh.NumElements; elem++ {
		elemPart := mp.partOf(elem)
		for faceIdx, neighbor := range mp.mesh.EToE[elem] {
			if neighbor < 0 || mp.partOf(neighbor) != elemPart {
				boundaryFaces[elemPart] = append(boundaryFaces[elemPart], mp.mesh.EToF[elem][faceIdx])
			}
		}
	}

	return boundaryFaces
}

// GetPartitionElements returns all elements in a given partition
func (mp *MeshPartitioner) GetPartitionElements(partID int) []int {
	elements := []int{}
	for elem := 0; elem < mp.mesh.NumElements; elem++ {
		if mp.partOf(elem) == partID {
			elements = append(elements, elem)
		}
	}
	return elements
}
