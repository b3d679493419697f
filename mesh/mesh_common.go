package mesh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notargets/gocontact/types"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet"}[e]
}

// Dimension is the topological dimension of the element
func (e ElementType) Dimension() int {
	return [...]int{1, 2, 2, 3}[e]
}

// Face represents a facet of the mesh: an edge in 2D, a triangle in 3D
type Face struct {
	Vertices []int // Sorted vertex indices
	Element  int   // Parent element
	LocalID  int   // Local face ID within element
	Neighbor int   // Element across the face, -1 on the boundary
}

// Mesh represents a complete unstructured mesh with all connectivity
type Mesh struct {
	GDim, TDim int

	// Geometry
	Vertices [][]float64 // Vertex coordinates [nvertices][3]

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element
	ElementTags  []int         // Physical group/tag for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nfaces_per_elem]
	EToF [][]int // Element to face connectivity [nelems][nfaces_per_elem]
	EToP []int   // Element to partition mapping (set after partitioning)

	// Face data
	Faces          []Face                 // All unique faces in mesh
	FaceMap        map[types.FacetKey]int // Map from packed sorted vertices to face ID
	BoundaryTags   map[int]string         // Marker index -> marker name
	BoundaryFacets map[string][]int       // Marker name -> face IDs

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

// NewMesh creates a new empty mesh
func NewMesh(gdim int) *Mesh {
	return &Mesh{
		GDim:           gdim,
		FaceMap:        make(map[types.FacetKey]int),
		BoundaryTags:   make(map[int]string),
		BoundaryFacets: make(map[string][]int),
	}
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".neu":
		return ReadGambitNeutral(filename)
	case ".su2":
		return ReadSU2(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// AddElement appends an element and returns its index
func (m *Mesh) AddElement(etype ElementType, verts []int, tag int) int {
	m.Elements = append(m.Elements, append([]int(nil), verts...))
	m.ElementTypes = append(m.ElementTypes, etype)
	m.ElementTags = append(m.ElementTags, tag)
	m.NumElements = len(m.Elements)
	return m.NumElements - 1
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() error {
	m.NumVertices = len(m.Vertices)
	m.NumElements = len(m.Elements)
	m.TDim = 0
	for elemID, etype := range m.ElementTypes {
		if m.TDim == 0 {
			m.TDim = etype.Dimension()
		} else if etype.Dimension() != m.TDim {
			return fmt.Errorf("element %d is %s, mixing topological dimensions %d and %d",
				elemID, etype, etype.Dimension(), m.TDim)
		}
		for _, v := range m.Elements[elemID] {
			if v < 0 || v >= m.NumVertices {
				return fmt.Errorf("element %d references vertex %d, mesh has %d vertices",
					elemID, v, m.NumVertices)
			}
		}
	}
	if m.TDim > m.GDim {
		return fmt.Errorf("topological dimension %d exceeds geometric dimension %d", m.TDim, m.GDim)
	}
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[types.FacetKey]int)

	// Build face connectivity
	for elemID := 0; elemID < m.NumElements; elemID++ {
		// Get faces for this element type
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.Elements[elemID])

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))

		// Initialize to -1 (boundary)
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		// Process each face
		for localFaceID, faceVerts := range faceVertices {
			key := types.NewFacetKey(faceVerts)

			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				if face.Neighbor >= 0 {
					return fmt.Errorf("face %v is shared by more than two elements", face.Vertices)
				}
				neighborElem := face.Element
				neighborLocalID := face.LocalID
				face.Neighbor = elemID

				// Set connectivity
				m.EToE[elemID][localFaceID] = neighborElem
				m.EToE[neighborElem][neighborLocalID] = elemID

				m.EToF[elemID][localFaceID] = faceID
			} else {
				sorted := append([]int(nil), faceVerts...)
				sort.Ints(sorted)
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: sorted,
					Element:  elemID,
					LocalID:  localFaceID,
					Neighbor: -1,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}

	m.NumFaces = len(m.Faces)
	return nil
}

// GetElementFaces returns the face vertices for each element type
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Triangle:
		return [][]int{
			{vertices[0], vertices[1]}, // Edge 0
			{vertices[1], vertices[2]}, // Edge 1
			{vertices[2], vertices[0]}, // Edge 2
		}
	case Quad:
		return [][]int{
			{vertices[0], vertices[1]},
			{vertices[1], vertices[2]},
			{vertices[2], vertices[3]},
			{vertices[3], vertices[0]},
		}
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	default:
		return [][]int{}
	}
}

// FindFace returns the face with the given vertices, in any order
func (m *Mesh) FindFace(verts []int) (faceID int, ok bool) {
	if len(verts) < 2 || len(verts) > 3 {
		return -1, false
	}
	faceID, ok = m.FaceMap[types.NewFacetKey(verts)]
	return
}

// FaceElements lists the elements sharing a face
func (m *Mesh) FaceElements(faceID int) []int {
	face := m.Faces[faceID]
	if face.Neighbor < 0 {
		return []int{face.Element}
	}
	return []int{face.Element, face.Neighbor}
}

// AddBoundaryMarker records the named facets, each given by its vertices
func (m *Mesh) AddBoundaryMarker(name string, facets [][]int) error {
	if m.FaceMap == nil || (m.NumFaces == 0 && len(facets) != 0) {
		return fmt.Errorf("marker %s: connectivity must be built before markers are added", name)
	}
	ids := make([]int, 0, len(facets))
	for _, verts := range facets {
		faceID, ok := m.FindFace(verts)
		if !ok {
			return fmt.Errorf("marker %s: facet %v is not a face of the mesh", name, verts)
		}
		if m.Faces[faceID].Neighbor >= 0 {
			return fmt.Errorf("marker %s: facet %v is an interior face", name, verts)
		}
		ids = append(ids, faceID)
	}
	if _, exists := m.BoundaryFacets[name]; !exists {
		m.BoundaryTags[len(m.BoundaryTags)] = name
	}
	m.BoundaryFacets[name] = append(m.BoundaryFacets[name], ids...)
	return nil
}

// MarkerFacets returns the face IDs of a named boundary marker
func (m *Mesh) MarkerFacets(name string) ([]int, error) {
	ids, ok := m.BoundaryFacets[name]
	if !ok {
		names := make([]string, 0, len(m.BoundaryFacets))
		for n := range m.BoundaryFacets {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("no boundary marker named %q, have %v", name, names)
	}
	return ids, nil
}

// BodyVertices returns the sorted vertices of all elements connected through shared faces to the facets of a marker
func (m *Mesh) BodyVertices(marker string) (verts []int, err error) {
	var facets []int
	if facets, err = m.MarkerFacets(marker); err != nil {
		return
	}
	var (
		seen  = make([]bool, m.NumElements)
		queue []int
		vset  = make(map[int]bool)
	)
	for _, f := range facets {
		for _, k := range m.FaceElements(f) {
			if !seen[k] {
				seen[k] = true
				queue = append(queue, k)
			}
		}
	}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, v := range m.Elements[k] {
			vset[v] = true
		}
		for _, nb := range m.EToE[k] {
			if nb >= 0 && !seen[nb] {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	verts = sortedKeys(vset)
	return
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %dD, topological %dD\n", m.GDim, m.TDim)
	fmt.Printf("  Vertices: %d\n", m.NumVertices)
	fmt.Printf("  Elements: %d\n", m.NumElements)
	fmt.Printf("  Faces: %d\n", m.NumFaces)

	// Count element types
	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}

	fmt.Printf("  Element types:\n")
	for t, count := range typeCounts {
		fmt.Printf("    %s: %d\n", t, count)
	}

	// Count boundary faces
	boundaryFaces := 0
	for _, face := range m.Faces {
		if face.Neighbor < 0 {
			boundaryFaces++
		}
	}
	fmt.Printf("  Boundary faces: %d\n", boundaryFaces)
	for i := 0; i < len(m.BoundaryTags); i++ {
		name := m.BoundaryTags[i]
		fmt.Printf("    %s: %d\n", name, len(m.BoundaryFacets[name]))
	}
}
