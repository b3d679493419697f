package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSU2 reads an SU2 native format file
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	mesh, err := ParseSU2(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// ParseSU2 reads 2D (triangle, quad) and 3D (tet) SU2 meshes with their boundary markers
func ParseSU2(r io.Reader) (*Mesh, error) {
	var (
		scanner = bufio.NewScanner(r)
		ndime   int
		mesh    *Mesh
		markers []string
		marked  = make(map[string][][]int)
	)
	nextLine := func() ([]string, error) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "%") {
				continue
			}
			return strings.Fields(line), nil
		}
		return nil, io.ErrUnexpectedEOF
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments
		if strings.HasPrefix(line, "%") || line == "" {
			continue
		}

		if strings.HasPrefix(line, "NDIME=") {
			fmt.Sscanf(line, "NDIME=%d", &ndime)
			if ndime != 2 && ndime != 3 {
				return nil, fmt.Errorf("only 2D and 3D meshes are supported, got NDIME=%d", ndime)
			}
			mesh = NewMesh(ndime)

		} else if strings.HasPrefix(line, "NELEM=") {
			if mesh == nil {
				return nil, fmt.Errorf("NELEM before NDIME")
			}
			var nelem int
			fmt.Sscanf(line, "NELEM=%d", &nelem)

			// Read elements
			for i := 0; i < nelem; i++ {
				fields, err := nextLine()
				if err != nil {
					return nil, fmt.Errorf("reading element %d: %w", i, err)
				}
				etype, verts, err := parseSU2Element(fields)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				if etype.Dimension() != ndime {
					return nil, fmt.Errorf("element %d is a %s in a %dD mesh", i, etype, ndime)
				}
				mesh.AddElement(etype, verts, 0)
			}

		} else if strings.HasPrefix(line, "NPOIN=") {
			if mesh == nil {
				return nil, fmt.Errorf("NPOIN before NDIME")
			}
			var npoin int
			fmt.Sscanf(line, "NPOIN=%d", &npoin)

			mesh.Vertices = make([][]float64, npoin)

			for i := 0; i < npoin; i++ {
				fields, err := nextLine()
				if err != nil {
					return nil, fmt.Errorf("reading point %d: %w", i, err)
				}
				if len(fields) < ndime {
					return nil, fmt.Errorf("point %d has %d coordinates, need %d", i, len(fields), ndime)
				}
				coords := make([]float64, 3)
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("point %d: %w", i, err)
					}
				}

				// Point ID is the optional last field
				ptID := i
				if len(fields) > ndime {
					ptID, _ = strconv.Atoi(fields[len(fields)-1])
				}
				if ptID < 0 || ptID >= npoin {
					return nil, fmt.Errorf("point id %d out of range [0,%d)", ptID, npoin)
				}
				mesh.Vertices[ptID] = coords
			}

		} else if strings.HasPrefix(line, "NMARK=") {
			var nmark int
			fmt.Sscanf(line, "NMARK=%d", &nmark)

			// Read boundary markers
			for i := 0; i < nmark; i++ {
				fields, err := nextLine()
				if err != nil {
					return nil, fmt.Errorf("reading marker %d: %w", i, err)
				}
				markerLine := strings.Join(fields, " ")
				if !strings.HasPrefix(markerLine, "MARKER_TAG=") {
					return nil, fmt.Errorf("expected MARKER_TAG=, have %q", markerLine)
				}
				tagName := strings.TrimSpace(strings.TrimPrefix(markerLine, "MARKER_TAG="))

				// Read number of marker elements
				if fields, err = nextLine(); err != nil {
					return nil, fmt.Errorf("marker %s: %w", tagName, err)
				}
				var nMarkerElems int
				fmt.Sscanf(strings.Join(fields, " "), "MARKER_ELEMS=%d", &nMarkerElems)

				markers = append(markers, tagName)
				for j := 0; j < nMarkerElems; j++ {
					if fields, err = nextLine(); err != nil {
						return nil, fmt.Errorf("marker %s element %d: %w", tagName, j, err)
					}
					etype, verts, err := parseSU2Element(fields)
					if err != nil {
						return nil, fmt.Errorf("marker %s element %d: %w", tagName, j, err)
					}
					if etype.Dimension() != ndime-1 {
						return nil, fmt.Errorf("marker %s element %d is a %s in a %dD mesh", tagName, j, etype, ndime)
					}
					marked[tagName] = append(marked[tagName], verts)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if mesh == nil {
		return nil, fmt.Errorf("missing NDIME")
	}
	for i, v := range mesh.Vertices {
		if v == nil {
			return nil, fmt.Errorf("point %d was not defined", i)
		}
	}

	if err := mesh.BuildConnectivity(); err != nil {
		return nil, err
	}
	for _, name := range markers {
		if err := mesh.AddBoundaryMarker(name, marked[name]); err != nil {
			return nil, err
		}
	}

	return mesh, nil
}

func parseSU2Element(fields []string) (etype ElementType, verts []int, err error) {
	if len(fields) < 2 {
		err = fmt.Errorf("element line too short: %v", fields)
		return
	}
	su2Type, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	// Map SU2 element types to our types
	switch su2Type {
	case 3:
		etype = Line
	case 5:
		etype = Triangle
	case 9:
		etype = Quad
	case 10:
		etype = Tet
	default:
		err = fmt.Errorf("unsupported SU2 element type %d", su2Type)
		return
	}
	numNodes := getNumNodesSU2(su2Type)
	if len(fields) < numNodes+1 {
		err = fmt.Errorf("SU2 element type %d needs %d nodes, have %v", su2Type, numNodes, fields[1:])
		return
	}
	verts = make([]int, numNodes)
	for j := 0; j < numNodes; j++ {
		if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
			return
		}
	}
	return
}

// getNumNodesSU2 returns the number of nodes for an SU2 element type
func getNumNodesSU2(su2Type int) int {
	switch su2Type {
	case 3:
		return 2 // Line
	case 5:
		return 3 // Triangle
	case 9:
		return 4 // Quad
	case 10:
		return 4 // Tet
	default:
		return 0
	}
}

// WriteSU2 writes the mesh and its boundary markers in SU2 native format
func (m *Mesh) WriteSU2(w io.Writer) error {
	su2Codes := map[ElementType]int{Line: 3, Triangle: 5, Quad: 9, Tet: 10}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NDIME= %d\n", m.GDim)
	fmt.Fprintf(bw, "NELEM= %d\n", m.NumElements)
	for k, elem := range m.Elements {
		fmt.Fprintf(bw, "%d", su2Codes[m.ElementTypes[k]])
		for _, v := range elem {
			fmt.Fprintf(bw, " %d", v)
		}
		fmt.Fprintf(bw, " %d\n", k)
	}
	fmt.Fprintf(bw, "NPOIN= %d\n", m.NumVertices)
	for i, x := range m.Vertices {
		for j := 0; j < m.GDim; j++ {
			fmt.Fprintf(bw, "%.17g ", x[j])
		}
		fmt.Fprintf(bw, "%d\n", i)
	}
	fmt.Fprintf(bw, "NMARK= %d\n", len(m.BoundaryTags))
	facetType := Line
	if m.TDim == 3 {
		facetType = Triangle
	}
	for i := 0; i < len(m.BoundaryTags); i++ {
		name := m.BoundaryTags[i]
		fmt.Fprintf(bw, "MARKER_TAG= %s\n", name)
		fmt.Fprintf(bw, "MARKER_ELEMS= %d\n", len(m.BoundaryFacets[name]))
		for _, faceID := range m.BoundaryFacets[name] {
			fmt.Fprintf(bw, "%d", su2Codes[facetType])
			for _, v := range m.Faces[faceID].Vertices {
				fmt.Fprintf(bw, " %d", v)
			}
			fmt.Fprintf(bw, "\n")
		}
	}
	return bw.Flush()
}
