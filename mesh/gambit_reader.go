package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Local vertices of each numbered element face, Gambit face numbers start at 1
var gambitFaces = map[ElementType][][]int{
	Triangle: {{0, 1}, {1, 2}, {2, 0}},
	Tet:      {{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}},
}

// ReadGambitNeutral reads a Gambit neutral file
func ReadGambitNeutral(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	mesh, err := ParseGambitNeutral(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

/*
ParseGambitNeutral reads 2D triangle and 3D tetrahedral Gambit meshes. Element groups become element tags and
element/face boundary condition sets become boundary markers named after the set.
*/
func ParseGambitNeutral(r io.Reader) (*Mesh, error) {
	var (
		scanner        = bufio.NewScanner(r)
		mesh           *Mesh
		numnp, nelem   int
		ndfcd          int
		markers        []string
		marked         = make(map[string][][]int)
		sectionEnd     = "ENDOFSECTION"
		readingSection = func() (fields []string, ok bool) {
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == sectionEnd {
					return nil, false
				}
				if line != "" {
					return strings.Fields(line), true
				}
			}
			return nil, false
		}
	)

	// Read until we find the problem size parameters
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "NUMNP") && strings.Contains(line, "NELEM") {
			if !scanner.Scan() {
				return nil, io.ErrUnexpectedEOF
			}
			values := strings.Fields(scanner.Text())
			if len(values) < 5 {
				return nil, fmt.Errorf("short problem size line %q", scanner.Text())
			}
			numnp, _ = strconv.Atoi(values[0])
			nelem, _ = strconv.Atoi(values[1])
			ndfcd, _ = strconv.Atoi(values[4])
			if ndfcd != 2 && ndfcd != 3 {
				return nil, fmt.Errorf("only 2D and 3D meshes are supported, got NDFCD=%d", ndfcd)
			}
			mesh = NewMesh(ndfcd)
			break
		}
	}
	if mesh == nil {
		return nil, fmt.Errorf("missing NUMNP/NELEM header")
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.Contains(line, "NODAL COORDINATES") {
			mesh.Vertices = make([][]float64, numnp)
			for fields, ok := readingSection(); ok; fields, ok = readingSection() {
				if len(fields) < ndfcd+1 {
					return nil, fmt.Errorf("short node line %v", fields)
				}
				id, _ := strconv.Atoi(fields[0])
				if id < 1 || id > numnp {
					return nil, fmt.Errorf("node id %d out of range [1,%d]", id, numnp)
				}
				coords := make([]float64, 3)
				for j := 0; j < ndfcd; j++ {
					var err error
					if coords[j], err = strconv.ParseFloat(fields[1+j], 64); err != nil {
						return nil, fmt.Errorf("node %d: %w", id, err)
					}
				}
				mesh.Vertices[id-1] = coords
			}

		} else if strings.Contains(line, "ELEMENTS/CELLS") {
			for fields, ok := readingSection(); ok; fields, ok = readingSection() {
				// Format: NE NTYPE NDP NODE1 NODE2 ...
				if len(fields) < 3 {
					return nil, fmt.Errorf("short element line %v", fields)
				}
				gtype, _ := strconv.Atoi(fields[1])
				numNodes, _ := strconv.Atoi(fields[2])
				var etype ElementType
				switch gtype {
				case 3:
					etype = Triangle
				case 6:
					etype = Tet
				default:
					return nil, fmt.Errorf("unsupported Gambit element type %d", gtype)
				}
				if len(fields) < 3+numNodes {
					return nil, fmt.Errorf("element %s lists %d of %d nodes", fields[0], len(fields)-3, numNodes)
				}
				verts := make([]int, numNodes)
				for j := range verts {
					v, _ := strconv.Atoi(fields[3+j])
					verts[j] = v - 1
				}
				mesh.AddElement(etype, verts, 0)
			}
			if mesh.NumElements != nelem {
				return nil, fmt.Errorf("read %d elements, header has %d", mesh.NumElements, nelem)
			}

		} else if strings.Contains(line, "ELEMENT GROUP") {
			// GROUP: NGP ELEMENTS: NELGP MATERIAL: MTYP NFLAGS: NFLAGS
			fields, ok := readingSection()
			if !ok || len(fields) < 2 || fields[0] != "GROUP:" {
				return nil, fmt.Errorf("malformed element group")
			}
			groupID, _ := strconv.Atoi(fields[1])
			// Entity name, then flags
			readingSection()
			readingSection()
			for fields, ok = readingSection(); ok; fields, ok = readingSection() {
				for _, field := range fields {
					elemID, _ := strconv.Atoi(field)
					if elemID > 0 && elemID <= mesh.NumElements {
						mesh.ElementTags[elemID-1] = groupID
					}
				}
			}

		} else if strings.Contains(line, "BOUNDARY CONDITIONS") {
			// NAME ITYPE NENTRY NVALUES IBCODE
			fields, ok := readingSection()
			if !ok || len(fields) < 3 {
				return nil, fmt.Errorf("malformed boundary condition header")
			}
			name := fields[0]
			if itype, _ := strconv.Atoi(fields[1]); itype != 1 {
				return nil, fmt.Errorf("boundary set %s: only element/face sets are supported", name)
			}
			markers = append(markers, name)
			for fields, ok = readingSection(); ok; fields, ok = readingSection() {
				if len(fields) < 3 {
					return nil, fmt.Errorf("boundary set %s: short entry %v", name, fields)
				}
				elemID, _ := strconv.Atoi(fields[0])
				faceNum, _ := strconv.Atoi(fields[2])
				if elemID < 1 || elemID > mesh.NumElements {
					return nil, fmt.Errorf("boundary set %s: element %d out of range", name, elemID)
				}
				faces := gambitFaces[mesh.ElementTypes[elemID-1]]
				if faceNum < 1 || faceNum > len(faces) {
					return nil, fmt.Errorf("boundary set %s: element %d has no face %d", name, elemID, faceNum)
				}
				elem := mesh.Elements[elemID-1]
				verts := make([]int, len(faces[faceNum-1]))
				for j, lv := range faces[faceNum-1] {
					verts[j] = elem[lv]
				}
				marked[name] = append(marked[name], verts)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for i, v := range mesh.Vertices {
		if v == nil {
			return nil, fmt.Errorf("node %d was not defined", i+1)
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
