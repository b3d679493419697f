/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/InputParameters"
	"github.com/notargets/gocontact/comm"
	"github.com/notargets/gocontact/contact"
	"github.com/notargets/gocontact/fem"
	"github.com/notargets/gocontact/geometry"
	"github.com/notargets/gocontact/mesh"
)

type ContactModel struct {
	MeshFile   string
	ICFile     string
	ReportFile string
	Profile    string
}

// RankReport holds the contact maps found by one rank
type RankReport struct {
	Rank                     int
	NumCells                 int
	NumBoundaryFacets        int // Physical and partition boundary facets
	OwnershipRange           [2]int
	MasterToSlave            map[int][]int
	SlaveToMaster            map[int][]int
	CellToContactDofs        map[int][]int
	CellToOffProcContactDofs map[int][]int
}

type ContactReport struct {
	Title     string
	Tolerance float64
	NumRanks  int
	Ranks     []RankReport
}

func (cr *ContactReport) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cr.Title)
	fmt.Printf("%8.5g\t\t= Absolute Tolerance\n", cr.Tolerance)
	for _, rr := range cr.Ranks {
		fmt.Printf("Rank %d, %d cells, %d boundary facets, owned dofs [%d,%d)\n",
			rr.Rank, rr.NumCells, rr.NumBoundaryFacets, rr.OwnershipRange[0], rr.OwnershipRange[1])
		printMap("MasterToSlave", rr.MasterToSlave)
		printMap("SlaveToMaster", rr.SlaveToMaster)
		printMap("CellToContactDofs", rr.CellToContactDofs)
		printMap("CellToOffProcContactDofs", rr.CellToOffProcContactDofs)
	}
}

func printMap(name string, m map[int][]int) {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Printf("  %s[%d] = %v\n", name, k, m[k])
	}
}

// ContactCmd represents the contact command
var ContactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Find the colliding facets of two marked surfaces under a prescribed displacement",
	Long: `
Reads an SU2 mesh and a YAML parameter file, partitions the mesh over the requested number of ranks,
sweeps the master and slave facets along the displacement and reports the contact maps of every rank.

gocontact contact -F mesh.su2 -I params.yml -n 2 -o report.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		cm := &ContactModel{}
		if cm.MeshFile, err = cmd.Flags().GetString("meshFile"); err != nil {
			panic(err)
		}
		if cm.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		cm.ReportFile, _ = cmd.Flags().GetString("output")
		cm.Profile, _ = cmd.Flags().GetString("profile")
		ip := processContactInput(cm)
		if cmd.Flags().Changed("ranks") || viper.IsSet("ranks") {
			ip.NumRanks = viper.GetInt("ranks")
		}
		switch cm.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		}
		ip.Print()
		m, err := mesh.ReadMeshFile(cm.MeshFile)
		if err != nil {
			panic(err)
		}
		m.PrintStatistics()
		report, err := RunContact(m, ip)
		if err != nil {
			panic(err)
		}
		report.Print()
		if len(cm.ReportFile) != 0 {
			if err = WriteReport(cm.ReportFile, report); err != nil {
				panic(err)
			}
		}
	},
}

func processContactInput(cm *ContactModel) (ip *InputParameters.ContactParameters) {
	var (
		err      error
		willExit bool
	)
	if len(cm.MeshFile) == 0 {
		err := fmt.Errorf("must supply a mesh file (-F, --meshFile) in .su2 format")
		fmt.Printf("error: %s\n", err.Error())
		willExit = true
	}
	if len(cm.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Two blocks"
MasterMarker: master
SlaveMarker: slave
Displacement:
  slave: [0, -0.5]
Tolerance: 1.e-8
NumRanks: 2
Partitioner: block # Can be "metis"
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(cm.ICFile); err != nil {
		panic(err)
	}
	ip = InputParameters.NewContactParameters()
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(ContactCmd)
	ContactCmd.Flags().StringP("meshFile", "F", "", "Mesh file to read in SU2 (.su2) format")
	ContactCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- MasterMarker, SlaveMarker\n\t- Displacement per marker")
	ContactCmd.Flags().IntP("ranks", "n", 1, "number of ranks, overrides NumRanks of the input file")
	ContactCmd.Flags().StringP("output", "o", "", "write the contact maps of every rank to this YAML file")
	ContactCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	if err := viper.BindPFlag("ranks", ContactCmd.Flags().Lookup("ranks")); err != nil {
		panic(err)
	}
}

// vertexDisplacements assigns each marker's displacement to every vertex of the body carrying the marker
func vertexDisplacements(m *mesh.Mesh, ip *InputParameters.ContactParameters) (disp map[int]r3.Vec, err error) {
	disp = make(map[int]r3.Vec)
	for key, d := range ip.Displacement {
		marker := ip.BodyMarker(key)
		if len(d) != m.GDim {
			return nil, fmt.Errorf("%w: displacement of marker %s has %d components in a %dD mesh",
				contact.ErrDimensionMismatch, marker, len(d), m.GDim)
		}
		var verts []int
		if verts, err = m.BodyVertices(marker); err != nil {
			return nil, err
		}
		for _, v := range verts {
			disp[v] = geometry.VecFromSlice(d)
		}
	}
	return
}

// RunContact runs the three contact stages on ip.NumRanks ranks and collects the maps of every rank
func RunContact(m *mesh.Mesh, ip *InputParameters.ContactParameters) (report *ContactReport, err error) {
	var disp map[int]r3.Vec
	if disp, err = vertexDisplacements(m, ip); err != nil {
		return
	}
	if ip.NumRanks > 1 {
		if err = mesh.PartitionMesh(m, ip.NumRanks, ip.Partitioner, ip.Verbose); err != nil {
			return
		}
	}
	var (
		mp             = mesh.NewMeshPartitioner(m, mesh.DefaultPartitionConfig(int32(ip.NumRanks)))
		boundaryFacets = mp.GetPartitionBoundaryFaces()
	)
	report = &ContactReport{
		Title:    ip.Title,
		NumRanks: ip.NumRanks,
		Ranks:    make([]RankReport, ip.NumRanks),
	}
	var mu sync.Mutex
	err = comm.Run(ip.NumRanks, func(c comm.Communicator) (err error) {
		var (
			lm            *mesh.LocalMesh
			fs            *fem.FunctionSpace
			master, slave []int
		)
		if lm, err = mesh.NewLocalMesh(m, c); err != nil {
			return
		}
		if fs, err = fem.NewVectorFunctionSpace(lm); err != nil {
			return
		}
		u := fem.NewFunction(fs)
		for v := 0; v < lm.NumVertices(); v++ {
			u.SetVertexValue(v, disp[lm.GlobalVertexIndex(v)])
		}
		if master, err = lm.LocalFacets(ip.MasterMarker); err != nil {
			return
		}
		if slave, err = lm.LocalFacets(ip.SlaveMarker); err != nil {
			return
		}
		gc := contact.NewGeometricContact(contact.Config{Tolerance: ip.Tolerance, Verbose: ip.Verbose})
		if err = gc.ContactSurfaceMapVolumeSweep(lm, u, master, slave); err != nil {
			return
		}
		if err = gc.TabulateContactSharedCells(lm, u, master, slave); err != nil {
			return
		}
		if err = gc.TabulateContactCellToSharedDofs(lm, u, master, slave); err != nil {
			return
		}
		first, last := fs.DofMap.OwnershipRange()
		mu.Lock()
		defer mu.Unlock()
		report.Tolerance = gc.Tolerance()
		report.Ranks[c.Rank()] = RankReport{
			Rank:                     c.Rank(),
			NumCells:                 len(mp.GetPartitionElements(c.Rank())),
			NumBoundaryFacets:        len(boundaryFacets[c.Rank()]),
			OwnershipRange:           [2]int{first, last},
			MasterToSlave:            gc.MasterToSlave(),
			SlaveToMaster:            gc.SlaveToMaster(),
			CellToContactDofs:        gc.LocalCellsToContactDofs(),
			CellToOffProcContactDofs: gc.LocalCellToOffProcContactDofs(),
		}
		return
	})
	if err != nil {
		return nil, err
	}
	return
}

func WriteReport(filename string, report *ContactReport) (err error) {
	var data []byte
	if data, err = yaml.Marshal(report); err != nil {
		return
	}
	return ioutil.WriteFile(filename, data, 0644)
}
