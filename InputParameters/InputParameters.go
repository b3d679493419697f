package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocontact/types"
)

// Parameters obtained from the YAML input file
type ContactParameters struct {
	Title        string               `yaml:"Title"`
	MasterMarker string               `yaml:"MasterMarker"`
	SlaveMarker  string               `yaml:"SlaveMarker"`
	Displacement map[string][]float64 `yaml:"Displacement"` // Marker or role name -> uniform displacement of the body carrying it
	Tolerance    float64              `yaml:"Tolerance"`    // Relative to the largest contact facet diameter
	NumRanks     int                  `yaml:"NumRanks"`
	Partitioner  string               `yaml:"Partitioner"` // metis or block
	Verbose      bool                 `yaml:"Verbose"`
}

func NewContactParameters() *ContactParameters {
	return &ContactParameters{
		MasterMarker: "master",
		SlaveMarker:  "slave",
		Tolerance:    1.e-8,
		NumRanks:     1,
		Partitioner:  "block",
	}
}

func (ip *ContactParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *ContactParameters) Validate() error {
	switch {
	case ip.MasterMarker == "" || ip.SlaveMarker == "":
		return fmt.Errorf("both MasterMarker and SlaveMarker are required")
	case ip.MasterMarker == ip.SlaveMarker:
		return fmt.Errorf("master and slave marker are both %q", ip.MasterMarker)
	case ip.Tolerance < 0:
		return fmt.Errorf("negative Tolerance %g", ip.Tolerance)
	case ip.NumRanks < 1:
		return fmt.Errorf("NumRanks must be at least 1, have %d", ip.NumRanks)
	case ip.Partitioner != "metis" && ip.Partitioner != "block":
		return fmt.Errorf("unknown Partitioner %q, use metis or block", ip.Partitioner)
	}
	for name, d := range ip.Displacement {
		if len(d) < 2 || len(d) > 3 {
			return fmt.Errorf("displacement of marker %s has %d components", name, len(d))
		}
	}
	return nil
}

// BodyMarker resolves a displacement key, role names like "mortar" or "nonmortar" select the configured markers
func (ip *ContactParameters) BodyMarker(key string) string {
	switch types.NewFacetRole(key) {
	case types.Role_Master:
		return ip.MasterMarker
	case types.Role_Slave:
		return ip.SlaveMarker
	}
	return key
}

func (ip *ContactParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Master Marker\n", ip.MasterMarker)
	fmt.Printf("[%s]\t\t\t= Slave Marker\n", ip.SlaveMarker)
	fmt.Printf("%8.5g\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.NumRanks)
	fmt.Printf("[%s]\t\t\t= Partitioner\n", ip.Partitioner)
	keys := make([]string, len(ip.Displacement))
	i := 0
	for k := range ip.Displacement {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Displacement[%s] = %v\n", key, ip.Displacement[key])
	}
}
