package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type AssemblyParameters struct {
	Title           string             `yaml:"Title"`
	Kx              int                `yaml:"Kx"`
	Ky              int                `yaml:"Ky"`
	Lx              float64            `yaml:"Lx"`
	Ly              float64            `yaml:"Ly"`
	PolynomialOrder int                `yaml:"PolynomialOrder"`
	VDim            int                `yaml:"VDim"`
	Ordering        string             `yaml:"Ordering"` // ByNodes or ByVDim
	FaceCoupling    bool               `yaml:"FaceCoupling"`
	BCs             map[string]float64 `yaml:"BCs"` // Key is boundary name, value the Dirichlet level
}

func (ap *AssemblyParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ap)
}

func (ap *AssemblyParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ap.Title)
	fmt.Printf("[%d x %d]\t\t= Mesh Elements\n", ap.Kx, ap.Ky)
	fmt.Printf("[%8.5f x %8.5f]\t= Mesh Extent\n", ap.Lx, ap.Ly)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ap.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t\t= Vector Dimension\n", ap.VDim)
	fmt.Printf("[%s]\t\t\t= Ordering\n", ap.Ordering)
	fmt.Printf("[%v]\t\t\t= Face Coupling\n", ap.FaceCoupling)
	keys := make([]string, len(ap.BCs))
	i := 0
	for k := range ap.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ap.BCs[key])
	}
}
