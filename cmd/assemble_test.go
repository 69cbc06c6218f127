package cmd

import (
	"testing"

	"github.com/notargets/gofea/InputParameters"
	"github.com/stretchr/testify/assert"
)

func TestAssemblyParameters(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
Kx: 8
Ky: 4
Lx: 2.
Ly: 1.
PolynomialOrder: 3
VDim: 2
Ordering: ByVDim
FaceCoupling: true
BCs:
  south: 0.
  north: 1.5
`)
	var input InputParameters.AssemblyParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, 8, input.Kx)
	assert.Equal(t, 4, input.Ky)
	assert.Equal(t, 3, input.PolynomialOrder)
	assert.Equal(t, "ByVDim", input.Ordering)
	assert.True(t, input.FaceCoupling)
	// Check the north Dirichlet level
	assert.Equal(t, 1.5, input.BCs["north"])
	input.Print()
}

func TestRunAssemble(t *testing.T) {
	ap := &InputParameters.AssemblyParameters{
		Title: "smoke", Kx: 2, Ky: 2, Lx: 1., Ly: 1.,
		PolynomialOrder: 2, VDim: 1, Ordering: "ByNodes", FaceCoupling: true,
	}
	assert.NotPanics(t, func() { RunAssemble(ap) })
}
