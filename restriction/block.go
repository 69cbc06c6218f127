package restriction

import (
	"fmt"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

/*
BlockRestriction is the degenerate restriction of a discontinuous
(element-blocked) space: every global dof belongs to exactly one element,
so global scalar dof e*Dof+d is local instance (e, d) and Scatter/Gather
reduce to layout reshapes between the component orderings. It participates
in sparse assembly through the same interface as the shared restrictions.
*/
type BlockRestriction struct {
	Ne     int
	Dof    int
	Ndofs  int // Ne * Dof
	VDim   int
	ByVDim bool

	pm *utils.PartitionMap
}

func NewBlockRestriction(sp fespace.Space) (br *BlockRestriction) {
	var (
		ne  = sp.NumElements()
		dof = fespace.DofsPerElement(sp)
	)
	if sp.NumDofs() != ne*dof {
		panic(fmt.Errorf("space is not element-blocked: %d global dofs, %d elements x %d dofs",
			sp.NumDofs(), ne, dof))
	}
	br = &BlockRestriction{
		Ne:     ne,
		Dof:    dof,
		Ndofs:  ne * dof,
		VDim:   sp.VDim(),
		ByVDim: sp.Ordering() == types.ByVDim,
		pm:     utils.NewPartitionMap(0, ne * dof),
	}
	return
}

func (br *BlockRestriction) GlobalSize() int { return br.VDim * br.Ndofs }
func (br *BlockRestriction) LocalSize() int  { return br.VDim * br.Ndofs }

func (br *BlockRestriction) checkSizes(global, local []float64) {
	if len(global) != br.GlobalSize() || len(local) != br.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: global %d, local %d, want %d",
			len(global), len(local), br.GlobalSize()))
	}
}

// Scatter reshapes the global layout into (dof, component, element) order
func (br *BlockRestriction) Scatter(global, local []float64) {
	br.checkSizes(global, local)
	var (
		nd, vd = br.Dof, br.VDim
	)
	br.pm.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			d, e := i%nd, i/nd
			for c := 0; c < vd; c++ {
				local[localIndex(d, c, e, nd, vd)] =
					global[globalIndex(i, c, br.Ndofs, vd, br.ByVDim)]
			}
		}
	})
}

// Gather is the inverse reshape; with no shared dofs there is nothing to
// sum, so it is also the adjoint of Scatter
func (br *BlockRestriction) Gather(local, global []float64) {
	br.checkSizes(global, local)
	var (
		nd, vd = br.Dof, br.VDim
	)
	br.pm.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			d, e := i%nd, i/nd
			for c := 0; c < vd; c++ {
				global[globalIndex(i, c, br.Ndofs, vd, br.ByVDim)] =
					local[localIndex(d, c, e, nd, vd)]
			}
		}
	})
}

// ScatterUnsigned equals Scatter; block spaces carry no orientation signs
func (br *BlockRestriction) ScatterUnsigned(global, local []float64) {
	br.Scatter(global, local)
}

// GatherUnsigned equals Gather
func (br *BlockRestriction) GatherUnsigned(local, global []float64) {
	br.Gather(local, global)
}

// BooleanMask marks every local instance: each global dof has exactly one
func (br *BlockRestriction) BooleanMask(local []float64) {
	if len(local) != br.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: local %d (want %d)", len(local), br.LocalSize()))
	}
	for i := range local {
		local[i] = 1.
	}
}
