package restriction

import (
	"fmt"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

/*
ElementRestriction is the bidirectional index between the global dof
numbering and the element-local layout of size Ne x Dof. ScatterIDs holds
one signed global id per local instance, in lexicographic local order;
Offsets/Indices is the compressed group structure mapping each global dof
to the signed local instances that reference it.

All index arrays are written once at construction and never mutated, so a
single restriction is safe to share across concurrent Scatter/Gather and
assembly calls.
*/
type ElementRestriction struct {
	Ne     int // number of elements
	Dof    int // dofs per element
	NeDofs int // Ne * Dof
	Ndofs  int // global scalar dofs
	VDim   int
	ByVDim bool

	ScatterIDs []types.SignedID
	Offsets    utils.Index
	Indices    []types.SignedID

	pmInst, pmDofs *utils.PartitionMap
}

/*
NewElementRestriction builds the restriction for sp with lexicographic
local ordering. Construction is fatal if the space is not a supported
tensor-product type; the returned restriction is immutable and must be
rebuilt if the underlying mesh or space changes.
*/
func NewElementRestriction(sp fespace.Space) (er *ElementRestriction) {
	if !sp.IsTensorProduct() {
		panic(fmt.Errorf("finite element not suitable for lexicographic ordering"))
	}
	var (
		ne     = sp.NumElements()
		dof    = fespace.DofsPerElement(sp)
		ndofs  = sp.NumDofs()
		dofMap = sp.LexDofMap()
	)
	if dofMap != nil && len(dofMap) != dof {
		panic(fmt.Errorf("invalid dof map: length %d, expected %d", len(dofMap), dof))
	}
	er = &ElementRestriction{
		Ne:         ne,
		Dof:        dof,
		NeDofs:     ne * dof,
		Ndofs:      ndofs,
		VDim:       sp.VDim(),
		ByVDim:     sp.Ordering() == types.ByVDim,
		ScatterIDs: make([]types.SignedID, ne*dof),
		Offsets:    utils.NewIndex(ndofs + 1),
		Indices:    make([]types.SignedID, ne*dof),
	}
	// Count how many local instances reference each global dof
	for e := 0; e < ne; e++ {
		for _, sgid := range sp.ElementDofs(e) {
			er.Offsets[sgid.ID+1]++
		}
	}
	utils.PrefixSum(er.Offsets)
	// Fill the groups, combining the element map sign with the dof map sign
	for e := 0; e < ne; e++ {
		eDofs := sp.ElementDofs(e)
		for d := 0; d < dof; d++ {
			var (
				sdid = types.SignedID{ID: d}
			)
			if dofMap != nil {
				sdid = dofMap[d]
			}
			sgid := eDofs[sdid.ID]
			lid := dof*e + d
			flipped := sgid.Flipped != sdid.Flipped
			er.ScatterIDs[lid] = types.SignedID{ID: sgid.ID, Flipped: flipped}
			er.Indices[er.Offsets[sgid.ID]] = types.SignedID{ID: lid, Flipped: flipped}
			er.Offsets[sgid.ID]++
		}
	}
	// Offsets was used as a running cursor; shift it back
	for i := ndofs; i > 0; i-- {
		er.Offsets[i] = er.Offsets[i-1]
	}
	er.Offsets[0] = 0
	er.pmInst = utils.NewPartitionMap(0, er.NeDofs)
	er.pmDofs = utils.NewPartitionMap(0, er.Ndofs)
	return
}

// GlobalSize is the length of the global layout, vdim * ndofs
func (er *ElementRestriction) GlobalSize() int { return er.VDim * er.Ndofs }

// LocalSize is the length of the element-local layout, vdim * ne * dof
func (er *ElementRestriction) LocalSize() int { return er.VDim * er.NeDofs }

// GlobalIndex resolves the memory location of (dof j, component c) in the
// global layout for either component ordering
func GlobalIndex(j, c, ndofs, vdim int, byVDim bool) int {
	if byVDim {
		return c + vdim*j
	}
	return j + ndofs*c
}

func globalIndex(j, c, ndofs, vdim int, byVDim bool) int {
	return GlobalIndex(j, c, ndofs, vdim, byVDim)
}

// localIndex resolves (dof d, component c, element e) in the local layout
func localIndex(d, c, e, nd, vdim int) int {
	return d + nd*(c+vdim*e)
}

func (er *ElementRestriction) checkSizes(global, local []float64) {
	if len(global) != er.GlobalSize() || len(local) != er.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: global %d (want %d), local %d (want %d)",
			len(global), er.GlobalSize(), len(local), er.LocalSize()))
	}
}

func (er *ElementRestriction) scatter(global, local []float64, signed bool) {
	er.checkSizes(global, local)
	var (
		nd, vd = er.Dof, er.VDim
	)
	er.pmInst.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			sid := er.ScatterIDs[i]
			d, e := i%nd, i/nd
			for c := 0; c < vd; c++ {
				val := global[globalIndex(sid.ID, c, er.Ndofs, vd, er.ByVDim)]
				if signed && sid.Flipped {
					val = -val
				}
				local[localIndex(d, c, e, nd, vd)] = val
			}
		}
	})
}

// Scatter broadcasts a global vector into element-local layout, applying
// orientation sign flips. Pure gather per instance, no aggregation.
func (er *ElementRestriction) Scatter(global, local []float64) {
	er.scatter(global, local, true)
}

// ScatterUnsigned is Scatter without sign correction, for boolean masks
// and multiplicity counts
func (er *ElementRestriction) ScatterUnsigned(global, local []float64) {
	er.scatter(global, local, false)
}

func (er *ElementRestriction) gather(local, global []float64, signed bool) {
	er.checkSizes(global, local)
	var (
		nd, vd = er.Dof, er.VDim
	)
	er.pmDofs.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			offset, nextOffset := er.Offsets[i], er.Offsets[i+1]
			for c := 0; c < vd; c++ {
				var dofValue float64
				for j := offset; j < nextOffset; j++ {
					inst := er.Indices[j]
					val := local[localIndex(inst.ID%nd, c, inst.ID/nd, nd, vd)]
					if signed && inst.Flipped {
						val = -val
					}
					dofValue += val
				}
				global[globalIndex(i, c, er.Ndofs, vd, er.ByVDim)] = dofValue
			}
		}
	})
}

// Gather sums sign-corrected local contributions into the global vector.
// It is the linear-algebra adjoint of Scatter: dot(Scatter(v), u) ==
// dot(v, Gather(u)) for all v, u.
func (er *ElementRestriction) Gather(local, global []float64) {
	er.gather(local, global, true)
}

// GatherUnsigned is Gather without sign correction
func (er *ElementRestriction) GatherUnsigned(local, global []float64) {
	er.gather(local, global, false)
}

/*
BooleanMask writes 1.0 at exactly one representative local instance per
(global dof, component) and 0.0 everywhere else. Walking the groups in
order makes the representative the first instance encountered, which
matches the construction order deterministically.
*/
func (er *ElementRestriction) BooleanMask(local []float64) {
	if len(local) != er.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: local %d (want %d)", len(local), er.LocalSize()))
	}
	var (
		nd, vd    = er.Dof, er.VDim
		processed = make([]bool, er.GlobalSize())
	)
	for i := 0; i < er.Ndofs; i++ {
		offset, nextOffset := er.Offsets[i], er.Offsets[i+1]
		for c := 0; c < vd; c++ {
			gIdx := globalIndex(i, c, er.Ndofs, vd, er.ByVDim)
			for j := offset; j < nextOffset; j++ {
				inst := er.Indices[j]
				lIdx := localIndex(inst.ID%nd, c, inst.ID/nd, nd, vd)
				if processed[gIdx] {
					local[lIdx] = 0.
				} else {
					local[lIdx] = 1.
					processed[gIdx] = true
				}
			}
		}
	}
}

/*
Multiplicity returns, per global layout slot, the number of local
instances referencing it - the unsigned gather of a local vector of ones.
*/
func (er *ElementRestriction) Multiplicity() (mult []float64) {
	var (
		ones = make([]float64, er.LocalSize())
	)
	for i := range ones {
		ones[i] = 1.
	}
	mult = make([]float64, er.GlobalSize())
	er.GatherUnsigned(ones, mult)
	return
}
