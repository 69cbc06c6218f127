package restriction

import (
	"fmt"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

/*
TwoSidedFaceRestriction restricts a global field to two values per face
dof, one from each adjacent element. Side 1 dofs follow the face's
canonical tensor-product order; side 2 dofs are matched to side 1
through the orientation permutation, so local index d on both sides
refers to the same physical point. Boundary faces carry the
SentinelNoNeighbor marker on side 2 and scatter a zero there.

The local layout is (dof, vdim, side, face): both traces of a face dof
sit a fixed stride apart, which is the layout DG flux kernels consume.
*/
type TwoSidedFaceRestriction struct {
	Nf     int
	Dof    int // dofs per face
	NfDofs int
	Ndofs  int
	VDim   int
	ByVDim bool
	FType  types.FaceType

	Ne      int
	ElemDof int

	ScatterIDs1 []types.SignedID
	ScatterIDs2 []types.SignedID // ID == SentinelNoNeighbor on boundary faces
	Offsets     utils.Index
	Indices     []types.SignedID // instance ids, offset by NfDofs for side 2

	pmInst, pmDofs *utils.PartitionMap
}

func NewTwoSidedFaceRestriction(sp fespace.Space, ft types.FaceType) (tr *TwoSidedFaceRestriction) {
	checkFaceSpace(sp, "TwoSidedFaceRestriction")
	var (
		faces  = sp.Faces(ft)
		nf     = len(faces)
		dim    = sp.Dim()
		dof1d  = sp.Order() + 1
		dof    = fespace.DofsPerFace(sp)
		ndofs  = sp.NumDofs()
		dofMap = sp.LexDofMap()
	)
	tr = &TwoSidedFaceRestriction{
		Nf:          nf,
		Dof:         dof,
		NfDofs:      nf * dof,
		Ndofs:       ndofs,
		VDim:        sp.VDim(),
		ByVDim:      sp.Ordering() == types.ByVDim,
		FType:       ft,
		Ne:          sp.NumElements(),
		ElemDof:     fespace.DofsPerElement(sp),
		ScatterIDs1: make([]types.SignedID, nf*dof),
		ScatterIDs2: make([]types.SignedID, nf*dof),
		Offsets:     utils.NewIndex(ndofs + 1),
	}
	sideGid := func(elem int, lexDof int, extraFlip bool) types.SignedID {
		sdid := types.SignedID{ID: lexDof}
		if dofMap != nil {
			sdid = dofMap[lexDof]
		}
		sgid := sp.ElementDofs(elem)[sdid.ID]
		return types.SignedID{
			ID:      sgid.ID,
			Flipped: (sgid.Flipped != sdid.Flipped) != extraFlip,
		}
	}
	// Computation of scatter indices, side 2 matched to side 1 point by point
	fInd := 0
	for _, f := range faces {
		faceMap1 := FaceDofs(dim, f.Side1.FaceID, dof1d)
		for d := 0; d < dof; d++ {
			tr.ScatterIDs1[dof*fInd+d] = sideGid(f.Side1.Elem, faceMap1[d], false)
		}
		if f.IsBoundary() {
			for d := 0; d < dof; d++ {
				tr.ScatterIDs2[dof*fInd+d] = types.SignedID{ID: types.SentinelNoNeighbor}
			}
		} else {
			types.CheckOrientation(dim, f.Side2.Orientation)
			faceMap2 := FaceDofs(dim, f.Side2.FaceID, dof1d)
			for d := 0; d < dof; d++ {
				pd := PermuteFace(dim, f.Side1.FaceID, f.Side2.FaceID,
					f.Side2.Orientation, dof1d, d)
				tr.ScatterIDs2[dof*fInd+d] = sideGid(f.Side2.Elem, faceMap2[pd], false)
			}
		}
		fInd++
	}
	if fInd != nf {
		panic(fmt.Errorf("unexpected number of faces: processed %d, expected %d", fInd, nf))
	}
	// Computation of gather groups over both sides
	for i := 0; i < tr.NfDofs; i++ {
		tr.Offsets[tr.ScatterIDs1[i].ID+1]++
		if s2 := tr.ScatterIDs2[i]; s2.ID != types.SentinelNoNeighbor {
			tr.Offsets[s2.ID+1]++
		}
	}
	utils.PrefixSum(tr.Offsets)
	tr.Indices = make([]types.SignedID, tr.Offsets[ndofs])
	for i := 0; i < tr.NfDofs; i++ {
		s1 := tr.ScatterIDs1[i]
		tr.Indices[tr.Offsets[s1.ID]] = types.SignedID{ID: i, Flipped: s1.Flipped}
		tr.Offsets[s1.ID]++
		if s2 := tr.ScatterIDs2[i]; s2.ID != types.SentinelNoNeighbor {
			// stride offset tags the instance as side 2
			tr.Indices[tr.Offsets[s2.ID]] = types.SignedID{ID: tr.NfDofs + i, Flipped: s2.Flipped}
			tr.Offsets[s2.ID]++
		}
	}
	for i := ndofs; i > 0; i-- {
		tr.Offsets[i] = tr.Offsets[i-1]
	}
	tr.Offsets[0] = 0
	tr.pmInst = utils.NewPartitionMap(0, tr.NfDofs)
	tr.pmDofs = utils.NewPartitionMap(0, tr.Ndofs)
	return
}

func (tr *TwoSidedFaceRestriction) GlobalSize() int { return tr.VDim * tr.Ndofs }
func (tr *TwoSidedFaceRestriction) LocalSize() int  { return 2 * tr.VDim * tr.NfDofs }

func (tr *TwoSidedFaceRestriction) checkSizes(global, local []float64) {
	if len(global) != tr.GlobalSize() || len(local) != tr.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: global %d (want %d), local %d (want %d)",
			len(global), tr.GlobalSize(), len(local), tr.LocalSize()))
	}
}

// sideIndex addresses the (dof, vdim, side, face) local layout
func (tr *TwoSidedFaceRestriction) sideIndex(d, c, side, face int) int {
	return localIndex(d, c, side+2*face, tr.Dof, tr.VDim)
}

func (tr *TwoSidedFaceRestriction) scatter(global, local []float64, signed bool) {
	tr.checkSizes(global, local)
	var (
		nd, vd = tr.Dof, tr.VDim
	)
	tr.pmInst.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			d, face := i%nd, i/nd
			s1, s2 := tr.ScatterIDs1[i], tr.ScatterIDs2[i]
			for c := 0; c < vd; c++ {
				val := global[globalIndex(s1.ID, c, tr.Ndofs, vd, tr.ByVDim)]
				if signed && s1.Flipped {
					val = -val
				}
				local[tr.sideIndex(d, c, 0, face)] = val
				if s2.ID == types.SentinelNoNeighbor {
					local[tr.sideIndex(d, c, 1, face)] = 0
					continue
				}
				val = global[globalIndex(s2.ID, c, tr.Ndofs, vd, tr.ByVDim)]
				if signed && s2.Flipped {
					val = -val
				}
				local[tr.sideIndex(d, c, 1, face)] = val
			}
		}
	})
}

// Scatter restricts the global vector to both face traces
func (tr *TwoSidedFaceRestriction) Scatter(global, local []float64) {
	tr.scatter(global, local, true)
}

func (tr *TwoSidedFaceRestriction) ScatterUnsigned(global, local []float64) {
	tr.scatter(global, local, false)
}

func (tr *TwoSidedFaceRestriction) gather(local, global []float64, signed bool) {
	tr.checkSizes(global, local)
	var (
		nd, vd = tr.Dof, tr.VDim
	)
	tr.pmDofs.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			offset, nextOffset := tr.Offsets[i], tr.Offsets[i+1]
			for c := 0; c < vd; c++ {
				var dofValue float64
				for j := offset; j < nextOffset; j++ {
					inst := tr.Indices[j]
					side, lid := 0, inst.ID
					if lid >= tr.NfDofs {
						side, lid = 1, lid-tr.NfDofs
					}
					val := local[tr.sideIndex(lid%nd, c, side, lid/nd)]
					if signed && inst.Flipped {
						val = -val
					}
					dofValue += val
				}
				global[globalIndex(i, c, tr.Ndofs, vd, tr.ByVDim)] = dofValue
			}
		}
	})
}

// Gather sums both sides' contributions back into the global vector,
// the adjoint of Scatter
func (tr *TwoSidedFaceRestriction) Gather(local, global []float64) {
	tr.gather(local, global, true)
}

func (tr *TwoSidedFaceRestriction) GatherUnsigned(local, global []float64) {
	tr.gather(local, global, false)
}

/*
AddFaceMatricesToElementMatrices accumulates per-face dense matrices
into per-element dense matrices. The face matrices are laid out
(row-dof, col-dof, side, face) with side s coupling side s's trace with
itself; the element matrices are (row-dof, col-dof, element). Requires
a block-numbered space where gid = elem*ElemDof + dof, so a global id
decomposes into its element and local position.
*/
func (tr *TwoSidedFaceRestriction) AddFaceMatricesToElementMatrices(faceMats, elemMats []float64) {
	if tr.Ndofs != tr.Ne*tr.ElemDof {
		panic(fmt.Errorf("face to element accumulation needs a block-numbered space: ndofs %d, elements %d x %d dofs",
			tr.Ndofs, tr.Ne, tr.ElemDof))
	}
	var (
		nd, ed = tr.Dof, tr.ElemDof
	)
	if len(faceMats) != nd*nd*2*tr.Nf || len(elemMats) != ed*ed*tr.Ne {
		panic(fmt.Errorf("matrix size mismatch: face %d (want %d), element %d (want %d)",
			len(faceMats), nd*nd*2*tr.Nf, len(elemMats), ed*ed*tr.Ne))
	}
	for f := 0; f < tr.Nf; f++ {
		for side := 0; side < 2; side++ {
			ids := tr.ScatterIDs1
			if side == 1 {
				if tr.ScatterIDs2[f*nd].ID == types.SentinelNoNeighbor {
					continue
				}
				ids = tr.ScatterIDs2
			}
			elem := ids[f*nd].ID / ed
			for j := 0; j < nd; j++ {
				jd := ids[f*nd+j]
				for i := 0; i < nd; i++ {
					id := ids[f*nd+i]
					val := faceMats[i+nd*(j+nd*(side+2*f))]
					if id.Flipped != jd.Flipped {
						val = -val
					}
					elemMats[id.ID%ed+ed*(jd.ID%ed+ed*elem)] += val
				}
			}
		}
	}
}
