package restriction

import (
	"fmt"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

/*
FaceRestriction restricts a global field to one value per face dof, taken
from the owning (side 1) element. The field is single-valued across
conforming faces, so no orientation permutation is needed; side 1's
canonical tensor-product face order defines the local layout of size
Nf x Dof.
*/
type FaceRestriction struct {
	Nf     int // faces of the requested type
	Dof    int // dofs per face
	NfDofs int
	Ndofs  int
	VDim   int
	ByVDim bool
	FType  types.FaceType

	ScatterIDs []types.SignedID
	Offsets    utils.Index
	Indices    []types.SignedID

	pmInst, pmDofs *utils.PartitionMap
}

func checkFaceSpace(sp fespace.Space, kind string) {
	if !sp.IsTensorProduct() {
		panic(fmt.Errorf("finite element not suitable for lexicographic ordering in %s", kind))
	}
	if b := sp.Basis(); b != types.GaussLobatto && b != types.Bernstein {
		panic(fmt.Errorf("only Gauss-Lobatto and Bernstein bases are supported in %s, have %v", kind, b))
	}
	if !sp.IsConforming() {
		panic(fmt.Errorf("non-conforming meshes not supported in %s", kind))
	}
}

func NewFaceRestriction(sp fespace.Space, ft types.FaceType) (fr *FaceRestriction) {
	checkFaceSpace(sp, "FaceRestriction")
	var (
		faces  = sp.Faces(ft)
		nf     = len(faces)
		dim    = sp.Dim()
		dof1d  = sp.Order() + 1
		dof    = fespace.DofsPerFace(sp)
		ndofs  = sp.NumDofs()
		dofMap = sp.LexDofMap()
	)
	fr = &FaceRestriction{
		Nf:         nf,
		Dof:        dof,
		NfDofs:     nf * dof,
		Ndofs:      ndofs,
		VDim:       sp.VDim(),
		ByVDim:     sp.Ordering() == types.ByVDim,
		FType:      ft,
		ScatterIDs: make([]types.SignedID, nf*dof),
		Offsets:    utils.NewIndex(ndofs + 1),
		Indices:    make([]types.SignedID, nf*dof),
	}
	// Signed id of face dof d on the owning side of face f
	faceGid := func(f types.Face, faceMap utils.Index, d int) types.SignedID {
		var (
			sdid = types.SignedID{ID: faceMap[d]}
		)
		if dofMap != nil {
			mapped := dofMap[faceMap[d]]
			sdid = mapped
		}
		sgid := sp.ElementDofs(f.Side1.Elem)[sdid.ID]
		return types.SignedID{ID: sgid.ID, Flipped: sgid.Flipped != sdid.Flipped}
	}
	// Computation of scatter indices
	fInd := 0
	for _, f := range faces {
		if f.Side1.Orientation != 0 {
			panic(fmt.Errorf("FaceRestriction used on degenerate mesh: side 1 orientation %d",
				f.Side1.Orientation))
		}
		faceMap := FaceDofs(dim, f.Side1.FaceID, dof1d)
		for d := 0; d < dof; d++ {
			fr.ScatterIDs[dof*fInd+d] = faceGid(f, faceMap, d)
		}
		fInd++
	}
	if fInd != nf {
		panic(fmt.Errorf("unexpected number of faces: processed %d, expected %d", fInd, nf))
	}
	// Computation of gather groups
	for _, f := range faces {
		faceMap := FaceDofs(dim, f.Side1.FaceID, dof1d)
		for d := 0; d < dof; d++ {
			fr.Offsets[faceGid(f, faceMap, d).ID+1]++
		}
	}
	utils.PrefixSum(fr.Offsets)
	fInd = 0
	for _, f := range faces {
		faceMap := FaceDofs(dim, f.Side1.FaceID, dof1d)
		for d := 0; d < dof; d++ {
			sgid := faceGid(f, faceMap, d)
			lid := dof*fInd + d
			fr.Indices[fr.Offsets[sgid.ID]] = types.SignedID{ID: lid, Flipped: sgid.Flipped}
			fr.Offsets[sgid.ID]++
		}
		fInd++
	}
	for i := ndofs; i > 0; i-- {
		fr.Offsets[i] = fr.Offsets[i-1]
	}
	fr.Offsets[0] = 0
	fr.pmInst = utils.NewPartitionMap(0, fr.NfDofs)
	fr.pmDofs = utils.NewPartitionMap(0, fr.Ndofs)
	return
}

func (fr *FaceRestriction) GlobalSize() int { return fr.VDim * fr.Ndofs }
func (fr *FaceRestriction) LocalSize() int  { return fr.VDim * fr.NfDofs }

func (fr *FaceRestriction) checkSizes(global, local []float64) {
	if len(global) != fr.GlobalSize() || len(local) != fr.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: global %d (want %d), local %d (want %d)",
			len(global), fr.GlobalSize(), len(local), fr.LocalSize()))
	}
}

func (fr *FaceRestriction) scatter(global, local []float64, signed bool) {
	fr.checkSizes(global, local)
	var (
		nd, vd = fr.Dof, fr.VDim
	)
	fr.pmInst.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			sid := fr.ScatterIDs[i]
			d, face := i%nd, i/nd
			for c := 0; c < vd; c++ {
				val := global[globalIndex(sid.ID, c, fr.Ndofs, vd, fr.ByVDim)]
				if signed && sid.Flipped {
					val = -val
				}
				local[localIndex(d, c, face, nd, vd)] = val
			}
		}
	})
}

// Scatter restricts the global vector to the owning-side face traces
func (fr *FaceRestriction) Scatter(global, local []float64) {
	fr.scatter(global, local, true)
}

func (fr *FaceRestriction) ScatterUnsigned(global, local []float64) {
	fr.scatter(global, local, false)
}

func (fr *FaceRestriction) gather(local, global []float64, signed bool) {
	fr.checkSizes(global, local)
	var (
		nd, vd = fr.Dof, fr.VDim
	)
	fr.pmDofs.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			offset, nextOffset := fr.Offsets[i], fr.Offsets[i+1]
			for c := 0; c < vd; c++ {
				var dofValue float64
				for j := offset; j < nextOffset; j++ {
					inst := fr.Indices[j]
					val := local[localIndex(inst.ID%nd, c, inst.ID/nd, nd, vd)]
					if signed && inst.Flipped {
						val = -val
					}
					dofValue += val
				}
				global[globalIndex(i, c, fr.Ndofs, vd, fr.ByVDim)] = dofValue
			}
		}
	})
}

// Gather sums face-local contributions back into the global vector;
// dofs on no face of the requested type are set to zero
func (fr *FaceRestriction) Gather(local, global []float64) {
	fr.gather(local, global, true)
}

func (fr *FaceRestriction) GatherUnsigned(local, global []float64) {
	fr.gather(local, global, false)
}
