package restriction

import (
	"fmt"
	"math"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

/*
NormalTangentFaceRestriction extends the two-sided face restriction with
directional derivatives: for each face node it delivers, per side, the
trace value and the derivative of the field along the physical face
normal. The derivative is formed from two 1D stencils anchored at the
face, one running into the element (normal stencil) and one along the
face (tangent stencil), recombined through a 2x2 change of basis that
maps the element's reference directions onto the physical face normal.

Only the 2D path is implemented; the constructor rejects 3D spaces
until the second tangential direction is worked out.
*/
type NormalTangentFaceRestriction struct {
	Nf      int
	Dof     int // face nodes per face
	Dof1d   int // stencil points per face node
	NfsDofs int // nf * Dof * Dof1d stencil instances per side
	Ndofs   int
	VDim    int
	ByVDim  bool
	FType   types.FaceType

	// 1D trace and inward-derivative stencils at the reference boundary
	Bf, Gf []float64

	ScatterNor1 []types.SignedID
	ScatterTan1 []types.SignedID
	ScatterNor2 []types.SignedID // ID == SentinelNoNeighbor on boundary faces
	ScatterTan2 []types.SignedID

	// Change-of-basis coefficients per (face node, side, face)
	CoeffNor []float64
	CoeffTan []float64

	OffsetsNor utils.Index
	IndicesNor []types.SignedID // stencil instance ids, offset by NfsDofs for side 2
	OffsetsTan utils.Index
	IndicesTan []types.SignedID

	pmFace, pmDofs *utils.PartitionMap
}

func NewNormalTangentFaceRestriction(sp fespace.Space, ft types.FaceType) (nr *NormalTangentFaceRestriction) {
	checkFaceSpace(sp, "NormalTangentFaceRestriction")
	if sp.Dim() != 2 {
		panic(fmt.Errorf("normal and tangential derivative restriction is 2D only, have dimension %d", sp.Dim()))
	}
	var (
		faces  = sp.Faces(ft)
		geom   = sp.FaceGeometricFactors(ft)
		nf     = len(faces)
		dof1d  = sp.Order() + 1
		dof    = fespace.DofsPerFace(sp)
		ndofs  = sp.NumDofs()
		dofMap = sp.LexDofMap()
	)
	if len(geom) != nf {
		panic(fmt.Errorf("face geometric factors required: have %d, want %d faces", len(geom), nf))
	}
	bf, gf := fespace.BoundaryStencil1D(fespace.GaussLobattoNodes(sp.Order()))
	nr = &NormalTangentFaceRestriction{
		Nf:          nf,
		Dof:         dof,
		Dof1d:       dof1d,
		NfsDofs:     nf * dof * dof1d,
		Ndofs:       ndofs,
		VDim:        sp.VDim(),
		ByVDim:      sp.Ordering() == types.ByVDim,
		FType:       ft,
		Bf:          bf,
		Gf:          gf,
		ScatterNor1: make([]types.SignedID, nf*dof*dof1d),
		ScatterTan1: make([]types.SignedID, nf*dof*dof1d),
		ScatterNor2: make([]types.SignedID, nf*dof*dof1d),
		ScatterTan2: make([]types.SignedID, nf*dof*dof1d),
		CoeffNor:    make([]float64, dof*2*nf),
		CoeffTan:    make([]float64, dof*2*nf),
		OffsetsNor:  utils.NewIndex(ndofs + 1),
		OffsetsTan:  utils.NewIndex(ndofs + 1),
	}
	sideGid := func(elem int, lexDof int) types.SignedID {
		sdid := types.SignedID{ID: lexDof}
		if dofMap != nil {
			sdid = dofMap[lexDof]
		}
		sgid := sp.ElementDofs(elem)[sdid.ID]
		return types.SignedID{ID: sgid.ID, Flipped: sgid.Flipped != sdid.Flipped}
	}
	// Physical direction of the reference axis the stencil runs along,
	// normalized; the stencil's gf weights differentiate the coordinate map
	refDir := func(elem int, stencil utils.Index, p int) (rx, ry float64) {
		coords := sp.NodeCoords(elem)
		for l := 0; l < dof1d; l++ {
			node := stencil[p*dof1d+l]
			rx += gf[l] * coords[2*node]
			ry += gf[l] * coords[2*node+1]
		}
		norm := math.Sqrt(rx*rx + ry*ry)
		return rx / norm, ry / norm
	}
	cramer := func(elem int, nsten, tsten utils.Index, p int, nx, ny, scaling float64) (cn, ct float64) {
		rnx, rny := refDir(elem, nsten, p)
		rtx, rty := refDir(elem, tsten, p)
		term := rnx*rty - rny*rtx
		if math.Abs(term) <= utils.NODETOL {
			panic(fmt.Errorf("degenerate face mapping: reference normal and tangent nearly parallel, det %g", term))
		}
		cn = scaling * (rty*nx - rtx*ny) / term
		ct = scaling * (rnx*ny - rny*nx) / term
		return
	}
	fInd := 0
	for fi, f := range faces {
		var (
			fid1     = f.Side1.FaceID
			nsten1   = NormalStencil(2, fid1, dof1d)
			tsten1   = TangentStencil(2, fid1, dof1d)
			interior = !f.IsBoundary()
			nsten2   utils.Index
			tsten2   utils.Index
		)
		if interior {
			types.CheckOrientation(2, f.Side2.Orientation)
			nsten2 = NormalStencil(2, f.Side2.FaceID, dof1d)
			tsten2 = TangentStencil(2, f.Side2.FaceID, dof1d)
		}
		for d := 0; d < dof; d++ {
			var (
				nx      = geom[fi].Normals[2*d]
				ny      = geom[fi].Normals[2*d+1]
				detJ    = geom[fi].DetJ[d]
				cidx    = d + dof*2*fInd
				cn, ct  = cramer(f.Side1.Elem, nsten1, tsten1, d, nx, ny, 1./detJ)
				baseLid = dof1d * (d + dof*fInd)
			)
			nr.CoeffNor[cidx], nr.CoeffTan[cidx] = cn, ct
			for k := 0; k < dof1d; k++ {
				nr.ScatterNor1[baseLid+k] = sideGid(f.Side1.Elem, nsten1[d*dof1d+k])
				nr.ScatterTan1[baseLid+k] = sideGid(f.Side1.Elem, tsten1[d*dof1d+k])
			}
			if !interior {
				for k := 0; k < dof1d; k++ {
					nr.ScatterNor2[baseLid+k] = types.SignedID{ID: types.SentinelNoNeighbor}
					nr.ScatterTan2[baseLid+k] = types.SignedID{ID: types.SentinelNoNeighbor}
				}
				continue
			}
			pd := PermuteFace(2, fid1, f.Side2.FaceID, f.Side2.Orientation, dof1d, d)
			cn2, ct2 := cramer(f.Side2.Elem, nsten2, tsten2, pd, nx, ny, -1./detJ)
			nr.CoeffNor[cidx+dof], nr.CoeffTan[cidx+dof] = cn2, ct2
			for k := 0; k < dof1d; k++ {
				nr.ScatterNor2[baseLid+k] = sideGid(f.Side2.Elem, nsten2[pd*dof1d+k])
				nr.ScatterTan2[baseLid+k] = sideGid(f.Side2.Elem, tsten2[pd*dof1d+k])
			}
		}
		fInd++
	}
	if fInd != nf {
		panic(fmt.Errorf("unexpected number of faces: processed %d, expected %d", fInd, nf))
	}
	// Gather groups per stencil, side 2 tagged by the NfsDofs stride
	countSide := func(offsets utils.Index, ids []types.SignedID) {
		for i := range ids {
			if ids[i].ID != types.SentinelNoNeighbor {
				offsets[ids[i].ID+1]++
			}
		}
	}
	fillSide := func(offsets utils.Index, indices []types.SignedID, ids []types.SignedID, stride int) {
		for i := range ids {
			if ids[i].ID == types.SentinelNoNeighbor {
				continue
			}
			indices[offsets[ids[i].ID]] = types.SignedID{ID: stride + i, Flipped: ids[i].Flipped}
			offsets[ids[i].ID]++
		}
	}
	shiftBack := func(offsets utils.Index) {
		for i := ndofs; i > 0; i-- {
			offsets[i] = offsets[i-1]
		}
		offsets[0] = 0
	}
	countSide(nr.OffsetsNor, nr.ScatterNor1)
	countSide(nr.OffsetsNor, nr.ScatterNor2)
	countSide(nr.OffsetsTan, nr.ScatterTan1)
	countSide(nr.OffsetsTan, nr.ScatterTan2)
	utils.PrefixSum(nr.OffsetsNor)
	utils.PrefixSum(nr.OffsetsTan)
	nr.IndicesNor = make([]types.SignedID, nr.OffsetsNor[ndofs])
	nr.IndicesTan = make([]types.SignedID, nr.OffsetsTan[ndofs])
	fillSide(nr.OffsetsNor, nr.IndicesNor, nr.ScatterNor1, 0)
	fillSide(nr.OffsetsNor, nr.IndicesNor, nr.ScatterNor2, nr.NfsDofs)
	fillSide(nr.OffsetsTan, nr.IndicesTan, nr.ScatterTan1, 0)
	fillSide(nr.OffsetsTan, nr.IndicesTan, nr.ScatterTan2, nr.NfsDofs)
	shiftBack(nr.OffsetsNor)
	shiftBack(nr.OffsetsTan)
	nr.pmFace = utils.NewPartitionMap(0, nf*dof)
	nr.pmDofs = utils.NewPartitionMap(0, ndofs)
	return
}

func (nr *NormalTangentFaceRestriction) GlobalSize() int { return nr.VDim * nr.Ndofs }

// LocalSize covers (face node, vdim, side, face, trace|derivative)
func (nr *NormalTangentFaceRestriction) LocalSize() int {
	return nr.Dof * nr.VDim * 2 * nr.Nf * 2
}

func (nr *NormalTangentFaceRestriction) checkSizes(global, local []float64) {
	if len(global) != nr.GlobalSize() || len(local) != nr.LocalSize() {
		panic(fmt.Errorf("layout size mismatch: global %d (want %d), local %d (want %d)",
			len(global), nr.GlobalSize(), len(local), nr.LocalSize()))
	}
}

// outIndex addresses the (face node, vdim, side, face, comp) local layout;
// comp 0 is the trace, comp 1 the normal-direction derivative
func (nr *NormalTangentFaceRestriction) outIndex(d, c, side, face, comp int) int {
	return d + nr.Dof*(c+nr.VDim*(side+2*(face+nr.Nf*comp)))
}

func (nr *NormalTangentFaceRestriction) signedVal(global []float64, sid types.SignedID, c int) float64 {
	val := global[globalIndex(sid.ID, c, nr.Ndofs, nr.VDim, nr.ByVDim)]
	if sid.Flipped {
		return -val
	}
	return val
}

// Scatter evaluates, per face node and side, the field trace and its
// physical-normal derivative
func (nr *NormalTangentFaceRestriction) Scatter(global, local []float64) {
	nr.checkSizes(global, local)
	var (
		nd, vd = nr.Dof, nr.VDim
	)
	nr.pmFace.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			d, face := i%nd, i/nd
			baseLid := nr.Dof1d * i
			for c := 0; c < vd; c++ {
				var tr1, dn1, tr2, dn2 float64
				boundary := nr.ScatterNor2[baseLid].ID == types.SentinelNoNeighbor
				for k := 0; k < nr.Dof1d; k++ {
					vn := nr.signedVal(global, nr.ScatterNor1[baseLid+k], c)
					vt := nr.signedVal(global, nr.ScatterTan1[baseLid+k], c)
					tr1 += vn * nr.Bf[k]
					dn1 += vn*nr.Gf[k]*nr.CoeffNor[d+nd*2*face] +
						vt*nr.Gf[k]*nr.CoeffTan[d+nd*2*face]
					if boundary {
						continue
					}
					vn = nr.signedVal(global, nr.ScatterNor2[baseLid+k], c)
					vt = nr.signedVal(global, nr.ScatterTan2[baseLid+k], c)
					tr2 += vn * nr.Bf[k]
					dn2 += vn*nr.Gf[k]*nr.CoeffNor[d+nd*(1+2*face)] +
						vt*nr.Gf[k]*nr.CoeffTan[d+nd*(1+2*face)]
				}
				local[nr.outIndex(d, c, 0, face, 0)] = tr1
				local[nr.outIndex(d, c, 0, face, 1)] = dn1
				local[nr.outIndex(d, c, 1, face, 0)] = tr2
				local[nr.outIndex(d, c, 1, face, 1)] = dn2
			}
		}
	})
}

// Gather is the adjoint of Scatter: trace and derivative weights are
// distributed back onto the stencil dofs
func (nr *NormalTangentFaceRestriction) Gather(local, global []float64) {
	nr.checkSizes(global, local)
	var (
		nd, vd, n1d = nr.Dof, nr.VDim, nr.Dof1d
	)
	nr.pmDofs.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			for c := 0; c < vd; c++ {
				var dofValue float64
				for j := nr.OffsetsNor[i]; j < nr.OffsetsNor[i+1]; j++ {
					inst := nr.IndicesNor[j]
					side, idx := 0, inst.ID
					if idx >= nr.NfsDofs {
						side, idx = 1, idx-nr.NfsDofs
					}
					k := idx % n1d
					d := (idx / n1d) % nd
					face := idx / (n1d * nd)
					val := local[nr.outIndex(d, c, side, face, 0)]*nr.Bf[k] +
						local[nr.outIndex(d, c, side, face, 1)]*nr.Gf[k]*nr.CoeffNor[d+nd*(side+2*face)]
					if inst.Flipped {
						val = -val
					}
					dofValue += val
				}
				for j := nr.OffsetsTan[i]; j < nr.OffsetsTan[i+1]; j++ {
					inst := nr.IndicesTan[j]
					side, idx := 0, inst.ID
					if idx >= nr.NfsDofs {
						side, idx = 1, idx-nr.NfsDofs
					}
					k := idx % n1d
					d := (idx / n1d) % nd
					face := idx / (n1d * nd)
					val := local[nr.outIndex(d, c, side, face, 1)] *
						nr.Gf[k] * nr.CoeffTan[d+nd*(side+2*face)]
					if inst.Flipped {
						val = -val
					}
					dofValue += val
				}
				global[globalIndex(i, c, nr.Ndofs, vd, nr.ByVDim)] = dofValue
			}
		}
	})
}
