package assembly

import (
	"math/rand"
	"testing"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/restriction"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
	"github.com/stretchr/testify/assert"
)

// denseReference accumulates the element blocks into a DOK through the
// scatter ids directly, the textbook triple-loop assembly
func denseReference(er *restriction.ElementRestriction, blocks []float64) utils.DOK {
	var (
		ed = er.Dof
		n  = er.GlobalSize()
		A  = utils.NewDOK(n, n)
	)
	for e := 0; e < er.Ne; e++ {
		for i := 0; i < ed; i++ {
			iSid := er.ScatterIDs[ed*e+i]
			for j := 0; j < ed; j++ {
				jSid := er.ScatterIDs[ed*e+j]
				val := blocks[i+ed*(j+ed*e)]
				if iSid.Flipped != jSid.Flipped {
					val = -val
				}
				for c := 0; c < er.VDim; c++ {
					A.Accumulate(
						restriction.GlobalIndex(iSid.ID, c, er.Ndofs, er.VDim, er.ByVDim),
						restriction.GlobalIndex(jSid.ID, c, er.Ndofs, er.VDim, er.ByVDim),
						val)
				}
			}
		}
	}
	return A
}

func randomBlocks(ne, ed int, rng *rand.Rand) (blocks []float64) {
	blocks = make([]float64, ed*ed*ne)
	for i := range blocks {
		blocks[i] = rng.NormFloat64()
	}
	return
}

func assertMatricesEqual(t *testing.T, want, have interface {
	Dims() (int, int)
	At(i, j int) float64
}, tol float64) {
	wr, wc := want.Dims()
	hr, hc := have.Dims()
	assert.Equal(t, wr, hr)
	assert.Equal(t, wc, hc)
	for i := 0; i < wr; i++ {
		for j := 0; j < wc; j++ {
			assert.InDelta(t, want.At(i, j), have.At(i, j), tol)
		}
	}
}

func TestFillRowSizes(t *testing.T) {
	{ // two 1D segments sharing the middle dof
		ts, err := fespace.NewTabulated(1, 1, 1, 3, types.ByNodes, types.GaussLobatto,
			[][]int{{0, 1}, {1, 2}}, nil)
		assert.NoError(t, err)
		er := restriction.NewElementRestriction(ts)
		rowPtr := FillRowSizes(er)
		// end dofs see 2 columns, the shared dof sees all 3
		assert.Equal(t, utils.Index{0, 2, 5, 7}, rowPtr)
	}
	{ // 2x2 quad mesh, order 1: the center dof couples to all 9 dofs
		sp, err := fespace.NewCartesian2D(2, 2, 1., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		er := restriction.NewElementRestriction(sp)
		rowPtr := FillRowSizes(er)
		// center of the 3x3 dof grid is gid 4
		assert.Equal(t, 9, rowPtr[5]-rowPtr[4])
		// corners couple to their single element's 4 dofs
		assert.Equal(t, 4, rowPtr[1]-rowPtr[0])
		// edge midpoints couple to the 6 dofs of two elements
		assert.Equal(t, 6, rowPtr[2]-rowPtr[1])
	}
}

func TestAssembleElementCSR(t *testing.T) {
	var (
		tol = 1.e-12
		rng = rand.New(rand.NewSource(3))
	)
	{ // shared-dof assembly matches the dense reference
		sp, err := fespace.NewCartesian2D(2, 2, 1., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		var (
			er     = restriction.NewElementRestriction(sp)
			blocks = randomBlocks(er.Ne, er.Dof, rng)
		)
		A := AssembleElementCSR(er, blocks)
		assertMatricesEqual(t, denseReference(er, blocks), A, tol)
	}
	{ // higher order widens the stencils but the identity holds
		sp, err := fespace.NewCartesian2D(3, 2, 1., 1., 2, 1, types.ByNodes)
		assert.NoError(t, err)
		var (
			er     = restriction.NewElementRestriction(sp)
			blocks = randomBlocks(er.Ne, er.Dof, rng)
		)
		A := AssembleElementCSR(er, blocks)
		assertMatricesEqual(t, denseReference(er, blocks), A, tol)
	}
	{ // vector field, interleaved component ordering
		sp, err := fespace.NewCartesian2D(2, 2, 1., 1., 1, 2, types.ByVDim)
		assert.NoError(t, err)
		var (
			er     = restriction.NewElementRestriction(sp)
			blocks = randomBlocks(er.Ne, er.Dof, rng)
		)
		A := AssembleElementCSR(er, blocks)
		rows, cols := A.Dims()
		assert.Equal(t, 2*9, rows)
		assert.Equal(t, 2*9, cols)
		assertMatricesEqual(t, denseReference(er, blocks), A, tol)
	}
	{ // orientation flips negate the merged entries
		ts, err := fespace.NewTabulated(1, 1, 1, 3, types.ByNodes, types.GaussLobatto,
			[][]int{{0, 1}, {types.EncodeSigned(types.SignedID{ID: 1, Flipped: true}), 2}}, nil)
		assert.NoError(t, err)
		var (
			er     = restriction.NewElementRestriction(ts)
			blocks = randomBlocks(er.Ne, er.Dof, rng)
		)
		A := AssembleElementCSR(er, blocks)
		assertMatricesEqual(t, denseReference(er, blocks), A, tol)
		// the shared diagonal entry merges both elements with matching signs
		assert.InDelta(t, blocks[3]+blocks[4], A.At(1, 1), tol)
	}
	{ // block length mismatch is fatal
		sp, _ := fespace.NewCartesian2D(2, 2, 1., 1., 1, 1, types.ByNodes)
		er := restriction.NewElementRestriction(sp)
		assert.Panics(t, func() { AssembleElementCSR(er, make([]float64, 3)) })
	}
}

func TestAssembleBlockCSR(t *testing.T) {
	var (
		tol = 1.e-12
		rng = rand.New(rand.NewSource(5))
	)
	ts, err := fespace.NewTabulated(1, 1, 1, 6, types.ByNodes, types.GaussLobatto,
		[][]int{{0, 1}, {2, 3}, {4, 5}}, nil)
	assert.NoError(t, err)
	var (
		br     = restriction.NewBlockRestriction(ts)
		blocks = randomBlocks(br.Ne, br.Dof, rng)
	)
	A := AssembleBlockCSR(br, blocks)
	assert.Equal(t, br.Ne*br.Dof*br.Dof, A.NNZ())
	{ // blocks land on the block diagonal, nothing couples across
		for e := 0; e < br.Ne; e++ {
			for i := 0; i < br.Dof; i++ {
				for j := 0; j < br.Dof; j++ {
					assert.InDelta(t, blocks[i+br.Dof*(j+br.Dof*e)],
						A.At(e*br.Dof+i, e*br.Dof+j), tol)
				}
			}
		}
		assert.Equal(t, 0., A.At(0, 3))
		assert.Equal(t, 0., A.At(5, 0))
	}
	{ // length check
		assert.Panics(t, func() { AssembleBlockCSR(br, make([]float64, 5)) })
	}
}

func TestAssembleFaceCoupledCSR(t *testing.T) {
	var (
		tol = 1.e-12
		rng = rand.New(rand.NewSource(9))
	)
	// block-numbered 1D chain with one interior and two boundary faces
	buildChain := func() *fespace.Tabulated {
		ts, err := fespace.NewTabulated(1, 1, 1, 4, types.ByNodes, types.GaussLobatto,
			[][]int{{0, 1}, {2, 3}}, nil)
		assert.NoError(t, err)
		ts.AddFaces(types.Interior, []types.Face{{
			Side1: types.FaceSide{Elem: 0, FaceID: 1},
			Side2: types.FaceSide{Elem: 1, FaceID: 0},
		}}, nil)
		return ts
	}
	{ // hand-checked coupling placement
		var (
			ts         = buildChain()
			br         = restriction.NewBlockRestriction(ts)
			tr         = restriction.NewTwoSidedFaceRestriction(ts, types.Interior)
			elemBlocks = randomBlocks(br.Ne, br.Dof, rng)
			faceBlocks = []float64{2.5, -1.5}
		)
		A := AssembleFaceCoupledCSR(br, tr, elemBlocks, faceBlocks)
		// side 0: row on side 2 (gid 2), column on side 1 (gid 1)
		assert.InDelta(t, 2.5, A.At(2, 1), tol)
		// side 1: row on side 1, column on side 2
		assert.InDelta(t, -1.5, A.At(1, 2), tol)
		// diagonal blocks are untouched by the coupling
		for e := 0; e < 2; e++ {
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					assert.InDelta(t, elemBlocks[i+2*(j+2*e)], A.At(2*e+i, 2*e+j), tol)
				}
			}
		}
		// far corners never couple
		assert.Equal(t, 0., A.At(0, 3))
		assert.Equal(t, 0., A.At(3, 0))
		assert.Equal(t, 10, A.NNZ())
	}
	{ // boundary faces contribute nothing
		var (
			ts = buildChain()
		)
		ts.AddFaces(types.Boundary, []types.Face{
			{Side1: types.FaceSide{Elem: 0, FaceID: 0},
				Side2: types.FaceSide{Elem: types.SentinelNoNeighbor}},
			{Side1: types.FaceSide{Elem: 1, FaceID: 1},
				Side2: types.FaceSide{Elem: types.SentinelNoNeighbor}},
		}, nil)
		var (
			br         = restriction.NewBlockRestriction(ts)
			tr         = restriction.NewTwoSidedFaceRestriction(ts, types.Boundary)
			elemBlocks = randomBlocks(br.Ne, br.Dof, rng)
			faceBlocks = make([]float64, 1*1*2*tr.Nf)
		)
		for i := range faceBlocks {
			faceBlocks[i] = rng.NormFloat64()
		}
		A := AssembleFaceCoupledCSR(br, tr, elemBlocks, faceBlocks)
		assert.Equal(t, br.Ne*br.Dof*br.Dof, A.NNZ())
		assert.Equal(t, 0., A.At(1, 2))
		assert.Equal(t, 0., A.At(2, 1))
	}
	{ // 2D discontinuous mesh against a dense reference
		// two 1x1 quads written block-numbered, sharing a vertical face
		ts, err := fespace.NewTabulated(2, 1, 1, 8, types.ByNodes, types.GaussLobatto,
			[][]int{{0, 1, 2, 3}, {4, 5, 6, 7}}, nil)
		assert.NoError(t, err)
		ts.AddFaces(types.Interior, []types.Face{{
			Side1: types.FaceSide{Elem: 0, FaceID: 1},
			Side2: types.FaceSide{Elem: 1, FaceID: 3, Orientation: 1},
		}}, nil)
		var (
			br         = restriction.NewBlockRestriction(ts)
			tr         = restriction.NewTwoSidedFaceRestriction(ts, types.Interior)
			elemBlocks = randomBlocks(br.Ne, br.Dof, rng)
			faceBlocks = make([]float64, tr.Dof*tr.Dof*2*tr.Nf)
		)
		for i := range faceBlocks {
			faceBlocks[i] = rng.NormFloat64()
		}
		A := AssembleFaceCoupledCSR(br, tr, elemBlocks, faceBlocks)

		ref := utils.NewDOK(8, 8)
		for e := 0; e < 2; e++ {
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					ref.Accumulate(4*e+i, 4*e+j, elemBlocks[i+4*(j+4*e)])
				}
			}
		}
		fd := tr.Dof
		for iF := 0; iF < fd; iF++ {
			for jF := 0; jF < fd; jF++ {
				ref.Accumulate(tr.ScatterIDs2[iF].ID, tr.ScatterIDs1[jF].ID,
					faceBlocks[iF+fd*jF])
				ref.Accumulate(tr.ScatterIDs1[iF].ID, tr.ScatterIDs2[jF].ID,
					faceBlocks[iF+fd*(jF+fd)])
			}
		}
		assertMatricesEqual(t, ref, A, tol)
	}
	{ // mismatched restrictions are fatal
		ts := buildChain()
		br := restriction.NewBlockRestriction(ts)
		sp, _ := fespace.NewCartesian2D(2, 1, 2., 1., 1, 1, types.ByNodes)
		tr := restriction.NewTwoSidedFaceRestriction(sp, types.Interior)
		assert.Panics(t, func() {
			AssembleFaceCoupledCSR(br, tr, make([]float64, 8), make([]float64, 8))
		})
	}
}
