package restriction

import (
	"math/rand"
	"testing"

	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/types"
	"github.com/stretchr/testify/assert"
)

func TestFaceRestriction(t *testing.T) {
	{ // single interior face of a 2x1 quad mesh: the shared east column
		sp, err := fespace.NewCartesian2D(2, 1, 2., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		fr := NewFaceRestriction(sp, types.Interior)
		assert.Equal(t, 1, fr.Nf)
		assert.Equal(t, 2, fr.Dof)
		assert.Equal(t, []types.SignedID{{ID: 1}, {ID: 4}}, fr.ScatterIDs)

		var (
			global = []float64{10, 11, 12, 13, 14, 15}
			local  = make([]float64, fr.LocalSize())
			back   = make([]float64, fr.GlobalSize())
		)
		fr.Scatter(global, local)
		assert.Equal(t, []float64{11, 14}, local)
		fr.Gather(local, back)
		assert.Equal(t, []float64{0, 11, 0, 0, 14, 0}, back)
	}
	{ // boundary faces of a single element cover its whole closure
		sp, err := fespace.NewCartesian2D(1, 1, 1., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		fr := NewFaceRestriction(sp, types.Boundary)
		assert.Equal(t, 4, fr.Nf)
		// every dof of the 2x2 element lies on some boundary face
		mult := make([]float64, fr.GlobalSize())
		ones := make([]float64, fr.LocalSize())
		for i := range ones {
			ones[i] = 1.
		}
		fr.GatherUnsigned(ones, mult)
		// corners appear on two edges each
		assert.Equal(t, []float64{2, 2, 2, 2}, mult)
	}
	{ // adjoint identity with vector components
		var (
			tol = 1.e-12
			rng = rand.New(rand.NewSource(7))
		)
		sp, err := fespace.NewCartesian2D(2, 2, 1., 1., 2, 2, types.ByVDim)
		assert.NoError(t, err)
		for _, ft := range []types.FaceType{types.Interior, types.Boundary} {
			fr := NewFaceRestriction(sp, ft)
			var (
				v  = make([]float64, fr.GlobalSize())
				u  = make([]float64, fr.LocalSize())
				sv = make([]float64, fr.LocalSize())
				gu = make([]float64, fr.GlobalSize())
			)
			for i := range v {
				v[i] = rng.NormFloat64()
			}
			for i := range u {
				u[i] = rng.NormFloat64()
			}
			fr.Scatter(v, sv)
			fr.Gather(u, gu)
			assert.InDelta(t, dot(sv, u), dot(v, gu), tol)
		}
	}
}

func TestTwoSidedFaceRestriction(t *testing.T) {
	{ // conforming shared edge: both sides resolve the same physical dofs
		sp, err := fespace.NewCartesian2D(2, 1, 2., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		tr := NewTwoSidedFaceRestriction(sp, types.Interior)
		assert.Equal(t, 1, tr.Nf)
		assert.Equal(t, []types.SignedID{{ID: 1}, {ID: 4}}, tr.ScatterIDs1)
		// orientation permutation lines side 2 up point by point
		assert.Equal(t, tr.ScatterIDs1, tr.ScatterIDs2)

		var (
			global = []float64{10, 11, 12, 13, 14, 15}
			local  = make([]float64, tr.LocalSize())
		)
		tr.Scatter(global, local)
		// (dof, side, face) layout: both traces agree on a continuous field
		assert.Equal(t, []float64{11, 14, 11, 14}, local)
	}
	{ // boundary faces scatter a zero second side
		sp, err := fespace.NewCartesian2D(1, 1, 1., 1., 1, 1, types.ByNodes)
		assert.NoError(t, err)
		tr := NewTwoSidedFaceRestriction(sp, types.Boundary)
		assert.Equal(t, 4, tr.Nf)
		for i := range tr.ScatterIDs2 {
			assert.Equal(t, types.SentinelNoNeighbor, tr.ScatterIDs2[i].ID)
		}
		var (
			global = []float64{1, 2, 3, 4}
			local  = make([]float64, tr.LocalSize())
		)
		tr.Scatter(global, local)
		for f := 0; f < tr.Nf; f++ {
			for d := 0; d < tr.Dof; d++ {
				assert.Equal(t, 0., local[tr.sideIndex(d, 0, 1, f)])
			}
		}
	}
	{ // adjoint identity across both sides
		var (
			tol = 1.e-12
			rng = rand.New(rand.NewSource(11))
		)
		sp, err := fespace.NewCartesian2D(2, 2, 1., 1., 2, 2, types.ByNodes)
		assert.NoError(t, err)
		for _, ft := range []types.FaceType{types.Interior, types.Boundary} {
			tr := NewTwoSidedFaceRestriction(sp, ft)
			var (
				v  = make([]float64, tr.GlobalSize())
				u  = make([]float64, tr.LocalSize())
				sv = make([]float64, tr.LocalSize())
				gu = make([]float64, tr.GlobalSize())
			)
			for i := range v {
				v[i] = rng.NormFloat64()
			}
			for i := range u {
				u[i] = rng.NormFloat64()
			}
			tr.Scatter(v, sv)
			tr.Gather(u, gu)
			assert.InDelta(t, dot(sv, u), dot(v, gu), tol)
		}
	}
}

func TestAddFaceMatricesToElementMatrices(t *testing.T) {
	// block-numbered 1D chain: gid = elem*2 + dof, one interior face
	ts, err := fespace.NewTabulated(1, 1, 1, 4, types.ByNodes, types.GaussLobatto,
		[][]int{{0, 1}, {2, 3}}, nil)
	assert.NoError(t, err)
	ts.AddFaces(types.Interior, []types.Face{{
		Side1: types.FaceSide{Elem: 0, FaceID: 1},
		Side2: types.FaceSide{Elem: 1, FaceID: 0},
	}}, nil)
	tr := NewTwoSidedFaceRestriction(ts, types.Interior)
	assert.Equal(t, []types.SignedID{{ID: 1}}, tr.ScatterIDs1)
	assert.Equal(t, []types.SignedID{{ID: 2}}, tr.ScatterIDs2)

	{ // side 0 lands in element 0's block, side 1 in element 1's
		var (
			faceMats = []float64{2.5, -1.5}
			elemMats = make([]float64, 2*2*2)
		)
		tr.AddFaceMatricesToElementMatrices(faceMats, elemMats)
		assert.Equal(t, []float64{
			0, 0, 0, 2.5, // element 0: (1,1)
			-1.5, 0, 0, 0, // element 1: (0,0)
		}, elemMats)
	}
	{ // accumulation adds on top of existing entries
		var (
			faceMats = []float64{1, 1}
			elemMats = []float64{0, 0, 0, 1, 1, 0, 0, 0}
		)
		tr.AddFaceMatricesToElementMatrices(faceMats, elemMats)
		assert.Equal(t, []float64{0, 0, 0, 2, 2, 0, 0, 0}, elemMats)
	}
	{ // size mismatches are fatal
		assert.Panics(t, func() {
			tr.AddFaceMatricesToElementMatrices(make([]float64, 3), make([]float64, 8))
		})
		assert.Panics(t, func() {
			tr.AddFaceMatricesToElementMatrices(make([]float64, 2), make([]float64, 7))
		})
	}
	{ // shared-dof spaces cannot decompose gids into blocks
		shared := NewTwoSidedFaceRestriction(func() fespace.Space {
			sp, _ := fespace.NewCartesian2D(2, 1, 2., 1., 1, 1, types.ByNodes)
			return sp
		}(), types.Interior)
		assert.Panics(t, func() {
			shared.AddFaceMatricesToElementMatrices(
				make([]float64, 2*2*2), make([]float64, 4*4*2))
		})
	}
}
