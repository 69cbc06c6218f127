package fespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaussLobattoNodes(t *testing.T) {
	var (
		tol = 1.e-12
	)
	{ // low orders have closed forms on [0,1]
		assert.InDeltaSlice(t, []float64{0, 1}, GaussLobattoNodes(1), tol)
		assert.InDeltaSlice(t, []float64{0, 0.5, 1}, GaussLobattoNodes(2), tol)
		// order 3 interior points are (1 +- 1/sqrt(5))/2
		assert.InDeltaSlice(t,
			[]float64{0, 0.27639320225002106, 0.7236067977499789, 1},
			GaussLobattoNodes(3), tol)
	}
	{ // nodes are ascending and symmetric about 0.5
		for N := 1; N <= 8; N++ {
			x := GaussLobattoNodes(N)
			assert.Equal(t, N+1, len(x))
			for i := 1; i <= N; i++ {
				assert.True(t, x[i] > x[i-1])
			}
			for i := 0; i <= N; i++ {
				assert.InDelta(t, 1.-x[N-i], x[i], tol)
			}
		}
	}
	{ // order zero is rejected
		assert.Panics(t, func() { GaussLobattoNodes(0) })
	}
}

func TestBoundaryStencil1D(t *testing.T) {
	var (
		tol = 1.e-12
	)
	{ // nodal basis anchored at the face node
		bf, gf := BoundaryStencil1D(GaussLobattoNodes(1))
		assert.InDeltaSlice(t, []float64{1, 0}, bf, tol)
		assert.InDeltaSlice(t, []float64{1, -1}, gf, tol)
	}
	{ // quadratic stencil on equispaced Gauss-Lobatto nodes
		bf, gf := BoundaryStencil1D(GaussLobattoNodes(2))
		assert.InDeltaSlice(t, []float64{1, 0, 0}, bf, tol)
		assert.InDeltaSlice(t, []float64{3, -4, 1}, gf, tol)
	}
	{ // gf annihilates constants and reproduces the inward slope of x
		for N := 1; N <= 5; N++ {
			nodes := GaussLobattoNodes(N)
			_, gf := BoundaryStencil1D(nodes)
			var sum, slope float64
			for i, g := range gf {
				sum += g
				slope += g * nodes[i]
			}
			assert.InDelta(t, 0., sum, tol)
			assert.InDelta(t, -1., slope, tol)
		}
	}
}
