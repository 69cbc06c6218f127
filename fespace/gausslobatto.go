package fespace

import (
	"fmt"
	"math"
)

/*
GaussLobattoNodes returns the N+1 Gauss-Lobatto-Legendre points mapped to
[0,1], in ascending order. Interior points are the roots of P'_N found by
Newton iteration from Chebyshev-Gauss-Lobatto initial guesses.
*/
func GaussLobattoNodes(N int) (x []float64) {
	if N < 1 {
		panic(fmt.Errorf("Gauss-Lobatto nodes need order >= 1, have %d", N))
	}
	x = make([]float64, N+1)
	x[0], x[N] = -1., 1.
	for i := 1; i < N; i++ {
		xi := -math.Cos(math.Pi * float64(i) / float64(N))
		for iter := 0; iter < 100; iter++ {
			p, dp := legendreD(N, xi)
			// roots of P'_N: Newton on P'_N using d/dx P'_N from the
			// Legendre ODE (1-x^2)P'' = 2xP' - N(N+1)P
			ddp := (2.*xi*dp - float64(N*(N+1))*p) / (1. - xi*xi)
			dx := dp / ddp
			xi -= dx
			if math.Abs(dx) < 1.e-15 {
				break
			}
		}
		x[i] = xi
	}
	for i := range x {
		x[i] = 0.5 * (x[i] + 1.)
	}
	return
}

// legendreD evaluates P_N and P'_N at x by the three-term recurrence
func legendreD(N int, x float64) (p, dp float64) {
	var (
		pm1, pm2 = x, 1.
	)
	if N == 0 {
		return 1., 0.
	}
	if N == 1 {
		return x, 1.
	}
	p = x
	for n := 2; n <= N; n++ {
		p = (float64(2*n-1)*x*pm1 - float64(n-1)*pm2) / float64(n)
		pm2, pm1 = pm1, p
	}
	dp = float64(N) * (x*p - pm2) / (x*x - 1.)
	return
}

/*
BoundaryStencil1D returns the values (bf) and derivatives (gf) of the 1D
Lagrange basis on the given nodes, evaluated at the left endpoint of the
reference interval. gf is negated so that it measures the derivative along
the inward normal direction of the face the stencil is anchored at.

With a nodal basis anchored at node 0, bf is the unit vector e0.
*/
func BoundaryStencil1D(nodes []float64) (bf, gf []float64) {
	var (
		n = len(nodes)
		w = barycentricWeights(nodes)
	)
	bf = make([]float64, n)
	gf = make([]float64, n)
	bf[0] = 1.
	// Derivative of Lagrange cardinal functions at node 0 via barycentric
	// differentiation
	for i := 1; i < n; i++ {
		gf[i] = w[i] / (w[0] * (nodes[0] - nodes[i]))
	}
	for i := 1; i < n; i++ {
		gf[0] -= gf[i]
	}
	for i := range gf {
		gf[i] = -gf[i]
	}
	return
}

func barycentricWeights(nodes []float64) (w []float64) {
	var (
		n = len(nodes)
	)
	w = make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 1.
		for j := 0; j < n; j++ {
			if j != i {
				w[i] /= nodes[i] - nodes[j]
			}
		}
	}
	return
}
