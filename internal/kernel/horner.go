package kernel

import (
	"math"
	"sync"
)

// hornerTable holds one monomial polynomial per unit interval of the window
// support, all parametrized by the same z in [-1, 1). Tables depend only on
// (width, sigma) and are cached for the life of the process.
type hornerTable struct {
	width  int
	degree int
	// coeffs[j*(degree+1)+i] is the z^(degree-i) coefficient of interval
	// j: highest degree first, for Horner evaluation.
	coeffs []float64
}

type hornerKey struct {
	width int
	sigma float64
}

var (
	hornerMu    sync.Mutex
	hornerCache = map[hornerKey]*hornerTable{}
)

// hornerFor returns the cached table for p, building it on first use.
func hornerFor(p Params) *hornerTable {
	key := hornerKey{width: p.Width, sigma: p.Sigma}

	hornerMu.Lock()
	defer hornerMu.Unlock()

	if tbl, ok := hornerCache[key]; ok {
		return tbl
	}

	tbl := buildHornerTable(p)
	hornerCache[key] = tbl

	return tbl
}

// buildHornerTable fits each unit interval [-w/2+j, -w/2+j+1] with a
// polynomial interpolant at Chebyshev-Lobatto nodes, expanded to monomial
// form. Degree w+2, capped at 16, matches the window's smoothness well enough that the fit
// agrees with direct evaluation to the tolerance the width was chosen for.
func buildHornerTable(p Params) *hornerTable {
	w := p.Width
	d := w + 2
	if d > 16 {
		d = 16
	}

	tbl := &hornerTable{
		width:  w,
		degree: d,
		coeffs: make([]float64, w*(d+1)),
	}

	// Chebyshev-Lobatto nodes on [-1, 1]
	nodes := make([]float64, d+1)
	for i := range nodes {
		nodes[i] = -cosPi(float64(i) / float64(d))
	}

	vals := make([]float64, d+1)
	for j := 0; j < w; j++ {
		left := -p.HalfWidth + float64(j)
		for i, z := range nodes {
			vals[i] = p.Psi(left + (z+1)/2)
		}

		mono := monomialFromNodes(nodes, vals)

		// store highest degree first
		row := tbl.coeffs[j*(d+1) : (j+1)*(d+1)]
		for i := 0; i <= d; i++ {
			row[i] = mono[d-i]
		}
	}

	return tbl
}

// monomialFromNodes interpolates (nodes[i], vals[i]) and returns monomial
// coefficients, constant term first. Newton divided differences expanded to
// the monomial basis; stable at the degrees used here.
func monomialFromNodes(nodes, vals []float64) []float64 {
	n := len(nodes)

	// divided differences in place
	dd := make([]float64, n)
	copy(dd, vals)
	for level := 1; level < n; level++ {
		for i := n - 1; i >= level; i-- {
			dd[i] = (dd[i] - dd[i-1]) / (nodes[i] - nodes[i-level])
		}
	}

	// expand Newton form: poly = dd[n-1]; poly = poly*(z-nodes[i]) + dd[i]
	mono := make([]float64, n)
	mono[0] = dd[n-1]
	deg := 0
	for i := n - 2; i >= 0; i-- {
		// multiply by (z - nodes[i])
		for k := deg + 1; k >= 1; k-- {
			mono[k] = mono[k-1] - nodes[i]*mono[k]
		}
		mono[0] = -nodes[i]*mono[0] + dd[i]
		deg++
	}

	return mono
}

// eval writes the window values for all width intervals at the common
// sub-grid parameter derived from x1. See Params.EvalStencil.
func (t *hornerTable) eval(out []float64, x1 float64) {
	z := 2*x1 + float64(t.width) - 1
	nc := t.degree + 1

	for j := 0; j < t.width; j++ {
		row := t.coeffs[j*nc : (j+1)*nc]
		acc := row[0]
		for i := 1; i < nc; i++ {
			acc = acc*z + row[i]
		}
		out[j] = acc
	}
}

func cosPi(x float64) float64 {
	// exact zero at the midpoint keeps the node set symmetric
	if x == 0.5 {
		return 0
	}

	return math.Cos(math.Pi * x)
}
