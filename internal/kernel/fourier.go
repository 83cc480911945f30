package kernel

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// quadratureSize returns the Gauss-Legendre node count used to sample the
// window's Fourier transform. The integrand oscillates at most w/4 cycles
// over the half support, so 1.5 nodes per stencil point plus a safety
// margin resolves it to full accuracy.
func quadratureSize(w int) int {
	q := 2 + (3*w)/2
	if q < 8 {
		q = 8
	}

	return q
}

// halfSupportRule returns Gauss-Legendre nodes on (0, w/2] and the
// corresponding weights pre-multiplied by 2*psi(node), so that the cosine
// transform at frequency xi is the plain dot product with cos(xi*node).
func (p Params) halfSupportRule() (nodes, weights []float64) {
	q := quadratureSize(p.Width)
	nodes = make([]float64, q)
	weights = make([]float64, q)

	quad.Legendre{}.FixedLocations(nodes, weights, 0, p.HalfWidth)

	for i := range weights {
		weights[i] *= 2 * p.Psi(nodes[i])
	}

	return nodes, weights
}

// FourierSeries fills out[k], k = 0..nf/2, with the continuous Fourier
// transform of the window sampled at the integer frequencies of a fine grid
// of size nf: phiHat(k) = integral of psi(z)*cos(2*pi*k*z/nf) over the
// support. Symmetry supplies the negative half. out must have length
// nf/2 + 1.
func (p Params) FourierSeries(nf int, out []float64) {
	nodes, weights := p.halfSupportRule()
	h := 2 * math.Pi / float64(nf)

	for k := 0; k <= nf/2; k++ {
		xi := float64(k) * h
		var acc float64
		for i, z := range nodes {
			acc += weights[i] * math.Cos(xi*z)
		}
		out[k] = acc
	}
}

// FourierAtFreqs evaluates the same transform at arbitrary frequencies
// (already rescaled to fine-grid units): out[j] = phiHat(k[j]). Used by the
// type-3 post-deconvolve step. out must have len(k) entries.
func (p Params) FourierAtFreqs(k, out []float64) {
	nodes, weights := p.halfSupportRule()

	for j, xi := range k {
		var acc float64
		for i, z := range nodes {
			acc += weights[i] * math.Cos(xi*z)
		}
		out[j] = acc
	}
}
