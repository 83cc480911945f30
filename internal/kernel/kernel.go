// Package kernel implements the exponential-of-semicircle spreading window:
// parameter selection from a requested tolerance, fast evaluation on the
// spreading stencil, and sampling of its Fourier transform.
package kernel

import (
	"errors"
	"math"
)

// EvalMethod selects how stencil values are computed.
type EvalMethod int

const (
	// EvalDirect evaluates exp(beta*(sqrt(1-(2x/w)^2)-1)) per lattice site.
	EvalDirect EvalMethod = iota

	// EvalHorner evaluates a precomputed piecewise-polynomial fit of the
	// same window in Horner form, one polynomial per unit interval.
	EvalHorner
)

// Supported tolerance range. Requests outside are clamped with ErrTolClamped.
const (
	TolMin = 1e-15
	TolMax = 0.5
)

// MaxWidth caps the stencil width; it corresponds to full double accuracy.
const MaxWidth = 16

// Sentinel errors.
var (
	// ErrTolClamped is a warning: the requested tolerance was outside the
	// supported range and has been clamped. The returned parameters are valid.
	ErrTolClamped = errors.New("kernel: tolerance clamped to supported range")

	// ErrUpsampleFactor is returned for unusable oversampling factors.
	ErrUpsampleFactor = errors.New("kernel: upsampling factor must be greater than 1")
)

// Params fully describes one spreading window.
type Params struct {
	Width       int     // stencil width w in fine-grid units
	PaddedWidth int     // Width rounded up for SIMD-friendly loops
	Beta        float64 // shape parameter
	HalfWidth   float64 // w/2
	C           float64 // 4/w^2, so C*x^2 = (2x/w)^2
	Sigma       float64 // oversampling factor the width was chosen for
	Method      EvalMethod

	horner *hornerTable
}

// Setup chooses the window for a requested tolerance and oversampling
// factor. pad rounds the stencil width up to a multiple of padMultiple
// (ignored when padMultiple < 2).
//
// May return ErrTolClamped together with valid parameters; callers treat it
// as a warning.
func Setup(tol, sigma float64, method EvalMethod, pad bool, padMultiple int) (Params, error) {
	if sigma <= 1.0 || math.IsNaN(sigma) {
		return Params{}, ErrUpsampleFactor
	}

	var warn error
	if tol < TolMin {
		tol = TolMin
		warn = ErrTolClamped
	}

	if tol > TolMax {
		tol = TolMax
		warn = ErrTolClamped
	}

	var w int
	if sigma == 2.0 {
		// one digit of accuracy per stencil point
		w = int(math.Ceil(math.Log10(10.0 / tol)))
	} else {
		w = int(math.Ceil(-math.Log(tol) / (math.Pi * math.Sqrt(1-1/sigma))))
	}

	if w < 2 {
		w = 2
	}

	if w > MaxWidth {
		w = MaxWidth
		warn = ErrTolClamped
	}

	betaOverW := 2.30
	switch w {
	case 2:
		betaOverW = 2.20
	case 3:
		betaOverW = 2.26
	case 4:
		betaOverW = 2.38
	}

	if sigma != 2.0 {
		const gamma = 0.97
		betaOverW = gamma * math.Pi * (1 - 1/(2*sigma))
	}

	p := Params{
		Width:       w,
		PaddedWidth: w,
		Beta:        betaOverW * float64(w),
		HalfWidth:   float64(w) / 2,
		C:           4.0 / float64(w*w),
		Sigma:       sigma,
		Method:      method,
	}

	if pad && padMultiple >= 2 {
		p.PaddedWidth = ((w + padMultiple - 1) / padMultiple) * padMultiple
	}

	if method == EvalHorner {
		p.horner = hornerFor(p)
	}

	return p, warn
}

// Psi evaluates the window at x (fine-grid units, support |x| <= w/2).
func (p Params) Psi(x float64) float64 {
	t := 1 - p.C*x*x
	if t <= 0 {
		return 0
	}

	return math.Exp(p.Beta * (math.Sqrt(t) - 1))
}

// EvalStencil writes the w window values psi(x1+j), j = 0..w-1, into out.
// x1 is the signed distance from the leftmost stencil site to the point,
// in [-w/2, -w/2+1). out must have length >= PaddedWidth; padding lanes are
// zeroed so padded loops contribute nothing.
func (p Params) EvalStencil(out []float64, x1 float64) {
	if p.Method == EvalHorner && p.horner != nil {
		p.horner.eval(out, x1)
	} else {
		for j := 0; j < p.Width; j++ {
			xi := x1 + float64(j)
			t := 1 - p.C*xi*xi
			t = math.Sqrt(math.Max(t, 0))
			out[j] = math.Exp(p.Beta * (t - 1))
		}
	}

	for j := p.Width; j < p.PaddedWidth; j++ {
		out[j] = 0
	}
}
