// Package fft plans and executes batched multi-dimensional complex-to-complex
// transforms over a shared scratch buffer.
//
// The arithmetic is delegated to gonum's fourier.CmplxFFT; this package adds
// the multi-dimensional decomposition, batching over equal-size slabs, and a
// plan/execute/destroy lifecycle. Transforms are unnormalized in both
// directions.
package fft

import (
	"errors"
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-nufft/internal/parallel"
)

// Effort controls how much work planning does up front.
type Effort int

const (
	// EffortEstimate defers per-worker transform construction to first use.
	EffortEstimate Effort = iota

	// EffortMeasure constructs every per-worker transform at plan time, so
	// the first Execute runs at steady-state speed.
	EffortMeasure
)

// Sentinel errors.
var (
	ErrBadShape  = errors.New("fft: invalid transform shape")
	ErrBadSign   = errors.New("fft: sign must be +1 or -1")
	ErrShortBuf  = errors.New("fft: buffer shorter than shape requires")
	ErrDestroyed = errors.New("fft: plan destroyed")
)

// Plan is a batched in-place multi-dimensional FFT over a caller-owned
// buffer. The buffer holds batch slabs of size prod(dims) each; Execute
// transforms every slab, ExecuteBatch a prefix of them.
type Plan struct {
	dims  []int // row-major, fastest-varying axis last
	sizes []int // per-axis lengths, fastest-varying first
	batch int
	slab  int
	buf   []complex128
	sign  int

	workers int
	// transforms[axis][worker], instantiated lazily unless EffortMeasure
	transforms [][]*fourier.CmplxFFT
	scratchIn  [][]complex128
	scratchOut [][]complex128

	destroyed bool
}

// NewPlan creates a batched transform plan. dims lists the grid sizes in
// row-major order with the fastest-varying axis last (so a 2D grid stored
// with x contiguous is passed as [n2, n1]). sign selects the exponent in the
// transform: -1 applies exp(-i...), +1 applies exp(+i...). buf must hold at
// least batch*prod(dims) elements and is transformed in place.
func NewPlan(dims []int, batch int, buf []complex128, sign int, effort Effort) (*Plan, error) {
	if len(dims) < 1 || len(dims) > 3 {
		return nil, fmt.Errorf("%w: rank %d", ErrBadShape, len(dims))
	}

	slab := 1
	for _, n := range dims {
		if n < 1 {
			return nil, fmt.Errorf("%w: dim %d", ErrBadShape, n)
		}
		slab *= n
	}

	if batch < 1 {
		return nil, fmt.Errorf("%w: batch %d", ErrBadShape, batch)
	}

	if sign != 1 && sign != -1 {
		return nil, ErrBadSign
	}

	if len(buf) < batch*slab {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrShortBuf, len(buf), batch*slab)
	}

	sizes := make([]int, len(dims))
	for i, n := range dims {
		sizes[len(dims)-1-i] = n
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	p := &Plan{
		dims:       append([]int(nil), dims...),
		sizes:      sizes,
		batch:      batch,
		slab:       slab,
		buf:        buf,
		sign:       sign,
		workers:    workers,
		transforms: make([][]*fourier.CmplxFFT, len(sizes)),
		scratchIn:  make([][]complex128, workers),
		scratchOut: make([][]complex128, workers),
	}

	maxLen := 0
	for axis, n := range sizes {
		p.transforms[axis] = make([]*fourier.CmplxFFT, workers)
		if n > maxLen {
			maxLen = n
		}
	}

	for w := 0; w < workers; w++ {
		p.scratchIn[w] = make([]complex128, maxLen)
		p.scratchOut[w] = make([]complex128, maxLen)
	}

	if effort == EffortMeasure {
		for axis, n := range sizes {
			for w := 0; w < workers; w++ {
				p.transforms[axis][w] = fourier.NewCmplxFFT(n)
			}
		}
	}

	return p, nil
}

// Len returns the number of elements in one slab.
func (p *Plan) Len() int {
	return p.slab
}

// Batch returns the number of slabs the plan was created for.
func (p *Plan) Batch() int {
	return p.batch
}

// Execute transforms all batch slabs in place.
func (p *Plan) Execute() error {
	return p.ExecuteBatch(p.batch)
}

// ExecuteBatch transforms the first n slabs in place, leaving the remaining
// slabs untouched. Used when the final batch of a run is short.
func (p *Plan) ExecuteBatch(n int) error {
	if p.destroyed {
		return ErrDestroyed
	}

	if n < 1 || n > p.batch {
		return fmt.Errorf("%w: batch prefix %d of %d", ErrBadShape, n, p.batch)
	}

	total := n * p.slab
	for axis, length := range p.sizes {
		if length == 1 {
			continue
		}
		p.transformAxis(axis, length, total)
	}

	return nil
}

// transformAxis runs every 1-D line along the given axis, over the first
// total elements of the buffer. Lines are independent; they fan out over
// the plan's workers, each of which owns its transform and scratch.
func (p *Plan) transformAxis(axis, length, total int) {
	stride := 1
	for a := 0; a < axis; a++ {
		stride *= p.sizes[a]
	}

	block := stride * length
	lines := (total / block) * stride

	parallel.ExecuteN(0, lines, p.workers, func(worker, start, end int) {
		t := p.transforms[axis][worker]
		if t == nil {
			t = fourier.NewCmplxFFT(length)
			p.transforms[axis][worker] = t
		}

		in := p.scratchIn[worker][:length]
		out := p.scratchOut[worker][:length]

		for line := start; line < end; line++ {
			base := (line/stride)*block + line%stride

			for i := 0; i < length; i++ {
				in[i] = p.buf[base+i*stride]
			}

			if p.sign < 0 {
				t.Coefficients(out, in)
			} else {
				t.Sequence(out, in)
			}

			for i := 0; i < length; i++ {
				p.buf[base+i*stride] = out[i]
			}
		}
	})
}

// Destroy releases the plan's internal resources. Idempotent; using the
// plan afterwards returns ErrDestroyed.
func (p *Plan) Destroy() {
	if p.destroyed {
		return
	}

	p.destroyed = true
	p.transforms = nil
	p.scratchIn = nil
	p.scratchOut = nil
	p.buf = nil
}
