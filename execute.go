package algonufft

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-nufft/internal/deconv"
	"github.com/cwbudde/algo-nufft/internal/parallel"
	"github.com/cwbudde/algo-nufft/internal/spread"
)

// Execute runs the plan's transforms. c holds the non-uniform values with
// shape [nTransforms][nj] (transform slowest); f holds the mode
// coefficients with shape [nTransforms][mu][mt][ms] for types 1 and 2 (ms
// fastest) or [nTransforms][nk] for type 3.
//
// Type 1 and 3 read c and write f; type 2 reads f and writes c. Transforms
// are processed in batches sharing one FFT call; the first failing
// sub-step aborts the loop and is returned.
func (p *Plan) Execute(c, f []complex128) error {
	if p.destroyed {
		return ErrPlanDestroyed
	}

	if !p.pointsSet {
		return ErrPointsNotSet
	}

	if c == nil || f == nil {
		return ErrNilSlice
	}

	if len(c) < p.nTransf*p.nj {
		return fmt.Errorf("%w: c has %d entries, want %d", ErrLengthMismatch, len(c), p.nTransf*p.nj)
	}

	fNeed := p.nTransf * p.ms * p.mt * p.mu
	if p.kind == Type3 {
		fNeed = p.nTransf * p.nk
	}
	if len(f) < fNeed {
		return fmt.Errorf("%w: f has %d entries, want %d", ErrLengthMismatch, len(f), fNeed)
	}

	if p.kind == Type3 {
		return p.executeType3(c, f)
	}

	return p.executeType12(c, f)
}

// batchPlan describes how one batch maps onto goroutines: the number of
// concurrent transform-level workers and the thread budget inside each
// spread or interpolation call. Nested parallelism is confined here; inner
// kernels never spawn beyond their budget.
func (p *Plan) batchPlan(nSets int) (outer, inner int) {
	threads := p.opts.MaxThreads

	switch p.opts.SpreadThread {
	case ThreadSeqOuter:
		return 1, threads
	case ThreadParOuter:
		return nSets, 1
	case ThreadNested:
		return nSets, maxInt(1, threads/maxInt(nSets, 1))
	default: // ThreadAuto
		if nSets >= threads {
			return nSets, 1
		}
		return 1, threads
	}
}

// spreadBatch scatters every set of the batch into its fw slab.
func (p *Plan) spreadBatch(nSets, batchNum int, c []complex128) error {
	slab := p.nf1 * p.nf2 * p.nf3
	outer, inner := p.batchPlan(nSets)
	so := p.spreadOpts(inner)
	so.CheckBounds = false // points were vetted in SetPoints

	var g errgroup.Group
	g.SetLimit(maxInt(outer, 1))

	for i := 0; i < nSets; i++ {
		fwSlab := p.fw[i*slab : (i+1)*slab]

		// type 3 spreads its pre-phased batch scratch; types 1/2 index
		// straight into the caller's array
		var cStart []complex128
		if p.kind == Type3 {
			cStart = c[i*p.nj:]
		} else {
			cStart = c[(i+batchNum*p.batchSize)*p.nj:]
		}

		g.Go(func() error {
			return spread.Spread(p.sortIdx, p.nf1, p.nf2, p.nf3, fwSlab, p.x, p.y, p.z, cStart, so)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrPointsOutOfRange, err)
	}

	return nil
}

// interpBatch gathers every set of the batch from its fw slab.
func (p *Plan) interpBatch(nSets, batchNum int, c []complex128) error {
	slab := p.nf1 * p.nf2 * p.nf3
	outer, inner := p.batchPlan(nSets)
	so := p.spreadOpts(inner)
	so.CheckBounds = false

	var g errgroup.Group
	g.SetLimit(maxInt(outer, 1))

	for i := 0; i < nSets; i++ {
		fwSlab := p.fw[i*slab : (i+1)*slab]
		cStart := c[(i+batchNum*p.batchSize)*p.nj:]

		g.Go(func() error {
			return spread.Interp(p.sortIdx, p.nf1, p.nf2, p.nf3, fwSlab, p.x, p.y, p.z, cStart, so)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrPointsOutOfRange, err)
	}

	return nil
}

// deconvolveBatch divides each set's modes by the window spectrum while
// shuffling between the fine grid's wrapped layout and the user layout.
// dir is deconv.DirGridToModes on the type-1 output path and
// deconv.DirModesToGrid on the type-2 input path.
func (p *Plan) deconvolveBatch(nSets, batchNum, dir int, f []complex128) {
	slab := p.nf1 * p.nf2 * p.nf3
	fkRow := p.ms * p.mt * p.mu
	order := int(p.opts.ModeOrder)

	parallel.ExecuteN(0, nSets, p.opts.MaxThreads, func(_, start, end int) {
		for i := start; i < end; i++ {
			fw := p.fw[i*slab : (i+1)*slab]
			fk := f[(i+batchNum*p.batchSize)*fkRow:]

			switch p.dim {
			case 1:
				deconv.Shuffle1D(dir, 1.0, p.phiHatDim(0), p.ms, fk, p.nf1, fw, order)
			case 2:
				deconv.Shuffle2D(dir, 1.0, p.phiHatDim(0), p.phiHatDim(1),
					p.ms, p.mt, fk, p.nf1, p.nf2, fw, order)
			default:
				deconv.Shuffle3D(dir, 1.0, p.phiHatDim(0), p.phiHatDim(1), p.phiHatDim(2),
					p.ms, p.mt, p.mu, fk, p.nf1, p.nf2, p.nf3, fw, order)
			}
		}
	})
}

func (p *Plan) executeType12(c, f []complex128) error {
	var tSpread, tFFT, tDeconv time.Duration

	for batchNum := 0; batchNum*p.batchSize < p.nTransf; batchNum++ {
		nSets := minInt(p.nTransf-batchNum*p.batchSize, p.batchSize)

		start := time.Now()
		if p.kind == Type1 {
			if err := p.spreadBatch(nSets, batchNum, c); err != nil {
				return err
			}
			tSpread += time.Since(start)
		} else {
			p.deconvolveBatch(nSets, batchNum, deconv.DirModesToGrid, f)
			tDeconv += time.Since(start)
		}

		start = time.Now()
		if err := p.fftPlan.ExecuteBatch(nSets); err != nil {
			return fmt.Errorf("algonufft: fft execute: %w", err)
		}
		tFFT += time.Since(start)

		start = time.Now()
		if p.kind == Type1 {
			p.deconvolveBatch(nSets, batchNum, deconv.DirGridToModes, f)
			tDeconv += time.Since(start)
		} else {
			if err := p.interpBatch(nSets, batchNum, c); err != nil {
				return err
			}
			tSpread += time.Since(start)
		}
	}

	if p.opts.Debug > 0 {
		p.log.Info().
			Dur("spread_interp", tSpread).Dur("fft", tFFT).Dur("deconvolve", tDeconv).
			Msg("execute")
	}

	return nil
}

func (p *Plan) executeType3(c, f []complex128) error {
	var tPre, tSpread, tInner, tPost time.Duration

	for batchNum := 0; batchNum*p.batchSize < p.nTransf; batchNum++ {
		nSets := minInt(p.nTransf-batchNum*p.batchSize, p.batchSize)

		// pre-phase the batch's weights into the plan scratch
		start := time.Now()
		p.prePhaseBatch(nSets, batchNum, c)
		tPre += time.Since(start)

		start = time.Now()
		if err := p.spreadBatch(nSets, batchNum, p.cWork); err != nil {
			return err
		}
		tSpread += time.Since(start)

		// the inner plan iterates exactly this batch's sets; its FFT stays
		// planned at the full batch size and simply skips the dead slabs
		p.inner.nTransf = nSets

		start = time.Now()
		if err := p.inner.Execute(f[batchNum*p.batchSize*p.nk:], p.fw); err != nil {
			return fmt.Errorf("algonufft: inner type-2: %w", err)
		}
		tInner += time.Since(start)

		start = time.Now()
		p.postDeconvolveBatch(nSets, batchNum, f)
		tPost += time.Since(start)
	}

	if p.opts.Debug > 0 {
		p.log.Info().
			Dur("prephase", tPre).Dur("spread", tSpread).
			Dur("inner_type2", tInner).Dur("deconvolve", tPost).
			Msg("execute type 3")
	}

	return nil
}

// prePhaseBatch fills cWork with this batch's weights, rotated by the
// per-point phase when the target center is shifted.
func (p *Plan) prePhaseBatch(nSets, batchNum int, c []complex128) {
	base := batchNum * p.batchSize * p.nj

	parallel.ExecuteN(0, p.nj, p.opts.MaxThreads, func(_, start, end int) {
		for i := start; i < end; i++ {
			if p.prePhase == nil {
				for k := 0; k < nSets; k++ {
					p.cWork[k*p.nj+i] = c[base+k*p.nj+i]
				}
				continue
			}

			mul := p.prePhase[i]
			for k := 0; k < nSets; k++ {
				p.cWork[k*p.nj+i] = c[base+k*p.nj+i] * mul
			}
		}
	})
}

// postDeconvolveBatch applies the precomputed per-target factor (inverse
// window transform and source-center phase) to the batch's outputs.
func (p *Plan) postDeconvolveBatch(nSets, batchNum int, f []complex128) {
	parallel.ExecuteN(0, p.nk, p.opts.MaxThreads, func(_, start, end int) {
		for k := start; k < end; k++ {
			fac := p.postFac[k]
			for i := 0; i < nSets; i++ {
				idx := (batchNum*p.batchSize+i)*p.nk + k
				f[idx] *= fac
			}
		}
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
