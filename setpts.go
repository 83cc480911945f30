package algonufft

import (
	"fmt"
	stdmath "math"
	"math/cmplx"
	"time"

	"github.com/cwbudde/algo-nufft/internal/math"
	"github.com/cwbudde/algo-nufft/internal/spread"
)

// SetPoints binds the non-uniform points to the plan. x, y, z are the
// spatial coordinates (length nj each; pass nil for unused dimensions).
// For type 3, s, t, u additionally give the target frequencies (length nk
// each); other types ignore them.
//
// For types 1 and 2 the arrays are borrowed: the caller must keep them
// alive and unchanged across Execute calls. For type 3 the plan takes
// rescaled private copies of the spatial coordinates and borrows s, t, u.
func (p *Plan) SetPoints(x, y, z []float64, s, t, u []float64) error {
	if p.destroyed {
		return ErrPlanDestroyed
	}

	if x == nil {
		return fmt.Errorf("%w: x", ErrNilSlice)
	}

	nj := len(x)
	if p.dim > 1 && len(y) != nj {
		return fmt.Errorf("%w: y has %d entries, want %d", ErrLengthMismatch, len(y), nj)
	}
	if p.dim > 2 && len(z) != nj {
		return fmt.Errorf("%w: z has %d entries, want %d", ErrLengthMismatch, len(z), nj)
	}

	if p.kind == Type3 {
		return p.setPointsType3(x, y, z, s, t, u)
	}

	start := time.Now()
	if err := spread.Check(p.dim, x, y, z, p.opts.CheckBounds); err != nil {
		return fmt.Errorf("%w: %v", ErrPointsOutOfRange, err)
	}

	if p.opts.Debug > 1 {
		p.log.Info().Dur("spreadcheck", time.Since(start)).Msg("set points")
	}

	start = time.Now()
	p.nj = nj
	p.sortIdx = make([]int, nj)
	p.didSort = spread.Sort(p.sortIdx, p.nf1, p.nf2, p.nf3, x, y, z, p.spreadOpts(p.opts.MaxThreads))

	if p.opts.Debug > 0 {
		p.log.Info().Bool("did_sort", p.didSort).Dur("sort", time.Since(start)).Msg("set points")
	}

	p.x, p.y, p.z = x, y, z
	p.pointsSet = true

	return nil
}

// spreadOpts derives the spreader configuration with the given inner
// thread budget.
func (p *Plan) spreadOpts(maxThreads int) spread.Opts {
	return spread.Opts{
		Kernel:      p.kp,
		Dim:         p.dim,
		Sort:        int(p.opts.SpreadSort),
		CheckBounds: p.opts.CheckBounds,
		Debug:       p.opts.SpreadDebug,
		MaxThreads:  maxThreads,
	}
}

// centerHalfWidth returns the midpoint and half-width of the values.
func centerHalfWidth(v []float64) (center, half float64) {
	if len(v) == 0 {
		return 0, 0
	}

	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = stdmath.Min(lo, x)
		hi = stdmath.Max(hi, x)
	}

	return (lo + hi) / 2, (hi - lo) / 2
}

// t3GridSize picks the fine-grid size, spacing and coordinate rescale for
// one dimension of a type-3 problem from the source half-width X and the
// target half-width S.
func (p *Plan) t3GridSize(S, X float64) (nf int, h, gam float64, err error) {
	w := p.kp.Width
	sigma := p.opts.UpsampleFactor

	// substitute degenerate widths so S*X stays >= 1 and the grid below
	// never collapses
	Xsafe, Ssafe := X, S
	if X == 0 {
		if S == 0 {
			Xsafe, Ssafe = 1, 1
		} else {
			Xsafe = stdmath.Max(Xsafe, 1/S)
		}
	} else {
		Ssafe = stdmath.Max(Ssafe, 1/X)
	}

	nfd := 2*sigma*Ssafe*Xsafe/stdmath.Pi + float64(w+1)
	if !(nfd > 0) || nfd > float64(math.MaxGridPerDim) {
		return 0, 0, 0, fmt.Errorf("%w: type-3 grid of %.3g points", ErrGridTooLarge, nfd)
	}

	nf = int(nfd)
	if nf < 2*w {
		nf = 2 * w
	}
	nf = math.NextSmooth235Even(nf)

	h = math.TwoPi / float64(nf)
	gam = float64(nf) / (2 * sigma * Ssafe)

	return nf, h, gam, nil
}

// setPointsType3 rescales and centers sources and targets, sizes the fine
// grid, precomputes the pre/post phase factors and the window's Fourier
// transform at the targets, and builds the inner type-2 plan.
func (p *Plan) setPointsType3(x, y, z, s, t, u []float64) error {
	if s == nil {
		return fmt.Errorf("%w: s", ErrNilSlice)
	}

	nk := len(s)
	if p.dim > 1 && len(t) != nk {
		return fmt.Errorf("%w: t has %d entries, want %d", ErrLengthMismatch, len(t), nk)
	}
	if p.dim > 2 && len(u) != nk {
		return fmt.Errorf("%w: u has %d entries, want %d", ErrLengthMismatch, len(u), nk)
	}

	nj := len(x)
	src := [3][]float64{x, y, z}
	trg := [3][]float64{s, t, u}

	var t3 t3Params
	nf := [3]int{1, 1, 1}

	for d := 0; d < p.dim; d++ {
		t3.C[d], t3.X[d] = centerHalfWidth(src[d])
		t3.D[d], t3.S[d] = centerHalfWidth(trg[d])

		var err error
		nf[d], t3.h[d], t3.gam[d], err = p.t3GridSize(t3.S[d], t3.X[d])
		if err != nil {
			return err
		}
	}

	nfTotal := nf[0] * nf[1] * nf[2]
	if int64(nfTotal)*int64(p.batchSize) > math.MaxGridTotal {
		return fmt.Errorf("%w: %d grid points times batch %d", ErrGridTooLarge, nfTotal, p.batchSize)
	}

	if p.opts.Debug > 0 {
		p.log.Info().
			Int("dim", p.dim).Int("nj", nj).Int("nk", nk).
			Ints("grid", nf[:p.dim]).
			Msg("set points type 3")
	}

	// rescale sources into the plan-owned arrays
	var scaled [3][]float64
	for d := 0; d < p.dim; d++ {
		scaled[d] = make([]float64, nj)
		for i, v := range src[d] {
			scaled[d][i] = (v - t3.C[d]) / t3.gam[d]
		}
	}

	// rescale targets to fine-grid frequency units
	var scaledTrg [3][]float64
	for d := 0; d < p.dim; d++ {
		scaledTrg[d] = make([]float64, nk)
		for k, v := range trg[d] {
			scaledTrg[d][k] = t3.h[d] * t3.gam[d] * (v - t3.D[d])
		}
	}

	// window transform at the targets, product across dimensions
	phiHat := make([]float64, nk)
	tmp := make([]float64, nk)
	for d := 0; d < p.dim; d++ {
		p.kp.FourierAtFreqs(scaledTrg[d], tmp)
		if d == 0 {
			copy(phiHat, tmp)
			continue
		}
		for k := range phiHat {
			phiHat[k] *= tmp[k]
		}
	}

	// post factor: divide by the window transform, phase by the source
	// center when it is nonzero and finite
	cShift := false
	cFinite := true
	for d := 0; d < p.dim; d++ {
		cShift = cShift || t3.C[d] != 0
		cFinite = cFinite && !stdmath.IsInf(t3.C[d], 0) && !stdmath.IsNaN(t3.C[d])
	}

	postFac := make([]complex128, nk)
	for k := range postFac {
		fac := complex(1/phiHat[k], 0)
		if cShift && cFinite {
			arg := 0.0
			for d := 0; d < p.dim; d++ {
				arg += (trg[d][k] - t3.D[d]) * t3.C[d]
			}
			fac *= cmplx.Exp(complex(0, float64(p.sign)*arg))
		}
		postFac[k] = fac
	}

	// pre phase: applied to the source weights when the target center is
	// shifted away from zero
	var prePhase []complex128
	dShift := false
	for d := 0; d < p.dim; d++ {
		dShift = dShift || t3.D[d] != 0
	}
	if dShift {
		prePhase = make([]complex128, nj)
		for i := range prePhase {
			arg := 0.0
			for d := 0; d < p.dim; d++ {
				arg += t3.D[d] * src[d][i]
			}
			prePhase[i] = cmplx.Exp(complex(0, float64(p.sign)*arg))
		}
	}

	// sort the rescaled sources for spreading
	sortIdx := make([]int, nj)
	didSort := spread.Sort(sortIdx, nf[0], nf[1], nf[2],
		scaled[0], scaled[1], scaled[2], p.spreadOptsT3())

	// inner type-2 plan shares the batch size and consumes fw slabs in
	// the fine grid's wrapped FFT ordering
	innerOpts := p.opts
	innerOpts.ModeOrder = ModeOrderFFT
	innerOpts.CheckBounds = false

	inner, err := MakePlan(Type2, p.dim, nf, p.sign, p.batchSize, p.tol, p.batchSize, &innerOpts)
	if err != nil && !IsWarning(err) {
		return err
	}

	if err := inner.SetPoints(scaledTrg[0], scaledTrg[1], scaledTrg[2], nil, nil, nil); err != nil {
		inner.Destroy()
		return err
	}

	// commit
	p.nj = nj
	p.nk = nk
	p.t3 = t3
	p.nf1, p.nf2, p.nf3 = nf[0], nf[1], nf[2]
	p.x, p.y, p.z = scaled[0], scaled[1], scaled[2]
	p.s, p.t, p.u = s, t, u
	p.sortIdx = sortIdx
	p.didSort = didSort
	p.phiHat = phiHat
	p.postFac = postFac
	p.prePhase = prePhase
	p.fw = make([]complex128, nfTotal*p.batchSize)
	p.cWork = make([]complex128, nj*p.batchSize)
	p.inner = inner
	p.pointsSet = true

	return nil
}

// spreadOptsT3 is spreadOpts for the rescaled type-3 sources; bounds
// checking is moot because the rescale puts every source inside the grid.
func (p *Plan) spreadOptsT3() spread.Opts {
	o := p.spreadOpts(p.opts.MaxThreads)
	o.CheckBounds = false

	return o
}
