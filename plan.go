package algonufft

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-nufft/internal/fft"
	"github.com/cwbudde/algo-nufft/internal/kernel"
	"github.com/cwbudde/algo-nufft/internal/logger"
	"github.com/cwbudde/algo-nufft/internal/math"
)

// Transform identifies the transform kind a plan computes.
type Transform int

const (
	// Type1 maps non-uniform samples to uniform-grid mode coefficients.
	Type1 Transform = 1

	// Type2 maps uniform-grid mode coefficients to non-uniform samples.
	Type2 Transform = 2

	// Type3 maps non-uniform samples to coefficients at non-uniform
	// target frequencies.
	Type3 Transform = 3
)

// Batches larger than this stop paying for themselves; it also bounds the
// fine-grid scratch, which grows linearly with the batch size.
const maxUsefulBatch = 24

// t3Params holds the shift/scale reduction of a type-3 problem: source
// center C and half-width X, target center D and half-width S, the
// coordinate rescale gam and fine-grid spacing h, all per dimension.
type t3Params struct {
	C, X, D, S, gam, h [3]float64
}

// Plan holds all precomputed state for one transform shape: grid sizes,
// window parameters, the window's Fourier series, sorted point indices, a
// batched FFT plan and, for type 3, a nested inner type-2 plan.
//
// A plan is immutable after MakePlan apart from point binding via
// SetPoints. It may be executed any number of times.
type Plan struct {
	kind      Transform
	dim       int
	nTransf   int
	batchSize int
	tol       float64
	sign      int
	opts      Options
	kp        kernel.Params

	ms, mt, mu    int
	nf1, nf2, nf3 int

	phiHat  []float64
	fw      []complex128
	fftPlan *fft.Plan

	nj      int
	x, y, z []float64 // borrowed for types 1/2; owned rescaled copies for type 3
	sortIdx []int
	didSort bool

	// type 3 only
	nk       int
	s, t, u  []float64 // borrowed
	t3       t3Params
	inner    *Plan
	prePhase []complex128 // per-point source phase, nil when no shift
	postFac  []complex128 // per-target 1/phiHat times target phase
	cWork    []complex128 // pre-phased weights for one batch

	pointsSet bool
	destroyed bool

	log zerolog.Logger
}

// MakePlan creates a plan for nTransforms transforms of the given kind and
// dimension. nModes gives the requested mode counts per dimension (entries
// beyond dim are ignored; type 3 ignores all of them). sign selects the
// exponent sign in every complex exponential of the transform. batchSize
// caps the transforms processed per FFT call; 0 picks a default.
//
// A nil opts uses DefaultOptions. The returned error may wrap
// WarnEpsilonTooSmall, in which case the plan is still valid and the
// tolerance has been clamped; test with IsWarning.
func MakePlan(kind Transform, dim int, nModes [3]int, sign int, nTransforms int, tol float64, batchSize int, opts *Options) (*Plan, error) {
	if kind != Type1 && kind != Type2 && kind != Type3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, kind)
	}

	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDim, dim)
	}

	if nTransforms < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTransformCount, nTransforms)
	}

	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	o = o.normalize()

	if o.UpsampleFactor != 2.0 && o.UpsampleFactor != 1.25 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidUpsampleFactor, o.UpsampleFactor)
	}

	method := kernel.EvalDirect
	if o.KernelEval == KernelEvalHorner {
		method = kernel.EvalHorner
	}

	kp, kerr := kernel.Setup(tol, o.UpsampleFactor, method, o.KernelPad, 4)
	var warn error
	switch {
	case kerr == nil:
	case errors.Is(kerr, kernel.ErrTolClamped):
		warn = WarnEpsilonTooSmall
	case errors.Is(kerr, kernel.ErrUpsampleFactor):
		return nil, fmt.Errorf("%w: %g", ErrInvalidUpsampleFactor, o.UpsampleFactor)
	default:
		return nil, kerr
	}

	if sign >= 0 {
		sign = 1
	} else {
		sign = -1
	}

	if batchSize <= 0 {
		batchSize = minInt(o.MaxThreads, maxUsefulBatch)
		if o.MaxBatchSize > 0 {
			batchSize = minInt(batchSize, o.MaxBatchSize)
		}
	}
	batchSize = minInt(batchSize, nTransforms)

	p := &Plan{
		kind:      kind,
		dim:       dim,
		nTransf:   nTransforms,
		batchSize: batchSize,
		tol:       tol,
		sign:      sign,
		opts:      o,
		kp:        kp,
		ms:        1, mt: 1, mu: 1,
		nf1: 1, nf2: 1, nf3: 1,
		log: logger.Logger().With().Str("component", "nufft").Logger(),
	}

	if kind == Type3 {
		// grid sizes and the inner type-2 plan depend on the point and
		// target spreads; everything is built in SetPoints
		return p, warn
	}

	modes := [3]int{1, 1, 1}
	nf := [3]int{1, 1, 1}
	for d := 0; d < dim; d++ {
		if nModes[d] < 1 {
			return nil, fmt.Errorf("%w: dimension %d has %d modes", ErrInvalidModeCount, d, nModes[d])
		}
		modes[d] = nModes[d]

		var ok bool
		nf[d], ok = math.GridSize(modes[d], o.UpsampleFactor, kp.Width)
		if !ok {
			return nil, fmt.Errorf("%w: dimension %d", ErrGridTooLarge, d)
		}
	}

	p.ms, p.mt, p.mu = modes[0], modes[1], modes[2]
	p.nf1, p.nf2, p.nf3 = nf[0], nf[1], nf[2]

	nfTotal := p.nf1 * p.nf2 * p.nf3
	if int64(nfTotal)*int64(batchSize) > math.MaxGridTotal {
		return nil, fmt.Errorf("%w: %d grid points times batch %d", ErrGridTooLarge, nfTotal, batchSize)
	}

	start := time.Now()
	p.phiHat = make([]float64, phiHatLen(nf, dim))
	off := 0
	for d := 0; d < dim; d++ {
		kp.FourierSeries(nf[d], p.phiHat[off:off+nf[d]/2+1])
		off += nf[d]/2 + 1
	}

	if o.Debug > 0 {
		p.log.Info().
			Int("dim", dim).Int("type", int(kind)).
			Ints("modes", modes[:dim]).Ints("grid", nf[:dim]).
			Int("width", kp.Width).Int("batch", batchSize).
			Dur("kernel_fser", time.Since(start)).
			Msg("plan")
	}

	p.fw = make([]complex128, nfTotal*batchSize)

	start = time.Now()
	fftPlan, err := fft.NewPlan(fftDims(nf, dim), batchSize, p.fw, sign, fftEffort(o.FFTEffort))
	if err != nil {
		p.phiHat = nil
		p.fw = nil
		return nil, fmt.Errorf("algonufft: fft planning: %w", err)
	}
	p.fftPlan = fftPlan

	if o.Debug > 0 {
		p.log.Info().Dur("fft_plan", time.Since(start)).Msg("plan")
	}

	return p, warn
}

// phiHatLen is the concatenated half-spectrum length over the used dims.
func phiHatLen(nf [3]int, dim int) int {
	n := 0
	for d := 0; d < dim; d++ {
		n += nf[d]/2 + 1
	}

	return n
}

// fftDims lists the grid sizes row-major with the fastest axis last.
func fftDims(nf [3]int, dim int) []int {
	dims := make([]int, dim)
	for d := 0; d < dim; d++ {
		dims[dim-1-d] = nf[d]
	}

	return dims
}

func fftEffort(e PlanEffort) fft.Effort {
	if e == EffortMeasure {
		return fft.EffortMeasure
	}

	return fft.EffortEstimate
}

// phiHatDim returns the half-spectrum slice of dimension d.
func (p *Plan) phiHatDim(d int) []float64 {
	off := 0
	nf := [3]int{p.nf1, p.nf2, p.nf3}
	for i := 0; i < d; i++ {
		off += nf[i]/2 + 1
	}

	return p.phiHat[off : off+nf[d]/2+1]
}

// Type returns the transform kind.
func (p *Plan) Type() Transform { return p.kind }

// Dim returns the dimension.
func (p *Plan) Dim() int { return p.dim }

// NumTransforms returns how many transforms share the plan's points.
func (p *Plan) NumTransforms() int { return p.nTransf }

// BatchSize returns the number of transforms per FFT call.
func (p *Plan) BatchSize() int { return p.batchSize }

// Tolerance returns the requested relative tolerance.
func (p *Plan) Tolerance() float64 { return p.tol }

// Sign returns +1 or -1, the exponent sign used in the transform.
func (p *Plan) Sign() int { return p.sign }

// NumModes returns the mode counts per dimension; unused dims report 1.
func (p *Plan) NumModes() [3]int { return [3]int{p.ms, p.mt, p.mu} }

// GridSize returns the fine-grid sizes per dimension; unused dims report 1.
func (p *Plan) GridSize() [3]int { return [3]int{p.nf1, p.nf2, p.nf3} }

// KernelWidth returns the spreading-window stencil width.
func (p *Plan) KernelWidth() int { return p.kp.Width }

// NumPoints returns the number of bound non-uniform points, 0 before
// SetPoints.
func (p *Plan) NumPoints() int { return p.nj }

// NumTargets returns the number of type-3 target frequencies, 0 otherwise.
func (p *Plan) NumTargets() int { return p.nk }

// Destroy releases everything the plan owns: the FFT plan, the fine-grid
// scratch, the window spectra, sort indices, any owned rescaled point
// arrays and the inner type-3 plan. It is idempotent; a second call is a
// no-op. Using the plan afterwards returns ErrPlanDestroyed.
func (p *Plan) Destroy() error {
	if p.destroyed {
		return nil
	}
	p.destroyed = true

	if p.fftPlan != nil {
		p.fftPlan.Destroy()
		p.fftPlan = nil
	}

	p.fw = nil
	p.phiHat = nil
	p.sortIdx = nil
	p.x, p.y, p.z = nil, nil, nil
	p.s, p.t, p.u = nil, nil, nil
	p.prePhase = nil
	p.postFac = nil
	p.cWork = nil

	if p.inner != nil {
		p.inner.Destroy()
		p.inner = nil
	}

	p.pointsSet = false

	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
