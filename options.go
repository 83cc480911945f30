package algonufft

import (
	"runtime"

	"github.com/cwbudde/algo-nufft/internal/cpu"
)

// SortMode controls pre-sorting of the non-uniform points.
type SortMode int

const (
	// SortNever uses the caller's point order unchanged.
	SortNever SortMode = iota

	// SortAlways bucket-sorts points by fine-grid tile.
	SortAlways

	// SortAuto sorts when the problem shape makes it pay off.
	SortAuto
)

// KernelEval selects the spreading-window evaluator.
type KernelEval int

const (
	// KernelEvalDirect evaluates the window's exponential directly.
	KernelEvalDirect KernelEval = iota

	// KernelEvalHorner evaluates a precomputed piecewise-polynomial fit,
	// typically faster at identical accuracy.
	KernelEvalHorner
)

// PlanEffort trades FFT planning time against execution speed.
type PlanEffort int

const (
	// EffortEstimate plans quickly; per-worker transforms materialize on
	// first use.
	EffortEstimate PlanEffort = iota

	// EffortMeasure does all transform setup at plan time.
	EffortMeasure
)

// ModeOrder selects the layout of the user's Fourier-coefficient arrays.
type ModeOrder int

const (
	// ModeOrderCMCL indexes modes from -m/2 to ceil(m/2)-1, increasing.
	ModeOrderCMCL ModeOrder = iota

	// ModeOrderFFT indexes modes 0..m-1, positive frequencies first, then
	// the negative ones wrapped.
	ModeOrderFFT
)

// ThreadScheme picks how a batch of transforms maps onto threads.
type ThreadScheme int

const (
	// ThreadAuto chooses between the schemes below from the batch shape.
	ThreadAuto ThreadScheme = iota

	// ThreadSeqOuter runs the batch loop sequentially; each spread or
	// interpolation call uses all threads.
	ThreadSeqOuter

	// ThreadParOuter runs one goroutine per transform in the batch with
	// single-threaded inner kernels.
	ThreadParOuter

	// ThreadNested runs goroutines per transform, each subdividing the
	// remaining threads inward.
	ThreadNested
)

// Options collects the user-tunable behavior of a plan. The zero value is
// not ready for use; start from DefaultOptions.
type Options struct {
	// Debug enables timing output: 0 silent, 1 per-stage timings.
	Debug int

	// SpreadDebug (0, 1 or 2) is passed to the spreader's options; the
	// spreader writes no log output at any level.
	SpreadDebug int

	// SpreadSort controls point pre-sorting.
	SpreadSort SortMode

	// KernelEval selects direct or piecewise-polynomial window evaluation.
	KernelEval KernelEval

	// KernelPad rounds the stencil width up to a multiple of four.
	// DefaultOptions enables it when the host's vector unit has at least
	// four float64 lanes.
	KernelPad bool

	// CheckBounds verifies points lie in [-3pi, 3pi] during SetPoints.
	CheckBounds bool

	// FFTEffort trades planning time for execution speed.
	FFTEffort PlanEffort

	// ModeOrder selects CMCL or FFT-style coefficient layout.
	ModeOrder ModeOrder

	// UpsampleFactor is the fine-grid oversampling sigma, 2.0 or 1.25.
	UpsampleFactor float64

	// SpreadThread picks the batch threading scheme.
	SpreadThread ThreadScheme

	// MaxBatchSize caps the automatically chosen batch size (used when
	// MakePlan's batchSize is 0); 0 means no cap.
	MaxBatchSize int

	// MaxThreads caps worker goroutines; 0 uses GOMAXPROCS.
	MaxThreads int
}

// DefaultOptions returns the recommended configuration.
func DefaultOptions() Options {
	return Options{
		SpreadSort:     SortAuto,
		KernelEval:     KernelEvalHorner,
		KernelPad:      cpu.DetectFeatures().VectorLanes >= 4,
		CheckBounds:    true,
		FFTEffort:      EffortEstimate,
		ModeOrder:      ModeOrderCMCL,
		UpsampleFactor: 2.0,
		SpreadThread:   ThreadAuto,
	}
}

// normalize fills unset fields the way the planner expects them.
func (o Options) normalize() Options {
	if o.UpsampleFactor == 0 {
		o.UpsampleFactor = 2.0
	}

	if o.MaxThreads < 1 {
		o.MaxThreads = runtime.GOMAXPROCS(0)
	}

	return o
}
