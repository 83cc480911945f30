// Package spread scatters weighted non-uniform point values onto an
// oversampled uniform grid through a compact window stencil, and gathers
// grid values back to points through the same stencil.
//
// Scatter works on sorted points decomposed into subproblems: each worker
// spreads its points into a private subgrid covering their bounding box,
// then merges the subgrid into the shared fine grid with periodic wrapping
// under a lock. Workers therefore never race on the fine grid, and the
// wrap-around handling stays out of the hot loop.
package spread

import (
	"errors"
	"fmt"
	stdmath "math"
	"sync"

	"github.com/cwbudde/algo-nufft/internal/kernel"
	"github.com/cwbudde/algo-nufft/internal/math"
	"github.com/cwbudde/algo-nufft/internal/parallel"
)

// Sort policies.
const (
	SortNever  = 0
	SortAlways = 1
	SortAuto   = 2
)

// DefaultMaxSubproblemSize bounds the number of points a single scatter
// subproblem handles, which in turn bounds its private subgrid.
const DefaultMaxSubproblemSize = 10_000

// ErrPointsOutOfRange is returned when a point cannot be folded onto the
// fine grid. With bounds checking enabled it is reported by Check; without
// it, the scatter and gather loops detect it on the fly.
var ErrPointsOutOfRange = errors.New("spread: non-uniform point outside [-3pi, 3pi]")

// Opts configures a scatter or gather pass.
type Opts struct {
	Kernel kernel.Params
	Dim    int

	Sort        int // SortNever, SortAlways or SortAuto
	CheckBounds bool
	Debug       int

	// MaxThreads is the number of goroutines this call may use; 1 forces a
	// fully sequential pass (used when the caller parallelizes across
	// transforms instead).
	MaxThreads int

	MaxSubproblemSize int
}

func (o Opts) threads() int {
	if o.MaxThreads < 1 {
		return 1
	}

	return o.MaxThreads
}

func (o Opts) maxSubproblemSize() int {
	if o.MaxSubproblemSize < 1 {
		return DefaultMaxSubproblemSize
	}

	return o.MaxSubproblemSize
}

// coord returns the d-th coordinate array among x, y, z.
func coord(d int, x, y, z []float64) []float64 {
	switch d {
	case 0:
		return x
	case 1:
		return y
	default:
		return z
	}
}

// Check verifies that every coordinate lies in the fold-safe range
// [-3pi, 3pi]. A nil coordinate array is an unused dimension.
func Check(dim int, x, y, z []float64, checkBounds bool) error {
	if !checkBounds {
		return nil
	}

	const lim = 3*math.Pi + 1e-12
	for d := 0; d < dim; d++ {
		for i, v := range coord(d, x, y, z) {
			if v < -lim || v > lim || stdmath.IsNaN(v) {
				return fmt.Errorf("%w: coordinate %d of point %d is %g", ErrPointsOutOfRange, d, i, v)
			}
		}
	}

	return nil
}

// stencilStart returns the leftmost stencil index i1 and the window
// argument x1 = i1 - xi in [-w/2, -w/2+1) for a grid coordinate xi.
func stencilStart(xi, halfWidth float64) (int, float64) {
	i1 := int(stdmath.Ceil(xi - halfWidth))
	return i1, float64(i1) - xi
}

// wrapIndices fills out[l] = (offset + l) mod nf for l = 0..len(out)-1.
func wrapIndices(out []int, offset, nf int) {
	g := offset % nf
	if g < 0 {
		g += nf
	}

	for l := range out {
		out[l] = g
		g++
		if g == nf {
			g = 0
		}
	}
}

// Spread scatters c[j] onto fw for every point, iterating in sortIdx order.
// fw has nf1*nf2*nf3 entries with the first dimension fastest and is
// overwritten (not accumulated into).
func Spread(sortIdx []int, nf1, nf2, nf3 int, fw []complex128, x, y, z []float64, c []complex128, o Opts) error {
	nj := len(x)

	for i := range fw {
		fw[i] = 0
	}

	if nj == 0 {
		return nil
	}

	maxSub := o.maxSubproblemSize()
	nSub := (nj + maxSub - 1) / maxSub
	nthr := o.threads()
	if nthr > nSub {
		nthr = nSub
	}

	var (
		mu   sync.Mutex
		errs = make([]error, nSub)
	)

	parallel.ExecuteN(0, nSub, nthr, func(_, start, end int) {
		for sub := start; sub < end; sub++ {
			lo := sub * maxSub
			hi := lo + maxSub
			if hi > nj {
				hi = nj
			}

			errs[sub] = spreadSubproblem(sortIdx[lo:hi], nf1, nf2, nf3, fw, x, y, z, c, o, &mu)
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// spreadSubproblem handles one contiguous chunk of the sorted points.
func spreadSubproblem(idx []int, nf1, nf2, nf3 int, fw []complex128, x, y, z []float64, c []complex128, o Opts, mu *sync.Mutex) error {
	dim := o.Dim
	kp := o.Kernel
	pw := kp.PaddedWidth
	np := len(idx)

	nf := [3]int{nf1, nf2, nf3}

	// fold all coordinates up front and find the bounding box
	xi := make([][]float64, dim)
	var lo, hi [3]float64
	for d := 0; d < dim; d++ {
		src := coord(d, x, y, z)
		xi[d] = make([]float64, np)
		lo[d] = stdmath.Inf(1)
		hi[d] = stdmath.Inf(-1)

		for p, j := range idx {
			v := math.FoldRescale(src[j], nf[d])
			if v < 0 || v > float64(nf[d]) {
				return fmt.Errorf("%w: coordinate %d of point %d", ErrPointsOutOfRange, d, j)
			}

			xi[d][p] = v
			lo[d] = stdmath.Min(lo[d], v)
			hi[d] = stdmath.Max(hi[d], v)
		}
	}

	// private subgrid covering every stencil in this chunk
	var offset, size [3]int
	for d := 0; d < 3; d++ {
		if d >= dim {
			offset[d], size[d] = 0, 1
			continue
		}

		first, _ := stencilStart(lo[d], kp.HalfWidth)
		last, _ := stencilStart(hi[d], kp.HalfWidth)
		offset[d] = first
		size[d] = last + pw - first
	}

	du := make([]complex128, size[0]*size[1]*size[2])

	ker1 := make([]float64, pw)
	ker2 := make([]float64, pw)
	ker3 := make([]float64, pw)

	for p, j := range idx {
		i1, x1 := stencilStart(xi[0][p], kp.HalfWidth)
		l1 := i1 - offset[0]
		kp.EvalStencil(ker1, x1)

		cj := c[j]

		switch dim {
		case 1:
			for a := 0; a < pw; a++ {
				du[l1+a] += cj * complex(ker1[a], 0)
			}

		case 2:
			i2, x2 := stencilStart(xi[1][p], kp.HalfWidth)
			l2 := i2 - offset[1]
			kp.EvalStencil(ker2, x2)

			for b := 0; b < pw; b++ {
				cv := cj * complex(ker2[b], 0)
				row := du[(l2+b)*size[0]+l1:]
				for a := 0; a < pw; a++ {
					row[a] += cv * complex(ker1[a], 0)
				}
			}

		default:
			i2, x2 := stencilStart(xi[1][p], kp.HalfWidth)
			i3, x3 := stencilStart(xi[2][p], kp.HalfWidth)
			l2 := i2 - offset[1]
			l3 := i3 - offset[2]
			kp.EvalStencil(ker2, x2)
			kp.EvalStencil(ker3, x3)

			for q := 0; q < pw; q++ {
				cq := cj * complex(ker3[q], 0)
				for b := 0; b < pw; b++ {
					cv := cq * complex(ker2[b], 0)
					row := du[((l3+q)*size[1]+l2+b)*size[0]+l1:]
					for a := 0; a < pw; a++ {
						row[a] += cv * complex(ker1[a], 0)
					}
				}
			}
		}
	}

	// merge the subgrid into fw with periodic wrapping
	w1 := make([]int, size[0])
	w2 := make([]int, size[1])
	w3 := make([]int, size[2])
	wrapIndices(w1, offset[0], nf1)
	wrapIndices(w2, offset[1], nf2)
	wrapIndices(w3, offset[2], nf3)

	mu.Lock()
	defer mu.Unlock()

	for l3 := 0; l3 < size[2]; l3++ {
		g3 := w3[l3] * nf1 * nf2
		for l2 := 0; l2 < size[1]; l2++ {
			base := g3 + w2[l2]*nf1
			src := du[(l3*size[1]+l2)*size[0]:]
			for l1 := 0; l1 < size[0]; l1++ {
				fw[base+w1[l1]] += src[l1]
			}
		}
	}

	return nil
}
