package spread

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-nufft/internal/kernel"
	nmath "github.com/cwbudde/algo-nufft/internal/math"
)

func testOpts(t *testing.T, dim int, tol float64) Opts {
	t.Helper()

	kp, err := kernel.Setup(tol, 2.0, kernel.EvalDirect, false, 0)
	require.NoError(t, err)

	return Opts{
		Kernel:     kp,
		Dim:        dim,
		Sort:       SortAlways,
		MaxThreads: 4,
	}
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	return idx
}

func TestCheckBounds(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, -3 * math.Pi, 3 * math.Pi}
	require.NoError(t, Check(1, x, nil, nil, true))

	bad := []float64{0, 3.2 * math.Pi}
	err := Check(1, bad, nil, nil, true)
	require.ErrorIs(t, err, ErrPointsOutOfRange)

	// disabled check passes anything
	require.NoError(t, Check(1, bad, nil, nil, false))
}

func TestSortIsPermutation(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	const nj, nf = 5000, 64

	x := make([]float64, nj)
	y := make([]float64, nj)
	for i := range x {
		x[i] = -math.Pi + 2*math.Pi*rng.Float64()
		y[i] = -math.Pi + 2*math.Pi*rng.Float64()
	}

	o := testOpts(t, 2, 1e-6)
	idx := make([]int, nj)
	didSort := Sort(idx, nf, nf, 1, x, y, nil, o)
	require.True(t, didSort)

	seen := make([]bool, nj)
	for _, j := range idx {
		require.False(t, seen[j], "index %d repeated", j)
		seen[j] = true
	}
}

func TestSortGroupsByTile(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(12))
	const nj, nf = 2000, 128

	x := make([]float64, nj)
	for i := range x {
		x[i] = -math.Pi + 2*math.Pi*rng.Float64()
	}

	o := testOpts(t, 1, 1e-6)
	idx := make([]int, nj)
	require.True(t, Sort(idx, nf, 1, 1, x, nil, nil, o))

	// tile ids must be non-decreasing along the sorted order
	prev := -1
	for _, j := range idx {
		tile := int(nmath.FoldRescale(x[j], nf)) / tileLead
		require.GreaterOrEqual(t, tile, prev)
		prev = tile
	}
}

func TestSortNeverIdentity(t *testing.T) {
	t.Parallel()

	o := testOpts(t, 1, 1e-6)
	o.Sort = SortNever

	x := []float64{2, -1, 0.5}
	idx := make([]int, len(x))
	require.False(t, Sort(idx, 32, 1, 1, x, nil, nil, o))
	require.Equal(t, []int{0, 1, 2}, idx)
}

func TestSortAutoSkipsOversampledSingleThread(t *testing.T) {
	t.Parallel()

	o := testOpts(t, 1, 1e-6)
	o.Sort = SortAuto
	o.MaxThreads = 1

	x := []float64{0.1, 0.2}
	idx := make([]int, len(x))
	require.False(t, Sort(idx, 32, 1, 1, x, nil, nil, o))
}

func TestSpreadSinglePoint1D(t *testing.T) {
	t.Parallel()

	const nf = 64
	o := testOpts(t, 1, 1e-8)
	kp := o.Kernel

	x := []float64{0.3}
	c := []complex128{2 + 1i}
	fw := make([]complex128, nf)

	require.NoError(t, Spread(identity(1), nf, 1, 1, fw, x, nil, nil, c, o))

	xi := nmath.FoldRescale(x[0], nf)
	i1 := int(math.Ceil(xi - kp.HalfWidth))

	for g := 0; g < nf; g++ {
		// distance from grid site to the point, accounting for wrap
		var want complex128
		for _, shift := range []int{-nf, 0, nf} {
			d := float64(g+shift) - xi
			if math.Abs(d) < kp.HalfWidth {
				want += c[0] * complex(kernelAt(kp, d), 0)
			}
		}

		require.InDelta(t, real(want), real(fw[g]), 1e-12, "g=%d i1=%d", g, i1)
		require.InDelta(t, imag(want), imag(fw[g]), 1e-12, "g=%d", g)
	}
}

// kernelAt mirrors the stencil evaluation at a single signed distance.
func kernelAt(kp kernel.Params, d float64) float64 {
	t := 1 - kp.C*d*d
	if t <= 0 {
		t = 0
	}

	return math.Exp(kp.Beta * (math.Sqrt(t) - 1))
}

func TestSpreadMassConservation2D(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(13))
	const nj, nf = 500, 48

	o := testOpts(t, 2, 1e-7)
	kp := o.Kernel

	x := make([]float64, nj)
	y := make([]float64, nj)
	c := make([]complex128, nj)
	for i := range x {
		x[i] = -math.Pi + 2*math.Pi*rng.Float64()
		y[i] = -math.Pi + 2*math.Pi*rng.Float64()
		c[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	idx := make([]int, nj)
	Sort(idx, nf, nf, 1, x, y, nil, o)

	fw := make([]complex128, nf*nf)
	require.NoError(t, Spread(idx, nf, nf, 1, fw, x, y, nil, c, o))

	// the periodic grid total equals the sum of every point's weighted
	// stencil mass; wrap-around never loses mass
	ker := make([]float64, kp.PaddedWidth)
	axisMass := func(v float64) float64 {
		xi := nmath.FoldRescale(v, nf)
		i1 := int(math.Ceil(xi - kp.HalfWidth))
		kp.EvalStencil(ker, float64(i1)-xi)

		var m float64
		for _, k := range ker {
			m += k
		}

		return m
	}

	var want complex128
	for i := range c {
		want += c[i] * complex(axisMass(x[i])*axisMass(y[i]), 0)
	}

	var gridSum complex128
	for _, v := range fw {
		gridSum += v
	}

	require.InDelta(t, real(want), real(gridSum), 1e-9*math.Max(1, cAbs(want)))
	require.InDelta(t, imag(want), imag(gridSum), 1e-9*math.Max(1, cAbs(want)))
}

func TestSpreadInterpAdjoint(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(14))

	for _, dim := range []int{1, 2, 3} {
		nf1, nf2, nf3 := 24, 1, 1
		if dim > 1 {
			nf2 = 18
		}
		if dim > 2 {
			nf3 = 12
		}

		const nj = 200
		o := testOpts(t, dim, 1e-5)

		x := make([]float64, nj)
		y := make([]float64, nj)
		z := make([]float64, nj)
		c := make([]complex128, nj)
		for i := 0; i < nj; i++ {
			x[i] = -math.Pi + 2*math.Pi*rng.Float64()
			y[i] = -math.Pi + 2*math.Pi*rng.Float64()
			z[i] = -math.Pi + 2*math.Pi*rng.Float64()
			c[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		}

		var yy, zz []float64
		if dim > 1 {
			yy = y
		}
		if dim > 2 {
			zz = z
		}

		n := nf1 * nf2 * nf3
		g := make([]complex128, n)
		for i := range g {
			g[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		}

		idx := make([]int, nj)
		Sort(idx, nf1, nf2, nf3, x, yy, zz, o)

		fw := make([]complex128, n)
		require.NoError(t, Spread(idx, nf1, nf2, nf3, fw, x, yy, zz, c, o))

		interp := make([]complex128, nj)
		require.NoError(t, Interp(idx, nf1, nf2, nf3, g, x, yy, zz, interp, o))

		// <Spread(c), g> == <c, Interp(g)> under the plain bilinear form
		var lhs, rhs complex128
		for i := range fw {
			lhs += fw[i] * g[i]
		}
		for j := range c {
			rhs += c[j] * interp[j]
		}

		scale := math.Max(1, cAbs(lhs))
		require.InDelta(t, real(lhs), real(rhs), 1e-9*scale, "dim=%d", dim)
		require.InDelta(t, imag(lhs), imag(rhs), 1e-9*scale, "dim=%d", dim)
	}
}

func cAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

func TestSpreadSortInvariance(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(15))
	const nj, nf = 1500, 60

	o := testOpts(t, 1, 1e-10)

	x := make([]float64, nj)
	c := make([]complex128, nj)
	for i := range x {
		x[i] = -math.Pi + 2*math.Pi*rng.Float64()
		c[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	idx := make([]int, nj)
	Sort(idx, nf, 1, 1, x, nil, nil, o)

	sorted := make([]complex128, nf)
	require.NoError(t, Spread(idx, nf, 1, 1, sorted, x, nil, nil, c, o))

	unsorted := make([]complex128, nf)
	require.NoError(t, Spread(identity(nj), nf, 1, 1, unsorted, x, nil, nil, c, o))

	for g := 0; g < nf; g++ {
		require.InDelta(t, real(sorted[g]), real(unsorted[g]), 1e-10, "g=%d", g)
		require.InDelta(t, imag(sorted[g]), imag(unsorted[g]), 1e-10, "g=%d", g)
	}
}

func TestSpreadOutOfRangePoint(t *testing.T) {
	t.Parallel()

	o := testOpts(t, 1, 1e-6)

	x := []float64{20 * math.Pi}
	c := []complex128{1}
	fw := make([]complex128, 32)

	err := Spread(identity(1), 32, 1, 1, fw, x, nil, nil, c, o)
	require.ErrorIs(t, err, ErrPointsOutOfRange)
}

func TestInterpImpulseGrid(t *testing.T) {
	t.Parallel()

	const nf = 48
	o := testOpts(t, 1, 1e-8)
	kp := o.Kernel

	// grid holding a single unit impulse at site 10
	fw := make([]complex128, nf)
	fw[10] = 1

	x := []float64{nmathInv(10.5, nf)}
	c := make([]complex128, 1)

	require.NoError(t, Interp(identity(1), nf, 1, 1, fw, x, nil, nil, c, o))

	// the gathered value is the window at distance 0.5
	require.InDelta(t, kernelAt(kp, 0.5), real(c[0]), 1e-12)
	require.InDelta(t, 0, imag(c[0]), 1e-15)
}

// nmathInv maps a fine-grid coordinate back to [-pi, pi).
func nmathInv(xi float64, nf int) float64 {
	x := xi / float64(nf) * 2 * math.Pi
	if x >= math.Pi {
		x -= 2 * math.Pi
	}

	return x
}
