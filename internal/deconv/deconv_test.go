package deconv

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randModes(rng *rand.Rand, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	return out
}

func flatKer(n int) []float64 {
	ker := make([]float64, n/2+1)
	for i := range ker {
		ker[i] = 1
	}

	return ker
}

func TestShuffle1DGridToModes(t *testing.T) {
	t.Parallel()

	const ms, nf1 = 4, 16

	fw := make([]complex128, nf1)
	for i := range fw {
		fw[i] = complex(float64(i), 0)
	}

	ker := []float64{2, 4, 8, 16, 16, 16, 16, 16, 16}
	fk := make([]complex128, ms)

	Shuffle1D(DirGridToModes, 1.0, ker, ms, fk, nf1, fw, OrderCMCL)

	// CMCL layout: fk = [k=-2, k=-1, k=0, k=1]
	require.InDelta(t, 14.0/8, real(fk[0]), 1e-15) // fw[14]/ker[2]
	require.InDelta(t, 15.0/4, real(fk[1]), 1e-15) // fw[15]/ker[1]
	require.InDelta(t, 0.0/2, real(fk[2]), 1e-15)  // fw[0]/ker[0]
	require.InDelta(t, 1.0/4, real(fk[3]), 1e-15)  // fw[1]/ker[1]

	// FFT layout: fk = [k=0, k=1, k=-2, k=-1]
	Shuffle1D(DirGridToModes, 1.0, ker, ms, fk, nf1, fw, OrderFFT)
	require.InDelta(t, 0.0, real(fk[0]), 1e-15)
	require.InDelta(t, 1.0/4, real(fk[1]), 1e-15)
	require.InDelta(t, 14.0/8, real(fk[2]), 1e-15)
	require.InDelta(t, 15.0/4, real(fk[3]), 1e-15)
}

func TestShuffle1DModesToGridZeroPads(t *testing.T) {
	t.Parallel()

	const ms, nf1 = 5, 12

	fk := []complex128{1, 2, 3, 4, 5} // CMCL modes -2..2
	fw := make([]complex128, nf1)
	for i := range fw {
		fw[i] = complex(99, 99) // stale data that must be cleared
	}

	Shuffle1D(DirModesToGrid, 1.0, flatKer(nf1), ms, fk, nf1, fw, OrderCMCL)

	require.Equal(t, complex128(3), fw[0])  // k=0
	require.Equal(t, complex128(4), fw[1])  // k=1
	require.Equal(t, complex128(5), fw[2])  // k=2
	require.Equal(t, complex128(1), fw[10]) // k=-2
	require.Equal(t, complex128(2), fw[11]) // k=-1

	for g := 3; g < 10; g++ {
		require.Equal(t, complex128(0), fw[g], "g=%d", g)
	}
}

func TestShuffleRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))

	cases := []struct {
		name          string
		ms, mt, mu    int
		nf1, nf2, nf3 int
		order         int
	}{
		{name: "1d even cmcl", ms: 8, mt: 1, mu: 1, nf1: 24, nf2: 1, nf3: 1, order: OrderCMCL},
		{name: "1d odd fft", ms: 7, mt: 1, mu: 1, nf1: 18, nf2: 1, nf3: 1, order: OrderFFT},
		{name: "2d cmcl", ms: 6, mt: 4, mu: 1, nf1: 16, nf2: 12, nf3: 1, order: OrderCMCL},
		{name: "2d fft", ms: 5, mt: 5, mu: 1, nf1: 16, nf2: 12, nf3: 1, order: OrderFFT},
		{name: "3d cmcl", ms: 4, mt: 3, mu: 5, nf1: 12, nf2: 10, nf3: 12, order: OrderCMCL},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ker1 := make([]float64, c.nf1/2+1)
			ker2 := make([]float64, c.nf2/2+1)
			ker3 := make([]float64, c.nf3/2+1)
			for _, ker := range [][]float64{ker1, ker2, ker3} {
				for i := range ker {
					ker[i] = 0.5 + rng.Float64()
				}
			}

			nModes := c.ms * c.mt * c.mu
			fk := randModes(rng, nModes)
			fw := make([]complex128, c.nf1*c.nf2*c.nf3)
			back := make([]complex128, nModes)

			// modes -> grid divides by ker; grid -> modes divides again,
			// so scale by ker^2 via prefac-free double application and
			// compare against dividing twice.
			switch {
			case c.mu > 1:
				Shuffle3D(DirModesToGrid, 1.0, ker1, ker2, ker3, c.ms, c.mt, c.mu, fk, c.nf1, c.nf2, c.nf3, fw, c.order)
				Shuffle3D(DirGridToModes, 1.0, ker1, ker2, ker3, c.ms, c.mt, c.mu, back, c.nf1, c.nf2, c.nf3, fw, c.order)
			case c.mt > 1:
				Shuffle2D(DirModesToGrid, 1.0, ker1, ker2, c.ms, c.mt, fk, c.nf1, c.nf2, fw, c.order)
				Shuffle2D(DirGridToModes, 1.0, ker1, ker2, c.ms, c.mt, back, c.nf1, c.nf2, fw, c.order)
			default:
				Shuffle1D(DirModesToGrid, 1.0, ker1, c.ms, fk, c.nf1, fw, c.order)
				Shuffle1D(DirGridToModes, 1.0, ker1, c.ms, back, c.nf1, fw, c.order)
			}

			// reconstruct expected: each mode divided twice by the kernel
			// product over the dimensions the shuffle above actually uses
			idx := 0
			for k3 := -c.mu / 2; k3 <= (c.mu-1)/2; k3++ {
				for k2 := -c.mt / 2; k2 <= (c.mt-1)/2; k2++ {
					for k1 := -c.ms / 2; k1 <= (c.ms-1)/2; k1++ {
						i := modeIndex(k1, c.ms, c.order) +
							c.ms*modeIndex(k2, c.mt, c.order) +
							c.ms*c.mt*modeIndex(k3, c.mu, c.order)

						den := ker1[abs(k1)]
						if c.mu > 1 || c.mt > 1 {
							den *= ker2[abs(k2)]
						}
						if c.mu > 1 {
							den *= ker3[abs(k3)]
						}
						want := fk[i] / complex(den*den, 0)

						require.InDelta(t, real(want), real(back[i]), 1e-12, "mode %d", idx)
						require.InDelta(t, imag(want), imag(back[i]), 1e-12, "mode %d", idx)
						idx++
					}
				}
			}
		})
	}
}

func TestModeIndexRoundTrip(t *testing.T) {
	t.Parallel()

	for _, m := range []int{1, 2, 3, 8, 9} {
		seenCMCL := map[int]bool{}
		seenFFT := map[int]bool{}

		for k := -m / 2; k <= (m-1)/2; k++ {
			ic := modeIndex(k, m, OrderCMCL)
			require.GreaterOrEqual(t, ic, 0)
			require.Less(t, ic, m)
			require.False(t, seenCMCL[ic], "m=%d k=%d", m, k)
			seenCMCL[ic] = true

			if_ := modeIndex(k, m, OrderFFT)
			require.GreaterOrEqual(t, if_, 0)
			require.Less(t, if_, m)
			require.False(t, seenFFT[if_], "m=%d k=%d", m, k)
			seenFFT[if_] = true
		}
	}
}
