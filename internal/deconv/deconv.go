// Package deconv divides Fourier-mode coefficients by the spreading
// window's Fourier series while translating between the user's mode
// ordering and the fine grid's wrapped FFT layout.
//
// Direction 1 reads the fine grid and writes user modes (type 1 output
// path); direction 2 reads user modes and writes the fine grid, zeroing
// the unused high-frequency band (type 2 input path). Both directions
// divide: interpolation convolves with the window once more, so the type-2
// input must be pre-amplified by the same reciprocal.
package deconv

// Mode orderings for the user-facing coefficient arrays.
const (
	// OrderCMCL indexes modes from -m/2 to ceil(m/2)-1, increasing.
	OrderCMCL = 0

	// OrderFFT indexes modes 0..m-1 with positive frequencies first, then
	// the negative ones wrapped.
	OrderFFT = 1
)

// Directions.
const (
	DirGridToModes = 1
	DirModesToGrid = 2
)

// modeIndex maps mode k (kmin <= k <= kmax) to its position in the user
// array of m entries under the given ordering.
func modeIndex(k, m, order int) int {
	if order == OrderFFT {
		if k < 0 {
			return k + m
		}
		return k
	}

	return k + m/2
}

// gridIndex maps mode k to its wrapped position on a fine grid of size nf.
func gridIndex(k, nf int) int {
	if k < 0 {
		return k + nf
	}

	return k
}

// Shuffle1D deconvolves between fk (ms user modes) and one fw line of
// length nf1. ker holds the window's Fourier series for k = 0..nf1/2;
// negative frequencies use its symmetry. prefac scales every output.
func Shuffle1D(dir int, prefac float64, ker []float64, ms int, fk []complex128, nf1 int, fw []complex128, order int) {
	kmin, kmax := -ms/2, (ms-1)/2

	for k := kmin; k <= kmax; k++ {
		i := modeIndex(k, ms, order)
		g := gridIndex(k, nf1)

		amp := complex(prefac/ker[abs(k)], 0)
		if dir == DirGridToModes {
			fk[i] = fw[g] * amp
		} else {
			fw[g] = fk[i] * amp
		}
	}

	if dir == DirModesToGrid {
		for g := kmax + 1; g < nf1+kmin; g++ {
			fw[g] = 0
		}
	}
}

// Shuffle2D deconvolves between fk (ms*mt user modes, ms fastest) and a
// fine grid fw of nf1*nf2 values (nf1 fastest).
func Shuffle2D(dir int, prefac float64, ker1, ker2 []float64, ms, mt int, fk []complex128, nf1, nf2 int, fw []complex128, order int) {
	kmin2, kmax2 := -mt/2, (mt-1)/2

	for k2 := kmin2; k2 <= kmax2; k2++ {
		i2 := modeIndex(k2, mt, order)
		g2 := gridIndex(k2, nf2)

		Shuffle1D(dir, prefac/ker2[abs(k2)], ker1, ms,
			fk[i2*ms:(i2+1)*ms], nf1, fw[g2*nf1:(g2+1)*nf1], order)
	}

	if dir == DirModesToGrid {
		for g2 := kmax2 + 1; g2 < nf2+kmin2; g2++ {
			row := fw[g2*nf1 : (g2+1)*nf1]
			for i := range row {
				row[i] = 0
			}
		}
	}
}

// Shuffle3D deconvolves between fk (ms*mt*mu user modes, ms fastest) and a
// fine grid fw of nf1*nf2*nf3 values (nf1 fastest).
func Shuffle3D(dir int, prefac float64, ker1, ker2, ker3 []float64, ms, mt, mu int, fk []complex128, nf1, nf2, nf3 int, fw []complex128, order int) {
	kmin3, kmax3 := -mu/2, (mu-1)/2

	for k3 := kmin3; k3 <= kmax3; k3++ {
		i3 := modeIndex(k3, mu, order)
		g3 := gridIndex(k3, nf3)

		Shuffle2D(dir, prefac/ker3[abs(k3)], ker1, ker2, ms, mt,
			fk[i3*ms*mt:(i3+1)*ms*mt], nf1, nf2, fw[g3*nf1*nf2:(g3+1)*nf1*nf2], order)
	}

	if dir == DirModesToGrid {
		for g3 := kmax3 + 1; g3 < nf3+kmin3; g3++ {
			plane := fw[g3*nf1*nf2 : (g3+1)*nf1*nf2]
			for i := range plane {
				plane[i] = 0
			}
		}
	}
}

func abs(k int) int {
	if k < 0 {
		return -k
	}

	return k
}
