package algonufft

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// directType1 evaluates f_k = sum_j c_j exp(i*sign*k.x_j) by brute force,
// CMCL mode ordering, ms fastest.
func directType1(dim int, x, y, z []float64, c []complex128, sign int, ms, mt, mu int) []complex128 {
	f := make([]complex128, ms*mt*mu)

	idx := 0
	for k3 := -mu / 2; k3 <= (mu-1)/2; k3++ {
		for k2 := -mt / 2; k2 <= (mt-1)/2; k2++ {
			for k1 := -ms / 2; k1 <= (ms-1)/2; k1++ {
				var acc complex128
				for j := range x {
					arg := float64(k1) * x[j]
					if dim > 1 {
						arg += float64(k2) * y[j]
					}
					if dim > 2 {
						arg += float64(k3) * z[j]
					}
					acc += c[j] * cmplx.Exp(complex(0, float64(sign)*arg))
				}
				f[idx] = acc
				idx++
			}
		}
	}

	return f
}

// directType2 evaluates c_j = sum_k f_k exp(i*sign*k.x_j) by brute force,
// f in CMCL ordering.
func directType2(dim int, x, y, z []float64, f []complex128, sign int, ms, mt, mu int) []complex128 {
	c := make([]complex128, len(x))

	for j := range x {
		var acc complex128
		idx := 0
		for k3 := -mu / 2; k3 <= (mu-1)/2; k3++ {
			for k2 := -mt / 2; k2 <= (mt-1)/2; k2++ {
				for k1 := -ms / 2; k1 <= (ms-1)/2; k1++ {
					arg := float64(k1) * x[j]
					if dim > 1 {
						arg += float64(k2) * y[j]
					}
					if dim > 2 {
						arg += float64(k3) * z[j]
					}
					acc += f[idx] * cmplx.Exp(complex(0, float64(sign)*arg))
					idx++
				}
			}
		}
		c[j] = acc
	}

	return c
}

// directType3 evaluates f_k = sum_j c_j exp(i*sign*s_k.x_j) by brute force.
func directType3(dim int, x, y, z []float64, c []complex128, sign int, s, t, u []float64) []complex128 {
	f := make([]complex128, len(s))

	for k := range s {
		var acc complex128
		for j := range x {
			arg := s[k] * x[j]
			if dim > 1 {
				arg += t[k] * y[j]
			}
			if dim > 2 {
				arg += u[k] * z[j]
			}
			acc += c[j] * cmplx.Exp(complex(0, float64(sign)*arg))
		}
		f[k] = acc
	}

	return f
}

// relErr2 is the 2-norm relative error of got against want.
func relErr2(got, want []complex128) float64 {
	var num, den float64
	for i := range want {
		num += sqAbs(got[i] - want[i])
		den += sqAbs(want[i])
	}

	if den == 0 {
		return math.Sqrt(num)
	}

	return math.Sqrt(num / den)
}

func sqAbs(v complex128) float64 {
	return real(v)*real(v) + imag(v)*imag(v)
}

// randPoints fills n coordinates uniformly over [-pi, pi).
func randPoints(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = -math.Pi + 2*math.Pi*rng.Float64()
	}

	return out
}

// randValues fills n standard complex normal values.
func randValues(rng *rand.Rand, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	return out
}
