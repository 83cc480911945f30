package spread

import (
	"fmt"

	"github.com/cwbudde/algo-nufft/internal/math"
	"github.com/cwbudde/algo-nufft/internal/parallel"
)

// Interp gathers one value per point from fw: c[j] becomes the window-
// weighted sum of the fine-grid values around point j. Points are visited
// in sortIdx order so neighbouring iterations touch neighbouring grid
// memory; workers only read fw and never contend.
func Interp(sortIdx []int, nf1, nf2, nf3 int, fw []complex128, x, y, z []float64, c []complex128, o Opts) error {
	nj := len(x)
	if nj == 0 {
		return nil
	}

	dim := o.Dim
	kp := o.Kernel
	pw := kp.PaddedWidth
	nf := [3]int{nf1, nf2, nf3}

	nthr := o.threads()
	errs := make([]error, nthr)

	parallel.ExecuteN(0, nj, nthr, func(worker, start, end int) {
		ker1 := make([]float64, pw)
		ker2 := make([]float64, pw)
		ker3 := make([]float64, pw)
		j1 := make([]int, pw)
		j2 := make([]int, pw)
		j3 := make([]int, pw)

		for p := start; p < end; p++ {
			j := sortIdx[p]

			var i [3]int
			var ok = true
			for d := 0; d < dim; d++ {
				v := math.FoldRescale(coord(d, x, y, z)[j], nf[d])
				if v < 0 || v > float64(nf[d]) {
					errs[worker] = fmt.Errorf("%w: coordinate %d of point %d", ErrPointsOutOfRange, d, j)
					ok = false
					break
				}

				var x1 float64
				i[d], x1 = stencilStart(v, kp.HalfWidth)

				switch d {
				case 0:
					kp.EvalStencil(ker1, x1)
					wrapIndices(j1, i[0], nf1)
				case 1:
					kp.EvalStencil(ker2, x1)
					wrapIndices(j2, i[1], nf2)
				default:
					kp.EvalStencil(ker3, x1)
					wrapIndices(j3, i[2], nf3)
				}
			}

			if !ok {
				return
			}

			var acc complex128

			switch dim {
			case 1:
				for a := 0; a < pw; a++ {
					acc += fw[j1[a]] * complex(ker1[a], 0)
				}

			case 2:
				for b := 0; b < pw; b++ {
					var rowAcc complex128
					row := fw[j2[b]*nf1:]
					for a := 0; a < pw; a++ {
						rowAcc += row[j1[a]] * complex(ker1[a], 0)
					}
					acc += rowAcc * complex(ker2[b], 0)
				}

			default:
				for q := 0; q < pw; q++ {
					var planeAcc complex128
					plane := fw[j3[q]*nf1*nf2:]
					for b := 0; b < pw; b++ {
						var rowAcc complex128
						row := plane[j2[b]*nf1:]
						for a := 0; a < pw; a++ {
							rowAcc += row[j1[a]] * complex(ker1[a], 0)
						}
						planeAcc += rowAcc * complex(ker2[b], 0)
					}
					acc += planeAcc * complex(ker3[q], 0)
				}
			}

			c[j] = acc
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
