package spread

import "github.com/cwbudde/algo-nufft/internal/math"

// Tile sizes for the bucket sort: 16 grid points along the fastest
// dimension, 4 along the others, chosen so one tile's worth of fine grid
// stays cache-resident during scatter.
const (
	tileLead  = 16
	tileTrail = 4
)

// Sort fills idx with a permutation of [0, nj) grouping points by fine-grid
// tile, stable within a tile, and reports whether it sorted at all. With
// SortNever, or when the SortAuto heuristic declines, idx becomes the
// identity and the return is false.
func Sort(idx []int, nf1, nf2, nf3 int, x, y, z []float64, o Opts) bool {
	nj := len(x)

	doSort := false
	switch o.Sort {
	case SortAlways:
		doSort = true
	case SortAuto:
		// sorting pays off when several workers contend for grid cache
		// lines, unless the points vastly oversample the grid anyway
		doSort = o.threads() > 1 && nj <= 10*nf1*nf2*nf3
	}

	if !doSort || nj == 0 {
		for i := range idx[:nj] {
			idx[i] = i
		}

		return false
	}

	nb1 := numTiles(nf1, tileLead)
	nb2 := numTiles(nf2, tileTrail)
	nb3 := numTiles(nf3, tileTrail)

	dim := o.Dim
	bins := make([]int, nj)
	counts := make([]int, nb1*nb2*nb3+1)

	for i := 0; i < nj; i++ {
		b1 := tileOf(math.FoldRescale(x[i], nf1), tileLead, nb1)

		b2, b3 := 0, 0
		if dim > 1 {
			b2 = tileOf(math.FoldRescale(y[i], nf2), tileTrail, nb2)
		}
		if dim > 2 {
			b3 = tileOf(math.FoldRescale(z[i], nf3), tileTrail, nb3)
		}

		b := b1 + nb1*(b2+nb2*b3)
		bins[i] = b
		counts[b+1]++
	}

	for b := 1; b < len(counts); b++ {
		counts[b] += counts[b-1]
	}

	// ascending point order within each tile keeps the sort stable
	for i := 0; i < nj; i++ {
		idx[counts[bins[i]]] = i
		counts[bins[i]]++
	}

	return true
}

func numTiles(nf, tile int) int {
	n := (nf + tile - 1) / tile
	if n < 1 {
		n = 1
	}

	return n
}

func tileOf(xi float64, tile, nTiles int) int {
	b := int(xi) / tile
	if b >= nTiles {
		b = nTiles - 1
	}
	if b < 0 {
		b = 0
	}

	return b
}
