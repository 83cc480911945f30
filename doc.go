// Package algonufft computes non-uniform fast Fourier transforms: planned,
// batched transforms between values at arbitrary points and coefficients of
// uniform Fourier modes, in one, two or three dimensions, to a requested
// tolerance.
//
// Three transform types are provided. Type 1 maps non-uniform samples to
// uniform-grid mode coefficients, type 2 is the reverse, and type 3 maps
// non-uniform samples to coefficients at non-uniform target frequencies.
// All three share the same lifecycle:
//
//	plan, err := algonufft.MakePlan(algonufft.Type1, 1, [3]int{64, 1, 1},
//	    +1, 1, 1e-9, 0, nil)
//	...
//	err = plan.SetPoints(x, nil, nil, nil, nil, nil)
//	err = plan.Execute(c, f)
//	plan.Destroy()
//
// A plan may be executed many times with different value arrays; the point
// arrays are borrowed and must stay alive and unchanged between SetPoints
// and the last Execute. Transforms sharing the plan's points are processed
// in batches through a single multi-dimensional FFT per batch.
//
// Internally the engine spreads point values onto an oversampled fine grid
// through a compactly supported exponential-of-semicircle window, runs a
// batched FFT, and divides the mode coefficients by the window's Fourier
// series (or the reverse, for type 2). Type 3 reduces to a spread followed
// by an inner type-2 plan plus pre- and post-phase corrections.
package algonufft
