package math

import "math"

// Mathematical constants shared across the NUFFT pipeline.
const (
	Pi       = math.Pi
	TwoPi    = 2 * math.Pi
	InvTwoPi = 1.0 / TwoPi
)

// Allocation guards for the oversampled fine grid. A single dimension may
// not exceed MaxGridPerDim points, and the fine-grid scratch for a whole
// batch (product of dims times batch size) may not exceed MaxGridTotal
// complex values.
const (
	MaxGridPerDim = 100_000_000
	MaxGridTotal  = 1_000_000_000
)
