package algonufft

import "errors"

// Sentinel errors returned by plan construction, point binding and
// execution.
var (
	// ErrInvalidType is returned when the transform type is not 1, 2 or 3.
	ErrInvalidType = errors.New("algonufft: invalid transform type")

	// ErrInvalidDim is returned when the dimension is not 1, 2 or 3.
	ErrInvalidDim = errors.New("algonufft: invalid dimension")

	// ErrInvalidTransformCount is returned when the number of transforms
	// sharing the plan is less than 1.
	ErrInvalidTransformCount = errors.New("algonufft: transform count must be at least 1")

	// ErrInvalidUpsampleFactor is returned for upsampling factors other
	// than 2.0 or 1.25.
	ErrInvalidUpsampleFactor = errors.New("algonufft: upsampling factor must be 2.0 or 1.25")

	// ErrInvalidModeCount is returned when a requested mode count is less
	// than 1.
	ErrInvalidModeCount = errors.New("algonufft: mode count must be at least 1")

	// ErrGridTooLarge is returned when a fine-grid dimension, or the total
	// fine-grid scratch for a batch, exceeds the allocation cap.
	ErrGridTooLarge = errors.New("algonufft: fine grid exceeds allocation limit")

	// ErrPointsOutOfRange is returned when a non-uniform point lies
	// outside the fold-safe range [-3pi, 3pi].
	ErrPointsOutOfRange = errors.New("algonufft: non-uniform point outside valid range")

	// ErrPointsNotSet is returned when Execute is called before SetPoints.
	ErrPointsNotSet = errors.New("algonufft: points not set")

	// ErrNilSlice is returned when a required slice argument is nil.
	ErrNilSlice = errors.New("algonufft: nil slice")

	// ErrLengthMismatch is returned when a value array is shorter than the
	// plan's layout requires.
	ErrLengthMismatch = errors.New("algonufft: slice length mismatch")

	// ErrPlanDestroyed is returned when a destroyed plan is used.
	ErrPlanDestroyed = errors.New("algonufft: plan destroyed")
)

// WarnEpsilonTooSmall is a warning, not a failure: the requested tolerance
// was outside the supported range and has been clamped to the nearest
// supported value. The returned plan is valid and ready for use.
var WarnEpsilonTooSmall = errors.New("algonufft: tolerance clamped to supported range")

// IsWarning reports whether err is a non-fatal warning. A call returning a
// warning has completed its work and produced a usable result.
func IsWarning(err error) bool {
	return errors.Is(err, WarnEpsilonTooSmall)
}
