package accum

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMode is returned by [ParseMode] for an unrecognised name.
	ErrUnknownMode = errors.New("unknown averaging mode")
	// ErrPatchTooLarge is returned when a patch owns more points than the
	// buffers were sized for.
	ErrPatchTooLarge = errors.New("patch exceeds buffer size")
	// ErrNoCache is returned when matched mode is configured without a
	// power cache.
	ErrNoCache = errors.New("matched mode needs a power cache")
	// ErrDatasetShape is returned when a dataset does not match the
	// polarizations or patches the accumulator was built for.
	ErrDatasetShape = errors.New("dataset does not fit accumulator")
)

// ShiftError reports a Doppler shift that pushed the usable window of a
// segment outside its spectrum. It wraps doppler.ErrRangeObscured.
type ShiftError struct {
	Dataset string
	Segment int
	Patch   int
	Point   int // fine grid index
	// Shift is the bin shift in the convention of Accumulator.Shifts.
	Shift int
	Err     error
}

func (e *ShiftError) Error() string {
	return fmt.Sprintf("dataset %q segment %d patch %d point %d: bin shift %d: %v",
		e.Dataset, e.Segment, e.Patch, e.Point, e.Shift, e.Err)
}

func (e *ShiftError) Unwrap() error { return e.Err }
