package confidence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLevel is returned when a confidence level is outside (0, 1).
	ErrInvalidLevel = errors.New("confidence level must be in (0, 1)")
	// ErrInconsistentTable is returned by [Table.Verify] when the tabulated
	// limits are not monotonic or a lower limit exceeds its upper limit.
	ErrInconsistentTable = errors.New("inconsistent limit table")
)

func invalidLevel(cl float64) error {
	return fmt.Errorf("%w: %g", ErrInvalidLevel, cl)
}

func inconsistent(what string, x float64) error {
	return fmt.Errorf("%w: %s at x=%g", ErrInconsistentTable, what, x)
}
