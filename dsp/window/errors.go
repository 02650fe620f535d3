package window

import (
	"errors"
	"fmt"
)

// ErrUnknownWindow is returned by [ParseType] for names it does not know.
var ErrUnknownWindow = errors.New("unknown window")

var errEmptyCoeffs = errors.New("window coefficients must not be empty")

func unknownWindow(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownWindow, name)
}
