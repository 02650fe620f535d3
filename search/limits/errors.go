package limits

import "errors"

// ErrBadCompensation is returned for a compensation spec that is neither a
// preset, a window name nor a positive number.
var ErrBadCompensation = errors.New("invalid limit compensation")
