package accum

import (
	"fmt"
	"strings"
)

// Mode selects the power estimator.
type Mode int

const (
	// ModeSingle uses the power of the single Doppler-shifted bin.
	ModeSingle Mode = iota
	// ModeThree sums the shifted bin with both neighbours.
	ModeThree
	// ModeMatched applies a 7-tap matched filter to the complex spectrum
	// at the fractional shift.
	ModeMatched
)

var modeNames = map[Mode]string{
	ModeSingle:  "single",
	ModeThree:   "three",
	ModeMatched: "matched",
}

// ParseMode accepts "single" or "1", "three" or "3", and "matched",
// ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "1":
		return ModeSingle, nil
	case "three", "3":
		return ModeThree, nil
	case "matched":
		return ModeMatched, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}
