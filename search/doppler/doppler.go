// Package doppler computes the frequency-bin shift a segment applies to a
// sky direction and checks that the shifted usable window stays inside
// the spectrum.
package doppler

import (
	"errors"
	"fmt"
	"math"
)

// ErrRangeObscured is returned when a shifted window would read outside
// the spectrum.
var ErrRangeObscured = errors.New("shifted window outside spectrum")

// Params fixes the frequency layout shared by all segments.
type Params struct {
	FirstBin int // index of spectrum bin 0 in the full band
	NBins    int // spectrum length
	SideCut  int // bins dropped on each side; usable = NBins - 2*SideCut
	// Spindown is in Hz/s, SpindownStart is its reference GPS time.
	Spindown      float64
	SpindownStart float64
}

// Usable returns the number of bins in the shifted window.
func (p Params) Usable() int { return p.NBins - 2*p.SideCut }

// Validate checks the layout.
func (p Params) Validate() error {
	if p.NBins <= 0 {
		return fmt.Errorf("nbins must be positive: %d", p.NBins)
	}
	if p.SideCut < 0 || 2*p.SideCut >= p.NBins {
		return fmt.Errorf("side cut %d leaves no usable bins of %d", p.SideCut, p.NBins)
	}
	return nil
}

// Term returns the Doppler factor e.v for a unit direction e and a
// velocity in units of c.
func Term(e, v [3]float64) float64 {
	return e[0]*v[0] + e[1]*v[1] + e[2]*v[2]
}

// Shift returns the fractional bin shift for Doppler term doppler at GPS
// time gps with segments coherenceTime seconds long.
func (p Params) Shift(doppler, coherenceTime, gps float64) float64 {
	return float64(p.FirstBin+p.NBins/2)*doppler +
		coherenceTime*p.Spindown*(gps-p.SpindownStart)
}

// Round rounds a fractional shift to the nearest bin, halves to even.
func Round(shift float64) int {
	return int(math.RoundToEven(shift))
}

// Window returns the first spectrum index of the usable window for
// integer shift rs. guard extra bins must be readable on each side.
func (p Params) Window(rs, guard int) (int, error) {
	start := p.SideCut + rs
	end := p.NBins - p.SideCut + rs
	if start-guard < 0 || end+guard > p.NBins {
		return 0, fmt.Errorf("%w: shift %d needs bins [%d, %d) of %d",
			ErrRangeObscured, rs, start-guard, end+guard, p.NBins)
	}
	return start, nil
}

// Tracker records the smallest and largest integer shift seen.
type Tracker struct {
	Min, Max int
	seen     bool
}

// Observe records rs.
func (t *Tracker) Observe(rs int) {
	if !t.seen {
		t.Min, t.Max, t.seen = rs, rs, true
		return
	}
	if rs < t.Min {
		t.Min = rs
	}
	if rs > t.Max {
		t.Max = rs
	}
}

// Seen reports whether any shift was observed.
func (t *Tracker) Seen() bool { return t.seen }

// Reset forgets all observations.
func (t *Tracker) Reset() { *t = Tracker{} }
