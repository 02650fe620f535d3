package interp

import (
	"math"

	"github.com/cwbudde/algo-skypower/dsp/window"
)

// Taps is the support of the matched interpolation filter in bins.
const Taps = 7

// DefaultSteps is the number of fractional offsets tabulated by
// [NewFilter7] when steps <= 0.
const DefaultSteps = 512

// Filter7 tabulates a 7-tap matched filter for signals that sit a
// fractional number of bins away from a bin centre.
//
// Row r holds taps[j] = K(j-3-frac) / sqrt(sum K^2) for
// frac = r/steps - 0.5, where K is the spectral kernel of the window the
// segments were taken with. Unit tap energy keeps white-noise power
// unchanged by the filter.
type Filter7 struct {
	steps int
	rows  [][Taps]float64
}

// NewFilter7 tabulates the filter for window t.
func NewFilter7(t window.Type, steps int) *Filter7 {
	if steps <= 0 {
		steps = DefaultSteps
	}

	f := &Filter7{
		steps: steps,
		rows:  make([][Taps]float64, steps+1),
	}
	for r := range f.rows {
		frac := float64(r)/float64(steps) - 0.5
		row := &f.rows[r]
		energy := 0.0
		for j := range row {
			v := window.Kernel(t, float64(j-Taps/2)-frac)
			row[j] = v
			energy += v * v
		}
		norm := 1 / math.Sqrt(energy)
		for j := range row {
			row[j] *= norm
		}
	}
	return f
}

// Fill copies the taps for the tabulated offset nearest to frac into dst.
// frac is clamped to [-0.5, 0.5].
func (f *Filter7) Fill(dst *[Taps]float64, frac float64) {
	r := int(math.Round((frac + 0.5) * float64(f.steps)))
	if r < 0 {
		r = 0
	}
	if r > f.steps {
		r = f.steps
	}
	*dst = f.rows[r]
}

// Apply evaluates sum taps[j]*x[center+j-3].
func Apply(taps *[Taps]float64, x []float64, center int) float64 {
	s := x[center-3 : center+4]
	return s[0]*taps[0] + s[1]*taps[1] + s[2]*taps[2] + s[3]*taps[3] +
		s[4]*taps[4] + s[5]*taps[5] + s[6]*taps[6]
}
