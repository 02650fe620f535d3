package synth

import (
	"math"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/sky"
)

// Antenna is a toy interferometer response. The detector frame rotates
// by Rotation radians per segment.
type Antenna struct {
	Rotation float64
	// Psi is the polarization angle of the plus hypothesis.
	Psi float64
}

func (a Antenna) angle(k int, p sky.Point) float64 {
	return 2 * (p.Longitude + a.Rotation*float64(k) + a.Psi)
}

// Plus is the response to a plus polarized wave.
func (a Antenna) Plus(k int, p sky.Point) float64 {
	s := math.Sin(p.Latitude)
	return 0.5 * (1 + s*s) * math.Cos(a.angle(k, p))
}

// Cross is the response to a cross polarized wave.
func (a Antenna) Cross(k int, p sky.Point) float64 {
	return math.Sin(p.Latitude) * math.Sin(a.angle(k, p))
}

// Polarizations returns the two linear hypotheses "plus" and "cross"
// with a unit cutoff for npatches patches.
func (a Antenna) Polarizations(npatches int) []dataset.Polarization {
	cut := make([]float64, npatches)
	for i := range cut {
		cut[i] = 1
	}
	return []dataset.Polarization{
		{
			Name:        "plus",
			PlusFactor:  1,
			Plus:        dataset.PatternFunc(a.Plus),
			Cross:       dataset.PatternFunc(a.Cross),
			PatchCutOff: cut,
		},
		{
			Name:        "cross",
			PlusFactor:  1,
			Plus:        dataset.PatternFunc(a.Cross),
			Cross:       dataset.PatternFunc(a.Plus),
			PatchCutOff: append([]float64(nil), cut...),
		},
	}
}

// Circular returns a single circular hypothesis with equal plus and
// cross factors.
func (a Antenna) Circular(npatches int) dataset.Polarization {
	cut := make([]float64, npatches)
	for i := range cut {
		cut[i] = 1
	}
	return dataset.Polarization{
		Name:        "circular",
		PlusFactor:  0.5,
		CrossFactor: 0.5,
		Plus:        dataset.PatternFunc(a.Plus),
		Cross:       dataset.PatternFunc(a.Cross),
		PatchCutOff: cut,
	}
}
