// Package dataset holds the per-segment detector records consumed by the
// accumulation stage.
//
// Loading, calibration and antenna-pattern evaluation happen outside this
// module; a [Dataset] is read-only once handed to the stage.
package dataset

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-skypower/sky"
)

// DefaultCoherenceTime is the segment length in seconds used when a
// dataset does not set one.
const DefaultCoherenceTime = 1800.0

var errNoPattern = errors.New("polarization needs plus and cross patterns")

// Pattern evaluates the amplitude response of a detector during segment k
// toward a sky point.
type Pattern interface {
	Response(k int, p sky.Point) float64
}

// PatternFunc adapts an ordinary function to [Pattern].
type PatternFunc func(k int, p sky.Point) float64

// Response calls f(k, p).
func (f PatternFunc) Response(k int, p sky.Point) float64 { return f(k, p) }

// Segment is one short stretch of detector data.
type Segment struct {
	GPS      float64    // segment start, seconds
	Velocity [3]float64 // detector velocity in units of c
	// Power holds |X|^2 per bin. Re and Im hold the complex spectrum and
	// are only required by the matched-filter mode.
	Power []float64
	Re    []float64
	Im    []float64
	// TMedian is the per-segment noise weight.
	TMedian float64
}

// Polarization describes one polarization hypothesis of a dataset.
type Polarization struct {
	Name        string
	PlusFactor  float64
	CrossFactor float64 // zero for linear polarizations
	// Plus is the response for this polarization, Cross the response for
	// its conjugate.
	Plus  Pattern
	Cross Pattern
	// PatchCutOff holds the per-patch cutoff factor.
	PatchCutOff []float64
}

// Linear reports whether the polarization is linear.
func (p *Polarization) Linear() bool { return p.CrossFactor == 0 }

// Dataset groups segments from one detector.
type Dataset struct {
	Name          string
	CoherenceTime float64
	Weight        float64
	Segments      []Segment
	Polarizations []Polarization
	// Lines lists contaminated bins as raw spectrum indices.
	Lines []int
}

// Coherence returns CoherenceTime or [DefaultCoherenceTime] when unset.
func (d *Dataset) Coherence() float64 {
	if d.CoherenceTime > 0 {
		return d.CoherenceTime
	}
	return DefaultCoherenceTime
}

// Validate checks array shapes against the expected bin count and number
// of polarizations and patches.
func (d *Dataset) Validate(nbins, npol, npatches int, needComplex bool) error {
	if len(d.Polarizations) != npol {
		return fmt.Errorf("dataset %q: %d polarizations, want %d", d.Name, len(d.Polarizations), npol)
	}
	for i := range d.Polarizations {
		pl := &d.Polarizations[i]
		if pl.Plus == nil || pl.Cross == nil {
			return fmt.Errorf("dataset %q polarization %q: %w", d.Name, pl.Name, errNoPattern)
		}
		if len(pl.PatchCutOff) < npatches {
			return fmt.Errorf("dataset %q polarization %q: %d patch cutoffs, want %d",
				d.Name, pl.Name, len(pl.PatchCutOff), npatches)
		}
	}
	for k := range d.Segments {
		s := &d.Segments[k]
		if len(s.Power) != nbins {
			return fmt.Errorf("dataset %q segment %d: %d power bins, want %d", d.Name, k, len(s.Power), nbins)
		}
		if needComplex && (len(s.Re) != nbins || len(s.Im) != nbins) {
			return fmt.Errorf("dataset %q segment %d: complex spectrum missing or not %d bins", d.Name, k, nbins)
		}
	}
	return nil
}
