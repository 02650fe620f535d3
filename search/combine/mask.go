// Package combine masks low-statistics points and merges per-polarization
// limits into unified maps and band tables.
package combine

import (
	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/sky"
)

// DefaultSmallWeightRatio is the default mask ratio.
const DefaultSmallWeightRatio = 0.2

// PointRef describes one fine point of a polarization map. Index is -1
// when no point qualified.
type PointRef struct {
	Index     int
	Longitude float64
	Latitude  float64
	MaxDx     float64
	Upper     float64
	Lower     float64
	Freq      float64
	Beta1     float64
	Beta2     float64
}

// PointAt returns the map values of fine point i.
func PointAt(fine *sky.Grid, sm *limits.SkyMap, i int) PointRef {
	if i < 0 {
		return PointRef{Index: -1}
	}
	p := fine.Points[i]
	return PointRef{
		Index:     i,
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
		MaxDx:     sm.MaxDx[i],
		Upper:     sm.MaxUpper[i],
		Lower:     sm.MaxLower[i],
		Freq:      sm.Freq[i],
		Beta1:     sm.Beta1[i],
		Beta2:     sm.Beta2[i],
	}
}

// BandMax is the largest upper limit of a band and where it was found.
type BandMax struct {
	Band  int
	Value float64
	Point PointRef
}

// Report summarizes one masked polarization.
type Report struct {
	Name   string
	Masked int
	// Largest is the point with the largest unmasked upper limit,
	// Strongest the one with the largest deviation.
	Largest   PointRef
	Strongest PointRef
	// MaxBand is taken before masking, MaskedMaxBand after.
	MaxBand       []BandMax
	MaskedMaxBand []BandMax
	MaxRatio      []float64
}

// Masked reports whether a point is dominated by a single line-subtracted
// bin. The threshold is inclusive.
func Masked(maxSubWeight, totalWeight, ratio float64) bool {
	return maxSubWeight >= totalWeight*(1-ratio)
}

// Mask zeroes the limits and deviation of low-statistics points of a
// finalized polarization and returns its summary.
func Mask(pol *limits.Polarization, fine *sky.Grid, ratio float64) Report {
	sm := pol.Sky
	nb := fine.NBands()
	r := Report{
		Name:          pol.Name,
		MaxBand:       newBandMax(nb),
		MaskedMaxBand: newBandMax(nb),
		MaxRatio:      append([]float64(nil), pol.BandMaskRatio...),
	}
	largest, strongest := -1, -1
	maxBand := make([]int, nb)
	maskedBand := make([]int, nb)
	for b := range maxBand {
		maxBand[b], maskedBand[b] = -1, -1
	}

	for i, p := range fine.Points {
		b := p.Band
		if b < 0 {
			continue
		}
		if sm.MaxUpper[i] > r.MaxBand[b].Value {
			r.MaxBand[b].Value = sm.MaxUpper[i]
			maxBand[b] = i
		}

		if Masked(sm.MaxSubWeight[i], sm.TotalWeight[i], ratio) {
			sm.MaxUpper[i] = 0
			sm.MaxLower[i] = 0
			sm.MaxDx[i] = 0
			r.Masked++
		}

		if sm.MaxUpper[i] > 0 && (largest < 0 || sm.MaxUpper[i] > sm.MaxUpper[largest]) {
			largest = i
		}
		if sm.MaxDx[i] > 0 && (strongest < 0 || sm.MaxDx[i] > sm.MaxDx[strongest]) {
			strongest = i
		}
		if sm.MaxUpper[i] > r.MaskedMaxBand[b].Value {
			r.MaskedMaxBand[b].Value = sm.MaxUpper[i]
			maskedBand[b] = i
		}
	}

	r.Largest = PointAt(fine, sm, largest)
	r.Strongest = PointAt(fine, sm, strongest)
	for b := 0; b < nb; b++ {
		r.MaxBand[b].Point = PointAt(fine, sm, maxBand[b])
		r.MaskedMaxBand[b].Point = PointAt(fine, sm, maskedBand[b])
	}
	return r
}

func newBandMax(n int) []BandMax {
	out := make([]BandMax, n)
	for i := range out {
		out[i] = BandMax{Band: i, Value: limits.Invalid}
	}
	return out
}
