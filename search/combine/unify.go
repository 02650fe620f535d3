package combine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/sky"
)

// BandDx is the strongest deviation of a band over all polarizations.
// Point is -1 for a band without valid points and Pol is -1 when no
// polarization reported a non-negative deviation.
type BandDx struct {
	Band      int
	Name      string
	MaxDx     float64
	Point     int
	Pol       int
	Freq      float64
	Longitude float64
	Latitude  float64
}

// BandPeak is the largest value of a band spectrum and its frequency.
type BandPeak struct {
	Band  int
	Value float64
	Freq  float64
}

// Peak is the largest value of a sky map.
type Peak struct {
	Point int
	Value float64
	Freq  float64
}

// Unified holds limits merged across polarizations.
type Unified struct {
	// HighUL is the largest upper limit over polarizations per point.
	HighUL   []float64
	HighFreq []float64
	// MaxDx and MaxDxPol give the strongest deviation per point and the
	// polarization that produced it, -1 when none did.
	MaxDx    []float64
	MaxDxPol []int

	Circular        *limits.Circular
	CircularEnabled bool

	// SpectralHigh is the largest spectral upper limit over
	// polarizations, band*usable+bin.
	SpectralHigh []float64

	MaxHigh  Peak
	MaxCirc  Peak
	BandDx   []BandDx
	BandHigh []BandPeak
	BandCirc []BandPeak
}

// Unify merges the finalized and masked polarizations of eng.
func Unify(eng *limits.Engine, fine *sky.Grid) *Unified {
	pols := eng.Polarizations()
	n := fine.Len()
	u := &Unified{
		HighUL:          make([]float64, n),
		HighFreq:        make([]float64, n),
		MaxDx:           make([]float64, n),
		MaxDxPol:        make([]int, n),
		Circular:        eng.Circular(),
		CircularEnabled: eng.CircularEnabled(),
		MaxHigh:         Peak{Point: -1},
		MaxCirc:         Peak{Point: -1},
		BandDx:          make([]BandDx, fine.NBands()),
	}
	for b := range u.BandDx {
		u.BandDx[b] = BandDx{Band: b, Name: fine.BandName(b), Point: -1, Pol: -1}
	}

	circ := u.Circular
	for i, p := range fine.Points {
		u.MaxDxPol[i] = -1
		if !p.Valid() {
			u.HighUL[i] = limits.Invalid
			u.HighFreq[i] = limits.Invalid
			continue
		}

		u.HighUL[i] = pols[0].Sky.MaxUpper[i]
		u.HighFreq[i] = pols[0].Sky.Freq[i]
		for _, pol := range pols[1:] {
			if u.HighUL[i] < pol.Sky.MaxUpper[i] {
				u.HighUL[i] = pol.Sky.MaxUpper[i]
				u.HighFreq[i] = pol.Sky.Freq[i]
			}
		}
		if u.MaxHigh.Point < 0 || u.MaxHigh.Value < u.HighUL[i] {
			u.MaxHigh = Peak{Point: i, Value: u.HighUL[i], Freq: u.HighFreq[i]}
		}
		if u.CircularEnabled && (u.MaxCirc.Point < 0 || u.MaxCirc.Value < circ.UL[i]) {
			u.MaxCirc = Peak{Point: i, Value: circ.UL[i], Freq: circ.Freq[i]}
		}

		for m, pol := range pols {
			a := pol.Sky.MaxDx[i]
			if a < 0 {
				continue
			}
			if a > u.MaxDx[i] {
				u.MaxDx[i] = a
				u.MaxDxPol[i] = m
			}
		}

		bd := &u.BandDx[p.Band]
		if bd.Point < 0 || u.MaxDx[i] > bd.MaxDx {
			bd.Point = i
			bd.MaxDx = u.MaxDx[i]
			bd.Pol = u.MaxDxPol[i]
			bd.Longitude = p.Longitude
			bd.Latitude = p.Latitude
			bd.Freq = limits.Invalid
			if bd.Pol >= 0 {
				bd.Freq = pols[bd.Pol].Sky.Freq[i]
			}
		}
	}

	sp0 := pols[0].Spectral
	u.SpectralHigh = append([]float64(nil), sp0.MaxUpper...)
	for _, pol := range pols[1:] {
		for i, v := range pol.Spectral.MaxUpper {
			if u.SpectralHigh[i] < v {
				u.SpectralHigh[i] = v
			}
		}
	}

	for b := 0; b < sp0.Bands(); b++ {
		u.BandHigh = append(u.BandHigh, bandPeak(eng, b, sp0.Band(u.SpectralHigh, b)))
		if u.CircularEnabled {
			u.BandCirc = append(u.BandCirc, bandPeak(eng, b, sp0.Band(circ.Spectral, b)))
		}
	}
	return u
}

func bandPeak(eng *limits.Engine, b int, row []float64) BandPeak {
	k := floats.MaxIdx(row)
	return BandPeak{Band: b, Value: row[k], Freq: eng.Frequency(k)}
}
