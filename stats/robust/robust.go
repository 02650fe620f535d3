// Package robust estimates the location and scale of a spectrum from its
// order statistics, so that a handful of loud bins (spectral lines or a
// signal) do not bias the noise floor the limits are measured against.
package robust

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Flags selects what [Calculate] computes.
type Flags uint

const (
	// FlagKSTest computes the Kolmogorov-Smirnov distance between the data
	// and a normal distribution with the robust mean and sigma.
	FlagKSTest Flags = 1 << iota
)

// Stats holds robust statistics of a sample.
type Stats struct {
	Mean  float64 // median
	Sigma float64 // half the 15.87%..84.13% inter-quantile range
	// KSTest is the KS distance; KSCount the number of samples it used.
	// Both are zero when the test was not requested or sigma is zero.
	KSTest  float64
	KSCount int
}

// Lower and upper quantiles that bracket one sigma of a normal
// distribution.
var (
	sigmaLow  = distuv.UnitNormal.CDF(-1)
	sigmaHigh = distuv.UnitNormal.CDF(1)
)

// Calculate sorts data in place and returns its robust statistics.
// data must hold finite values.
func Calculate(data []float64, flags Flags) Stats {
	if len(data) == 0 {
		return Stats{}
	}

	sort.Float64s(data)
	return fromSorted(data, flags)
}

func fromSorted(x []float64, flags Flags) Stats {
	var s Stats
	s.Mean = stat.Quantile(0.5, stat.LinInterp, x, nil)
	if len(x) > 1 {
		s.Sigma = 0.5 * (stat.Quantile(sigmaHigh, stat.LinInterp, x, nil) -
			stat.Quantile(sigmaLow, stat.LinInterp, x, nil))
	}

	if flags&FlagKSTest != 0 && s.Sigma > 0 {
		s.KSTest = ksDistance(x, s.Mean, s.Sigma)
		s.KSCount = len(x)
	}
	return s
}

// ksDistance returns sup |F_n(x) - Phi((x-mean)/sigma)| for sorted x.
func ksDistance(x []float64, mean, sigma float64) float64 {
	n := float64(len(x))
	d := 0.0
	for i, v := range x {
		f := distuv.UnitNormal.CDF((v - mean) / sigma)
		d = math.Max(d, math.Max(float64(i+1)/n-f, f-float64(i)/n))
	}
	return d
}

// Estimator computes robust statistics of successive spectra without
// disturbing them, reusing one scratch buffer.
type Estimator struct {
	flags Flags
	buf   []float64
}

// NewEstimator returns an Estimator for spectra of up to n bins.
func NewEstimator(n int, flags Flags) *Estimator {
	return &Estimator{flags: flags, buf: make([]float64, 0, n)}
}

// Compute copies spectrum into scratch space, sorts it and returns its
// statistics. spectrum itself is left untouched.
func (e *Estimator) Compute(spectrum []float64) Stats {
	e.buf = append(e.buf[:0], spectrum...)
	return Calculate(e.buf, e.flags)
}

// Deviation standardizes v. A zero or negative sigma yields 0 so that a
// flat spectrum never reports an excursion.
func (s Stats) Deviation(v float64) float64 {
	if s.Sigma <= 0 {
		return 0
	}
	return (v - s.Mean) / s.Sigma
}
