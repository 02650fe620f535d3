// Package confidence inverts Feldman-Cousins confidence belts for the mean
// of a unit normal measurement with a non-negative physical boundary.
//
// The belts are built once from the likelihood-ratio ordering and
// tabulated on a uniform grid of standardized deviations. [Table.Upper]
// and [Table.Lower] then evaluate the tabulated inverse with 4-point
// Hermite interpolation.
package confidence

import (
	"math"
	"sort"
	"sync"

	"github.com/cwbudde/algo-skypower/dsp/interp"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultLevel is the confidence level of [Default].
const DefaultLevel = 0.95

const (
	xMin   = -5.0
	xMax   = 20.0
	xStep  = 0.01
	muStep = 0.005
)

// Table holds the tabulated upper and lower limit curves for one
// confidence level.
type Table struct {
	level float64
	// z is the central two-sided quantile, the asymptotic distance between
	// a large measurement and its limits.
	z     float64
	upper interp.Uniform
	lower interp.Uniform
}

// NewTable builds the belt for confidence level cl.
func NewTable(cl float64) (*Table, error) {
	if !(cl > 0 && cl < 1) {
		return nil, invalidLevel(cl)
	}

	z := distuv.UnitNormal.Quantile(0.5 + cl/2)
	x2zero := distuv.UnitNormal.Quantile(cl)

	nmu := int(math.Ceil((xMax+z+1)/muStep)) + 1
	mus := make([]float64, nmu)
	x1 := make([]float64, nmu)
	x2 := make([]float64, nmu)
	for i := range mus {
		mu := float64(i) * muStep
		mus[i] = mu
		x1[i], x2[i] = belt(mu, cl)
	}

	nx := int(math.Round((xMax-xMin)/xStep)) + 1
	t := &Table{
		level: cl,
		z:     z,
		upper: interp.Uniform{X0: xMin, Step: xStep, Y: make([]float64, nx)},
		lower: interp.Uniform{X0: xMin, Step: xStep, Y: make([]float64, nx)},
	}
	for i := 0; i < nx; i++ {
		x := xMin + float64(i)*xStep
		// mu = 0 has x1 = -Inf; invert over mu > 0 only.
		t.upper.Y[i] = invert(mus[1:], x1[1:], x)
		if x <= x2zero {
			t.lower.Y[i] = 0
		} else {
			t.lower.Y[i] = invert(mus, x2, x)
		}
	}
	return t, nil
}

// belt returns the acceptance interval [x1, x2] for true mean mu.
func belt(mu, cl float64) (float64, float64) {
	if mu <= 0 {
		return math.Inf(-1), distuv.UnitNormal.Quantile(cl)
	}

	lo, hi := 0.0, 12.0
	for i := 0; i < 64; i++ {
		t := 0.5 * (lo + hi)
		if coverage(mu, t) < cl {
			lo = t
		} else {
			hi = t
		}
	}
	t := 0.5 * (lo + hi)
	return lowerEnd(mu, t), mu + t
}

// lowerEnd returns the lower end of the interval whose upper end is mu+t.
// Below zero the likelihood ratio is exp(mu*x - mu^2/2); above it is
// symmetric around mu.
func lowerEnd(mu, t float64) float64 {
	if mu-t >= 0 {
		return mu - t
	}
	return (mu*mu - t*t) / (2 * mu)
}

func coverage(mu, t float64) float64 {
	return distuv.UnitNormal.CDF(t) - distuv.UnitNormal.CDF(lowerEnd(mu, t)-mu)
}

// invert returns mu such that xs(mu) = x for increasing xs, interpolating
// linearly between samples.
func invert(mus, xs []float64, x float64) float64 {
	i := sort.SearchFloat64s(xs, x)
	switch {
	case i == 0:
		return mus[0]
	case i == len(xs):
		return mus[len(mus)-1]
	}
	f := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return mus[i-1] + f*(mus[i]-mus[i-1])
}

// Level returns the confidence level of the table.
func (t *Table) Level() float64 { return t.level }

// Upper returns the upper limit on the mean for a measurement x in units
// of sigma. Above the tabulated range it is x + z.
func (t *Table) Upper(x float64) float64 {
	if x > t.upper.Max() {
		return x + t.z
	}
	return t.upper.At(x)
}

// Lower returns the lower limit on the mean for a measurement x in units
// of sigma. It is zero for measurements that do not exclude mu = 0.
func (t *Table) Lower(x float64) float64 {
	if x > t.lower.Max() {
		return x - t.z
	}
	v := t.lower.At(x)
	if v < 0 {
		return 0
	}
	return v
}

// Verify checks that both curves are non-decreasing and that the lower
// limit never exceeds the upper limit at the tabulated points.
func (t *Table) Verify() error {
	for i := range t.upper.Y {
		x := t.upper.X0 + float64(i)*t.upper.Step
		if t.lower.Y[i] > t.upper.Y[i] {
			return inconsistent("lower limit above upper limit", x)
		}
		if i == 0 {
			continue
		}
		if t.upper.Y[i] < t.upper.Y[i-1] {
			return inconsistent("upper limit decreasing", x)
		}
		if t.lower.Y[i] < t.lower.Y[i-1] {
			return inconsistent("lower limit decreasing", x)
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the shared table for [DefaultLevel].
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable, _ = NewTable(DefaultLevel)
	})
	return defaultTable
}

// Upper evaluates [Default].Upper.
func Upper(x float64) float64 { return Default().Upper(x) }

// Lower evaluates [Default].Lower.
func Lower(x float64) float64 { return Default().Lower(x) }
