package accum

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LagCorrelation returns the Pearson correlation between x[j] and
// x[j+lag] over the len(x)-lag overlapping pairs. It returns 0 when
// fewer than two pairs exist or either side has zero variance.
func LagCorrelation(x []float64, lag int) float64 {
	n := len(x) - lag
	if lag <= 0 || n < 2 {
		return 0
	}
	c := stat.Correlation(x[:n], x[lag:], nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}
