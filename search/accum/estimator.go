package accum

import (
	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/search/powercache"
)

// estimator produces the per-bin power of a segment over the usable
// window. One implementation is chosen per accumulator.
type estimator interface {
	mode() Mode
	// guard is the number of extra bins read on each side of the window.
	guard() int
	// cutoffScale multiplies the cutoff a point's demodulation factor is
	// compared against.
	cutoffScale() float64
	// weightDivisor divides the weighted-mode weight.
	weightDivisor() float64
	// shiftSign converts round(s) into the reported bin shift. Whole-bin
	// estimators report the offset subtracted from the side cut; the
	// matched filter reports the signal shift itself.
	shiftSign() int
	// add accumulates scale*power into sum and (scale*power)^2/w into sq
	// when sq is non-nil. start is the first spectrum bin of the window.
	add(sum, sq []float64, seg *dataset.Segment, key powercache.Key, start int, shift, scale, w float64) error
	// bin returns the power attributed to spectrum bin b, used to remove a
	// line. Estimators that cannot subtract lines return false.
	bin(seg *dataset.Segment, b int) (float64, bool)
}

type singleBin struct{}

func (singleBin) mode() Mode             { return ModeSingle }
func (singleBin) guard() int             { return 0 }
func (singleBin) cutoffScale() float64   { return 2 }
func (singleBin) weightDivisor() float64 { return 1 }
func (singleBin) shiftSign() int         { return -1 }

func (singleBin) add(sum, sq []float64, seg *dataset.Segment, _ powercache.Key, start int, _, scale, w float64) error {
	p := seg.Power[start : start+len(sum)]
	for j, v := range p {
		a := v * scale
		sum[j] += a
		if sq != nil {
			sq[j] += a * a / w
		}
	}
	return nil
}

func (singleBin) bin(seg *dataset.Segment, b int) (float64, bool) {
	return seg.Power[b], true
}

type threeBin struct{}

func (threeBin) mode() Mode             { return ModeThree }
func (threeBin) guard() int             { return 1 }
func (threeBin) cutoffScale() float64   { return 2.0 / 3.0 }
func (threeBin) weightDivisor() float64 { return 3 }
func (threeBin) shiftSign() int         { return -1 }

func (threeBin) add(sum, sq []float64, seg *dataset.Segment, _ powercache.Key, start int, _, scale, w float64) error {
	p := seg.Power[start-1 : start+len(sum)+1]
	for j := range sum {
		a := (p[j] + p[j+1] + p[j+2]) * scale
		sum[j] += a
		if sq != nil {
			sq[j] += a * a / w
		}
	}
	return nil
}

func (threeBin) bin(seg *dataset.Segment, b int) (float64, bool) {
	return seg.Power[b-1] + seg.Power[b] + seg.Power[b+1], true
}

// matched reads filtered power from the cache. The filter spans seven
// bins, so single-bin line removal does not apply.
type matched struct {
	cache *powercache.Cache
}

func (matched) mode() Mode             { return ModeMatched }
func (matched) guard() int             { return powercache.Guard }
func (matched) cutoffScale() float64   { return 2 }
func (matched) weightDivisor() float64 { return 1 }
func (matched) shiftSign() int         { return 1 }

func (m matched) add(sum, sq []float64, seg *dataset.Segment, key powercache.Key, _ int, shift, scale, w float64) error {
	p, err := m.cache.Lookup(key, seg, shift)
	if err != nil {
		return err
	}
	for j, v := range p[:len(sum)] {
		a := v * scale
		sum[j] += a
		if sq != nil {
			sq[j] += a * a / w
		}
	}
	return nil
}

func (matched) bin(*dataset.Segment, int) (float64, bool) { return 0, false }

func newEstimator(m Mode, cache *powercache.Cache) (estimator, error) {
	switch m {
	case ModeSingle:
		return singleBin{}, nil
	case ModeThree:
		return threeBin{}, nil
	case ModeMatched:
		if cache == nil {
			return nil, ErrNoCache
		}
		return matched{cache: cache}, nil
	}
	return nil, ErrUnknownMode
}
