// Package powercache memoizes matched-filter power spectra of one segment
// for the sub-bin shifts requested while a patch is processed.
//
// Nearby sky points see almost the same Doppler shift, so most lookups
// within a segment hit an earlier entry. A hit returns the very slice
// filled on the miss; callers must treat it as read-only.
package powercache

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/interp"
	"github.com/cwbudde/algo-skypower/dsp/spectrum"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search/doppler"
)

const (
	// DefaultCapacity is the number of distinct shifts kept per segment.
	DefaultCapacity = 100
	// DefaultTolerance is the largest shift difference treated as a hit.
	DefaultTolerance = 0.05
)

// Guard is the number of bins the filter reads past each end of the
// usable window.
const Guard = interp.Taps / 2

// ErrOverflow is returned when a segment requests more distinct shifts
// than the cache holds.
var ErrOverflow = errors.New("power cache overflowed")

// Key identifies the segment a cache generation belongs to.
type Key struct {
	Dataset int
	Segment int
}

// Config configures a [Cache].
type Config struct {
	Layout    doppler.Params
	Capacity  int
	Tolerance float64
	// Window is the window the segment spectra were taken with.
	Window window.Type
	// Steps is the number of tabulated fractional offsets.
	Steps int
}

func normalizeConfig(cfg Config) Config {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Steps <= 0 {
		cfg.Steps = interp.DefaultSteps
	}
	return cfg
}

type slot struct {
	shift float64
	power []float64
}

// Stats holds run-wide counters.
type Stats struct {
	Hits   int64
	Misses int64
	// RunTotal sums, over all misses, the number of lookups since the
	// previous miss including the miss itself.
	RunTotal int64
}

// AverageRun returns the mean number of lookups served per miss.
func (s Stats) AverageRun() float64 {
	if s.Misses == 0 {
		return 0
	}
	return float64(s.RunTotal) / float64(s.Misses)
}

// Cache is a per-segment power cache. It is not safe for concurrent use.
type Cache struct {
	cfg    Config
	filter *interp.Filter7

	key    Key
	active bool
	slots  []slot
	used   int
	streak int64

	re, im []float64
	stats  Stats
}

// New returns an empty cache.
func New(cfg Config) (*Cache, error) {
	cfg = normalizeConfig(cfg)
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("power cache: %w", err)
	}
	n := cfg.Layout.Usable()
	c := &Cache{
		cfg:    cfg,
		filter: interp.NewFilter7(cfg.Window, cfg.Steps),
		slots:  make([]slot, cfg.Capacity),
		re:     make([]float64, n),
		im:     make([]float64, n),
	}
	for i := range c.slots {
		c.slots[i].power = make([]float64, n)
	}
	return c, nil
}

// Lookup returns the matched-filter power of seg for a fractional shift.
// A change of key discards all entries first.
func (c *Cache) Lookup(key Key, seg *dataset.Segment, shift float64) ([]float64, error) {
	if !c.active || key != c.key {
		c.key = key
		c.active = true
		c.used = 0
	}

	for i := 0; i < c.used; i++ {
		if math.Abs(c.slots[i].shift-shift) < c.cfg.Tolerance {
			c.streak++
			c.stats.Hits++
			return c.slots[i].power, nil
		}
	}

	c.stats.Misses++
	c.stats.RunTotal += c.streak + 1
	c.streak = 0

	if c.used >= len(c.slots) {
		return nil, fmt.Errorf("%w: more than %d shifts for dataset %d segment %d",
			ErrOverflow, len(c.slots), key.Dataset, key.Segment)
	}

	s := &c.slots[c.used]
	if err := c.fill(s.power, seg, shift); err != nil {
		return nil, err
	}
	s.shift = shift
	c.used++
	return s.power, nil
}

func (c *Cache) fill(dst []float64, seg *dataset.Segment, shift float64) error {
	rs := doppler.Round(shift)
	start, err := c.cfg.Layout.Window(rs, Guard)
	if err != nil {
		return err
	}

	var taps [interp.Taps]float64
	c.filter.Fill(&taps, shift-float64(rs))

	for i := range dst {
		c.re[i] = interp.Apply(&taps, seg.Re, start+i)
		c.im[i] = interp.Apply(&taps, seg.Im, start+i)
	}
	spectrum.PowerFromParts(dst, c.re, c.im)
	return nil
}

// Len returns the number of entries for the current key.
func (c *Cache) Len() int { return c.used }

// Flush empties the cache and forgets the current key.
func (c *Cache) Flush() {
	c.used = 0
	c.active = false
}

// Stats returns the counters accumulated since creation.
func (c *Cache) Stats() Stats { return c.stats }
