// Package accum accumulates Doppler-corrected segment power onto the fine
// sky points of one patch at a time.
//
// An [Accumulator] owns one [Buffer] per polarization. The lifecycle per
// patch is ResetForPatch, any number of Process calls (usually through
// AccumulatePatch), then Finalize, after which the buffers hold per-bin
// means ready for limit computation.
package accum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/search/powercache"
	"github.com/cwbudde/algo-skypower/sky"
)

// DefaultPatchThreshold bounds the patch pre-test
// cutoff*TMedian*F+^2 at the patch centre.
const DefaultPatchThreshold = 4.0

// Config configures an [Accumulator].
type Config struct {
	Layout doppler.Params
	Mode   Mode
	// Weighted selects noise-weighted sums. Otherwise every contributing
	// segment counts once.
	Weighted      bool
	ComputeSigma  bool
	ComputeBetas  bool
	SubtractLines bool
	// CutOff enables both the patch pre-test and the per-point
	// demodulation cutoff.
	CutOff         bool
	PatchThreshold float64
}

func normalizeConfig(cfg Config) Config {
	if cfg.PatchThreshold <= 0 {
		cfg.PatchThreshold = DefaultPatchThreshold
	}
	return cfg
}

// Accumulator sums segment power for the current patch. It is not safe
// for concurrent use.
type Accumulator struct {
	cfg   Config
	fine  *sky.Grid
	est   estimator
	cache *powercache.Cache
	bufs  []*Buffer

	patch  *sky.Patch
	pi     int
	shifts doppler.Tracker
}

// New returns an accumulator for npol polarizations and patches of up to
// maxPatch points. cache may be nil unless cfg.Mode is ModeMatched.
func New(cfg Config, fine *sky.Grid, maxPatch, npol int, cache *powercache.Cache) (*Accumulator, error) {
	cfg = normalizeConfig(cfg)
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("accumulator: %w", err)
	}
	if npol <= 0 {
		return nil, fmt.Errorf("accumulator: need at least one polarization, got %d", npol)
	}
	est, err := newEstimator(cfg.Mode, cache)
	if err != nil {
		return nil, fmt.Errorf("accumulator: %w", err)
	}

	a := &Accumulator{
		cfg:   cfg,
		fine:  fine,
		est:   est,
		cache: cache,
		bufs:  make([]*Buffer, npol),
		pi:    -1,
	}
	for i := range a.bufs {
		a.bufs[i] = newBuffer(maxPatch, cfg.Layout.Usable(), cfg.ComputeSigma)
	}
	return a, nil
}

// Mode returns the estimator in use.
func (a *Accumulator) Mode() Mode { return a.est.mode() }

// Buffers returns the per-polarization buffers.
func (a *Accumulator) Buffers() []*Buffer { return a.bufs }

// Shifts returns the range of integer bin shifts seen so far. Single-bin
// and three-bin modes report -round(s), so the window starts at SideCut
// minus the reported shift; matched mode reports round(s).
func (a *Accumulator) Shifts() doppler.Tracker { return a.shifts }

// Patch returns the current patch index and patch.
func (a *Accumulator) Patch() (int, *sky.Patch) { return a.pi, a.patch }

// ResetForPatch zeroes all buffers and makes patch current.
func (a *Accumulator) ResetForPatch(pi int, patch *sky.Patch) error {
	n := len(patch.Points)
	if n > len(a.bufs[0].TotalWeight) {
		return fmt.Errorf("%w: patch %d has %d points, buffers hold %d",
			ErrPatchTooLarge, pi, n, len(a.bufs[0].TotalWeight))
	}
	a.pi = pi
	a.patch = patch
	for _, b := range a.bufs {
		b.reset(n)
	}
	return nil
}

// Process adds segment k of dataset d, the di-th dataset, to polarization
// pol for every valid point of the current patch. cutoff is the already
// scaled per-patch cutoff; it is ignored unless CutOff is enabled.
func (a *Accumulator) Process(di int, d *dataset.Dataset, k, pol int, cutoff float64) error {
	if pol < 0 || pol >= len(a.bufs) || pol >= len(d.Polarizations) {
		return fmt.Errorf("%w: dataset %q polarization %d, accumulator has %d, dataset has %d",
			ErrDatasetShape, d.Name, pol, len(a.bufs), len(d.Polarizations))
	}
	if k < 0 || k >= len(d.Segments) {
		return fmt.Errorf("%w: dataset %q segment %d out of %d",
			ErrDatasetShape, d.Name, k, len(d.Segments))
	}
	pl := &d.Polarizations[pol]
	seg := &d.Segments[k]
	buf := a.bufs[pol]
	usable := buf.Usable
	limit := a.est.cutoffScale() * cutoff
	key := powercache.Key{Dataset: di, Segment: k}

	for i, idx := range a.patch.Points {
		p := a.fine.Points[idx]
		if !p.Valid() {
			continue
		}

		fp := pl.Plus.Response(k, p)
		fc := pl.Cross.Response(k, p)
		den := pl.PlusFactor*fp*fp + pl.CrossFactor*fc*fc
		if den <= 0 {
			continue
		}
		mod := 1 / den
		if a.cfg.CutOff && mod > limit {
			continue
		}

		shift := a.cfg.Layout.Shift(doppler.Term(p.E, seg.Velocity), d.Coherence(), seg.GPS)
		rs := doppler.Round(shift)
		reported := a.est.shiftSign() * rs
		a.shifts.Observe(reported)
		start, err := a.cfg.Layout.Window(rs, a.est.guard())
		if err != nil {
			return &ShiftError{Dataset: d.Name, Segment: k, Patch: a.pi, Point: idx, Shift: reported, Err: err}
		}

		w, scale := 1.0, mod
		if a.cfg.Weighted {
			w2 := seg.TMedian * d.Weight / mod
			w = w2 / (a.est.weightDivisor() * mod)
			scale = w2
		}

		buf.TotalWeight[i] += w
		if a.cfg.ComputeBetas {
			buf.Beta1[i] += w * fc * fp * mod
			buf.Beta2[i] += w * (-pl.CrossFactor*fp*fp + pl.PlusFactor*fc*fc) * mod
		}

		sum := buf.row(buf.Sum, i)
		sq := buf.row(buf.SqSum, i)
		if err := a.est.add(sum, sq, seg, key, start, shift, scale, w); err != nil {
			return fmt.Errorf("dataset %q segment %d patch %d point %d: %w", d.Name, k, a.pi, idx, err)
		}

		if !a.cfg.SubtractLines {
			continue
		}
		sub := buf.row(buf.SubWeight, i)
		for _, b := range d.Lines {
			if b < start || b >= start+usable {
				continue
			}
			v, ok := a.est.bin(seg, b)
			if !ok {
				break
			}
			off := b - start
			v *= scale
			sum[off] -= v
			if sq != nil {
				sq[off] -= v * v / w
			}
			sub[off] += w
		}
	}
	return nil
}

// AccumulatePatch resets the buffers for patch pi and processes every
// segment of every dataset against it. Polarizations whose patch-level
// response is too weak are skipped when CutOff is enabled. The power
// cache is flushed on return.
func (a *Accumulator) AccumulatePatch(pi int, patch *sky.Patch, datasets []*dataset.Dataset) error {
	if err := a.ResetForPatch(pi, patch); err != nil {
		return err
	}
	if a.cache != nil {
		defer a.cache.Flush()
	}

	for di, d := range datasets {
		if len(d.Polarizations) != len(a.bufs) {
			return fmt.Errorf("%w: dataset %q has %d polarizations, accumulator has %d",
				ErrDatasetShape, d.Name, len(d.Polarizations), len(a.bufs))
		}
		for m := range d.Polarizations {
			if pi < 0 || pi >= len(d.Polarizations[m].PatchCutOff) {
				return fmt.Errorf("%w: dataset %q polarization %d has no cutoff for patch %d",
					ErrDatasetShape, d.Name, m, pi)
			}
		}
		for k := range d.Segments {
			tm := d.Segments[k].TMedian
			for m := range d.Polarizations {
				pl := &d.Polarizations[m]
				cut := pl.PatchCutOff[pi]
				if a.cfg.CutOff {
					r := pl.Plus.Response(k, patch.Center)
					if cut*tm*r*r >= a.cfg.PatchThreshold {
						continue
					}
				}
				if err := a.Process(di, d, k, m, cut*math.Sqrt(tm)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Finalize turns the running sums of the current patch into per-bin
// means. Each bin is divided by the total weight less the weight removed
// from that bin by line subtraction; bins with no remaining weight keep
// their raw sums. Betas become weighted averages and lag-1/lag-2
// correlations of the resulting spectrum are recorded.
func (a *Accumulator) Finalize() {
	for _, b := range a.bufs {
		for i, idx := range a.patch.Points {
			if !a.fine.Points[idx].Valid() {
				continue
			}
			finalizePoint(b, i, a.cfg.ComputeBetas)
		}
	}
}

func finalizePoint(b *Buffer, i int, betas bool) {
	b.MaxSubWeight[i] = 0
	total := b.TotalWeight[i]
	sum := b.row(b.Sum, i)

	if total > 0 {
		if betas {
			b.Beta1[i] /= total
			b.Beta2[i] /= total
		}

		sub := b.row(b.SubWeight, i)
		sq := b.row(b.SqSum, i)
		sigma := b.row(b.Sigma, i)
		for k := range sum {
			if sub[k] > b.MaxSubWeight[i] {
				b.MaxSubWeight[i] = sub[k]
			}
			c := total - sub[k]
			if c <= 0 {
				continue
			}
			mean := sum[k] / c
			sum[k] = mean
			if sq != nil {
				sigma[k] = math.Sqrt(math.Max(0, sq[k]/c-mean*mean))
			}
		}
	}

	b.Cor1[i] = LagCorrelation(sum, 1)
	b.Cor2[i] = LagCorrelation(sum, 2)
}
