// Package limits turns finalized per-bin means into robust statistics and
// Feldman-Cousins upper and lower limits for every fine point, folding
// them into sky maps and band spectral plots.
package limits

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/sky"
	"github.com/cwbudde/algo-skypower/stats/confidence"
	"github.com/cwbudde/algo-skypower/stats/robust"
)

// Config configures an [Engine].
type Config struct {
	Layout        doppler.Params
	CoherenceTime float64
	KSTest        bool
	ComputeBetas  bool
	// Table inverts the confidence belt. nil selects confidence.Default.
	Table *confidence.Table
}

func normalizeConfig(cfg Config) Config {
	if cfg.CoherenceTime <= 0 {
		cfg.CoherenceTime = dataset.DefaultCoherenceTime
	}
	if cfg.Table == nil {
		cfg.Table = confidence.Default()
	}
	return cfg
}

// Engine computes limits patch by patch. It is not safe for concurrent
// use.
type Engine struct {
	cfg    Config
	fine   *sky.Grid
	usable int
	est    *robust.Estimator

	pols     []*Polarization
	circular *Circular
	// circOn is set when betas are computed and at least one
	// polarization is linear.
	circOn bool

	circ     []float64
	circFreq []float64

	finalized bool
}

// New returns an engine for the given polarizations and patches of up to
// maxPatch points.
func New(cfg Config, fine *sky.Grid, maxPatch int, pols []dataset.Polarization) (*Engine, error) {
	cfg = normalizeConfig(cfg)
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	if len(pols) == 0 {
		return nil, fmt.Errorf("limits: no polarizations")
	}

	usable := cfg.Layout.Usable()
	flags := robust.Flags(0)
	if cfg.KSTest {
		flags |= robust.FlagKSTest
	}
	e := &Engine{
		cfg:      cfg,
		fine:     fine,
		usable:   usable,
		est:      robust.NewEstimator(usable, flags),
		circular: newCircular(fine.Len(), fine.NBands(), usable),
		circ:     make([]float64, maxPatch*usable),
		circFreq: make([]float64, maxPatch*usable),
	}
	for i := range pols {
		p := &Polarization{
			Name:          pols[i].Name,
			Linear:        pols[i].Linear(),
			Sky:           NewSkyMap(fine.Len()),
			Spectral:      NewSpectralPlot(fine.NBands(), usable),
			BandMaskRatio: make([]float64, fine.NBands()),
		}
		e.pols = append(e.pols, p)
		if p.Linear && cfg.ComputeBetas {
			e.circOn = true
		}
	}
	return e, nil
}

// Polarizations returns the per-polarization results.
func (e *Engine) Polarizations() []*Polarization { return e.pols }

// Circular returns the circular polarization limits.
func (e *Engine) Circular() *Circular { return e.circular }

// CircularEnabled reports whether circular limits are computed.
func (e *Engine) CircularEnabled() bool { return e.circOn }

// Frequency returns the frequency in Hz of usable bin k.
func (e *Engine) Frequency(k int) float64 {
	return float64(e.cfg.Layout.FirstBin+e.cfg.Layout.SideCut+k) / e.cfg.CoherenceTime
}

// MakeLimits processes the finalized buffers of patch, one per
// polarization in the order given to New, and folds the per-patch
// circular limit into the circular maps.
func (e *Engine) MakeLimits(patch *sky.Patch, bufs []*accum.Buffer) error {
	if len(bufs) != len(e.pols) {
		return fmt.Errorf("limits: %d buffers for %d polarizations", len(bufs), len(e.pols))
	}
	n := len(patch.Points) * e.usable
	if n > len(e.circ) {
		return fmt.Errorf("limits: patch of %d points exceeds buffers", len(patch.Points))
	}
	for i := range e.circ[:n] {
		e.circ[i] = circInit
	}

	for m, p := range e.pols {
		e.makeLimits(p, patch, bufs[m])
	}
	if e.circOn {
		e.foldCircular(patch)
	}
	return nil
}

func (e *Engine) makeLimits(pol *Polarization, patch *sky.Patch, buf *accum.Buffer) {
	sm, sp := pol.Sky, pol.Spectral
	tab := e.cfg.Table
	u := e.usable

	for i, idx := range patch.Points {
		pt := e.fine.Points[idx]
		if !pt.Valid() {
			continue
		}
		band := pt.Band

		sm.TotalWeight[idx] = buf.TotalWeight[i]
		sm.Beta1[idx] = buf.Beta1[i]
		sm.Beta2[idx] = buf.Beta2[i]
		sm.Cor1[idx] = buf.Cor1[i]
		sm.Cor2[idx] = buf.Cor2[i]
		sm.MaxSubWeight[idx] = buf.MaxSubWeight[i]

		spec := buf.Spectrum(i)
		sub := buf.Subtracted(i)
		st := e.est.Compute(spec)
		sm.Mean[idx] = st.Mean
		sm.Sigma[idx] = st.Sigma
		sm.KSTest[idx] = st.KSTest
		sm.KSCount[idx] = st.KSCount
		sm.MaxUpper[idx] = 0
		sm.MaxLower[idx] = 0

		circ := pol.Linear && e.cfg.ComputeBetas
		total := buf.TotalWeight[i]

		for k, v := range spec {
			dx := st.Deviation(v)
			s := band*u + k

			a := tab.Upper(dx) * st.Sigma
			if a > sm.MaxUpper[idx] {
				sm.MaxUpper[idx] = a
				sm.Freq[idx] = e.Frequency(k)
			}
			if a > sp.MaxUpper[s] {
				sp.MaxUpper[s] = a
				sp.ULLon[s] = pt.Longitude
				sp.ULLat[s] = pt.Latitude
			}

			if dx > sm.MaxDx[idx] {
				sm.MaxDx[idx] = dx
			}
			if dx > sp.MaxDx[s] {
				sp.MaxDx[s] = dx
				sp.DxLon[s] = pt.Longitude
				sp.DxLat[s] = pt.Latitude
			}

			if circ {
				c := a / (1 + sm.Beta2[idx])
				j := i*u + k
				if c < e.circ[j] {
					e.circ[j] = c
					e.circFreq[j] = e.Frequency(k)
				}
			}

			if l := tab.Lower(dx) * st.Sigma; l > sm.MaxLower[idx] {
				sm.MaxLower[idx] = l
			}

			if total > 0 {
				if r := sub[k] / total; r > sp.MaxMaskRatio[s] {
					sp.MaxMaskRatio[s] = r
				}
			}
		}
	}
}

func (e *Engine) foldCircular(patch *sky.Patch) {
	u := e.usable
	c := e.circular
	for i, idx := range patch.Points {
		pt := e.fine.Points[idx]
		if !pt.Valid() {
			continue
		}
		for k := 0; k < u; k++ {
			a := e.circ[i*u+k]
			if s := pt.Band*u + k; a > c.Spectral[s] {
				c.Spectral[s] = a
			}
			if a > c.UL[idx] {
				c.UL[idx] = a
				c.Freq[idx] = e.circFreq[i*u+k]
			}
		}
	}
}

// Finalize converts the accumulated power limits to strain with cal,
// writes [Invalid] into points outside the analysed bands and records
// the per-band mask ratio. Later calls do nothing.
func (e *Engine) Finalize(cal Calibration) {
	if e.finalized {
		return
	}
	e.finalized = true

	for _, p := range e.pols {
		sm := p.Sky
		for i, pt := range e.fine.Points {
			if !pt.Valid() {
				sm.MaxUpper[i] = Invalid
				sm.MaxLower[i] = Invalid
				continue
			}
			sm.MaxUpper[i] = math.Sqrt(sm.MaxUpper[i]) * cal.Upper
			sm.MaxLower[i] = math.Sqrt(sm.MaxLower[i]) * cal.Lower
		}

		sp := p.Spectral
		for b := range p.BandMaskRatio {
			r := sp.Band(sp.MaxMaskRatio, b)
			p.BandMaskRatio[b] = r[0]
			for _, v := range r[1:] {
				if v > p.BandMaskRatio[b] {
					p.BandMaskRatio[b] = v
				}
			}
		}
		for i, v := range sp.MaxUpper {
			sp.MaxUpper[i] = math.Sqrt(v) * cal.Upper
		}
	}

	if !e.circOn {
		return
	}
	c := e.circular
	for i, pt := range e.fine.Points {
		if !pt.Valid() {
			c.UL[i] = Invalid
			c.Freq[i] = Invalid
			continue
		}
		if c.UL[i] >= 0 {
			c.UL[i] = math.Sqrt(c.UL[i]) * cal.Upper
		}
	}
	for i, v := range c.Spectral {
		if v >= 0 {
			c.Spectral[i] = math.Sqrt(v) * cal.Upper
		}
	}
}
