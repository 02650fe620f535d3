// Package search runs the fine-grid stage: it accumulates Doppler
// corrected power for every patch of the sky, derives upper limits per
// fine point and combines the polarizations into unified maps.
package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/internal/metrics"
	"github.com/cwbudde/algo-skypower/internal/monitoring"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/combine"
	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/search/powercache"
	"github.com/cwbudde/algo-skypower/sky"
	"github.com/cwbudde/algo-skypower/stats/confidence"
)

// Stage owns the accumulator, cache and limit engine of one run. It is
// not safe for concurrent use; independent stages may run in parallel.
type Stage struct {
	cfg      Config
	fine     *sky.Grid
	patches  *sky.PatchGrid
	datasets []*dataset.Dataset

	cache *powercache.Cache
	acc   *accum.Accumulator
	eng   *limits.Engine
	cal   limits.Calibration

	ran bool
}

// New validates the inputs and builds the stage.
func New(cfg Config, fine *sky.Grid, patches *sky.PatchGrid, datasets []*dataset.Dataset) (*Stage, error) {
	cfg = normalizeConfig(cfg)
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.SmallWeightRatio < 0 || cfg.SmallWeightRatio >= 1 {
		return nil, fmt.Errorf("%w: small weight ratio %g must be in [0, 1)", ErrInvalidConfig, cfg.SmallWeightRatio)
	}
	if fine == nil || fine.Len() == 0 {
		return nil, fmt.Errorf("%w: empty fine grid", ErrInvalidConfig)
	}
	if patches == nil || patches.Len() == 0 {
		return nil, fmt.Errorf("%w: empty patch grid", ErrInvalidConfig)
	}
	if err := patches.Validate(fine); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := checkDatasets(cfg, patches.Len(), datasets); err != nil {
		return nil, err
	}
	if cfg.CoherenceTime <= 0 {
		cfg.CoherenceTime = datasets[0].Coherence()
	}

	table := confidence.Default()
	if cfg.ConfidenceLevel != confidence.DefaultLevel {
		t, err := confidence.NewTable(cfg.ConfidenceLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		table = t
	}
	if err := table.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := &Stage{cfg: cfg, fine: fine, patches: patches, datasets: datasets}
	maxPatch := patches.MaxPatchSize()
	npol := len(datasets[0].Polarizations)

	if cfg.Mode == accum.ModeMatched {
		c, err := powercache.New(powercache.Config{
			Layout:    cfg.Layout,
			Capacity:  cfg.CacheCapacity,
			Tolerance: cfg.CacheTolerance,
			Window:    cfg.Window,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.cache = c
	}

	acc, err := accum.New(accum.Config{
		Layout:         cfg.Layout,
		Mode:           cfg.Mode,
		Weighted:       cfg.Weighted,
		ComputeSigma:   cfg.ComputeSigma,
		ComputeBetas:   cfg.ComputeBetas,
		SubtractLines:  cfg.SubtractLines,
		CutOff:         cfg.CutOff,
		PatchThreshold: cfg.PatchThreshold,
	}, fine, maxPatch, npol, s.cache)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.acc = acc

	eng, err := limits.New(limits.Config{
		Layout:        cfg.Layout,
		CoherenceTime: cfg.CoherenceTime,
		KSTest:        cfg.KSTest,
		ComputeBetas:  cfg.ComputeBetas,
		Table:         table,
	}, fine, maxPatch, datasets[0].Polarizations)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.eng = eng

	cal, err := limits.NewCalibration(limits.CalibrationConfig{
		Mode:          cfg.Mode,
		Upper:         cfg.UpperComp,
		Lower:         cfg.LowerComp,
		CoherenceTime: cfg.CoherenceTime,
		SampleRate:    cfg.SampleRate,
		StrainNorm:    cfg.StrainNorm,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.cal = cal
	return s, nil
}

func checkDatasets(cfg Config, npatches int, datasets []*dataset.Dataset) error {
	if len(datasets) == 0 {
		return fmt.Errorf("%w: no datasets", ErrInvalidConfig)
	}
	first := datasets[0]
	npol := len(first.Polarizations)
	if npol == 0 {
		return fmt.Errorf("%w: dataset %q has no polarizations", ErrInvalidConfig, first.Name)
	}
	for _, d := range datasets {
		if err := d.Validate(cfg.Layout.NBins, npol, npatches, cfg.Mode == accum.ModeMatched); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		for m := range d.Polarizations {
			if d.Polarizations[m].Name != first.Polarizations[m].Name {
				return fmt.Errorf("%w: dataset %q polarization %d is %q, want %q",
					ErrInvalidConfig, d.Name, m, d.Polarizations[m].Name, first.Polarizations[m].Name)
			}
		}
	}
	return nil
}

// Calibration returns the strain conversion used by Run.
func (s *Stage) Calibration() limits.Calibration { return s.cal }

// Run processes every patch in order, finalizes the limits and combines
// the polarizations. A stage runs once.
func (s *Stage) Run() (*Result, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true

	start := time.Now()
	id := uuid.New()
	rec := s.cfg.Metrics
	res := &Result{
		RunID: id,
		Mode:  s.acc.Mode(),
		fine:  s.fine,
	}

	monitoring.Logf("run %s: main loop: %d patches to process", id, s.patches.Len())
	for pi := range s.patches.Patches {
		patch := &s.patches.Patches[pi]
		if !patch.Center.Valid() {
			res.Skipped++
			rec.ObservePatch(metrics.OutcomeSkipped, 0)
			continue
		}

		t0 := time.Now()
		if err := s.acc.AccumulatePatch(pi, patch, s.datasets); err != nil {
			return nil, fmt.Errorf("run %s: patch %d: %w", id, pi, err)
		}
		s.acc.Finalize()
		if err := s.eng.MakeLimits(patch, s.acc.Buffers()); err != nil {
			return nil, fmt.Errorf("run %s: patch %d: %w", id, pi, err)
		}
		res.Patches++
		rec.ObservePatch(metrics.OutcomeProcessed, time.Since(t0))

		if res.Patches%s.cfg.ProgressEvery == 0 {
			monitoring.Logf("run %s: %d patches processed (%d/%d)", id, res.Patches, pi+1, s.patches.Len())
		}
	}

	if s.cache != nil {
		res.Cache = s.cache.Stats()
		monitoring.Logf("run %s: power cache hits %d misses %d average run %.2f",
			id, res.Cache.Hits, res.Cache.Misses, res.Cache.AverageRun())
		rec.AddCacheLookups(res.Cache.Hits, res.Cache.Misses)
	}
	res.Shifts = s.acc.Shifts()
	if res.Shifts.Seen() {
		monitoring.Logf("run %s: bin shift range [%d, %d]", id, res.Shifts.Min, res.Shifts.Max)
		rec.SetShiftRange(res.Shifts.Min, res.Shifts.Max)
	}

	s.eng.Finalize(s.cal)
	res.Calibration = s.cal
	res.Polarizations = s.eng.Polarizations()
	for _, p := range res.Polarizations {
		r := combine.Mask(p, s.fine, s.cfg.SmallWeightRatio)
		res.Reports = append(res.Reports, r)
		rec.SetMasked(p.Name, r.Masked)
		monitoring.Logf("run %s: polarization %s: %d points masked", id, p.Name, r.Masked)
	}
	res.Unified = combine.Unify(s.eng, s.fine)

	res.Elapsed = time.Since(start)
	rec.ObserveRun(res.Elapsed)
	monitoring.Logf("run %s: done in %s", id, res.Elapsed)
	return res, nil
}
