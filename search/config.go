package search

import (
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/internal/metrics"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/combine"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/search/powercache"
	"github.com/cwbudde/algo-skypower/stats/confidence"
)

// DefaultProgressEvery is the number of processed patches between
// progress messages.
const DefaultProgressEvery = 100

// Config configures a [Stage].
type Config struct {
	Layout doppler.Params
	// CoherenceTime of the segments in seconds. Zero takes it from the
	// first dataset.
	CoherenceTime float64

	Mode          accum.Mode
	Weighted      bool
	ComputeSigma  bool
	ComputeBetas  bool
	SubtractLines bool
	CutOff        bool
	KSTest        bool

	PatchThreshold float64

	// UpperComp and LowerComp select the limit compensation, see
	// limits.CalibrationConfig.
	UpperComp  string
	LowerComp  string
	SampleRate float64
	StrainNorm float64

	SmallWeightRatio float64
	ConfidenceLevel  float64

	// Window, CacheCapacity and CacheTolerance configure the matched
	// filter cache.
	Window         window.Type
	CacheCapacity  int
	CacheTolerance float64

	ProgressEvery int

	// Metrics is optional.
	Metrics *metrics.Recorder
}

// DefaultConfig returns the usual settings for a layout: single-bin,
// weighted sums with betas, line subtraction, cutoff and KS test.
func DefaultConfig(layout doppler.Params) Config {
	return Config{
		Layout:           layout,
		Mode:             accum.ModeSingle,
		Weighted:         true,
		ComputeBetas:     true,
		SubtractLines:    true,
		CutOff:           true,
		KSTest:           true,
		PatchThreshold:   accum.DefaultPatchThreshold,
		UpperComp:        limits.PresetHann,
		LowerComp:        limits.PresetHann,
		SampleRate:       limits.DefaultSampleRate,
		StrainNorm:       1,
		SmallWeightRatio: combine.DefaultSmallWeightRatio,
		ConfidenceLevel:  confidence.DefaultLevel,
		Window:           window.TypeHann,
		CacheCapacity:    powercache.DefaultCapacity,
		CacheTolerance:   powercache.DefaultTolerance,
		ProgressEvery:    DefaultProgressEvery,
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.PatchThreshold <= 0 {
		cfg.PatchThreshold = accum.DefaultPatchThreshold
	}
	if cfg.SmallWeightRatio == 0 {
		cfg.SmallWeightRatio = combine.DefaultSmallWeightRatio
	}
	if cfg.ConfidenceLevel == 0 {
		cfg.ConfidenceLevel = confidence.DefaultLevel
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	return cfg
}
