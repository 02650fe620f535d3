package config

import (
	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/combine"
	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/search/powercache"
	"github.com/cwbudde/algo-skypower/stats/confidence"
)

// GetFirstBin returns the first_bin value or the default.
func (c *SearchConfig) GetFirstBin() int {
	if c.FirstBin == nil {
		return 1800 // 1 Hz at the default coherence time
	}
	return *c.FirstBin
}

// GetNBins returns the nbins value or the default.
func (c *SearchConfig) GetNBins() int {
	if c.NBins == nil {
		return 501
	}
	return *c.NBins
}

// GetSideCut returns the side_cut value or the default.
func (c *SearchConfig) GetSideCut() int {
	if c.SideCut == nil {
		return 10
	}
	return *c.SideCut
}

// GetSpindown returns the spindown value or the default.
func (c *SearchConfig) GetSpindown() float64 {
	if c.Spindown == nil {
		return 0
	}
	return *c.Spindown
}

// GetSpindownStart returns the spindown_start value or the default.
func (c *SearchConfig) GetSpindownStart() float64 {
	if c.SpindownStart == nil {
		return 0
	}
	return *c.SpindownStart
}

// GetCoherenceTime returns the coherence_time value or the default.
func (c *SearchConfig) GetCoherenceTime() float64 {
	if c.CoherenceTime == nil {
		return dataset.DefaultCoherenceTime
	}
	return *c.CoherenceTime
}

// GetAveragingMode returns the averaging_mode value or the default.
func (c *SearchConfig) GetAveragingMode() string {
	if c.AveragingMode == nil || *c.AveragingMode == "" {
		return accum.ModeSingle.String()
	}
	return *c.AveragingMode
}

// GetWeightedSum returns the weighted_sum value or the default.
func (c *SearchConfig) GetWeightedSum() bool {
	if c.WeightedSum == nil {
		return true
	}
	return *c.WeightedSum
}

// GetComputeSigma returns the compute_sigma value or the default.
func (c *SearchConfig) GetComputeSigma() bool {
	if c.ComputeSigma == nil {
		return false
	}
	return *c.ComputeSigma
}

// GetComputeBetas returns the compute_betas value or the default.
func (c *SearchConfig) GetComputeBetas() bool {
	if c.ComputeBetas == nil {
		return true
	}
	return *c.ComputeBetas
}

// GetSubtractLines returns the subtract_lines value or the default.
func (c *SearchConfig) GetSubtractLines() bool {
	if c.SubtractLines == nil {
		return true
	}
	return *c.SubtractLines
}

// GetCutOff returns the do_cutoff value or the default.
func (c *SearchConfig) GetCutOff() bool {
	if c.CutOff == nil {
		return true
	}
	return *c.CutOff
}

// GetPatchThreshold returns the patch_threshold value or the default.
func (c *SearchConfig) GetPatchThreshold() float64 {
	if c.PatchThreshold == nil {
		return accum.DefaultPatchThreshold
	}
	return *c.PatchThreshold
}

// GetKSTest returns the ks_test value or the default.
func (c *SearchConfig) GetKSTest() bool {
	if c.KSTest == nil {
		return true
	}
	return *c.KSTest
}

// GetUpperLimitComp returns the upper_limit_comp value or the default.
func (c *SearchConfig) GetUpperLimitComp() string {
	if c.UpperLimitComp == nil || *c.UpperLimitComp == "" {
		return limits.PresetHann
	}
	return *c.UpperLimitComp
}

// GetLowerLimitComp returns the lower_limit_comp value or the default.
func (c *SearchConfig) GetLowerLimitComp() string {
	if c.LowerLimitComp == nil || *c.LowerLimitComp == "" {
		return limits.PresetHann
	}
	return *c.LowerLimitComp
}

// GetStrainNormFactor returns the strain_norm_factor value or the default.
func (c *SearchConfig) GetStrainNormFactor() float64 {
	if c.StrainNormFactor == nil {
		return 1
	}
	return *c.StrainNormFactor
}

// GetSampleRate returns the sample_rate value or the default.
func (c *SearchConfig) GetSampleRate() float64 {
	if c.SampleRate == nil {
		return limits.DefaultSampleRate
	}
	return *c.SampleRate
}

// GetConfidenceLevel returns the confidence_level value or the default.
func (c *SearchConfig) GetConfidenceLevel() float64 {
	if c.ConfidenceLevel == nil {
		return confidence.DefaultLevel
	}
	return *c.ConfidenceLevel
}

// GetSmallWeightRatio returns the small_weight_ratio value or the default.
func (c *SearchConfig) GetSmallWeightRatio() float64 {
	if c.SmallWeightRatio == nil {
		return combine.DefaultSmallWeightRatio
	}
	return *c.SmallWeightRatio
}

// GetWindow returns the window value or the default.
func (c *SearchConfig) GetWindow() string {
	if c.Window == nil || *c.Window == "" {
		return window.TypeHann.String()
	}
	return *c.Window
}

// GetCacheCapacity returns the cache_capacity value or the default.
func (c *SearchConfig) GetCacheCapacity() int {
	if c.CacheCapacity == nil {
		return powercache.DefaultCapacity
	}
	return *c.CacheCapacity
}

// GetCacheTolerance returns the cache_tolerance value or the default.
func (c *SearchConfig) GetCacheTolerance() float64 {
	if c.CacheTolerance == nil {
		return powercache.DefaultTolerance
	}
	return *c.CacheTolerance
}

// GetProgressEvery returns the progress_every value or the default.
func (c *SearchConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return search.DefaultProgressEvery
	}
	return *c.ProgressEvery
}
