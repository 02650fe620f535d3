// Package config loads the JSON configuration of a fine-grid search.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/search/limits"
)

// SearchConfig is the on-disk search configuration. Omitted fields take
// the defaults returned by the Get* methods, so partial files are safe.
type SearchConfig struct {
	// Frequency layout
	FirstBin      *int     `json:"first_bin,omitempty"`
	NBins         *int     `json:"nbins,omitempty"`
	SideCut       *int     `json:"side_cut,omitempty"`
	Spindown      *float64 `json:"spindown,omitempty"`
	SpindownStart *float64 `json:"spindown_start,omitempty"`
	CoherenceTime *float64 `json:"coherence_time,omitempty"`

	// Accumulation
	AveragingMode  *string  `json:"averaging_mode,omitempty"` // "single", "three" or "matched"
	WeightedSum    *bool    `json:"weighted_sum,omitempty"`
	ComputeSigma   *bool    `json:"compute_sigma,omitempty"`
	ComputeBetas   *bool    `json:"compute_betas,omitempty"`
	SubtractLines  *bool    `json:"subtract_lines,omitempty"`
	CutOff         *bool    `json:"do_cutoff,omitempty"`
	PatchThreshold *float64 `json:"patch_threshold,omitempty"`

	// Limits
	KSTest           *bool    `json:"ks_test,omitempty"`
	UpperLimitComp   *string  `json:"upper_limit_comp,omitempty"` // "hann", a window name or a factor
	LowerLimitComp   *string  `json:"lower_limit_comp,omitempty"`
	StrainNormFactor *float64 `json:"strain_norm_factor,omitempty"`
	SampleRate       *float64 `json:"sample_rate,omitempty"`
	ConfidenceLevel  *float64 `json:"confidence_level,omitempty"`
	SmallWeightRatio *float64 `json:"small_weight_ratio,omitempty"`

	// Matched filter cache
	Window         *string  `json:"window,omitempty"`
	CacheCapacity  *int     `json:"cache_capacity,omitempty"`
	CacheTolerance *float64 `json:"cache_tolerance,omitempty"`

	ProgressEvery *int `json:"progress_every,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// maxFileSize bounds configuration files (1MB).
const maxFileSize = 1 * 1024 * 1024

// Load reads a SearchConfig from a JSON file.
// The file must have a .json extension and be under the max file size.
func Load(path string) (*SearchConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &SearchConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *SearchConfig) Validate() error {
	if c.FirstBin != nil && *c.FirstBin < 0 {
		return fmt.Errorf("first_bin must be non-negative, got %d", *c.FirstBin)
	}
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("frequency layout: %w", err)
	}
	if c.CoherenceTime != nil && *c.CoherenceTime <= 0 {
		return fmt.Errorf("coherence_time must be positive, got %f", *c.CoherenceTime)
	}
	if _, err := accum.ParseMode(c.GetAveragingMode()); err != nil {
		return fmt.Errorf("averaging_mode: %w", err)
	}
	if c.PatchThreshold != nil && *c.PatchThreshold <= 0 {
		return fmt.Errorf("patch_threshold must be positive, got %f", *c.PatchThreshold)
	}
	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}
	if c.StrainNormFactor != nil && *c.StrainNormFactor <= 0 {
		return fmt.Errorf("strain_norm_factor must be positive, got %f", *c.StrainNormFactor)
	}
	if _, err := limits.NewCalibration(limits.CalibrationConfig{
		Upper: c.GetUpperLimitComp(),
		Lower: c.GetLowerLimitComp(),
	}); err != nil {
		return err
	}
	if c.ConfidenceLevel != nil && (*c.ConfidenceLevel <= 0 || *c.ConfidenceLevel >= 1) {
		return fmt.Errorf("confidence_level must be between 0 and 1, got %f", *c.ConfidenceLevel)
	}
	if c.SmallWeightRatio != nil && (*c.SmallWeightRatio <= 0 || *c.SmallWeightRatio >= 1) {
		return fmt.Errorf("small_weight_ratio must be between 0 and 1, got %f", *c.SmallWeightRatio)
	}
	if _, err := window.ParseType(c.GetWindow()); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	if c.CacheCapacity != nil && *c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", *c.CacheCapacity)
	}
	if c.CacheTolerance != nil && *c.CacheTolerance <= 0 {
		return fmt.Errorf("cache_tolerance must be positive, got %f", *c.CacheTolerance)
	}
	if c.ProgressEvery != nil && *c.ProgressEvery <= 0 {
		return fmt.Errorf("progress_every must be positive, got %d", *c.ProgressEvery)
	}
	return nil
}

// Layout returns the frequency layout.
func (c *SearchConfig) Layout() doppler.Params {
	return doppler.Params{
		FirstBin:      c.GetFirstBin(),
		NBins:         c.GetNBins(),
		SideCut:       c.GetSideCut(),
		Spindown:      c.GetSpindown(),
		SpindownStart: c.GetSpindownStart(),
	}
}

// Stage converts the file into a stage configuration.
func (c *SearchConfig) Stage() (search.Config, error) {
	if err := c.Validate(); err != nil {
		return search.Config{}, err
	}
	mode, _ := accum.ParseMode(c.GetAveragingMode())
	win, _ := window.ParseType(c.GetWindow())

	cfg := search.DefaultConfig(c.Layout())
	cfg.CoherenceTime = c.GetCoherenceTime()
	cfg.Mode = mode
	cfg.Weighted = c.GetWeightedSum()
	cfg.ComputeSigma = c.GetComputeSigma()
	cfg.ComputeBetas = c.GetComputeBetas()
	cfg.SubtractLines = c.GetSubtractLines()
	cfg.CutOff = c.GetCutOff()
	cfg.PatchThreshold = c.GetPatchThreshold()
	cfg.KSTest = c.GetKSTest()
	cfg.UpperComp = c.GetUpperLimitComp()
	cfg.LowerComp = c.GetLowerLimitComp()
	cfg.StrainNorm = c.GetStrainNormFactor()
	cfg.SampleRate = c.GetSampleRate()
	cfg.ConfidenceLevel = c.GetConfidenceLevel()
	cfg.SmallWeightRatio = c.GetSmallWeightRatio()
	cfg.Window = win
	cfg.CacheCapacity = c.GetCacheCapacity()
	cfg.CacheTolerance = c.GetCacheTolerance()
	cfg.ProgressEvery = c.GetProgressEvery()
	return cfg, nil
}

// Defaults returns a configuration with every field set to its default.
// It is what skysum -write-defaults prints.
func Defaults() *SearchConfig {
	c := &SearchConfig{}
	return &SearchConfig{
		FirstBin:         ptrInt(c.GetFirstBin()),
		NBins:            ptrInt(c.GetNBins()),
		SideCut:          ptrInt(c.GetSideCut()),
		Spindown:         ptrFloat64(c.GetSpindown()),
		SpindownStart:    ptrFloat64(c.GetSpindownStart()),
		CoherenceTime:    ptrFloat64(c.GetCoherenceTime()),
		AveragingMode:    ptrString(c.GetAveragingMode()),
		WeightedSum:      ptrBool(c.GetWeightedSum()),
		ComputeSigma:     ptrBool(c.GetComputeSigma()),
		ComputeBetas:     ptrBool(c.GetComputeBetas()),
		SubtractLines:    ptrBool(c.GetSubtractLines()),
		CutOff:           ptrBool(c.GetCutOff()),
		PatchThreshold:   ptrFloat64(c.GetPatchThreshold()),
		KSTest:           ptrBool(c.GetKSTest()),
		UpperLimitComp:   ptrString(c.GetUpperLimitComp()),
		LowerLimitComp:   ptrString(c.GetLowerLimitComp()),
		StrainNormFactor: ptrFloat64(c.GetStrainNormFactor()),
		SampleRate:       ptrFloat64(c.GetSampleRate()),
		ConfidenceLevel:  ptrFloat64(c.GetConfidenceLevel()),
		SmallWeightRatio: ptrFloat64(c.GetSmallWeightRatio()),
		Window:           ptrString(c.GetWindow()),
		CacheCapacity:    ptrInt(c.GetCacheCapacity()),
		CacheTolerance:   ptrFloat64(c.GetCacheTolerance()),
		ProgressEvery:    ptrInt(c.GetProgressEvery()),
	}
}
