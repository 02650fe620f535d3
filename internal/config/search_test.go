package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/doppler"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	c := &SearchConfig{}
	require.NoError(t, c.Validate())

	if c.GetAveragingMode() != "single" {
		t.Errorf("GetAveragingMode() = %q, want single", c.GetAveragingMode())
	}
	if !c.GetWeightedSum() || !c.GetComputeBetas() || !c.GetSubtractLines() || !c.GetCutOff() || !c.GetKSTest() {
		t.Error("weighted_sum, compute_betas, subtract_lines, do_cutoff and ks_test default to true")
	}
	if c.GetComputeSigma() {
		t.Error("compute_sigma defaults to false")
	}
	if c.GetConfidenceLevel() != 0.95 {
		t.Errorf("GetConfidenceLevel() = %f, want 0.95", c.GetConfidenceLevel())
	}
	if c.GetSmallWeightRatio() != 0.2 {
		t.Errorf("GetSmallWeightRatio() = %f, want 0.2", c.GetSmallWeightRatio())
	}
	if c.GetWindow() != "hann" || c.GetUpperLimitComp() != "hann" || c.GetLowerLimitComp() != "hann" {
		t.Error("window and compensation default to hann")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "search.json", `{
  "first_bin": 990,
  "nbins": 40,
  "side_cut": 8,
  "averaging_mode": "matched",
  "weighted_sum": false,
  "do_cutoff": false,
  "confidence_level": 0.9,
  "window": "flat-top",
  "cache_capacity": 50,
  "upper_limit_comp": "1.2"
}`)

	c, err := Load(path)
	require.NoError(t, err)

	want := doppler.Params{FirstBin: 990, NBins: 40, SideCut: 8}
	if diff := cmp.Diff(want, c.Layout()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}

	got, err := c.Stage()
	require.NoError(t, err)

	exp := search.DefaultConfig(want)
	exp.Mode = accum.ModeMatched
	exp.Weighted = false
	exp.CutOff = false
	exp.ConfidenceLevel = 0.9
	exp.Window = window.TypeFlatTop
	exp.CacheCapacity = 50
	exp.UpperComp = "1.2"
	exp.CoherenceTime = 1800
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("stage config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "search.yaml", `{}`, ".json extension"},
		{"syntax", "bad.json", `{"nbins": `, "failed to parse config JSON"},
		{"layout", "layout.json", `{"nbins": 10, "side_cut": 5}`, "frequency layout"},
		{"first bin", "first.json", `{"first_bin": -1}`, "first_bin"},
		{"mode", "mode.json", `{"averaging_mode": "five"}`, "averaging_mode"},
		{"window", "window.json", `{"window": "kaiser-ish"}`, "window"},
		{"level", "level.json", `{"confidence_level": 1}`, "confidence_level"},
		{"ratio", "ratio.json", `{"small_weight_ratio": 0}`, "small_weight_ratio"},
		{"compensation", "comp.json", `{"lower_limit_comp": "-2"}`, "lower limit compensation"},
		{"cache", "cache.json", `{"cache_tolerance": -0.1}`, "cache_tolerance"},
		{"progress", "progress.json", `{"progress_every": 0}`, "progress_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat config file")
}

func TestLoadTooLarge(t *testing.T) {
	body := `{"nbins": 40` + strings.Repeat(" ", maxFileSize) + `}`
	_, err := Load(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestDefaultsRoundTrip(t *testing.T) {
	data, err := json.MarshalIndent(Defaults(), "", "  ")
	require.NoError(t, err)
	path := writeConfig(t, "defaults.json", string(data))

	c, err := Load(path)
	require.NoError(t, err)
	fromFile, err := c.Stage()
	require.NoError(t, err)
	fromEmpty, err := (&SearchConfig{}).Stage()
	require.NoError(t, err)
	if diff := cmp.Diff(fromEmpty, fromFile); diff != "" {
		t.Errorf("defaults file differs from built-in defaults (-want +got):\n%s", diff)
	}
}
