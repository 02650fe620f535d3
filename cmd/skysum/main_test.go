package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-skypower/internal/config"
	"github.com/cwbudde/algo-skypower/internal/monitoring"
)

const smallConfig = `{
  "first_bin": 990,
  "nbins": 40,
  "side_cut": 8,
  "do_cutoff": false
}`

func restoreLogger(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
}

func writeSmallConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWriteDefaults(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{"-write-defaults"}, &out, &errOut))

	var c config.SearchConfig
	require.NoError(t, json.Unmarshal(out.Bytes(), &c))
	require.NoError(t, c.Validate())
	assert.Equal(t, 501, c.GetNBins())
}

func TestRunWithInjection(t *testing.T) {
	restoreLogger(t)
	var out, errOut bytes.Buffer
	err := run([]string{
		"-config", writeSmallConfig(t, smallConfig),
		"-quiet", "-window-info",
		"-nlon", "8", "-nlat", "4", "-patch", "2",
		"-segments", "6",
		"-inject-amp", "1", "-inject-bin", "20",
		"-lines", "12",
	}, &out, &errOut)
	require.NoError(t, err, errOut.String())

	s := out.String()
	assert.Contains(t, s, "Coherent Gain")
	assert.Contains(t, s, "Polarization")
	assert.Contains(t, s, "plus")
	assert.Contains(t, s, "band_1")
	assert.Contains(t, s, "Points within")
	assert.Empty(t, errOut.String())
}

func TestRunLogs(t *testing.T) {
	restoreLogger(t)
	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{
		"-config", writeSmallConfig(t, smallConfig),
		"-nlon", "4", "-nlat", "2", "-patch", "2", "-segments", "2",
	}, &out, &errOut))
	assert.Contains(t, errOut.String(), "main loop")
}

func TestRunErrors(t *testing.T) {
	restoreLogger(t)
	tests := []struct {
		name string
		args []string
	}{
		{"bad flag", []string{"-nope"}},
		{"missing config", []string{"-config", "missing.json"}},
		{"bad lines", []string{"-config", writeSmallConfig(t, smallConfig), "-quiet", "-lines", "x"}},
		{"bad grid", []string{"-config", writeSmallConfig(t, smallConfig), "-quiet", "-nlon", "0"}},
		{"bad segments", []string{"-config", writeSmallConfig(t, smallConfig), "-quiet", "-segments", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			assert.Error(t, run(tt.args, &out, &errOut))
		})
	}
}

func TestHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"-h"}, &out, &errOut)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, errOut.String(), "Usage: skysum")
}

func TestParseLines(t *testing.T) {
	got, err := parseLines(" 3, 7 ,9")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 9}, got)
	got, err = parseLines("")
	require.NoError(t, err)
	assert.Nil(t, got)
}
