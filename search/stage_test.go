package search

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/internal/metrics"
	"github.com/cwbudde/algo-skypower/internal/monitoring"
	"github.com/cwbudde/algo-skypower/internal/synth"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/sky"
)

var stageLayout = doppler.Params{FirstBin: 990, NBins: 40, SideCut: 8}

const injectedBin = 20

type fixture struct {
	fine     *sky.Grid
	patches  *sky.PatchGrid
	datasets []*dataset.Dataset
}

func newFixture(t *testing.T, grid synth.GridConfig, complexSpectra bool) fixture {
	t.Helper()
	fine, patches, err := synth.Grid(grid)
	require.NoError(t, err)
	d, err := synth.Dataset(synth.DatasetConfig{
		Name:      "H1",
		Layout:    stageLayout,
		Segments:  12,
		Noise:     1,
		Seed:      7,
		Window:    window.TypeHann,
		Antenna:   synth.Antenna{Rotation: 0.3},
		Injection: &synth.Injection{Bin: injectedBin, Amplitude: 1, Longitude: 2, Latitude: 0.4},
		Complex:   complexSpectra,
	}, patches.Len())
	require.NoError(t, err)
	return fixture{fine: fine, patches: patches, datasets: []*dataset.Dataset{d}}
}

func quietConfig() Config {
	cfg := DefaultConfig(stageLayout)
	cfg.CutOff = false
	return cfg
}

func muteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

var smallGrid = synth.GridConfig{Longitudes: 12, Latitudes: 6, Bands: 2, PatchSize: 3}

func TestRunFindsInjectedFrequency(t *testing.T) {
	muteLogs(t)
	for _, mode := range []accum.Mode{accum.ModeSingle, accum.ModeThree, accum.ModeMatched} {
		t.Run(mode.String(), func(t *testing.T) {
			fx := newFixture(t, smallGrid, mode == accum.ModeMatched)
			cfg := quietConfig()
			cfg.Mode = mode

			st, err := New(cfg, fx.fine, fx.patches, fx.datasets)
			require.NoError(t, err)
			res, err := st.Run()
			require.NoError(t, err)

			assert.NotEqual(t, uuid.Nil, res.RunID)
			assert.Equal(t, mode, res.Mode)
			assert.Equal(t, fx.patches.Len(), res.Patches)
			assert.Zero(t, res.Skipped)
			require.Len(t, res.Polarizations, 2)
			require.Len(t, res.Reports, 2)
			require.NotNil(t, res.Unified)

			want := float64(stageLayout.FirstBin+injectedBin) / dataset.DefaultCoherenceTime
			for _, r := range res.Reports {
				require.GreaterOrEqual(t, r.Largest.Index, 0, r.Name)
				assert.InDelta(t, want, r.Largest.Freq, 1e-12, r.Name)
				assert.Greater(t, r.Largest.Upper, 0.0)
			}
			assert.InDelta(t, want, res.Unified.MaxHigh.Freq, 1e-12)
			assert.True(t, res.Unified.CircularEnabled)
			assert.True(t, res.Shifts.Seen())
			if mode == accum.ModeMatched {
				assert.Positive(t, res.Cache.Hits+res.Cache.Misses)
			} else {
				assert.Zero(t, res.Cache.Misses)
			}
		})
	}
}

func TestRunLimitsAreOrdered(t *testing.T) {
	muteLogs(t)
	fx := newFixture(t, smallGrid, false)
	st, err := New(quietConfig(), fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	res, err := st.Run()
	require.NoError(t, err)

	for _, p := range res.Polarizations {
		for i := range fx.fine.Points {
			assert.GreaterOrEqual(t, p.Sky.MaxUpper[i], p.Sky.MaxLower[i], "%s point %d", p.Name, i)
			assert.GreaterOrEqual(t, p.Sky.MaxLower[i], 0.0)
		}
	}
	for i, v := range res.Unified.HighUL {
		for _, p := range res.Polarizations {
			assert.GreaterOrEqual(t, v, p.Sky.MaxUpper[i])
		}
	}
}

func TestRunSkipsInvalidPatches(t *testing.T) {
	muteLogs(t)
	grid := smallGrid
	grid.InvalidBelow = -0.1
	fx := newFixture(t, grid, false)

	st, err := New(quietConfig(), fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	res, err := st.Run()
	require.NoError(t, err)

	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, fx.patches.Len()-4, res.Patches)
	for _, p := range res.Polarizations {
		for i, pt := range fx.fine.Points {
			if !pt.Valid() {
				assert.Equal(t, -1.0, p.Sky.MaxUpper[i])
			}
		}
	}
}

func TestRunDefaultConfig(t *testing.T) {
	muteLogs(t)
	fx := newFixture(t, smallGrid, false)
	st, err := New(DefaultConfig(stageLayout), fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	_, err = st.Run()
	require.NoError(t, err)
}

func TestRunOnce(t *testing.T) {
	muteLogs(t)
	fx := newFixture(t, smallGrid, false)
	st, err := New(quietConfig(), fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	_, err = st.Run()
	require.NoError(t, err)
	_, err = st.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunLogsProgress(t *testing.T) {
	fx := newFixture(t, smallGrid, true)
	cfg := quietConfig()
	cfg.Mode = accum.ModeMatched
	cfg.ProgressEvery = 2

	lines, restore := monitoring.Capture()
	defer restore()

	st, err := New(cfg, fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	res, err := st.Run()
	require.NoError(t, err)

	log := strings.Join(*lines, "\n")
	assert.Contains(t, log, fmt.Sprintf("run %s: main loop: %d patches to process", res.RunID, fx.patches.Len()))
	assert.Contains(t, log, "2 patches processed")
	assert.Contains(t, log, "power cache hits")
	assert.Contains(t, log, "bin shift range")
	assert.Contains(t, log, "polarization plus")
}

func TestRunMetrics(t *testing.T) {
	muteLogs(t)
	fx := newFixture(t, smallGrid, false)
	reg := prometheus.NewRegistry()
	cfg := quietConfig()
	cfg.Metrics = metrics.New(reg)

	st, err := New(cfg, fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	res, err := st.Run()
	require.NoError(t, err)

	expected := fmt.Sprintf(`
# HELP skypower_patches_total Patches seen by the stage, by outcome.
# TYPE skypower_patches_total counter
skypower_patches_total{outcome="processed"} %d
# HELP skypower_runs_total Completed stage runs.
# TYPE skypower_runs_total counter
skypower_runs_total 1
`, res.Patches)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"skypower_patches_total", "skypower_runs_total"))
	masked, err := testutil.GatherAndCount(reg, "skypower_masked_points")
	require.NoError(t, err)
	assert.Equal(t, 2, masked)
}

func TestNearAndClosest(t *testing.T) {
	muteLogs(t)
	fx := newFixture(t, smallGrid, false)
	st, err := New(quietConfig(), fx.fine, fx.patches, fx.datasets)
	require.NoError(t, err)
	res, err := st.Run()
	require.NoError(t, err)

	lon, lat := 2.0, 0.4
	best := res.Closest(lon, lat)
	require.GreaterOrEqual(t, best, 0)
	bestD := angularDistance2(fx.fine.Points[best], lon, lat)
	for _, p := range fx.fine.Points {
		assert.GreaterOrEqual(t, angularDistance2(p, lon, lat), bestD)
	}

	radius := 0.8
	near := res.Near(lon, lat, radius)
	inside := 0
	for _, p := range fx.fine.Points {
		if angularDistance2(p, lon, lat) < radius*radius {
			inside++
		}
	}
	require.Len(t, near, 2*inside)
	for _, r := range near {
		pt := fx.fine.Points[r.Index]
		assert.Less(t, angularDistance2(pt, lon, lat), radius*radius)
		assert.Contains(t, []string{"plus", "cross"}, r.Polarization)
	}

	pts := res.Point(best)
	require.Len(t, pts, 2)
	assert.Equal(t, "plus", pts[0].Polarization)
	assert.Equal(t, best, pts[0].Index)
	assert.Empty(t, res.Near(lon, lat, 0))
}

func TestAngularDistance(t *testing.T) {
	p := sky.NewPoint(0.1, math.Pi/3, 0)
	// Longitude differences shrink by cos(latitude).
	assert.InDelta(t, 0.25*0.01, angularDistance2(p, 0.2, math.Pi/3), 1e-15)
	assert.InDelta(t, 0.04, angularDistance2(p, 0.1, math.Pi/3+0.2), 1e-15)
}

func TestNewErrors(t *testing.T) {
	fx := newFixture(t, smallGrid, false)
	other := *fx.datasets[0]
	other.Polarizations = append([]dataset.Polarization(nil), other.Polarizations...)
	other.Polarizations[1].Name = "x"

	matched := quietConfig()
	matched.Mode = accum.ModeMatched
	badLayout := quietConfig()
	badLayout.Layout.SideCut = 20
	badRatio := quietConfig()
	badRatio.SmallWeightRatio = 1
	negRatio := quietConfig()
	negRatio.SmallWeightRatio = -0.1
	badComp := quietConfig()
	badComp.UpperComp = "bogus"
	badLevel := quietConfig()
	badLevel.ConfidenceLevel = 1.5
	wrongBins := quietConfig()
	wrongBins.Layout.NBins = 30

	tests := []struct {
		name     string
		cfg      Config
		fine     *sky.Grid
		patches  *sky.PatchGrid
		datasets []*dataset.Dataset
	}{
		{"no datasets", quietConfig(), fx.fine, fx.patches, nil},
		{"polarization names", quietConfig(), fx.fine, fx.patches, []*dataset.Dataset{fx.datasets[0], &other}},
		{"matched without complex", matched, fx.fine, fx.patches, fx.datasets},
		{"layout", badLayout, fx.fine, fx.patches, fx.datasets},
		{"mask ratio", badRatio, fx.fine, fx.patches, fx.datasets},
		{"negative mask ratio", negRatio, fx.fine, fx.patches, fx.datasets},
		{"compensation", badComp, fx.fine, fx.patches, fx.datasets},
		{"confidence level", badLevel, fx.fine, fx.patches, fx.datasets},
		{"bin count", wrongBins, fx.fine, fx.patches, fx.datasets},
		{"empty grid", quietConfig(), &sky.Grid{}, fx.patches, fx.datasets},
		{"empty patches", quietConfig(), fx.fine, &sky.PatchGrid{}, fx.datasets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.fine, tt.patches, tt.datasets)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
