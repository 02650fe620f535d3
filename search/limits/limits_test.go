package limits

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/internal/testutil"
	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/sky"
	"github.com/cwbudde/algo-skypower/stats/confidence"
)

const units = 2 / (1800 * 16384.0)

func TestCalibration(t *testing.T) {
	tests := []struct {
		name         string
		cfg          CalibrationConfig
		upper, lower float64
	}{
		{"hann single", CalibrationConfig{Mode: accum.ModeSingle}, units / 0.85, units},
		{"hann three", CalibrationConfig{Mode: accum.ModeThree, Upper: "Hann", Lower: "hann"}, math.Sqrt(3) * units, math.Sqrt(3) * units},
		{"hann matched", CalibrationConfig{Mode: accum.ModeMatched}, units, units},
		{"literal", CalibrationConfig{Upper: "2.5", Lower: "0.5"}, 2.5 * units, 0.5 * units},
		{"strain norm", CalibrationConfig{Upper: "1", Lower: "1", StrainNorm: 1e20}, 1e20 * units, 1e20 * units},
		{
			"flat-top window", CalibrationConfig{Upper: "flat-top"},
			units / window.Info(window.TypeFlatTop).ScallopAmplitude, units,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := NewCalibration(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireNearlyEqual(t, cal.Upper/tt.upper, 1, 1e-12)
			testutil.RequireNearlyEqual(t, cal.Lower/tt.lower, 1, 1e-12)
		})
	}

	for _, bad := range []string{"boxcar-ish", "-1", "0"} {
		if _, err := NewCalibration(CalibrationConfig{Upper: bad}); !errors.Is(err, ErrBadCompensation) {
			t.Fatalf("Upper=%q err=%v want ErrBadCompensation", bad, err)
		}
	}
}

var testLayout = doppler.Params{FirstBin: 1800, NBins: 40, SideCut: 4}

type fixture struct {
	fine  *sky.Grid
	patch *sky.Patch
	eng   *Engine
	bufs  []*accum.Buffer
}

func newBuffer(points, usable int) *accum.Buffer {
	n := points * usable
	return &accum.Buffer{
		Usable:       usable,
		Points:       points,
		Sum:          make([]float64, n),
		SubWeight:    make([]float64, n),
		TotalWeight:  make([]float64, points),
		Beta1:        make([]float64, points),
		Beta2:        make([]float64, points),
		MaxSubWeight: make([]float64, points),
		Cor1:         make([]float64, points),
		Cor2:         make([]float64, points),
	}
}

// newFixture builds three fine points: 0 and 2 in band 0, 1 outside any
// band. Polarization 0 is linear, 1 circular.
func newFixture(t *testing.T, betas bool) *fixture {
	t.Helper()
	fine := &sky.Grid{
		Points: []sky.Point{
			sky.NewPoint(0.1, 0.2, 0),
			sky.NewPoint(0.3, 0.2, -1),
			sky.NewPoint(0.5, -0.4, 0),
		},
		BandNames: []string{"b0"},
	}
	patch := &sky.Patch{Center: fine.Points[0], Points: []int{0, 1, 2}}
	pols := []dataset.Polarization{
		{Name: "plus", PlusFactor: 1},
		{Name: "circular", PlusFactor: 1, CrossFactor: 1},
	}
	eng, err := New(Config{Layout: testLayout, ComputeBetas: betas, KSTest: true}, fine, 3, pols)
	if err != nil {
		t.Fatal(err)
	}
	u := testLayout.Usable()
	f := &fixture{fine: fine, patch: patch, eng: eng}
	for range pols {
		f.bufs = append(f.bufs, newBuffer(3, u))
	}
	return f
}

func TestMakeLimits(t *testing.T) {
	f := newFixture(t, true)
	u := testLayout.Usable()

	// Point 0: noise with a spike at bin 5. Point 2: flat.
	for m, b := range f.bufs {
		copy(b.Spectrum(0), testutil.DeterministicNoise(uint64(m+1), 1, u))
		b.Spectrum(0)[5] = 20
		copy(b.Spectrum(2), testutil.DC(3, u))
		b.TotalWeight[0], b.TotalWeight[2] = 2, 2
		b.Beta2[0], b.Beta2[2] = 1, 1
		b.Subtracted(0)[7] = 0.5
	}

	if err := f.eng.MakeLimits(f.patch, f.bufs); err != nil {
		t.Fatal(err)
	}

	pol := f.eng.Polarizations()[0]
	sm := pol.Sky
	wantFreq := float64(1800+4+5) / 1800
	if sm.Freq[0] != wantFreq {
		t.Fatalf("Freq=%g want %g", sm.Freq[0], wantFreq)
	}
	if sm.MaxDx[0] <= 5 {
		t.Fatalf("MaxDx=%g, spike not detected", sm.MaxDx[0])
	}
	wantUL := confidence.Upper(sm.MaxDx[0]) * sm.Sigma[0]
	testutil.RequireNearlyEqual(t, sm.MaxUpper[0], wantUL, 1e-12)
	if sm.MaxLower[0] <= 0 || sm.MaxLower[0] >= sm.MaxUpper[0] {
		t.Fatalf("MaxLower=%g MaxUpper=%g", sm.MaxLower[0], sm.MaxUpper[0])
	}
	if sm.KSCount[0] != u {
		t.Fatalf("KSCount=%d want %d", sm.KSCount[0], u)
	}

	// Flat spectrum: zero sigma, zero limits and deviation.
	if sm.Sigma[2] != 0 || sm.MaxUpper[2] != 0 || sm.MaxDx[2] != 0 || sm.KSCount[2] != 0 {
		t.Fatalf("flat point: sigma=%g ul=%g dx=%g ks=%d", sm.Sigma[2], sm.MaxUpper[2], sm.MaxDx[2], sm.KSCount[2])
	}

	sp := pol.Spectral
	if sp.MaxUpper[5] != sm.MaxUpper[0] || sp.ULLon[5] != 0.1 || sp.DxLat[5] != 0.2 {
		t.Fatalf("spectral fold: ul=%g lon=%g lat=%g", sp.MaxUpper[5], sp.ULLon[5], sp.DxLat[5])
	}
	if sp.MaxMaskRatio[7] != 0.25 {
		t.Fatalf("MaxMaskRatio=%g want 0.25", sp.MaxMaskRatio[7])
	}

	// Only the linear polarization contributes, halved by 1+beta2.
	if !f.eng.CircularEnabled() {
		t.Fatal("circular limits disabled")
	}
	c := f.eng.Circular()
	testutil.RequireNearlyEqual(t, c.UL[0], sm.MaxUpper[0]/2, 1e-12)
	if c.Freq[0] != wantFreq {
		t.Fatalf("circular freq=%g", c.Freq[0])
	}
	if c.UL[1] != Invalid {
		t.Fatalf("invalid point circular=%g", c.UL[1])
	}
}

func TestFinalize(t *testing.T) {
	f := newFixture(t, true)
	u := testLayout.Usable()
	for m, b := range f.bufs {
		copy(b.Spectrum(0), testutil.DeterministicNoise(uint64(m+10), 1, u))
		b.TotalWeight[0] = 1
	}
	if err := f.eng.MakeLimits(f.patch, f.bufs); err != nil {
		t.Fatal(err)
	}

	sm := f.eng.Polarizations()[0].Sky
	rawUL, rawLL := sm.MaxUpper[0], sm.MaxLower[0]
	rawSpec := f.eng.Polarizations()[0].Spectral.MaxUpper[3]
	rawCirc := f.eng.Circular().UL[0]

	cal := Calibration{Upper: 2, Lower: 3}
	f.eng.Finalize(cal)
	f.eng.Finalize(cal)

	testutil.RequireNearlyEqual(t, sm.MaxUpper[0], math.Sqrt(rawUL)*2, 1e-12)
	testutil.RequireNearlyEqual(t, sm.MaxLower[0], math.Sqrt(rawLL)*3, 1e-12)
	testutil.RequireNearlyEqual(t, f.eng.Polarizations()[0].Spectral.MaxUpper[3], math.Sqrt(rawSpec)*2, 1e-12)
	testutil.RequireNearlyEqual(t, f.eng.Circular().UL[0], math.Sqrt(rawCirc)*2, 1e-12)
	if sm.MaxUpper[1] != Invalid || sm.MaxLower[1] != Invalid {
		t.Fatalf("invalid point not marked: %g %g", sm.MaxUpper[1], sm.MaxLower[1])
	}
}

func TestCircularNeedsBetas(t *testing.T) {
	f := newFixture(t, false)
	u := testLayout.Usable()
	for _, b := range f.bufs {
		copy(b.Spectrum(0), testutil.DeterministicNoise(3, 1, u))
	}
	if err := f.eng.MakeLimits(f.patch, f.bufs); err != nil {
		t.Fatal(err)
	}
	if f.eng.CircularEnabled() {
		t.Fatal("circular limits enabled without betas")
	}
	if c := f.eng.Circular().UL[0]; c != Invalid {
		t.Fatalf("circular UL=%g want %g", c, Invalid)
	}
}

func TestMakeLimitsShapeErrors(t *testing.T) {
	f := newFixture(t, false)
	if err := f.eng.MakeLimits(f.patch, f.bufs[:1]); err == nil {
		t.Fatal("expected buffer count error")
	}
	big := &sky.Patch{Points: []int{0, 1, 2, 0}}
	if err := f.eng.MakeLimits(big, f.bufs); err == nil {
		t.Fatal("expected patch size error")
	}
}
