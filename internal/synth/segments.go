package synth

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-skypower/dataset"
	"github.com/cwbudde/algo-skypower/dsp/spectrum"
	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/sky"
)

// DefaultOrbit is the detector speed in units of c.
const DefaultOrbit = 1e-4

// Injection is a monochromatic source at a sky position.
type Injection struct {
	// Bin is the source frequency as a fractional spectrum index,
	// relative to Layout.FirstBin, before Doppler shift.
	Bin       float64
	Amplitude float64
	Longitude float64
	Latitude  float64
}

// DatasetConfig describes one synthetic detector.
type DatasetConfig struct {
	Name          string
	Layout        doppler.Params
	Segments      int
	CoherenceTime float64
	StartGPS      float64
	Weight        float64

	// Noise is the standard deviation of the white time-domain noise.
	Noise float64
	Seed  uint64
	// Orbit is the detector speed in units of c. The velocity turns once
	// around the z axis over all segments.
	Orbit float64

	Window    window.Type
	Antenna   Antenna
	Injection *Injection
	// Lines are spectrum indices carrying a stationary instrumental
	// line of LineAmplitude.
	Lines         []int
	LineAmplitude float64
	// Complex keeps Re and Im on every segment.
	Complex bool
}

func (c *DatasetConfig) normalize() {
	if c.CoherenceTime <= 0 {
		c.CoherenceTime = dataset.DefaultCoherenceTime
	}
	if c.Weight <= 0 {
		c.Weight = 1
	}
	if c.Orbit == 0 {
		c.Orbit = DefaultOrbit
	}
	if c.Name == "" {
		c.Name = "synthetic"
	}
}

// FFTSize returns the power-of-two transform length that covers the
// layout with room for the negative frequencies.
func FFTSize(layout doppler.Params) int {
	need := 2 * (layout.FirstBin + layout.NBins + 1)
	return 1 << bits.Len(uint(need-1))
}

// Velocity returns the detector velocity during segment k of n.
func Velocity(orbit float64, k, n int) [3]float64 {
	phi := 2 * math.Pi * float64(k) / float64(max(n, 1))
	return [3]float64{-orbit * math.Sin(phi), orbit * math.Cos(phi), 0}
}

// Dataset synthesizes a dataset for npatches patches. Each segment is a
// windowed time series transformed with a full-length FFT; the requested
// bins are normalized so pure noise has unit mean power.
func Dataset(cfg DatasetConfig, npatches int) (*dataset.Dataset, error) {
	cfg.normalize()
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("synthetic dataset %q: %w", cfg.Name, err)
	}
	if cfg.Segments <= 0 {
		return nil, fmt.Errorf("synthetic dataset %q: need segments, got %d", cfg.Name, cfg.Segments)
	}

	n := FFTSize(cfg.Layout)
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("synthetic dataset %q: %w", cfg.Name, err)
	}

	d := &dataset.Dataset{
		Name:          cfg.Name,
		CoherenceTime: cfg.CoherenceTime,
		Weight:        cfg.Weight,
		Segments:      make([]dataset.Segment, cfg.Segments),
		Polarizations: cfg.Antenna.Polarizations(npatches),
		Lines:         append([]int(nil), cfg.Lines...),
	}

	var src sky.Point
	if cfg.Injection != nil {
		src = sky.NewPoint(cfg.Injection.Longitude, cfg.Injection.Latitude, 0)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))
	// Expected |X|^2 of unit-variance white noise.
	sumSq := 0.0
	for _, w := range window.Generate(cfg.Window, n, window.WithPeriodic()) {
		sumSq += w * w
	}
	norm := 1.0
	if cfg.Noise > 0 {
		norm = 1 / (cfg.Noise * math.Sqrt(sumSq))
	}

	x := make([]float64, n)
	in := make([]complex128, n)
	out := make([]complex128, n)
	for k := range d.Segments {
		seg := &d.Segments[k]
		seg.GPS = cfg.StartGPS + float64(k)*cfg.CoherenceTime
		seg.Velocity = Velocity(cfg.Orbit, k, cfg.Segments)
		seg.TMedian = 1

		for j := range x {
			x[j] = 0
			if cfg.Noise > 0 {
				x[j] = cfg.Noise * rng.NormFloat64()
			}
		}
		if inj := cfg.Injection; inj != nil {
			shift := cfg.Layout.Shift(doppler.Term(src.E, seg.Velocity), cfg.CoherenceTime, seg.GPS)
			addTone(x, float64(cfg.Layout.FirstBin)+inj.Bin+shift, inj.Amplitude)
		}
		for _, b := range cfg.Lines {
			addTone(x, float64(cfg.Layout.FirstBin+b), cfg.LineAmplitude)
		}

		window.Apply(cfg.Window, x, window.WithPeriodic())
		for j, v := range x {
			in[j] = complex(v, 0)
		}
		if err := plan.Forward(out, in); err != nil {
			return nil, fmt.Errorf("synthetic dataset %q segment %d: %w", cfg.Name, k, err)
		}
		spectrum.AlternateSign(out)
		band, err := spectrum.Band(out, cfg.Layout.FirstBin, cfg.Layout.NBins)
		if err != nil {
			return nil, fmt.Errorf("synthetic dataset %q segment %d: %w", cfg.Name, k, err)
		}
		for i := range band {
			band[i] *= complex(norm, 0)
		}
		seg.Power = spectrum.Power(band)
		if cfg.Complex {
			seg.Re, seg.Im = spectrum.Split(band)
		}
	}
	return d, nil
}

// addTone adds a cosine completing bin cycles over the frame.
func addTone(x []float64, bin, amplitude float64) {
	if amplitude == 0 {
		return
	}
	step := 2 * math.Pi * bin / float64(len(x))
	for j := range x {
		x[j] += amplitude * math.Cos(step*float64(j))
	}
}
