package limits

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-skypower/dsp/window"
	"github.com/cwbudde/algo-skypower/search/accum"
)

const (
	// PresetHann selects the compensation factors for Hann windowed
	// segments.
	PresetHann = "hann"
	// DefaultSampleRate is the sample rate of the raw segments in Hz.
	DefaultSampleRate = 16384.0
	// hannHalfBin is the amplitude of a Hann windowed signal half a bin
	// off centre relative to a centred one.
	hannHalfBin = 0.85
)

// CalibrationConfig describes how accumulated power limits are turned
// into strain.
type CalibrationConfig struct {
	Mode accum.Mode
	// Upper and Lower are "hann", a window name understood by
	// window.ParseType, or a literal factor.
	Upper string
	Lower string

	CoherenceTime float64
	SampleRate    float64
	StrainNorm    float64
}

// Calibration converts sqrt of a power limit to strain.
type Calibration struct {
	Upper float64
	Lower float64
}

// NewCalibration derives the compensation factors.
func NewCalibration(cfg CalibrationConfig) (Calibration, error) {
	if cfg.Upper == "" {
		cfg.Upper = PresetHann
	}
	if cfg.Lower == "" {
		cfg.Lower = PresetHann
	}
	if cfg.CoherenceTime <= 0 {
		cfg.CoherenceTime = 1800
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.StrainNorm == 0 {
		cfg.StrainNorm = 1
	}

	up, err := compensation(cfg.Upper, cfg.Mode, true)
	if err != nil {
		return Calibration{}, fmt.Errorf("upper limit compensation: %w", err)
	}
	lo, err := compensation(cfg.Lower, cfg.Mode, false)
	if err != nil {
		return Calibration{}, fmt.Errorf("lower limit compensation: %w", err)
	}

	// Amplitude from RMS power, raw segment units to strain, and the
	// one-sided spectrum.
	units := math.Sqrt2 / (cfg.CoherenceTime * cfg.SampleRate) * math.Sqrt2 * cfg.StrainNorm
	return Calibration{Upper: up * units, Lower: lo * units}, nil
}

func compensation(spec string, mode accum.Mode, upper bool) (float64, error) {
	name := strings.ToLower(strings.TrimSpace(spec))
	if name == PresetHann {
		return windowFactor(mode, upper, hannHalfBin), nil
	}
	if t, err := window.ParseType(name); err == nil {
		return windowFactor(mode, upper, window.Info(t).ScallopAmplitude), nil
	}
	v, err := strconv.ParseFloat(name, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadCompensation, spec)
	}
	return v, nil
}

// windowFactor compensates the signal power a mode misses for a window
// whose worst-case off-centre amplitude is scallop.
func windowFactor(mode accum.Mode, upper bool, scallop float64) float64 {
	switch mode {
	case accum.ModeMatched:
		return 1
	case accum.ModeThree:
		// Three bins hold the whole signal wherever it sits.
		return math.Sqrt(3)
	}
	if upper {
		return 1 / scallop
	}
	return 1
}
