package window

import (
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a segment window. All supported windows are cosine sums,
// which gives each of them a closed-form spectral kernel.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeFlatTop
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name                string
	ENBW                float64 // bins
	CoherentGain        float64
	CoherentGainSquared float64
	// ScallopAmplitude is the amplitude response half a bin off centre
	// relative to the on-bin response.
	ScallopAmplitude float64
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

var (
	rectangularCoeffs = []float64{1}
	hannCoeffs        = []float64{0.5, -0.5}
	hammingCoeffs     = []float64{0.54, -0.46}
	blackmanCoeffs    = []float64{0.42, -0.5, 0.08}
	blackmanHarris4   = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	flatTopCoeffs     = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

var names = map[Type]string{
	TypeRectangular:         "rectangular",
	TypeHann:                "hann",
	TypeHamming:             "hamming",
	TypeBlackman:            "blackman",
	TypeBlackmanHarris4Term: "blackman-harris-4t",
	TypeFlatTop:             "flat-top",
}

func coeffsOf(t Type) []float64 {
	switch t {
	case TypeHann:
		return hannCoeffs
	case TypeHamming:
		return hammingCoeffs
	case TypeBlackman:
		return blackmanCoeffs
	case TypeBlackmanHarris4Term:
		return blackmanHarris4
	case TypeFlatTop:
		return flatTopCoeffs
	default:
		return rectangularCoeffs
	}
}

// ParseType resolves a window name as printed by [Type.String].
// Matching ignores case.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, s := range names {
		if s == n {
			return t, nil
		}
	}
	return 0, unknownWindow(name)
}

// String returns the window name.
func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "unknown"
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	coeffs := coeffsOf(t)
	out := make([]float64, length)
	for i := range out {
		out[i] = cosineFromCoeffs(samplePosition(i, length, cfg.periodic), coeffs)
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf, Generate(t, len(buf), opts...))
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	c := coeffsOf(t)
	sq := c[0] * c[0]
	for _, v := range c[1:] {
		sq += 0.5 * v * v
	}

	return Metadata{
		Name:                t.String(),
		ENBW:                sq / (c[0] * c[0]),
		CoherentGain:        c[0],
		CoherentGainSquared: c[0] * c[0],
		ScallopAmplitude:    math.Abs(Kernel(t, 0.5)),
	}
}

// Kernel returns the amplitude response of a window centred on its segment
// to a sinusoid d bins away from the bin centre, normalised to 1 at d = 0.
//
// For a cosine sum w(x) = sum c_k cos(2 pi k x) the response is
//
//	K(d) = (c_0 sinc(d) + sum_k (-1)^k c_k (sinc(d-k) + sinc(d+k)) / 2) / c_0
func Kernel(t Type, d float64) float64 {
	c := coeffsOf(t)
	sum := c[0] * sinc(d)
	sign := -1.0
	for k := 1; k < len(c); k++ {
		fk := float64(k)
		sum += sign * c[k] * 0.5 * (sinc(d-fk) + sinc(d+fk))
		sign = -sign
	}
	return sum / c[0]
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
