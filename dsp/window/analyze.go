package window

import "math"

// Analysis holds numerically computed spectral properties of sampled
// window coefficients.
type Analysis struct {
	// CoherentGain is sum(w[n]) / N, the DC response of the window.
	CoherentGain float64
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// ScallopAmplitude is |W(0.5 bin)| / |W(0)|.
	ScallopAmplitude float64
	// ScallopLossdB is the same ratio in dB of power.
	ScallopLossdB float64
}

// Analyze evaluates the DFT of coeffs at DC and half a bin to measure the
// properties the limit calibration depends on.
func Analyze(coeffs []float64) (Analysis, error) {
	n := len(coeffs)
	if n == 0 {
		return Analysis{}, errEmptyCoeffs
	}

	dcRef := dftMagSq(coeffs, 0)
	if dcRef == 0 {
		return Analysis{}, nil
	}

	sum := 0.0
	sumSq := 0.0
	for _, c := range coeffs {
		sum += c
		sumSq += c * c
	}

	half := dftMagSq(coeffs, 0.5/float64(n))
	a := Analysis{
		CoherentGain:     sum / float64(n),
		ENBW:             float64(n) * sumSq / (sum * sum),
		ScallopAmplitude: math.Sqrt(half / dcRef),
	}
	if half > 0 {
		a.ScallopLossdB = 10 * math.Log10(half/dcRef)
	}
	return a, nil
}

// dftMagSq evaluates |DFT(freq)|^2 at a normalised frequency [0,1).
func dftMagSq(coeffs []float64, freq float64) float64 {
	re, im := 0.0, 0.0
	w := 2 * math.Pi * freq
	for k, c := range coeffs {
		phase := w * float64(k)
		re += c * math.Cos(phase)
		im -= c * math.Sin(phase)
	}
	return re*re + im*im
}
