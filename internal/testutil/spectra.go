package testutil

import (
	"math/rand/v2"
)

// DC returns a spectrum of n bins all holding value.
func DC(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp returns start, start+1, ... over n bins, which makes every bin of a
// spectrum identifiable after a shift.
func Ramp(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// Impulse returns n zero bins with value at pos.
func Impulse(n, pos int, value float64) []float64 {
	out := make([]float64, n)
	if pos >= 0 && pos < n {
		out[pos] = value
	}
	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude) with a
// fixed seed.
func DeterministicNoise(seed uint64, amplitude float64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	out := make([]float64, n)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DeterministicPower returns the power of complex gaussian noise, an
// exponential distribution with the given mean, with a fixed seed.
func DeterministicPower(seed uint64, mean float64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0x9073))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean * rng.ExpFloat64()
	}
	return out
}
