// Package spectrum provides FFT-adjacent helpers for segment spectra.
//
// The package does not implement FFT itself. It converts complex bins
// produced by an external FFT backend into the split re/im and power
// arrays that segments carry.
package spectrum
