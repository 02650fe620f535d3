// Package interp provides the interpolation primitives used by the
// accumulation stage.
//
//   - [Hermite4]:  4-point cubic Hermite
//   - [Uniform]:   uniformly sampled curve evaluated with Hermite4
//   - [Filter7]:   tabulated 7-tap window-matched filter for fractional
//     bin offsets
package interp
