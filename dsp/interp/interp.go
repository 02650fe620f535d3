package interp

import "math"

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Uniform is a curve sampled at X0, X0+Step, ... and evaluated with
// [Hermite4] between samples. Queries outside the sampled range clamp to
// the end values; callers that need extrapolation handle it themselves.
type Uniform struct {
	X0   float64
	Step float64
	Y    []float64
}

// Min returns the first sampled abscissa.
func (u *Uniform) Min() float64 { return u.X0 }

// Max returns the last sampled abscissa.
func (u *Uniform) Max() float64 { return u.X0 + u.Step*float64(len(u.Y)-1) }

// At evaluates the curve at x.
func (u *Uniform) At(x float64) float64 {
	n := len(u.Y)
	if n == 0 {
		return 0
	}
	pos := (x - u.X0) / u.Step
	if pos <= 0 {
		return u.Y[0]
	}
	if pos >= float64(n-1) {
		return u.Y[n-1]
	}

	i := int(math.Floor(pos))
	t := pos - float64(i)
	return Hermite4(t, u.sample(i-1), u.Y[i], u.Y[i+1], u.sample(i+2))
}

// sample returns Y[i], extending the end slopes linearly.
func (u *Uniform) sample(i int) float64 {
	n := len(u.Y)
	switch {
	case i < 0:
		if n < 2 {
			return u.Y[0]
		}
		return 2*u.Y[0] - u.Y[1]
	case i >= n:
		if n < 2 {
			return u.Y[n-1]
		}
		return 2*u.Y[n-1] - u.Y[n-2]
	default:
		return u.Y[i]
	}
}
