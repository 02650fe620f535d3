package spectrum

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// PowerFromParts computes |X[k]|^2 = re[k]^2 + im[k]^2 into dst.
//
// This is the zero-allocation fast path for callers that already have real and
// imaginary parts in separate slices. All three slices must have the same length.
func PowerFromParts(dst, re, im []float64) {
	vecmath.Power(dst, re, im)
}

// Split returns the real and imaginary parts of in as separate slices.
func Split(in []complex128) (re, im []float64) {
	re = make([]float64, len(in))
	im = make([]float64, len(in))
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
	return re, im
}

// Band returns a copy of n bins of in starting at first.
func Band(in []complex128, first, n int) ([]complex128, error) {
	if first < 0 || n <= 0 || first+n > len(in) {
		return nil, fmt.Errorf("band [%d, %d) outside spectrum of %d bins", first, first+n, len(in))
	}
	out := make([]complex128, n)
	copy(out, in[first:first+n])
	return out, nil
}

// AlternateSign multiplies odd bins by -1 in place.
//
// This is a half-length circular time shift: it moves the time origin of
// an FFT frame to the frame centre, which makes the spectrum of a
// symmetric window real-valued.
func AlternateSign(in []complex128) {
	for i := 1; i < len(in); i += 2 {
		in[i] = -in[i]
	}
}
