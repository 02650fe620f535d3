package accum

// Buffer holds the running sums of one polarization for the points of the
// current patch. Per-bin slices are laid out point-major, Usable bins per
// point, indexed by the position of the point within the patch.
type Buffer struct {
	Usable int
	Points int // points of the current patch

	Sum       []float64
	SqSum     []float64 // nil unless sigma is computed
	SubWeight []float64 // weight removed by line subtraction, per bin

	TotalWeight  []float64
	Beta1        []float64
	Beta2        []float64
	MaxSubWeight []float64
	Cor1         []float64
	Cor2         []float64

	// Sigma holds the per-bin standard deviation after Finalize. nil
	// unless sigma is computed.
	Sigma []float64
}

func newBuffer(points, usable int, sigma bool) *Buffer {
	n := points * usable
	b := &Buffer{
		Usable:       usable,
		Sum:          make([]float64, n),
		SubWeight:    make([]float64, n),
		TotalWeight:  make([]float64, points),
		Beta1:        make([]float64, points),
		Beta2:        make([]float64, points),
		MaxSubWeight: make([]float64, points),
		Cor1:         make([]float64, points),
		Cor2:         make([]float64, points),
	}
	if sigma {
		b.SqSum = make([]float64, n)
		b.Sigma = make([]float64, n)
	}
	return b
}

// reset zeroes the buffer for a patch of n points.
func (b *Buffer) reset(n int) {
	b.Points = n
	m := n * b.Usable
	clear(b.Sum[:m])
	clear(b.SubWeight[:m])
	if b.SqSum != nil {
		clear(b.SqSum[:m])
		clear(b.Sigma[:m])
	}
	for _, s := range [][]float64{b.TotalWeight, b.Beta1, b.Beta2, b.MaxSubWeight, b.Cor1, b.Cor2} {
		clear(s[:n])
	}
}

func (b *Buffer) row(s []float64, i int) []float64 {
	if s == nil {
		return nil
	}
	return s[i*b.Usable : (i+1)*b.Usable]
}

// Spectrum returns the per-bin sums of point i.
func (b *Buffer) Spectrum(i int) []float64 { return b.row(b.Sum, i) }

// Subtracted returns the per-bin line-subtracted weight of point i.
func (b *Buffer) Subtracted(i int) []float64 { return b.row(b.SubWeight, i) }

// SigmaSpectrum returns the per-bin standard deviation of point i, or nil.
func (b *Buffer) SigmaSpectrum(i int) []float64 { return b.row(b.Sigma, i) }
