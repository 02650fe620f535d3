package limits

// Invalid marks fine points outside the analysed bands in finalized maps.
const Invalid = -1.0

// circInit seeds the per-patch circular limit before the minimum over
// polarizations is taken.
const circInit = 1e23

// SkyMap holds per fine point results of one polarization.
type SkyMap struct {
	TotalWeight  []float64
	Beta1        []float64
	Beta2        []float64
	Mean         []float64
	Sigma        []float64
	KSTest       []float64
	KSCount      []int
	MaxUpper     []float64
	MaxLower     []float64
	Freq         []float64 // Hz, frequency of MaxUpper
	MaxDx        []float64
	Cor1         []float64
	Cor2         []float64
	MaxSubWeight []float64
}

// NewSkyMap returns a zeroed map for n fine points.
func NewSkyMap(n int) *SkyMap {
	return &SkyMap{
		TotalWeight:  make([]float64, n),
		Beta1:        make([]float64, n),
		Beta2:        make([]float64, n),
		Mean:         make([]float64, n),
		Sigma:        make([]float64, n),
		KSTest:       make([]float64, n),
		KSCount:      make([]int, n),
		MaxUpper:     make([]float64, n),
		MaxLower:     make([]float64, n),
		Freq:         make([]float64, n),
		MaxDx:        make([]float64, n),
		Cor1:         make([]float64, n),
		Cor2:         make([]float64, n),
		MaxSubWeight: make([]float64, n),
	}
}

// Len returns the number of fine points.
func (m *SkyMap) Len() int { return len(m.MaxUpper) }

// SpectralPlot holds per band and frequency bin maxima over all fine
// points of a band. Index band*Usable+bin.
type SpectralPlot struct {
	Usable int

	MaxUpper     []float64
	ULLon, ULLat []float64
	MaxDx        []float64
	DxLon, DxLat []float64
	MaxMaskRatio []float64
}

// NewSpectralPlot returns a zeroed plot.
func NewSpectralPlot(bands, usable int) *SpectralPlot {
	n := bands * usable
	return &SpectralPlot{
		Usable:       usable,
		MaxUpper:     make([]float64, n),
		ULLon:        make([]float64, n),
		ULLat:        make([]float64, n),
		MaxDx:        make([]float64, n),
		DxLon:        make([]float64, n),
		DxLat:        make([]float64, n),
		MaxMaskRatio: make([]float64, n),
	}
}

// Bands returns the number of bands.
func (s *SpectralPlot) Bands() int {
	if s.Usable == 0 {
		return 0
	}
	return len(s.MaxUpper) / s.Usable
}

// Band returns the row of v belonging to band b.
func (s *SpectralPlot) Band(v []float64, b int) []float64 {
	return v[b*s.Usable : (b+1)*s.Usable]
}

// Circular holds the circular polarization limit folded over linear
// polarizations. Entries stay at [Invalid] when no circular limit was
// computed.
type Circular struct {
	UL       []float64 // per fine point
	Freq     []float64 // per fine point
	Spectral []float64 // band*usable+bin
}

func newCircular(points, bands, usable int) *Circular {
	c := &Circular{
		UL:       make([]float64, points),
		Freq:     make([]float64, points),
		Spectral: make([]float64, bands*usable),
	}
	for _, s := range [][]float64{c.UL, c.Freq, c.Spectral} {
		for i := range s {
			s[i] = Invalid
		}
	}
	return c
}

// Polarization is the result set of one polarization.
type Polarization struct {
	Name     string
	Linear   bool
	Sky      *SkyMap
	Spectral *SpectralPlot
	// BandMaskRatio holds, per band, the largest fraction of weight a
	// single bin lost to line subtraction.
	BandMaskRatio []float64
}
