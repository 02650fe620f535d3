package search

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-skypower/search/accum"
	"github.com/cwbudde/algo-skypower/search/combine"
	"github.com/cwbudde/algo-skypower/search/doppler"
	"github.com/cwbudde/algo-skypower/search/limits"
	"github.com/cwbudde/algo-skypower/search/powercache"
	"github.com/cwbudde/algo-skypower/sky"
)

// Result holds everything a run produced.
type Result struct {
	RunID uuid.UUID
	Mode  accum.Mode

	// Polarizations and Reports share the order of the dataset
	// polarizations.
	Polarizations []*limits.Polarization
	Reports       []combine.Report
	Unified       *combine.Unified
	Calibration   limits.Calibration

	// Patches counts processed patches, Skipped those outside the
	// analysed bands.
	Patches int
	Skipped int
	Cache   powercache.Stats
	Shifts  doppler.Tracker
	Elapsed time.Duration

	fine *sky.Grid
}

// PointReport is one fine point of one polarization.
type PointReport struct {
	Polarization string
	combine.PointRef
}

// angularDistance2 is the small-angle squared distance used to select
// points around a sky position.
func angularDistance2(p sky.Point, lon, lat float64) float64 {
	dlat := p.Latitude - lat
	dlon := (p.Longitude - lon) * math.Cos(p.Latitude)
	return dlat*dlat + dlon*dlon
}

// Near returns, for every polarization, the valid fine points strictly
// within radius (radians) of (lon, lat), in grid order.
func (r *Result) Near(lon, lat, radius float64) []PointReport {
	var out []PointReport
	r2 := radius * radius
	for _, pol := range r.Polarizations {
		for i, p := range r.fine.Points {
			if !p.Valid() || angularDistance2(p, lon, lat) >= r2 {
				continue
			}
			out = append(out, PointReport{
				Polarization: pol.Name,
				PointRef:     combine.PointAt(r.fine, pol.Sky, i),
			})
		}
	}
	return out
}

// Closest returns the index of the valid fine point nearest to
// (lon, lat), or -1 if the grid has none.
func (r *Result) Closest(lon, lat float64) int {
	best, bestD := -1, math.Inf(1)
	for i, p := range r.fine.Points {
		if !p.Valid() {
			continue
		}
		if d := angularDistance2(p, lon, lat); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Point returns the report of fine point i for every polarization.
func (r *Result) Point(i int) []PointReport {
	out := make([]PointReport, 0, len(r.Polarizations))
	for _, pol := range r.Polarizations {
		out = append(out, PointReport{
			Polarization: pol.Name,
			PointRef:     combine.PointAt(r.fine, pol.Sky, i),
		})
	}
	return out
}
