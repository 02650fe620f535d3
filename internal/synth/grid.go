// Package synth builds synthetic sky grids, antenna patterns and segment
// spectra. It backs the stage tests and the skysum command.
package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-skypower/sky"
)

// GridConfig describes an equiangular fine grid.
type GridConfig struct {
	Longitudes int
	Latitudes  int
	// Bands splits the grid into latitude stripes of equal height.
	Bands int
	// PatchSize is the side, in fine points, of a square patch.
	PatchSize int
	// InvalidBelow marks points south of this latitude (radians) as
	// outside the analysed bands. Zero keeps every point.
	InvalidBelow float64
}

// Grid builds the fine grid and its patches. Points are stored patch by
// patch so every patch owns a contiguous index range.
func Grid(cfg GridConfig) (*sky.Grid, *sky.PatchGrid, error) {
	if cfg.Longitudes <= 0 || cfg.Latitudes <= 0 {
		return nil, nil, fmt.Errorf("grid needs positive size, got %dx%d", cfg.Longitudes, cfg.Latitudes)
	}
	if cfg.Bands <= 0 {
		cfg.Bands = 1
	}
	if cfg.PatchSize <= 0 {
		cfg.PatchSize = 1
	}

	dlon := 2 * math.Pi / float64(cfg.Longitudes)
	dlat := math.Pi / float64(cfg.Latitudes)
	point := func(i, j int) sky.Point {
		lon := (float64(i) + 0.5) * dlon
		lat := -math.Pi/2 + (float64(j)+0.5)*dlat
		band := j * cfg.Bands / cfg.Latitudes
		if cfg.InvalidBelow != 0 && lat < cfg.InvalidBelow {
			band = -1
		}
		return sky.NewPoint(lon, lat, band)
	}

	fine := &sky.Grid{BandNames: make([]string, cfg.Bands)}
	for b := range fine.BandNames {
		fine.BandNames[b] = fmt.Sprintf("band_%d", b)
	}
	patches := &sky.PatchGrid{}

	ps := cfg.PatchSize
	for j0 := 0; j0 < cfg.Latitudes; j0 += ps {
		for i0 := 0; i0 < cfg.Longitudes; i0 += ps {
			j1 := min(j0+ps, cfg.Latitudes)
			i1 := min(i0+ps, cfg.Longitudes)

			p := sky.Patch{}
			for j := j0; j < j1; j++ {
				for i := i0; i < i1; i++ {
					p.Points = append(p.Points, fine.Len())
					fine.Points = append(fine.Points, point(i, j))
				}
			}
			p.Center = point((i0+i1-1)/2, (j0+j1-1)/2)
			patches.Patches = append(patches.Patches, p)
		}
	}
	return fine, patches, nil
}
