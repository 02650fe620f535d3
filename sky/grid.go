// Package sky describes the fine sky grid and the coarse patch grid that
// owns it.
//
// Grid construction is done elsewhere. This package only fixes the shape
// the accumulation stage consumes: every fine point carries its direction
// vector and band, and every patch owns a contiguous slice of fine point
// indices in traversal order.
package sky

import (
	"fmt"
	"math"
)

// Point is a single sky position.
type Point struct {
	Longitude float64 // radians
	Latitude  float64 // radians
	// Band is the frequency band id. Negative bands mark points outside
	// the analysed region; they are skipped everywhere.
	Band int
	// E is the unit direction vector of the point.
	E [3]float64
}

// NewPoint returns a point at the given coordinates with E filled in.
func NewPoint(longitude, latitude float64, band int) Point {
	cl := math.Cos(latitude)
	return Point{
		Longitude: longitude,
		Latitude:  latitude,
		Band:      band,
		E: [3]float64{
			cl * math.Cos(longitude),
			cl * math.Sin(longitude),
			math.Sin(latitude),
		},
	}
}

// Valid reports whether the point belongs to an analysed band.
func (p Point) Valid() bool { return p.Band >= 0 }

// Grid is the fine grid.
type Grid struct {
	Points []Point
	// BandNames labels bands 0..len(BandNames)-1.
	BandNames []string
}

// Len returns the number of fine points.
func (g *Grid) Len() int { return len(g.Points) }

// NBands returns the number of frequency bands.
func (g *Grid) NBands() int { return len(g.BandNames) }

// BandName returns a printable band label.
func (g *Grid) BandName(band int) string {
	if band >= 0 && band < len(g.BandNames) {
		return g.BandNames[band]
	}
	return fmt.Sprintf("band_%d", band)
}

// Patch is a coarse grid cell.
type Patch struct {
	Center Point
	// Points holds fine grid indices owned by this patch.
	Points []int
}

// PatchGrid is the coarse grid.
type PatchGrid struct {
	Patches []Patch
}

// Len returns the number of patches.
func (pg *PatchGrid) Len() int { return len(pg.Patches) }

// MaxPatchSize returns the largest number of fine points owned by one patch.
func (pg *PatchGrid) MaxPatchSize() int {
	n := 0
	for _, p := range pg.Patches {
		if len(p.Points) > n {
			n = len(p.Points)
		}
	}
	return n
}

// Validate checks that every patch references existing fine points and
// that no fine point is owned by two patches.
func (pg *PatchGrid) Validate(fine *Grid) error {
	owner := make([]int, fine.Len())
	for i := range owner {
		owner[i] = -1
	}
	for pi, p := range pg.Patches {
		for _, idx := range p.Points {
			if idx < 0 || idx >= fine.Len() {
				return fmt.Errorf("patch %d references fine point %d outside grid of %d points", pi, idx, fine.Len())
			}
			if owner[idx] >= 0 {
				return fmt.Errorf("fine point %d owned by patches %d and %d", idx, owner[idx], pi)
			}
			owner[idx] = pi
		}
	}
	for _, p := range fine.Points {
		if p.Band >= fine.NBands() {
			return fmt.Errorf("fine point band %d exceeds band count %d", p.Band, fine.NBands())
		}
	}
	return nil
}
