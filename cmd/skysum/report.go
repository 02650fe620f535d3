package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-skypower/search"
	"github.com/cwbudde/algo-skypower/sky"
)

func printResult(w io.Writer, res *search.Result, fine *sky.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Run\tMode\tPatches\tSkipped\tCache Hits\tCache Misses\tShift Range\tElapsed\n")
	fmt.Fprintf(tw, "---\t----\t-------\t-------\t----------\t------------\t-----------\t-------\n")
	shifts := "-"
	if res.Shifts.Seen() {
		shifts = fmt.Sprintf("[%d, %d]", res.Shifts.Min, res.Shifts.Max)
	}
	fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n\n",
		res.RunID, res.Mode, res.Patches, res.Skipped,
		res.Cache.Hits, res.Cache.Misses, shifts, res.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(tw, "Polarization\tMasked\tLargest UL\tFreq [Hz]\tLon\tLat\tMax Dx\tDx Freq [Hz]\n")
	fmt.Fprintf(tw, "------------\t------\t----------\t---------\t---\t---\t------\t------------\n")
	for _, r := range res.Reports {
		l, s := r.Largest, r.Strongest
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.6f\t%.4f\t%.4f\t%.3f\t%.6f\n",
			r.Name, r.Masked, l.Upper, l.Freq, l.Longitude, l.Latitude, s.MaxDx, s.Freq)
	}
	fmt.Fprintln(tw)

	u := res.Unified
	fmt.Fprintf(tw, "Band\tHigh UL\tFreq [Hz]\tCircular UL\tFreq [Hz]\tMax Dx\tPolarization\tLon\tLat\n")
	fmt.Fprintf(tw, "----\t-------\t---------\t-----------\t---------\t------\t------------\t---\t---\n")
	for b := range u.BandHigh {
		circ, circFreq := "-", "-"
		if u.CircularEnabled {
			circ = fmt.Sprintf("%.4g", u.BandCirc[b].Value)
			circFreq = fmt.Sprintf("%.6f", u.BandCirc[b].Freq)
		}
		dx := u.BandDx[b]
		pol := "-"
		if dx.Pol >= 0 {
			pol = res.Polarizations[dx.Pol].Name
		}
		fmt.Fprintf(tw, "%s\t%.4g\t%.6f\t%s\t%s\t%.3f\t%s\t%.4f\t%.4f\n",
			fine.BandName(b), u.BandHigh[b].Value, u.BandHigh[b].Freq, circ, circFreq,
			dx.MaxDx, pol, dx.Longitude, dx.Latitude)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func printNear(w io.Writer, res *search.Result, lon, lat, radius float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	closest := res.Closest(lon, lat)
	fmt.Fprintf(tw, "Points within %.3f rad of (%.4f, %.4f), closest %d\n", radius, lon, lat, closest)
	fmt.Fprintf(tw, "Point\tPolarization\tLon\tLat\tUpper\tLower\tFreq [Hz]\tMax Dx\tBeta1\tBeta2\n")
	fmt.Fprintf(tw, "-----\t------------\t---\t---\t-----\t-----\t---------\t------\t-----\t-----\n")
	for _, p := range res.Near(lon, lat, radius) {
		mark := ""
		if p.Index == closest {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%.4f\t%.4f\t%.4g\t%.4g\t%.6f\t%.3f\t%.4f\t%.4f\n",
			p.Index, mark, p.Polarization, p.Longitude, p.Latitude,
			p.Upper, p.Lower, p.Freq, p.MaxDx, p.Beta1, p.Beta2)
	}
	return tw.Flush()
}
