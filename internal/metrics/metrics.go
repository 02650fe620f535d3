// Package metrics exposes Prometheus collectors for the fine-grid stage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the stage collectors. A nil *Recorder records nothing,
// so the stage can call it unconditionally.
type Recorder struct {
	patchesTotal   *prometheus.CounterVec
	patchDuration  prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	shiftRange     *prometheus.GaugeVec
	maskedPoints   *prometheus.GaugeVec
	runsTotal      prometheus.Counter
	lastRunSeconds prometheus.Gauge
}

// New creates the collectors and registers them on reg. It panics if
// they are already registered there, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		patchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skypower_patches_total",
				Help: "Patches seen by the stage, by outcome.",
			},
			[]string{"outcome"},
		),
		patchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "skypower_patch_duration_seconds",
				Help:    "Time spent accumulating and limiting one patch.",
				Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skypower_power_cache_lookups_total",
				Help: "Matched-filter cache lookups, by result.",
			},
			[]string{"result"},
		),
		shiftRange: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skypower_bin_shift",
				Help: "Smallest and largest integer bin shift of the last run.",
			},
			[]string{"bound"},
		),
		maskedPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skypower_masked_points",
				Help: "Fine points masked for low statistics in the last run.",
			},
			[]string{"polarization"},
		),
		runsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "skypower_runs_total",
				Help: "Completed stage runs.",
			},
		),
		lastRunSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "skypower_last_run_duration_seconds",
				Help: "Wall time of the last completed run.",
			},
		),
	}
	reg.MustRegister(
		r.patchesTotal,
		r.patchDuration,
		r.cacheLookups,
		r.shiftRange,
		r.maskedPoints,
		r.runsTotal,
		r.lastRunSeconds,
	)
	return r
}

// Handler returns the metrics HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Outcome labels for ObservePatch.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
)

// ObservePatch counts one patch and, for processed patches, its duration.
func (r *Recorder) ObservePatch(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.patchesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeProcessed {
		r.patchDuration.Observe(d.Seconds())
	}
}

// AddCacheLookups adds hit and miss counts.
func (r *Recorder) AddCacheLookups(hits, misses int64) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	r.cacheLookups.WithLabelValues("miss").Add(float64(misses))
}

// SetShiftRange records the bin shift range.
func (r *Recorder) SetShiftRange(min, max int) {
	if r == nil {
		return
	}
	r.shiftRange.WithLabelValues("min").Set(float64(min))
	r.shiftRange.WithLabelValues("max").Set(float64(max))
}

// SetMasked records the masked point count of a polarization.
func (r *Recorder) SetMasked(pol string, n int) {
	if r == nil {
		return
	}
	r.maskedPoints.WithLabelValues(pol).Set(float64(n))
}

// ObserveRun counts a completed run.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.Inc()
	r.lastRunSeconds.Set(d.Seconds())
}
