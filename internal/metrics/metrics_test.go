package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObservePatch(OutcomeProcessed, 2*time.Millisecond)
	r.ObservePatch(OutcomeProcessed, 3*time.Millisecond)
	r.ObservePatch(OutcomeSkipped, 0)
	r.AddCacheLookups(40, 10)
	r.AddCacheLookups(2, 1)
	r.SetShiftRange(-3, 4)
	r.SetMasked("plus", 7)
	r.ObserveRun(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.patchesTotal.WithLabelValues(OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.patchesTotal.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 11.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, -3.0, testutil.ToFloat64(r.shiftRange.WithLabelValues("min")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.shiftRange.WithLabelValues("max")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.maskedPoints.WithLabelValues("plus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRunSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(r.patchDuration))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObservePatch(OutcomeProcessed, time.Millisecond)
		r.AddCacheLookups(1, 1)
		r.SetShiftRange(0, 1)
		r.SetMasked("x", 1)
		r.ObserveRun(time.Second)
	})
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveRun(250 * time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "skypower_runs_total 1"))
	assert.True(t, strings.Contains(string(body), "skypower_last_run_duration_seconds 0.25"))
}
