package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardMetrics_NilSafe(t *testing.T) {
	var m *GuardMetrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("ready", "proceed", time.Second)
	})

	var a *AuthMetrics
	assert.NotPanics(t, func() {
		a.RecordReload(nil, 3)
		a.RecordLogin(true)
	})

	var h *HTTPMetrics
	assert.NotPanics(t, func() {
		h.RecordRateLimited()
	})
}

func TestGuardMetrics_ObserveDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGuardMetrics(reg)

	m.ObserveDecision("immediate", "redirect", 0)
	m.ObserveDecision("timeout", "proceed", 5*time.Second)
	m.ObserveDecision("timeout", "proceed", 5*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("immediate", "redirect")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("timeout", "proceed")))

	// only waiting decisions are observed in the histogram
	families, err := reg.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "guestgate_guard_wait_seconds" {
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples)
}

func TestAuthMetrics_Record(t *testing.T) {
	m := NewAuthMetrics(prometheus.NewRegistry())

	m.RecordReload(nil, 3)
	m.RecordReload(errors.New("boom"), 0)
	m.RecordLogin(true)
	m.RecordLogin(false)
	m.RecordLogin(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReloadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReloadsTotal.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Users))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("failure")))
}

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewGuardMetrics(reg)
	assert.NotPanics(t, func() {
		NewGuardMetrics(reg)
	})
}

func TestRegister_TwiceKeepsExporting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewHTTPMetrics(reg)
	second := NewHTTPMetrics(reg)

	second.RecordRateLimited()
	second.RecordRateLimited()
	first.RecordRateLimited()

	assert.Same(t, first.RateLimitedTotal, second.RateLimitedTotal)
	expected := `
# HELP guestgate_http_rate_limited_total Total number of requests rejected by the rate limiter
# TYPE guestgate_http_rate_limited_total counter
guestgate_http_rate_limited_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "guestgate_http_rate_limited_total"))
}

func TestRegister_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "a different help string",
	}))

	assert.Panics(t, func() {
		NewHTTPMetrics(reg)
	})
}

func TestHTTPMetrics_RecordRateLimited(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	m.RecordRateLimited()
	m.RecordRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimitedTotal))
}
