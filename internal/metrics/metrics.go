// Package metrics defines the Prometheus collectors exposed by guestgate.
//
// All recorder methods are nil-safe: calls on a nil *GuardMetrics or
// *AuthMetrics are no-ops, so components can run without a registry.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "guestgate"

// GuardMetrics tracks guest guard decisions
type GuardMetrics struct {
	// DecisionsTotal counts decisions by wait outcome and decision.
	// Outcome values: "immediate", "ready", "timeout", "canceled".
	// Decision values: "redirect", "proceed".
	DecisionsTotal *prometheus.CounterVec

	// WaitSeconds observes how long requests waited for auth readiness.
	WaitSeconds prometheus.Histogram
}

// NewGuardMetrics creates and registers guard metrics with the given
// registerer. If reg is nil, metrics are created but not registered.
func NewGuardMetrics(reg prometheus.Registerer) *GuardMetrics {
	m := &GuardMetrics{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Total number of guest guard decisions",
		}, []string{"outcome", "decision"}),
		WaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for the auth subsystem to become ready",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	m.DecisionsTotal = register(reg, m.DecisionsTotal)
	m.WaitSeconds = register(reg, m.WaitSeconds)
	return m
}

// ObserveDecision records one guard decision
func (m *GuardMetrics) ObserveDecision(outcome, decision string, waited time.Duration) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome, decision).Inc()
	if outcome != "immediate" {
		m.WaitSeconds.Observe(waited.Seconds())
	}
}

// AuthMetrics tracks the auth subsystem
type AuthMetrics struct {
	// ReloadsTotal counts users document loads by result ("success", "error").
	ReloadsTotal *prometheus.CounterVec

	// Users is the number of users in the current directory.
	Users prometheus.Gauge

	// LoginsTotal counts login attempts by result ("success", "failure").
	LoginsTotal *prometheus.CounterVec
}

// NewAuthMetrics creates and registers auth metrics with the given
// registerer. If reg is nil, metrics are created but not registered.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		ReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "reloads_total",
			Help:      "Total number of users document loads",
		}, []string{"result"}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "users",
			Help:      "Number of users currently loaded",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Total number of login attempts",
		}, []string{"result"}),
	}

	m.ReloadsTotal = register(reg, m.ReloadsTotal)
	m.Users = register(reg, m.Users)
	m.LoginsTotal = register(reg, m.LoginsTotal)
	return m
}

// RecordReload records the result of a users document load
func (m *AuthMetrics) RecordReload(err error, users int) {
	if m == nil {
		return
	}
	if err != nil {
		m.ReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ReloadsTotal.WithLabelValues("success").Inc()
	m.Users.Set(float64(users))
}

// RecordLogin records a login attempt
func (m *AuthMetrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	if success {
		m.LoginsTotal.WithLabelValues("success").Inc()
		return
	}
	m.LoginsTotal.WithLabelValues("failure").Inc()
}

// HTTPMetrics tracks the HTTP server
type HTTPMetrics struct {
	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// NewHTTPMetrics creates and registers HTTP metrics
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}

	m.RateLimitedTotal = register(reg, m.RateLimitedTotal)
	return m
}

// RecordRateLimited records one rejected request
func (m *HTTPMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// register adds c to reg and returns the collector to record on. When an
// identical collector is already registered, that one is returned so the
// exported series keep moving.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
