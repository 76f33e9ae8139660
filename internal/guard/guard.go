// Package guard implements the guest guard: middleware for pages meant
// only for visitors without a session.
//
// Before deciding, the guard waits (bounded) for the authentication
// subsystem to finish initializing, then redirects signed-in users to the
// home path. A wait that times out is treated like a completed one.
package guard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/httpx"
	"github.com/criteo/guestgate/internal/metrics"
)

// Defaults for the readiness wait
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultTimeout      = 5 * time.Second
	DefaultHomePath     = "/"
)

// Decision is the result of one guard run
type Decision struct {
	// Redirect is the target path, empty when the request may proceed
	Redirect string
	Outcome  Outcome
	Waited   time.Duration
}

// Proceed reports whether the guest page should be served
func (d Decision) Proceed() bool {
	return d.Redirect == ""
}

func (d Decision) label() string {
	if d.Proceed() {
		return "proceed"
	}
	return "redirect"
}

// Guard decides whether a request may reach a guest-only page
type Guard struct {
	provider     auth.StateProvider
	pollInterval time.Duration
	timeout      time.Duration
	homePath     string
	logger       *slog.Logger
	metrics      *metrics.GuardMetrics
}

// Option configures a Guard
type Option func(*Guard)

// WithPollInterval sets the readiness polling period
func WithPollInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithTimeout sets the overall bound on the readiness wait
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithHomePath sets the redirect target for signed-in users
func WithHomePath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.homePath = path
		}
	}
}

// WithLogger sets the logger used for decision traces
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records decisions in m
func WithMetrics(m *metrics.GuardMetrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// New creates a guest guard reading state from provider
func New(provider auth.StateProvider, opts ...Option) *Guard {
	g := &Guard{
		provider:     provider,
		pollInterval: DefaultPollInterval,
		timeout:      DefaultTimeout,
		homePath:     DefaultHomePath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide waits for the auth subsystem to be ready (bounded), then
// returns a redirect to the home path if the request has a user.
// The user is read after the wait, never before.
func (g *Guard) Decide(r *http.Request) Decision {
	start := time.Now()

	outcome := Await(r.Context(), func() bool {
		return g.provider.AuthState(r).Ready()
	}, g.pollInterval, g.timeout)

	decision := Decision{
		Outcome: outcome,
		Waited:  time.Since(start),
	}
	if g.provider.AuthState(r).User != nil {
		decision.Redirect = g.homePath
	}
	return decision
}

// Middleware returns the guard as chi-compatible middleware
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r)

		g.metrics.ObserveDecision(string(decision.Outcome), decision.label(), decision.Waited)
		g.logger.Debug("Guest guard decision",
			"path", r.URL.Path,
			"decision", decision.label(),
			"outcome", decision.Outcome,
			"waited_ms", decision.Waited.Milliseconds())

		if decision.Proceed() {
			next.ServeHTTP(w, r)
			return
		}
		httpx.WriteRedirect(w, r, decision.Redirect)
	})
}

// Guest returns guest guard middleware for provider
func Guest(provider auth.StateProvider, opts ...Option) func(http.Handler) http.Handler {
	return New(provider, opts...).Middleware
}
