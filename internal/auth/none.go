package auth

import (
	"context"
	"net/http"
)

// NoAuth implements Service with no authentication: every request is an
// anonymous guest and the state is always ready.
type NoAuth struct{}

// NewNoAuth creates a new NoAuth service
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// Authenticate always returns a dummy user (no authentication)
func (a *NoAuth) Authenticate(r *http.Request) (*User, error) {
	return &User{Username: "anonymous"}, nil
}

// Middleware returns a no-op middleware (passes all requests through)
func (a *NoAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// AuthState reports an initialized subsystem with no session user
func (a *NoAuth) AuthState(r *http.Request) State {
	return State{Initialized: true}
}

// Login always fails with ErrLoginDisabled
func (a *NoAuth) Login(w http.ResponseWriter, username, password string) (*User, error) {
	return nil, ErrLoginDisabled
}

// Logout is a no-op
func (a *NoAuth) Logout(w http.ResponseWriter) {}

// Reload is a no-op
func (a *NoAuth) Reload(ctx context.Context) error {
	return nil
}
