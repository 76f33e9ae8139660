// Package auth owns the authentication state observed by the guest guard:
// the users directory, its asynchronous loading lifecycle, and session
// resolution.
package auth

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginDisabled is returned by services that do not accept logins
	ErrLoginDisabled = errors.New("login disabled")
)

// User represents an authenticated user
type User struct {
	Username string `json:"username"`
}

// State is a snapshot of the authentication subsystem as seen by one request
type State struct {
	// User is non-nil iff the request carries a resolved session
	User *User `json:"user"`

	// Loading is true while the subsystem is performing a check
	Loading bool `json:"loading"`

	// Initialized is true once the first resolution attempt completed
	Initialized bool `json:"initialized"`
}

// Ready reports whether decisions based on this state are final
func (s State) Ready() bool {
	return s.Initialized && !s.Loading
}

// StateProvider exposes the authentication state for a request.
// Implementations must be safe for concurrent use and cheap to call
// repeatedly; the guest guard polls it.
type StateProvider interface {
	AuthState(r *http.Request) State
}

// Authenticator defines the authentication interface
type Authenticator interface {
	// Authenticate validates request credentials and returns user info
	Authenticate(r *http.Request) (*User, error)

	// Middleware returns HTTP middleware that rejects unauthenticated requests
	Middleware() func(http.Handler) http.Handler
}

// Service is the full authentication surface used by the HTTP server
type Service interface {
	Authenticator
	StateProvider

	// Login verifies credentials and starts a session on w
	Login(w http.ResponseWriter, username, password string) (*User, error)

	// Logout ends the session on w
	Logout(w http.ResponseWriter)

	// Reload refreshes the users directory from its source
	Reload(ctx context.Context) error
}

var (
	_ Service = (*Subsystem)(nil)
	_ Service = (*NoAuth)(nil)
)
