package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/criteo/guestgate/internal/metrics"
	"github.com/criteo/guestgate/internal/session"
	"github.com/criteo/guestgate/internal/storage"
)

const realm = `Basic realm="guestgate"`

// Subsystem loads users from a storage source and resolves sessions.
// The first load runs in the background, so requests may observe
// Initialized == false for a while after startup.
type Subsystem struct {
	source  storage.Source
	codec   *session.Codec
	logger  *slog.Logger
	metrics *metrics.AuthMetrics

	tracker   Tracker
	directory atomic.Pointer[Directory]
	reloadMu  sync.Mutex
}

// NewSubsystem creates an uninitialized subsystem; call Start to load users
func NewSubsystem(source storage.Source, codec *session.Codec, logger *slog.Logger, m *metrics.AuthMetrics) *Subsystem {
	s := &Subsystem{
		source:  source,
		codec:   codec,
		logger:  logger,
		metrics: m,
	}
	s.directory.Store(NewDirectory())
	return s
}

// Start launches the first load in the background.
// The loading flag is raised before Start returns.
func (s *Subsystem) Start(ctx context.Context) {
	s.tracker.BeginLoad()
	go func() {
		defer s.tracker.EndLoad()
		// errors are logged by Reload
		_ = s.Reload(ctx)
	}()
}

// Reload fetches and parses the users document and swaps the directory.
// On failure the previous directory is kept. The subsystem is marked
// initialized either way.
func (s *Subsystem) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.tracker.BeginLoad()
	defer s.tracker.EndLoad()

	start := time.Now()
	dir, err := s.load(ctx)
	if err != nil {
		s.metrics.RecordReload(err, 0)
		s.logger.Error("Failed to load users",
			"source", s.source.String(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}

	s.directory.Store(dir)
	s.metrics.RecordReload(nil, dir.Len())
	s.logger.Info("Users loaded",
		"source", s.source.String(),
		"user_count", dir.Len(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Subsystem) load(ctx context.Context) (*Directory, error) {
	data, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return ParseUsers(data)
}

// Run reloads users every interval (when > 0) and whenever a watchable
// source reports a change. It blocks until ctx is done.
func (s *Subsystem) Run(ctx context.Context, interval time.Duration, watch bool) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var changes <-chan struct{}
	if watcher, ok := s.source.(storage.Watcher); ok && watch {
		ch, err := watcher.Watch(ctx)
		if err != nil {
			s.logger.Warn("Users source watch unavailable",
				"source", s.source.String(),
				"error", err)
		} else {
			changes = ch
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_ = s.Reload(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.logger.Info("Users source changed, reloading", "source", s.source.String())
			_ = s.Reload(ctx)
		}
	}
}

// AuthState implements StateProvider.
// The session user is only resolved against the loaded directory, so a
// valid cookie yields no user until the first load has finished.
func (s *Subsystem) AuthState(r *http.Request) State {
	return State{
		User:        s.sessionUser(r),
		Loading:     s.tracker.Loading(),
		Initialized: s.tracker.Initialized(),
	}
}

func (s *Subsystem) sessionUser(r *http.Request) *User {
	username, err := s.codec.Username(r)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			s.logger.Debug("Ignoring session cookie",
				"error", err,
				"source_ip", r.RemoteAddr)
		}
		return nil
	}
	if !s.directory.Load().Has(username) {
		return nil
	}
	return &User{Username: username}
}

// Authenticate accepts a session cookie or HTTP Basic credentials
func (s *Subsystem) Authenticate(r *http.Request) (*User, error) {
	if user := s.sessionUser(r); user != nil {
		return user, nil
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, fmt.Errorf("missing credentials")
	}

	if err := s.directory.Load().Verify(username, password); err != nil {
		s.logger.Warn("Authentication failed",
			"username", username,
			"source_ip", r.RemoteAddr)
		return nil, err
	}

	s.logger.Debug("Authentication successful",
		"username", username,
		"source_ip", r.RemoteAddr)
	return &User{Username: username}, nil
}

// Middleware returns middleware rejecting unauthenticated requests with 401
func (s *Subsystem) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := s.Authenticate(r); err != nil {
				w.Header().Set("WWW-Authenticate", realm)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Login verifies credentials and issues a session cookie
func (s *Subsystem) Login(w http.ResponseWriter, username, password string) (*User, error) {
	if err := s.directory.Load().Verify(username, password); err != nil {
		s.metrics.RecordLogin(false)
		s.logger.Warn("Login failed", "username", username)
		return nil, err
	}

	if err := s.codec.Issue(w, username); err != nil {
		s.metrics.RecordLogin(false)
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.metrics.RecordLogin(true)
	s.logger.Info("Login succeeded", "username", username)
	return &User{Username: username}, nil
}

// Logout clears the session cookie
func (s *Subsystem) Logout(w http.ResponseWriter) {
	s.codec.Clear(w)
}
