package integration

import (
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/criteo/guestgate/internal/auth"
)

// newTestLogger creates a logger for integration tests
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// usersDocument renders a users.yaml with a single bcrypt user
func usersDocument(t *testing.T, username, password string) []byte {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return []byte("users:\n  - username: " + username + "\n    password: " + hash + "\n")
}

// waitForServer waits for the server to be ready
func waitForServer(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
