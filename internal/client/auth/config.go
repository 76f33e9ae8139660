// Package auth stores guestgatectl credentials.
//
// Platform-specific implementations:
//   - keyring.go (macOS, Windows): URL in a config file, session in the OS keyring
//   - file.go (other platforms): both in a config file with 0600 permissions
package auth

import "errors"

// ErrNotFound is returned when no credentials are stored
var ErrNotFound = errors.New("credentials not found")

const (
	configDir  = ".config/guestgate"
	configFile = "credentials.yaml"
)
