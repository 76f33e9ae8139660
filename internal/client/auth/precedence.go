package auth

import (
	"fmt"
	"os"
)

const (
	// TokenEnvVar is the environment variable for "user:password" credentials
	TokenEnvVar = "GUESTGATE_TOKEN"
)

// Credential is what a request is authenticated with: Basic credentials
// when a token was given, otherwise the stored session cookie
type Credential struct {
	Basic   string // "user:password"
	Session string // "name=value"
}

// Empty reports whether no credential was resolved
func (c Credential) Empty() bool {
	return c.Basic == "" && c.Session == ""
}

// ResolveCredential resolves request credentials using precedence:
// 1. flagToken (--token flag)
// 2. Environment variable (GUESTGATE_TOKEN)
// 3. Stored session from 'guestgatectl login'
// Returns an empty Credential if nothing is configured
func ResolveCredential(flagToken string) (Credential, error) {
	if flagToken != "" {
		return Credential{Basic: flagToken}, nil
	}

	if envToken := os.Getenv(TokenEnvVar); envToken != "" {
		return Credential{Basic: envToken}, nil
	}

	session, err := LoadStoredSession()
	if err != nil {
		if err == ErrNotFound {
			return Credential{}, nil
		}
		return Credential{}, fmt.Errorf("failed to load stored session: %w", err)
	}

	return Credential{Session: session}, nil
}
