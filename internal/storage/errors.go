package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Failure kinds of a users document fetch
const (
	KindAuth     = "auth"
	KindNetwork  = "network"
	KindNotFound = "not_found"
	KindBackend  = "backend"
)

// SourceError is the error every Source returns when a fetch fails.
// A not_found error matches ErrNotFound; every other kind matches
// ErrStorageUnavailable.
type SourceError struct {
	Backend string // file, s3, oci
	Kind    string
	Hint    string
	Err     error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s users source %s error: %v", e.Backend, strings.ReplaceAll(e.Kind, "_", " "), e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	if e.Kind == KindNotFound {
		return target == ErrNotFound
	}
	return target == ErrStorageUnavailable
}

// Temporary reports whether retrying the fetch later may succeed
func (e *SourceError) Temporary() bool {
	return e.Kind == KindNetwork || e.Kind == KindBackend
}

func sourceError(backend, kind string, err error) *SourceError {
	return &SourceError{Backend: backend, Kind: kind, Err: err}
}

// networkError classifies transport failures shared by the remote backends
func networkError(backend string, err error) (*SourceError, bool) {
	if errors.Is(err, context.Canceled) {
		return nil, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return sourceError(backend, KindNetwork, fmt.Errorf("timed out: %w", err)), true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return sourceError(backend, KindNetwork, fmt.Errorf("cannot resolve %s: %w", dnsErr.Name, err)), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return sourceError(backend, KindNetwork, err), true
	}
	return nil, false
}

// authHints maps well-known storage hosts to the credential they expect
var authHints = []struct {
	match string
	hint  string
}{
	{"ghcr.io", "ghcr.io: use a GitHub PAT with read:packages"},
	{"docker.io", "docker.io: use a Docker Hub access token"},
	{"azurecr.io", "Azure ACR: use 'az acr login --expose-token'"},
	{".dkr.ecr.", "AWS ECR: use 'aws ecr get-login-password'"},
	{"pkg.dev", "GCP: use 'gcloud auth print-access-token'"},
	{"gcr.io", "GCP: use 'gcloud auth print-access-token'"},
	{"amazonaws.com", "AWS S3: the key needs s3:GetObject on the users object"},
	{"digitaloceanspaces.com", "DigitalOcean Spaces: the endpoint region must match the space"},
	{"backblazeb2.com", "Backblaze B2: the application key needs read access"},
}

func authHint(host string) string {
	host = strings.ToLower(host)
	for _, h := range authHints {
		if strings.Contains(host, h.match) {
			return h.hint
		}
	}
	return ""
}
