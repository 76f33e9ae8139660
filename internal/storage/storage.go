package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the users document does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrStorageUnavailable is returned when a storage backend cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTokenRequired is returned when a storage scheme requires a token but none was provided
	ErrTokenRequired = errors.New("storage token required")
)

// Source fetches the raw users document from a storage backend
type Source interface {
	// Fetch returns the current content of the document
	Fetch(ctx context.Context) ([]byte, error)

	// String returns a loggable description of the source (no credentials)
	String() string

	// Close releases backend resources
	Close() error
}

// Watcher is implemented by sources that can notify about changes.
// The returned channel receives a value after each observed change and is
// closed when ctx is done or the underlying watcher fails.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
