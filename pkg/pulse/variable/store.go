// Package variable provides persistent storage for graph variables.
//
// Variables survive engine restarts. Values are opaque bytes; nodes encode
// them as JSON.
package variable

import (
	"context"
	"errors"
)

// Store persists variables by key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// List returns the keys starting with prefix, sorted.
	// Returns an empty slice (not error) when nothing matches.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for variable operations.
var (
	// ErrNotFound indicates a variable doesn't exist.
	ErrNotFound = errors.New("variable not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("variable store closed")
)
