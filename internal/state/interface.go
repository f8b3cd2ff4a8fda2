// Package state provides the durable key/value boundary the orchestration
// core persists through. Only single-key atomicity is assumed.
package state

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("state: key not found")

// Store is the external state-store boundary: durable key/value access
// with prefix listing. Implementations must make Put atomic per key.
type Store interface {
	io.Closer

	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
	// List returns all keys with the given prefix, sorted ascending.
	List(prefix string) ([]string, error)
}

// Compile-time verification that both backends implement Store.
var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)
