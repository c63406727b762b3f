package storage

import "errors"

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// ErrNotInitialized is returned by Load when the backing store does not exist yet
var ErrNotInitialized = errors.New("storage not initialized, run 'weighbit init' first")

// Provider is a key-value blob store used to persist the snapshot, the
// offline queue, and sync bookkeeping. Values are opaque bytes.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Blobs
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)

	// Utils
	GetPath() string
}

// Backend names a Provider implementation
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendJSON   Backend = "json"
	BackendMemory Backend = "memory"
)

// Valid reports whether b names a known backend
func (b Backend) Valid() bool {
	switch b {
	case BackendSQLite, BackendJSON, BackendMemory:
		return true
	}
	return false
}
