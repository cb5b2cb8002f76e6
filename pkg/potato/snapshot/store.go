package snapshot

import (
	"errors"
	"time"
)

// Store persists serialized snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores data under id, replacing any previous snapshot with that
	// id. Every Put receives a new, higher sequence number.
	Put(id, label string, data []byte) error

	// Get returns the data stored under id, or ErrNotFound.
	Get(id string) ([]byte, error)

	// List returns metadata for every snapshot ordered by sequence.
	List() ([]Info, error)

	// Delete removes a snapshot. Deleting a missing id is not an error.
	Delete(id string) error

	// Close releases resources held by the store.
	Close() error
}

// Info describes a stored snapshot without loading it.
type Info struct {
	ID        string
	Label     string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates no snapshot is stored under the given id.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")
)
