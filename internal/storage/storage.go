// Session-scoped key-value persistence backing the response cache
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage is a key-value store whose contents live for one session.
// Every method may fail; callers decide whether a failure is fatal.
type Storage interface {
	// Read returns the value stored under key, or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores value under key, replacing any previous value
	Write(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error
	Remove(ctx context.Context, key string) error
	// Clear removes everything written during the session
	Clear(ctx context.Context) error
}
