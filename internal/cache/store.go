// Handles caching of HTTP response bodies for one session
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/mailru/easyjson"
	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/storage"
)

// Store reads and writes cache entries on a session storage.
// It never reports storage failures: a broken storage behaves like an
// empty one.
type Store struct {
	storage storage.Storage
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry stored under key. Unparsable records are removed.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool) {
	data, err := s.storage.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		logrus.Debugf("No cached data found for %s", key)
		return Entry{}, false
	}
	if err != nil {
		logrus.Warnf("Failed to read cache entry %s: %v", key, err)
		return Entry{}, false
	}

	var entry Entry
	if err := easyjson.Unmarshal(data, &entry); err != nil || !entry.valid() {
		logrus.Warnf("Removing corrupted cache entry %s", key)
		if err := s.storage.Remove(ctx, key); err != nil {
			logrus.Errorf("Failed to remove corrupted cache entry %s: %v", key, err)
		}
		return Entry{}, false
	}

	entry.Key = key
	return entry, true
}

// Set stores payload under key, stamped with the current time
func (s *Store) Set(ctx context.Context, key string, payload []byte) {
	entry := Entry{
		Payload:  append([]byte{}, payload...),
		StoredAt: s.now().UnixMilli(),
	}
	data, err := easyjson.Marshal(entry)
	if err != nil {
		logrus.Errorf("Failed to encode cache entry %s: %v", key, err)
		return
	}

	if err := s.storage.Write(ctx, key, data); err != nil {
		logrus.Errorf("Failed to cache response for %s: %v", key, err)
		return
	}
	logrus.Debugf("Cached response: %s", key)
}

// IsFresh reports whether entry is younger than window
func (s *Store) IsFresh(entry Entry, window time.Duration) bool {
	return IsFresh(entry, window, s.now())
}

// Clear drops every entry of the session
func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Clear(ctx)
}
