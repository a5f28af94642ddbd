// Ties a response cache to the lifetime of one user session
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/client"
	"github.com/iTrooz/caching-http-client/internal/config"
	"github.com/iTrooz/caching-http-client/internal/storage"
	"github.com/iTrooz/caching-http-client/internal/transport"
)

// Notifier is the trip-status subscription opened for the session
type Notifier interface {
	Close() error
}

type Options struct {
	// Token is sent as a bearer token with every request
	Token string
	// Notifier is closed when the session ends
	Notifier Notifier
	// Storage overrides the backend selected by the configuration
	Storage storage.Storage
	// CacheOptions are passed to the cache store
	CacheOptions []cache.Option
}

// Session owns the cache store of one session and the client using it
type Session struct {
	ID     string
	Client *client.Client

	store    *cache.Store
	notifier Notifier
	endOnce  sync.Once
	endErr   error
}

// Start opens the session storage and builds its client
func Start(ctx context.Context, cfg *config.Config, tr transport.Transport, opts Options) (*Session, error) {
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}

	id, err := NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	backend := opts.Storage
	if backend == nil {
		backend, err = storage.Open(ctx, cfg, id)
		if err != nil {
			return nil, fmt.Errorf("failed to open session storage: %w", err)
		}
	}

	store := cache.NewStore(backend, opts.CacheOptions...)
	settings := client.Settings{
		Prefix: cfg.Cache.Prefix,
		Window: ttl,
		Rules:  client.NewRules(cfg.Rules),
	}

	var clientOpts []client.Option
	if opts.Token != "" {
		clientOpts = append(clientOpts, client.WithDefaultHeader("Authorization", "Bearer "+opts.Token))
	}

	logrus.Debugf("Started session %s (backend %s)", id, cfg.Cache.Backend)
	return &Session{
		ID:       id,
		Client:   client.NewCaching(tr, store, settings, clientOpts...),
		store:    store,
		notifier: opts.Notifier,
	}, nil
}

// End closes the notifier and drops the session cache. Only the first call
// does anything; later calls return the same result.
func (s *Session) End(ctx context.Context) error {
	s.endOnce.Do(func() {
		var errs []error
		if s.notifier != nil {
			if err := s.notifier.Close(); err != nil {
				logrus.Warnf("Failed to close notifier of session %s: %v", s.ID, err)
				errs = append(errs, fmt.Errorf("closing notifier: %w", err))
			}
		}
		if err := s.store.Clear(ctx); err != nil {
			logrus.Warnf("Failed to clear cache of session %s: %v", s.ID, err)
			errs = append(errs, fmt.Errorf("clearing cache: %w", err))
		}
		s.endErr = errors.Join(errs...)
		logrus.Debugf("Ended session %s", s.ID)
	})
	return s.endErr
}

// NewID returns a random session identifier
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
