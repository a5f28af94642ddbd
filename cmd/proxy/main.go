package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/config"
	"github.com/iTrooz/caching-http-client/internal/proxy"
	"github.com/iTrooz/caching-http-client/internal/session"
	"github.com/iTrooz/caching-http-client/internal/storage"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	if err := cfg.SetupLogging(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	if dump, err := cfg.Dump(); err == nil {
		logrus.Debugf("Effective configuration:\n%s", dump)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, store, err := setup(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to create proxy server: %v", err)
	}

	if err := serve(ctx, server, store); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}

// serve runs server until ctx is done. The proxy process is the session:
// its cache is cleared however serving ends.
func serve(ctx context.Context, server *proxy.Server, store *cache.Store) error {
	defer func() {
		if err := store.Clear(context.Background()); err != nil {
			logrus.Errorf("Failed to clear cache: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Failed to shut down proxy server: %v", err)
		}
	}()

	return server.Start()
}

// setup opens the session storage and builds the proxy around it
func setup(ctx context.Context, cfg *config.Config) (*proxy.Server, *cache.Store, error) {
	sessionID, err := session.NewID()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	backend, err := storage.Open(ctx, cfg, sessionID)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewStore(backend)

	server, err := proxy.New(cfg, store)
	if err != nil {
		return nil, nil, err
	}
	return server, store, nil
}
