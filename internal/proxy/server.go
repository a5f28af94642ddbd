// Forward proxy answering GET requests from the session cache
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/client"
	"github.com/iTrooz/caching-http-client/internal/config"
)

// Server represents the caching proxy server
type Server struct {
	config    *config.Config
	proxy     *goproxy.ProxyHttpServer
	server    *http.Server
	requests  *client.RequestInterceptor
	responses *client.ResponseInterceptor
}

// New creates a new proxy server caching into store
func New(cfg *config.Config, store *cache.Store) (*Server, error) {
	cacheTTL, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}

	settings := client.Settings{
		Prefix: cfg.Cache.Prefix,
		Window: cacheTTL,
		Rules:  client.NewRules(cfg.Rules),
	}

	s := &Server{
		config:    cfg,
		proxy:     goproxy.NewProxyHttpServer(),
		requests:  client.NewRequestInterceptor(store, settings),
		responses: client.NewResponseInterceptor(store, settings),
	}
	s.proxy.Verbose = logrus.IsLevelEnabled(logrus.TraceLevel)

	if cfg.Server.HTTPS.Enabled {
		if err := s.setupHTTPSProxyHandler(); err != nil {
			return nil, fmt.Errorf("failed to set up TLS interception: %w", err)
		}
	}

	s.proxy.OnRequest().DoFunc(s.onRequest)
	s.proxy.OnResponse().DoFunc(s.onResponse)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.proxy,
		ReadHeaderTimeout: 15 * time.Second,
	}

	return s, nil
}

// GetProxy returns the proxy handler (exported for testing)
func (s *Server) GetProxy() http.Handler {
	return s.proxy
}

// Start starts the proxy server
func (s *Server) Start() error {
	logrus.Infof("Starting caching proxy on port %d", s.config.Server.Port)
	logrus.Infof("Cache backend: %s", s.config.Cache.Backend)
	logrus.Infof("Cache TTL: %s", s.config.Cache.TTL)
	logrus.Infof("Rules mode: %s", s.config.Rules.Mode)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
