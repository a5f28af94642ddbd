package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/config"
	"github.com/iTrooz/caching-http-client/internal/proxy"
	"github.com/iTrooz/caching-http-client/internal/storage"
)

// upstream is a test API server counting the requests it receives
type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

// fixture_upstream creates a test upstream server
func fixture_upstream() *upstream {
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, requ *http.Request) {
		u.hits.Add(1)
		switch requ.URL.Path {
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
			return
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html></html>`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "Hello from upstream", "path": "` + requ.URL.Path + `", "query": "` + requ.URL.RawQuery + `"}`))
	}))
	return u
}

// fixture_config creates a test config with optional rules
func fixture_config(tempDir string, rules *config.RulesConfig) *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0 // Will be set by test server
	cfg.Cache.TTL = "1h"
	cfg.Cache.Backend = config.BackendDisk
	cfg.Cache.Folder = tempDir

	if rules != nil {
		cfg.Rules = *rules
	}

	return &cfg
}

// fixture_proxy creates a proxy server with the given config and returns the cache store, test server, and HTTP client
func fixture_proxy(cfg *config.Config) (*cache.Store, *httptest.Server, *http.Client, error) {
	backend := storage.NewDisk(cfg.Cache.Folder, "integration")
	if err := backend.Init(); err != nil {
		return nil, nil, nil, err
	}
	store := cache.NewStore(backend)

	proxyServer, err := proxy.New(cfg, store)
	if err != nil {
		return nil, nil, nil, err
	}

	// Create test proxy HTTP server using goproxy
	proxyTestServer := httptest.NewServer(proxyServer.GetProxy())

	// Create HTTP client that uses our proxy
	proxyURL, _ := url.Parse(proxyTestServer.URL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: 10 * time.Second,
	}

	return store, proxyTestServer, client, nil
}
