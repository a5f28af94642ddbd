package client

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/transport"
)

const (
	DefaultWindow = 5 * time.Minute
	DefaultPrefix = "tripcache:"
)

// Settings configures both interceptors
type Settings struct {
	// Prefix namespaces every cache key
	Prefix string
	// Window is the freshness window of a cached response
	Window time.Duration
	// Rules restricts which targets are cached; nil caches every GET
	Rules *Rules
}

func (s Settings) withDefaults() Settings {
	if s.Prefix == "" {
		s.Prefix = DefaultPrefix
	}
	if s.Window <= 0 {
		s.Window = DefaultWindow
	}
	return s
}

func (s Settings) cacheable(ctx context.Context, req *transport.Request) bool {
	return req.Method == http.MethodGet && !IsCacheBypassed(ctx) && s.Rules.Allows(req.Path)
}

func (s Settings) key(req *transport.Request) string {
	return cache.DeriveKey(s.Prefix, req.Path, req.Params)
}

// RequestInterceptor answers GET requests from the cache while the cached
// response is fresh
type RequestInterceptor struct {
	store    *cache.Store
	settings Settings
}

func NewRequestInterceptor(store *cache.Store, settings Settings) *RequestInterceptor {
	return &RequestInterceptor{store: store, settings: settings.withDefaults()}
}

// Intercept returns a synthetic response and true on a fresh cache hit.
// Otherwise the request must be sent as is. req is never modified.
func (i *RequestInterceptor) Intercept(ctx context.Context, req *transport.Request) (*transport.Response, bool) {
	if !i.settings.cacheable(ctx, req) {
		return nil, false
	}

	key := i.settings.key(req)
	entry, ok := i.store.Get(ctx, key)
	if !ok {
		return nil, false
	}
	if !i.store.IsFresh(entry, i.settings.Window) {
		logrus.Debugf("Cached data for %s is stale (stored at %s)", key, entry.StoredTime().Format(time.RFC3339))
		return nil, false
	}

	logrus.Debugf("Serving from cache: %s", key)

	headers := req.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	return &transport.Response{
		Status:    http.StatusOK,
		Headers:   headers,
		Body:      append([]byte(nil), entry.Payload...),
		FromCache: true,
	}, true
}

// ResponseInterceptor stores successful GET responses
type ResponseInterceptor struct {
	store    *cache.Store
	settings Settings
}

func NewResponseInterceptor(store *cache.Store, settings Settings) *ResponseInterceptor {
	return &ResponseInterceptor{store: store, settings: settings.withDefaults()}
}

// Intercept caches resp when req is a cacheable GET and resp is 2xx.
// resp is returned unchanged.
func (i *ResponseInterceptor) Intercept(ctx context.Context, req *transport.Request, resp *transport.Response) *transport.Response {
	if resp == nil || !resp.OK() || !i.settings.cacheable(ctx, req) {
		return resp
	}

	i.store.Set(ctx, i.settings.key(req), resp.Body)
	return resp
}
