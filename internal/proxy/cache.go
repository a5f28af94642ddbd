package proxy

import (
	"bytes"
	"io"
	"net/http"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"

	"github.com/iTrooz/caching-http-client/internal/transport"
)

const (
	headerXCache = "X-Cache"
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
)

// exchange follows one request from OnRequest to OnResponse
type exchange struct {
	request *transport.Request
	// cached is set when the request was answered from the cache
	cached *transport.Response
}

// onRequest answers fresh cached GET requests without contacting upstream
func (s *Server) onRequest(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	ex := &exchange{request: toTransportRequest(requ)}
	ctx.UserData = ex

	cached, hit := s.requests.Intercept(requ.Context(), ex.request)
	if !hit {
		logrus.Debugf("Cache miss for %s %s", requ.Method, requ.URL)
		return requ, nil
	}

	ex.cached = cached
	resp := toHTTPResponse(requ, cached)
	resp.Header.Set(headerXCache, cacheHit)
	return requ, resp
}

// onResponse stores successful GET responses, cached ones included
func (s *Server) onResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	ex, ok := ctx.UserData.(*exchange)
	if !ok || resp == nil {
		// Upstream failed, nothing to cache
		return resp
	}
	requ := ctx.Req

	if ex.cached != nil {
		s.responses.Intercept(requ.Context(), ex.request, ex.cached)
		return resp
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.Errorf("Failed to read response body for %s: %v", requ.URL, err)
		return resp
	}
	if err := resp.Body.Close(); err != nil {
		logrus.Errorf("Failed to close response body for %s: %v", requ.URL, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	s.responses.Intercept(requ.Context(), ex.request, &transport.Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
	})

	resp.Header.Set(headerXCache, cacheMiss)
	logrus.Infof("Forwarded request: %s %s -> %d", requ.Method, requ.URL, resp.StatusCode)
	return resp
}
