package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iTrooz/caching-http-client/internal/transport"
)

// getTargetURL returns the absolute URL of r without its query
func getTargetURL(r *http.Request) string {
	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}

	host := r.URL.Host
	if host == "" {
		host = r.Host
	}
	host = strings.TrimSuffix(strings.TrimSuffix(host, ":80"), ":443")

	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.EscapedPath())
}

// toTransportRequest describes a proxied request the way the interceptors
// expect. The body is not read: only GET requests are ever cached.
func toTransportRequest(r *http.Request) *transport.Request {
	return &transport.Request{
		Method:  r.Method,
		Path:    getTargetURL(r),
		Headers: r.Header.Clone(),
		Params:  r.URL.Query(),
	}
}

// toHTTPResponse builds the response sent back to the proxy client
func toHTTPResponse(requ *http.Request, resp *transport.Response) *http.Response {
	header := resp.Headers.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType(resp.Body))
	}
	header.Del("Content-Length")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status)),
		StatusCode:    resp.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       requ,
	}
}

// contentType guesses the type of a cached body, whose original headers
// are not kept
func contentType(body []byte) string {
	if json.Valid(body) {
		return "application/json"
	}
	return http.DetectContentType(body)
}
