package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

// HTTP sends requests with net/http relative to a base URL
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates an HTTP transport. Cookies set by the server are kept for
// the lifetime of the transport.
func NewHTTP(baseURL string, timeout time.Duration) (*HTTP, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

// resolve builds the absolute URL of a request
func (t *HTTP) resolve(path string, params url.Values) (string, error) {
	target := path
	if !strings.Contains(path, "://") {
		target = t.baseURL + path
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("cannot resolve %q without a base URL", path)
	}

	if len(params) > 0 {
		query := u.Query()
		for k, vv := range params {
			for _, v := range vv {
				query.Add(k, v)
			}
		}
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	targetURL, err := t.resolve(req.Path, req.Params)
	if err != nil {
		return nil, fmt.Errorf("invalid request target: %w", err)
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, targetURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	copyHeaders(httpReq.Header, req.Headers)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending %s %s: %w", req.Method, targetURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	logrus.Debugf("Forwarded request: %s %s -> %d", req.Method, targetURL, resp.StatusCode)

	out := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    data,
	}
	if !out.OK() {
		return nil, &StatusError{Method: req.Method, Path: req.Path, Response: out}
	}
	return out, nil
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

var _ Transport = (*HTTP)(nil)
