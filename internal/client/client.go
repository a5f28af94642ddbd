// HTTP client with a transparent, session-scoped response cache
package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iTrooz/caching-http-client/internal/cache"
	"github.com/iTrooz/caching-http-client/internal/transport"
)

// Options are the per-call parts of a request
type Options struct {
	Params  url.Values
	Headers http.Header
	Body    []byte
}

// Client runs every call through the request interceptor, the transport and
// the response interceptor, in that order
type Client struct {
	transport transport.Transport
	requests  *RequestInterceptor
	responses *ResponseInterceptor
	headers   http.Header
}

type Option func(*Client)

// WithDefaultHeader adds a header sent with every request
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func New(tr transport.Transport, requests *RequestInterceptor, responses *ResponseInterceptor, opts ...Option) *Client {
	c := &Client{
		transport: tr,
		requests:  requests,
		responses: responses,
		headers:   make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCaching builds a client whose interceptors share store
func NewCaching(tr transport.Transport, store *cache.Store, settings Settings, opts ...Option) *Client {
	return New(tr, NewRequestInterceptor(store, settings), NewResponseInterceptor(store, settings), opts...)
}

// Request sends method path. Transport errors are returned unchanged.
func (c *Client) Request(ctx context.Context, method, path string, opts Options) (*transport.Response, error) {
	req := c.newRequest(method, path, opts)

	resp, hit := c.requests.Intercept(ctx, req)
	if !hit {
		var err error
		resp, err = c.transport.Do(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	return c.responses.Intercept(ctx, req, resp), nil
}

func (c *Client) newRequest(method, path string, opts Options) *transport.Request {
	headers := c.headers.Clone()
	for key, values := range opts.Headers {
		headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	var params url.Values
	if len(opts.Params) > 0 {
		params = make(url.Values, len(opts.Params))
		for key, values := range opts.Params {
			params[key] = append([]string(nil), values...)
		}
	}

	return &transport.Request{
		Method:  method,
		Path:    path,
		Headers: headers,
		Params:  params,
		Body:    opts.Body,
	}
}

func (c *Client) Get(ctx context.Context, path string, params url.Values) (*transport.Response, error) {
	return c.Request(ctx, http.MethodGet, path, Options{Params: params})
}

func (c *Client) Post(ctx context.Context, path string, body []byte) (*transport.Response, error) {
	return c.Request(ctx, http.MethodPost, path, Options{Body: body, Headers: jsonHeaders()})
}

func (c *Client) Put(ctx context.Context, path string, body []byte) (*transport.Response, error) {
	return c.Request(ctx, http.MethodPut, path, Options{Body: body, Headers: jsonHeaders()})
}

func (c *Client) Delete(ctx context.Context, path string) (*transport.Response, error) {
	return c.Request(ctx, http.MethodDelete, path, Options{})
}

func jsonHeaders() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}
