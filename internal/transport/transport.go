// Sends requests over the network on behalf of the client
package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Transport sends one request and returns its response.
// Non-2xx responses are reported as *StatusError.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Transport interface
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request is an outgoing call. Path is relative to the transport base URL
// unless it is an absolute URL.
type Request struct {
	Method  string
	Path    string
	Headers http.Header
	Params  url.Values
	Body    []byte
}

// Response is a fully read response
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	// FromCache is set when the response never went through the network
	FromCache bool
}

// Clone returns a deep copy of r
func (r *Response) Clone() *Response {
	return &Response{
		Status:    r.Status,
		Headers:   r.Headers.Clone(),
		Body:      append([]byte(nil), r.Body...),
		FromCache: r.FromCache,
	}
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusError is returned for responses with a non-2xx status
type StatusError struct {
	Method   string
	Path     string
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Response.Status)
}
