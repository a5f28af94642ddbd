package transport

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/singleflight"
)

type coalescing struct {
	next  Transport
	group singleflight.Group
}

// Coalesce shares one in-flight GET between identical concurrent calls.
// The shared call is not cancelled with the caller that started it; each
// caller stops waiting when its own context is done.
func Coalesce(next Transport) Transport {
	return &coalescing{next: next}
}

func (c *coalescing) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Method != http.MethodGet {
		return c.next.Do(ctx, req)
	}

	key := req.Path + "?" + req.Params.Encode() + "\n" + req.Headers.Get("Authorization")
	results := c.group.DoChan(key, func() (any, error) {
		return c.next.Do(context.WithoutCancel(ctx), req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, unshareError(res.Err, res.Shared)
		}
		resp, _ := res.Val.(*Response)
		if res.Shared && resp != nil {
			return resp.Clone(), nil
		}
		return resp, nil
	}
}

// unshareError gives each caller of a shared call its own status error
func unshareError(err error, shared bool) error {
	var statusErr *StatusError
	if !shared || !errors.As(err, &statusErr) || statusErr.Response == nil {
		return err
	}
	return &StatusError{
		Method:   statusErr.Method,
		Path:     statusErr.Path,
		Response: statusErr.Response.Clone(),
	}
}
