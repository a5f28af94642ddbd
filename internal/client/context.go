package client

import "context"

type key int

var bypassCacheKey key

// WithoutCache returns a context whose requests skip both cache lookup and
// cache write
func WithoutCache(parent context.Context) context.Context {
	return context.WithValue(parent, bypassCacheKey, true)
}

// IsCacheBypassed reports whether ctx was created by WithoutCache
func IsCacheBypassed(ctx context.Context) bool {
	bypass, _ := ctx.Value(bypassCacheKey).(bool)
	return bypass
}
