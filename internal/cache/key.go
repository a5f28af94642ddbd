package cache

import "net/url"

// DeriveKey builds the cache key of a request to target with params.
// url.Values.Encode sorts by parameter name, so two mappings holding the
// same pairs always produce the same key.
func DeriveKey(prefix, target string, params url.Values) string {
	key := prefix + target
	if query := params.Encode(); query != "" {
		key += "?" + query
	}
	return key
}
