package cache

import (
	"time"
)

// Entry is a cached response body and the time it was written
type Entry struct {
	Key string
	// Payload is the response body, returned byte for byte
	Payload []byte
	// StoredAt is in milliseconds since the Unix epoch
	StoredAt int64
}

// StoredTime returns StoredAt as a time.Time
func (e Entry) StoredTime() time.Time {
	return time.UnixMilli(e.StoredAt)
}

// IsFresh reports whether entry is younger than window at now
func IsFresh(entry Entry, window time.Duration, now time.Time) bool {
	return now.UnixMilli()-entry.StoredAt < window.Milliseconds()
}

// valid reports whether a decoded record is usable. An empty body is a
// valid payload, a missing one is not.
func (e Entry) valid() bool {
	return e.Payload != nil && e.StoredAt > 0
}
