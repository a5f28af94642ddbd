package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTrooz/caching-http-client/internal/storage"
)

// brokenStorage fails every operation, like a disabled or full storage
type brokenStorage struct {
	removed []string
}

var errUnavailable = errors.New("storage unavailable")

func (b *brokenStorage) Read(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (b *brokenStorage) Write(context.Context, string, []byte) error  { return errUnavailable }
func (b *brokenStorage) Remove(_ context.Context, key string) error {
	b.removed = append(b.removed, key)
	return errUnavailable
}
func (b *brokenStorage) Clear(context.Context) error { return errUnavailable }

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func TestStoreSetAndGet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewStore(storage.NewMemory(), WithClock(clock.Now))

	store.Set(ctx, "k", []byte(`{"id":1}`))

	entry, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "k", entry.Key)
	assert.JSONEq(t, `{"id":1}`, string(entry.Payload))
	assert.Equal(t, clock.Now().UnixMilli(), entry.StoredAt)
	assert.Equal(t, clock.Now(), entry.StoredTime())
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(storage.NewMemory())
	_, ok := store.Get(context.Background(), "missing")
	assert.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewStore(storage.NewMemory(), WithClock(clock.Now))

	store.Set(ctx, "k", []byte(`1`))
	clock.Advance(time.Second)
	store.Set(ctx, "k", []byte(`2`))

	entry, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "2", string(entry.Payload))
	assert.Equal(t, clock.Now().UnixMilli(), entry.StoredAt)
}

func TestStoreKeepsBodiesVerbatim(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		body []byte
	}{
		{name: "JSON object", body: []byte(`{"id":1,"name":"Cairo"}`)},
		{name: "JSON with trailing newline", body: []byte("{\"id\":1}\n")},
		{name: "JSON string", body: []byte(`"b"`)},
		{name: "html", body: []byte("<html><body>Giza</body></html>")},
		{name: "plain text", body: []byte("plain text")},
		{name: "empty", body: []byte{}},
		{name: "nil", body: nil},
		{name: "binary", body: []byte{0xff, 0x00, 0xfe, 'x'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := storage.NewMemory()
			store := NewStore(backend)

			store.Set(ctx, "k", tt.body)
			assert.Equal(t, 1, backend.Len())

			entry, ok := store.Get(ctx, "k")
			require.True(t, ok)
			assert.Equal(t, string(tt.body), string(entry.Payload))
			assert.NotNil(t, entry.Payload)
		})
	}
}

func TestStoreCorruptedEntry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not JSON", raw: "{not json"},
		{name: "no payload", raw: `{"storedAt":1700000000000}`},
		{name: "null payload", raw: `{"payload":null,"storedAt":1700000000000}`},
		{name: "bad base64", raw: `{"raw":"%%%","storedAt":1700000000000}`},
		{name: "no timestamp", raw: `{"payload":{"id":1}}`},
		{name: "wrong timestamp type", raw: `{"payload":1,"storedAt":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := storage.NewMemory()
			store := NewStore(backend)
			require.NoError(t, backend.Write(ctx, "k", []byte(tt.raw)))

			_, ok := store.Get(ctx, "k")
			assert.False(t, ok)

			_, err := backend.Read(ctx, "k")
			assert.ErrorIs(t, err, storage.ErrNotFound, "corrupted record should have been removed")

			// A clean write afterwards works
			store.Set(ctx, "k", []byte(`{"id":2}`))
			entry, ok := store.Get(ctx, "k")
			require.True(t, ok)
			assert.JSONEq(t, `{"id":2}`, string(entry.Payload))
		})
	}
}

func TestStoreUnavailableStorage(t *testing.T) {
	ctx := context.Background()
	backend := &brokenStorage{}
	store := NewStore(backend)

	assert.NotPanics(t, func() {
		store.Set(ctx, "k", []byte(`{}`))
	})

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, backend.removed, "read failures are not corruption")
}

func TestIsFresh(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(storage.NewMemory(), WithClock(clock.Now))
	entry := Entry{Payload: []byte(`1`), StoredAt: clock.Now().UnixMilli()}
	window := 300_000 * time.Millisecond

	assert.True(t, store.IsFresh(entry, window))

	clock.Advance(299_999 * time.Millisecond)
	assert.True(t, store.IsFresh(entry, window))

	clock.Advance(time.Millisecond)
	assert.False(t, store.IsFresh(entry, window), "an entry exactly window old is stale")
}

func TestEntryEncoding(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{name: "json", payload: []byte(`{"id":1,"tags":["a"]}`), want: `{"payload":{"id":1,"tags":["a"]},"storedAt":42}`},
		{name: "text", payload: []byte("hello"), want: `{"text":"hello","storedAt":42}`},
		{name: "empty", payload: []byte{}, want: `{"text":"","storedAt":42}`},
		{name: "binary", payload: []byte{0xff, 0xfe}, want: `{"raw":"//4=","storedAt":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry{Key: "ignored", Payload: tt.payload, StoredAt: 42}

			data, err := entry.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded Entry
			require.NoError(t, decoded.UnmarshalJSON(data))
			assert.Equal(t, int64(42), decoded.StoredAt)
			assert.Equal(t, tt.payload, decoded.Payload)
			assert.Empty(t, decoded.Key)
		})
	}
}
