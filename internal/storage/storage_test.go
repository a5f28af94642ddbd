package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTrooz/caching-http-client/internal/config"
)

// exerciseStorage runs the behaviour every backend must share
func exerciseStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	_, err := s.Read(ctx, "tripcache:/trips")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "tripcache:/trips", []byte(`{"a":1}`)))
	data, err := s.Read(ctx, "tripcache:/trips")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// Overwrite replaces the previous value
	require.NoError(t, s.Write(ctx, "tripcache:/trips", []byte(`{"a":2}`)))
	data, err = s.Read(ctx, "tripcache:/trips")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	require.NoError(t, s.Remove(ctx, "tripcache:/trips"))
	_, err = s.Read(ctx, "tripcache:/trips")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing a missing key is fine
	assert.NoError(t, s.Remove(ctx, "tripcache:/missing"))

	require.NoError(t, s.Write(ctx, "tripcache:/guides?page=1", []byte(`[]`)))
	require.NoError(t, s.Write(ctx, "tripcache:/guides?page=2", []byte(`[]`)))
	require.NoError(t, s.Clear(ctx))
	_, err = s.Read(ctx, "tripcache:/guides?page=1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Read(ctx, "tripcache:/guides?page=2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Write(ctx, "k", value))
	value[0] = 'x'

	data, err := m.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, 1, m.Len())
}

func TestDisk(t *testing.T) {
	disk := NewDisk(t.TempDir(), "session-1")
	require.NoError(t, disk.Init())
	exerciseStorage(t, disk)
}

func TestDiskClearRemovesSessionDir(t *testing.T) {
	tempDir := t.TempDir()
	disk := NewDisk(tempDir, "session-1")
	other := NewDisk(tempDir, "session-2")

	ctx := context.Background()
	require.NoError(t, disk.Write(ctx, "k", []byte("1")))
	require.NoError(t, other.Write(ctx, "k", []byte("2")))

	require.NoError(t, disk.Clear(ctx))

	_, err := os.Stat(disk.Dir())
	assert.True(t, os.IsNotExist(err), "session directory should have been removed")

	data, err := other.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))
}

func TestDiskWriteLeavesNoTempFiles(t *testing.T) {
	disk := NewDisk(t.TempDir(), "s")
	require.NoError(t, disk.Write(context.Background(), "k", []byte("v")))

	matches, err := filepath.Glob(filepath.Join(disk.Dir(), ".write-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := NewRedisClient(addr, "", 0)
	defer func() { _ = client.Close() }()

	r := NewRedis(client, "session-1")
	exerciseStorage(t, r)

	ctx := context.Background()
	require.NoError(t, r.Write(ctx, "tripcache:/trips", []byte(`{}`)))
	defer func() { _ = r.Clear(ctx) }()
	exists, err := client.Exists(ctx, "session-1:tripcache:/trips").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

func TestRedisKeys(t *testing.T) {
	client := NewRedisClient("localhost:6379", "", 0)
	defer func() { _ = client.Close() }()

	r := NewRedis(client, "session-1")
	assert.Equal(t, "session-1:tripcache:/trips?page=1", r.key("tripcache:/trips?page=1"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	s, err := Open(ctx, &cfg, "abc")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	cfg.Cache.Backend = config.BackendDisk
	cfg.Cache.Folder = t.TempDir()
	s, err = Open(ctx, &cfg, "abc")
	require.NoError(t, err)
	require.IsType(t, &Disk{}, s)
	assert.DirExists(t, filepath.Join(cfg.Cache.Folder, "abc"))

	cfg.Cache.Backend = "floppy"
	_, err = Open(ctx, &cfg, "abc")
	assert.Error(t, err)
}
