package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("client:\n  base_url: %q\n  coalesce: true\nlog:\n  level: error\n", baseURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"city":%q,"auth":%q}`, r.URL.Query().Get("city"), r.Header.Get("Authorization"))
	}))
	defer upstream.Close()

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-config", writeConfig(t, upstream.URL),
		"-token", "t0k3n",
		"-repeat", "2",
		"get", "/attractions", "city=Cairo",
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t,
		"200 (network) {\"city\":\"Cairo\",\"auth\":\"Bearer t0k3n\"}\n"+
			"200 (cache) {\"city\":\"Cairo\",\"auth\":\"Bearer t0k3n\"}\n",
		out.String())
}

func TestRunUsage(t *testing.T) {
	err := run(context.Background(), []string{"GET"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"page=1", "city=Cairo", "tag=a", "tag=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"page": {"1"}, "city": {"Cairo"}, "tag": {"a", "b"}, "empty": {""}}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
}
