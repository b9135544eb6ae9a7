package modelregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure_AlreadyPresent(t *testing.T) {
	tempDir := t.TempDir()
	modelPath := filepath.Join(tempDir, "whisper", "tiny", "model.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(modelPath), 0o755))
	require.NoError(t, os.WriteFile(modelPath, []byte("existing"), 0o644))

	reg := New(tempDir, "http://unused.invalid")

	var lastMsg string
	var lastPct float64
	path, err := reg.Ensure(context.Background(), "tiny", func(msg string, pct float64) {
		lastMsg, lastPct = msg, pct
	})

	require.NoError(t, err)
	assert.Equal(t, modelPath, path)
	assert.Equal(t, float64(100), lastPct)
	assert.Contains(t, lastMsg, "ready")
}

func TestEnsure_UnknownModel(t *testing.T) {
	reg := New(t.TempDir(), "http://unused.invalid")
	_, err := reg.Ensure(context.Background(), "not-a-real-model", nil)
	require.Error(t, err)
}

func TestEnsure_Downloads(t *testing.T) {
	const payload = "fake-model-bytes"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/Systran/faster-whisper-tiny/manifest.json":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/Systran/faster-whisper-tiny/model.bin":
			_, _ = w.Write([]byte(payload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tempDir := t.TempDir()
	reg := New(tempDir, server.URL)

	path, err := reg.Ensure(context.Background(), "tiny", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	// Second call should hit the path cache, not the server.
	server.Close()
	path2, err := reg.Ensure(context.Background(), "tiny", nil)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
}

func TestCleanupTempDownloads(t *testing.T) {
	tempDir := t.TempDir()
	modelDir := filepath.Join(tempDir, "whisper", "tiny")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))

	stale := filepath.Join(modelDir, "model.bin.download-abc123")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o644))

	reg := New(tempDir, "http://unused.invalid")
	require.NoError(t, reg.CleanupTempDownloads())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}
