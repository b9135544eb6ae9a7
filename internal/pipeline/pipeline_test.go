package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/dictea-go/internal/conf"
)

func testSettings(t *testing.T) *conf.Settings {
	return &conf.Settings{Paths: conf.PathSettings{Temp: t.TempDir()}}
}

func TestRun_RejectsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := New(testSettings(t), nil, nil)
	_, err := p.Run(context.Background(), path, Options{}, func(string, float64, string) {})
	assert.Error(t, err)
}

func TestRun_RejectsMissingFile(t *testing.T) {
	p := New(testSettings(t), nil, nil)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), Options{}, func(string, float64, string) {})
	assert.Error(t, err)
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, checkCancelled(ctx))

	cancel()
	assert.Error(t, checkCancelled(ctx))
}
