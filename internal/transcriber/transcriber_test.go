package transcriber

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/modelregistry"
)

func newTestTranscriber(t *testing.T, cpuThreads int) *Transcriber {
	t.Helper()
	settings := &conf.Settings{
		Transcription: conf.TranscriptionSettings{
			Model:      "tiny",
			CPUThreads: cpuThreads,
		},
	}
	reg := modelregistry.New(t.TempDir(), "http://unused.invalid")
	return New(settings, reg)
}

func TestDetermineThreadCount_ExplicitSettingWins(t *testing.T) {
	tr := newTestTranscriber(t, 7)
	assert.Equal(t, 7, tr.determineThreadCount())
}

func TestDetermineThreadCount_FloorsAtMinimum(t *testing.T) {
	tr := newTestTranscriber(t, 0)
	assert.GreaterOrEqual(t, tr.determineThreadCount(), conf.MinTranscriberThreads)
}

func TestConfigureMathThreadEnv(t *testing.T) {
	configureMathThreadEnv(3)
	assert.Equal(t, "3", os.Getenv("OMP_NUM_THREADS"))
	assert.Equal(t, "3", os.Getenv("MKL_NUM_THREADS"))
	assert.Equal(t, "PASSIVE", os.Getenv("OMP_WAIT_POLICY"))
}

func TestLoadVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld\n"), 0o644))

	vocab := loadVocab(path)
	assert.Equal(t, []string{"hello", "world"}, vocab)
}

func TestLoadVocab_MissingFile(t *testing.T) {
	assert.Nil(t, loadVocab(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestUnload_SafeWhenNothingLoaded(t *testing.T) {
	tr := newTestTranscriber(t, 1)
	assert.NotPanics(t, func() { tr.Unload() })
}

func TestTranscribeStream_PropagatesLoadFailure(t *testing.T) {
	settings := &conf.Settings{
		Transcription: conf.TranscriptionSettings{Model: "not-a-real-model"},
	}
	reg := modelregistry.New(t.TempDir(), "http://unused.invalid")
	tr := New(settings, reg)

	segCh, errCh := tr.TranscribeStream(context.Background(), "missing.wav", "en")

	_, open := <-segCh
	assert.False(t, open, "segment channel should close without emitting on load failure")

	err, ok := <-errCh
	require.True(t, ok)
	assert.Error(t, err)
}

func TestReadCanonicalSamples_MissingFile(t *testing.T) {
	_, _, err := readCanonicalSamples(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
