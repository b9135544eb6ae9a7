package audioio

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/dictea-go/internal/conf"
)

func writeTestWAV(t *testing.T, path string, sampleRate, channels, numSamples int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, numSamples*channels)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:   data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("meeting.wav"))
	assert.True(t, IsSupported("meeting.MP3"))
	assert.False(t, IsSupported("meeting.txt"))
}

func TestProbe_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.wav")
	writeTestWAV(t, path, conf.CanonicalSampleRate, 1, conf.CanonicalSampleRate*2)

	desc, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, conf.CanonicalSampleRate, desc.SampleRate)
	assert.Equal(t, 1, desc.Channels)
	assert.InDelta(t, 2.0, desc.DurationSeconds, 0.05)
	assert.Equal(t, "wav", desc.FormatTag)
}

func TestProbe_FLACFallsBackToFFprobeOnNativeDecodeFailure(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available in this environment")
	}

	path := filepath.Join(t.TempDir(), "garbage.flac")
	require.NoError(t, os.WriteFile(path, []byte("not a real flac stream"), 0o644))

	_, err := Probe(path)
	assert.Error(t, err, "neither the native decoder nor ffprobe can parse garbage bytes")
}

func TestProbe_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := Probe(path)
	require.Error(t, err)
}

func TestProbe_MissingFile(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}

func TestCanonicalize_AlreadyCanonicalIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.wav")
	writeTestWAV(t, path, conf.CanonicalSampleRate, conf.CanonicalChannels, conf.CanonicalSampleRate)

	out, desc, err := Canonicalize(t.Context(), path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, path, out, "already-canonical input should pass through unchanged")
	assert.Equal(t, conf.CanonicalSampleRate, desc.SampleRate)
}

func TestCanonicalize_NonCanonicalRequiresFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available in this environment")
	}

	path := filepath.Join(t.TempDir(), "highrate.wav")
	writeTestWAV(t, path, 44100, 2, 44100)

	out, desc, err := Canonicalize(t.Context(), path, t.TempDir())
	require.NoError(t, err)
	assert.NotEqual(t, path, out)
	assert.Equal(t, conf.CanonicalSampleRate, desc.SampleRate)
	assert.Equal(t, conf.CanonicalChannels, desc.Channels)
}

func TestCleanupTemp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	count, err := CleanupTemp(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err)
}

func TestCleanupTemp_MissingDir(t *testing.T) {
	count, err := CleanupTemp(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
