package capture

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToFloat32_RoundTripsKnownValues(t *testing.T) {
	raw := make([]byte, 8)
	putFloat32(raw[0:4], 0.5)
	putFloat32(raw[4:8], -0.25)

	samples := bytesToFloat32(raw)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 1e-6)
	assert.InDelta(t, -0.25, samples[1], 1e-6)
}

func TestBytesToFloat32_IgnoresTrailingPartialSample(t *testing.T) {
	raw := make([]byte, 6) // one full float32 plus 2 stray bytes
	putFloat32(raw[0:4], 1.0)

	samples := bytesToFloat32(raw)
	assert.Len(t, samples, 1)
}

func TestClampToInt16_SaturatesAtBounds(t *testing.T) {
	assert.Equal(t, 32767, clampToInt16(2.0))
	assert.Equal(t, -32768, clampToInt16(-2.0))
	assert.Equal(t, 0, clampToInt16(0))
}

func TestSave_WritesReadableMonoWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	samples := []float32{0, 0.25, -0.25, 0.5}
	got, err := Save(samples, 16000, 1, path, "wav")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	dec.ReadInfo()
	require.NoError(t, dec.Err())
	assert.Equal(t, uint32(16000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
}

func TestSave_RejectsUnknownFormat(t *testing.T) {
	_, err := Save([]float32{0}, 16000, 1, filepath.Join(t.TempDir(), "out.xyz"), "xyz")
	assert.Error(t, err)
}

func putFloat32(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
