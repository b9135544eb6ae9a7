package diarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/dictea-go/internal/conf"
)

func TestNew_RejectsUnsupportedMode(t *testing.T) {
	settings := &conf.Settings{Diarization: conf.DiarizationSettings{Mode: "pyannote"}}
	_, err := New(settings, "/bin/true")
	assert.Error(t, err)
}

func TestNew_AcceptsEmptyOrSortformerMode(t *testing.T) {
	for _, mode := range []string{"", ModeSortformer} {
		settings := &conf.Settings{Diarization: conf.DiarizationSettings{Mode: mode}}
		_, err := New(settings, "/bin/true")
		assert.NoError(t, err)
	}
}

func TestParseTurns(t *testing.T) {
	lines := []string{
		"0.000 2.550 speaker_0",
		"2.550 5.100 SPEAKER_1",
		"garbage line",
		"5.100 7.000 speaker_0",
	}
	result := parseTurns(lines)

	assert.Equal(t, 3, len(result.Turns))
	assert.Equal(t, 2, result.SpeakerCount)
	assert.Equal(t, "SPEAKER_0", result.Turns[0].Speaker)
	assert.Equal(t, "SPEAKER_1", result.Turns[1].Speaker)
}

func TestResult_SpeakerAt(t *testing.T) {
	result := Result{Turns: []Turn{
		{Start: 0, End: 2, Speaker: "SPEAKER_0"},
		{Start: 2, End: 4, Speaker: "SPEAKER_1"},
	}}
	assert.Equal(t, "SPEAKER_0", result.SpeakerAt(1))
	assert.Equal(t, "SPEAKER_1", result.SpeakerAt(3))
	assert.Equal(t, "", result.SpeakerAt(10))
}

func TestResult_SpeakerForRange_PicksDominantOverlap(t *testing.T) {
	result := Result{Turns: []Turn{
		{Start: 0, End: 1, Speaker: "SPEAKER_0"},
		{Start: 1, End: 5, Speaker: "SPEAKER_1"},
	}}
	// Range [0, 5) overlaps SPEAKER_0 for 1s and SPEAKER_1 for 4s.
	assert.Equal(t, "SPEAKER_1", result.SpeakerForRange(0, 5))
}

func TestResult_SpeakerForRange_NoOverlapReturnsEmpty(t *testing.T) {
	result := Result{Turns: []Turn{{Start: 0, End: 1, Speaker: "SPEAKER_0"}}}
	assert.Equal(t, "", result.SpeakerForRange(10, 20))
}

func TestResult_SpeakerForRange_TiesBreakTowardFirstOccurrence(t *testing.T) {
	// SPEAKER_1 overlaps [0,2) for 2s and SPEAKER_0 overlaps [2,4) for 2s:
	// an equal split. SPEAKER_1 appears first in Turns, so it must win
	// regardless of map iteration order, every time this runs.
	result := Result{Turns: []Turn{
		{Start: 0, End: 2, Speaker: "SPEAKER_1"},
		{Start: 2, End: 4, Speaker: "SPEAKER_0"},
	}}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "SPEAKER_1", result.SpeakerForRange(0, 4))
	}
}

func TestNormalizeSpeakerLabel(t *testing.T) {
	assert.Equal(t, "SPEAKER_0", normalizeSpeakerLabel("speaker_0"))
	assert.Equal(t, "SPEAKER_0", normalizeSpeakerLabel("SPEAKER_0"))
	assert.Equal(t, "SPEAKER_2", normalizeSpeakerLabel("2"))
}
