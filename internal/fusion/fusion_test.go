package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/transcriber"
)

func TestAssignSpeakers_DominantOverlap(t *testing.T) {
	segments := []transcriber.Segment{
		{Start: 0, End: 5, Text: "hello there"},
	}
	diarization := diarizer.Result{Turns: []diarizer.Turn{
		{Start: 0, End: 1, Speaker: "SPEAKER_0"},
		{Start: 1, End: 5, Speaker: "SPEAKER_1"},
	}}

	result := AssignSpeakers(segments, diarization)
	assert.Equal(t, "SPEAKER_1", result[0].Speaker)
}

func TestAssignSpeakers_MidpointFallback(t *testing.T) {
	segments := []transcriber.Segment{
		{Start: 10, End: 12, Text: "no direct overlap"},
	}
	// Zero-duration turn at the segment's midpoint (11.0): SpeakerForRange
	// finds no overlapping interval, so AssignSpeakers must fall back to
	// SpeakerAt(mid).
	diarization := diarizer.Result{Turns: []diarizer.Turn{
		{Start: 11, End: 11, Speaker: "SPEAKER_0"},
	}}

	result := AssignSpeakers(segments, diarization)
	assert.Equal(t, "SPEAKER_0", result[0].Speaker)
}

func TestAssignSpeakers_NoTurnsLeavesEmptySpeaker(t *testing.T) {
	segments := []transcriber.Segment{{Start: 0, End: 5, Text: "unaccompanied"}}
	result := AssignSpeakers(segments, diarizer.Result{})
	assert.Equal(t, "", result[0].Speaker)
}

func TestAssignSpeakers_DoesNotMutateInput(t *testing.T) {
	segments := []transcriber.Segment{{Start: 0, End: 5}}
	diarization := diarizer.Result{Turns: []diarizer.Turn{{Start: 0, End: 5, Speaker: "SPEAKER_0"}}}

	_ = AssignSpeakers(segments, diarization)
	assert.Equal(t, "", segments[0].Speaker, "original slice must be untouched")
}
