package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/dictea-go/internal/transcriber"
)

func sampleSegments() []transcriber.Segment {
	return []transcriber.Segment{
		{Start: 0, End: 65, Text: "  hello there  ", Speaker: "SPEAKER_0"},
		{Start: 65, End: 130, Text: "general kenobi", Speaker: "SPEAKER_1"},
	}
}

func TestToText_Plain(t *testing.T) {
	text := ToText(sampleSegments(), TextOptions{})
	assert.Equal(t, "hello there\ngeneral kenobi", text)
}

func TestToText_WithSpeakersAndTimestamps(t *testing.T) {
	text := ToText(sampleSegments(), TextOptions{IncludeSpeakers: true, IncludeTimestamps: true})
	lines := strings.Split(text, "\n")
	assert.Equal(t, "[SPEAKER_0] [00:00 - 01:05] hello there", lines[0])
	assert.Equal(t, "[SPEAKER_1] [01:05 - 02:10] general kenobi", lines[1])
}

func TestToText_SkipsEmptySpeaker(t *testing.T) {
	segments := []transcriber.Segment{{Start: 0, End: 1, Text: "unaccompanied"}}
	text := ToText(segments, TextOptions{IncludeSpeakers: true})
	assert.Equal(t, "unaccompanied", text)
}

func TestToSRT(t *testing.T) {
	srt := ToSRT(sampleSegments())
	expected := strings.Join([]string{
		"1",
		"00:00:00,000 --> 00:01:05,000",
		"[SPEAKER_0] hello there",
		"",
		"2",
		"00:01:05,000 --> 00:02:10,000",
		"[SPEAKER_1] general kenobi",
		"",
	}, "\n")
	assert.Equal(t, expected, srt)
}

func TestFormatSRTTime_Milliseconds(t *testing.T) {
	assert.Equal(t, "00:00:01,500", formatSRTTime(1.5))
	assert.Equal(t, "01:00:00,000", formatSRTTime(3600))
}
