// Package fusion assigns speaker labels to transcription segments using a
// diarization result: dominant overlap first, midpoint as a fallback when
// no turn overlaps a segment at all.
package fusion

import (
	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/transcriber"
)

// AssignSpeakers mutates a copy of segments, setting Speaker on each from
// diarization, and returns the result. A segment with no overlapping turn
// falls back to whichever turn is active at its midpoint; a segment with no
// turn at all (dominant overlap nor midpoint) keeps an empty Speaker.
func AssignSpeakers(segments []transcriber.Segment, diarization diarizer.Result) []transcriber.Segment {
	out := make([]transcriber.Segment, len(segments))
	copy(out, segments)

	for i := range out {
		speaker := diarization.SpeakerForRange(out[i].Start, out[i].End)
		if speaker == "" {
			mid := (out[i].Start + out[i].End) / 2
			speaker = diarization.SpeakerAt(mid)
		}
		out[i].Speaker = speaker
	}

	return out
}
