// Package output renders a transcription result as plain text or SRT
// subtitles.
package output

import (
	"fmt"
	"strings"

	"github.com/tphakala/dictea-go/internal/transcriber"
)

// TextOptions controls ToText rendering.
type TextOptions struct {
	IncludeTimestamps bool
	IncludeSpeakers   bool
}

// ToText renders segments as one line per segment, each optionally prefixed
// with "[SPEAKER] " and/or "[MM:SS - MM:SS] ".
func ToText(segments []transcriber.Segment, opts TextOptions) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		var b strings.Builder
		if opts.IncludeSpeakers && seg.Speaker != "" {
			fmt.Fprintf(&b, "[%s] ", seg.Speaker)
		}
		if opts.IncludeTimestamps {
			fmt.Fprintf(&b, "[%s - %s] ", formatTime(seg.Start), formatTime(seg.End))
		}
		b.WriteString(strings.TrimSpace(seg.Text))
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// ToSRT renders segments as SubRip subtitles, one cue per segment, numbered
// from 1. Speaker labels, when present, are prefixed onto the cue text.
func ToSRT(segments []transcriber.Segment) string {
	lines := make([]string, 0, len(segments)*4)
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if seg.Speaker != "" {
			text = fmt.Sprintf("[%s] %s", seg.Speaker, text)
		}
		lines = append(lines,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s --> %s", formatSRTTime(seg.Start), formatSRTTime(seg.End)),
			text,
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// formatTime renders seconds as MM:SS.
func formatTime(seconds float64) string {
	total := int(seconds)
	mins, secs := total/60, total%60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// formatSRTTime renders seconds as HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	hours := int(seconds) / 3600
	remainder := seconds - float64(hours*3600)
	mins := int(remainder) / 60
	secs := int(remainder) - mins*60
	millis := int((remainder - float64(mins*60+secs)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, mins, secs, millis)
}
