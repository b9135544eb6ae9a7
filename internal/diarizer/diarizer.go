// Package diarizer identifies speaker turns in an audio file.
//
// The model (NeMo Sortformer) has no Go binding in this stack, so it runs as
// an external process: a helper binary that loads the model once and prints
// one line per turn to stdout as "<start> <end> <label>". The external
// process is a sidecar the helper binary starts and feeds audio to; this
// package's contract is the text protocol on its stdout.
package diarizer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/tphakala/dictea-go/internal/audioio"
	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/errors"
)

// Mode is fixed: the adopted model (Sortformer) is the only supported
// backend. A constructor-time check rejects any other requested mode
// instead of silently ignoring it.
const ModeSortformer = "sortformer"

// ProgressFunc reports a message and a percent-complete in [0, 100].
type ProgressFunc func(message string, percent float64)

// Turn is a maximal interval during which a single speaker is active.
type Turn struct {
	Start   float64
	End     float64
	Speaker string
}

// Result is the full speaker-turn output for one file.
type Result struct {
	Turns        []Turn
	SpeakerCount int
}

// SpeakerAt returns the speaker active at time, or "" if none is.
func (r Result) SpeakerAt(time float64) string {
	for _, t := range r.Turns {
		if t.Start <= time && time <= t.End {
			return t.Speaker
		}
	}
	return ""
}

// SpeakerForRange returns the speaker with the greatest overlap duration
// against [start, end), or "" if no turn overlaps the range at all. Ties are
// broken toward whichever speaker first appears in r.Turns, matching the
// order diarization produced them in.
func (r Result) SpeakerForRange(start, end float64) string {
	overlaps := make(map[string]float64)
	var order []string

	for _, t := range r.Turns {
		overlapStart := max(start, t.Start)
		overlapEnd := min(end, t.End)
		if overlapStart >= overlapEnd {
			continue
		}
		if _, seen := overlaps[t.Speaker]; !seen {
			order = append(order, t.Speaker)
		}
		overlaps[t.Speaker] += overlapEnd - overlapStart
	}

	best, bestDuration := "", 0.0
	for _, speaker := range order {
		if duration := overlaps[speaker]; duration > bestDuration {
			best, bestDuration = speaker, duration
		}
	}
	return best
}

// Diarizer wraps a single external speaker-diarization process.
type Diarizer struct {
	settings   *conf.Settings
	binaryPath string

	mu     sync.Mutex
	loaded bool
}

// New creates a Diarizer bound to settings. settings.Diarization.Mode must
// be empty or ModeSortformer; any other value is rejected with a
// Diarization.Failed error rather than silently accepted and ignored.
func New(settings *conf.Settings, binaryPath string) (*Diarizer, error) {
	if settings.Diarization.Mode != "" && settings.Diarization.Mode != ModeSortformer {
		return nil, errors.DiarizationFailed(fmt.Sprintf("unsupported diarization mode %q: only %q is implemented", settings.Diarization.Mode, ModeSortformer))
	}
	return &Diarizer{settings: settings, binaryPath: binaryPath}, nil
}

// Load prepares the diarizer for use. Idempotent.
func (d *Diarizer) Load(ctx context.Context, progress ProgressFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}
	if progress != nil {
		progress("Loading speaker model...", 0)
	}
	if _, err := os.Stat(d.binaryPath); err != nil {
		return errors.ModelNotFound("diarizer")
	}
	d.loaded = true
	if progress != nil {
		progress("Speaker model ready", 100)
	}
	return nil
}

// Unload releases diarizer state. Safe to call when nothing is loaded.
func (d *Diarizer) Unload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
}

// Diarize auto-loads if needed, canonicalizes path to mono 16 kHz WAV,
// invokes the model with batch size 1, and parses its "<start> <end>
// <label>" output lines into a Result. minSpeakers/maxSpeakers are accepted
// for forward compatibility with future backends and are ignored by
// Sortformer, which auto-detects up to an internal cap.
func (d *Diarizer) Diarize(ctx context.Context, path string, minSpeakers, maxSpeakers int, progress ProgressFunc) (Result, error) {
	if err := d.Load(ctx, nil); err != nil {
		return Result{}, err
	}

	if progress != nil {
		progress("Preparing audio...", 20)
	}

	tempDir := d.settings.Paths.Temp
	canonPath, _, err := audioio.Canonicalize(ctx, path, tempDir)
	if err != nil {
		return Result{}, err
	}
	if canonPath != path {
		defer os.Remove(canonPath)
	}

	if progress != nil {
		progress("Sortformer running...", 30)
	}

	lines, err := d.invoke(ctx, canonPath)
	if err != nil {
		return Result{}, errors.DiarizationFailed(err.Error())
	}

	if progress != nil {
		progress("Processing results...", 80)
	}

	result := parseTurns(lines)
	if len(result.Turns) == 0 {
		return result, errors.DiarizationNoSpeakersDetected()
	}

	if progress != nil {
		progress("Diarization complete", 100)
	}
	return result, nil
}

// invoke runs the external model binary over path with batch size 1 and
// returns its stdout, split into lines.
func (d *Diarizer) invoke(ctx context.Context, path string) ([]string, error) {
	cmd := exec.CommandContext(ctx, d.binaryPath, "--batch-size", "1", "--input", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// parseTurns decodes lines of the form "<start> <end> <label>" into turns,
// normalizing labels to the regular form SPEAKER_NN.
func parseTurns(lines []string) Result {
	var turns []Turn
	speakers := make(map[string]struct{})

	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		start, err1 := strconv.ParseFloat(parts[0], 64)
		end, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}

		speaker := normalizeSpeakerLabel(parts[2])
		turns = append(turns, Turn{Start: start, End: end, Speaker: speaker})
		speakers[speaker] = struct{}{}
	}

	return Result{Turns: turns, SpeakerCount: len(speakers)}
}

func normalizeSpeakerLabel(raw string) string {
	upper := strings.ToUpper(raw)
	if strings.HasPrefix(upper, "SPEAKER_") {
		return upper
	}
	return "SPEAKER_" + upper
}
