// Package pipeline orchestrates a single file through transcription,
// diarization, and speaker fusion, remapping each stage's own progress
// range into one overall 0-100 scale and reporting it through the worker
// package's event stream.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tphakala/dictea-go/internal/audioio"
	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/errors"
	"github.com/tphakala/dictea-go/internal/fusion"
	"github.com/tphakala/dictea-go/internal/modelregistry"
	"github.com/tphakala/dictea-go/internal/transcriber"
	"github.com/tphakala/dictea-go/internal/worker"
)

// Options configures one run of the pipeline.
type Options struct {
	Language       string
	DiarizationOn  bool
	MinSpeakers    int
	MaxSpeakers    int
	TranscriptDone func(transcriber.Result) // optional: raw speakerless result
}

// Pipeline wires a Transcriber and Diarizer together for single-file runs.
// The Diarizer may be nil if diarization is never used by this instance.
type Pipeline struct {
	settings    *conf.Settings
	transcriber *transcriber.Transcriber
	diarizer    *diarizer.Diarizer
}

// New creates a Pipeline. d may be nil; Run returns an error if Options
// requests diarization with a nil Diarizer.
func New(settings *conf.Settings, t *transcriber.Transcriber, d *diarizer.Diarizer) *Pipeline {
	return &Pipeline{settings: settings, transcriber: t, diarizer: d}
}

// Run executes the full pipeline synchronously, remapping sub-stage
// progress into the overall scale described by the package doc. Use
// worker.Run to wrap this in a started/progress/finished/error stream.
func (p *Pipeline) Run(ctx context.Context, path string, opts Options, emit worker.EmitFunc) (transcriber.Result, error) {
	if !audioio.IsSupported(path) {
		return transcriber.Result{}, errors.AudioFormat(path, "")
	}
	if _, err := os.Stat(path); err != nil {
		return transcriber.Result{}, errors.AudioFileNotFound(path)
	}
	if err := checkAvailableMemory(p.settings.Transcription.Model); err != nil {
		return transcriber.Result{}, err
	}

	emit("Canonicalize", 0, "Preparing audio...")
	canonPath, canonDesc, err := audioio.Canonicalize(ctx, path, p.settings.Paths.Temp)
	if err != nil {
		return transcriber.Result{}, err
	}
	if canonPath != path {
		defer os.Remove(canonPath)
	}

	emit("Transcription", 2, "Loading model...")
	if err := p.transcriber.Load(ctx, func(msg string, pct float64) {
		emit("Transcription", 2+pct*0.08, msg)
	}); err != nil {
		return transcriber.Result{}, err
	}
	if err := checkCancelled(ctx); err != nil {
		return transcriber.Result{}, err
	}

	emit("Transcription", 10, "In progress...")
	result, err := p.transcribe(ctx, canonPath, canonDesc, opts.Language, func(idx int, preview string) {
		pct := min(10+float64(idx)*2, 40)
		emit("Transcription", pct, preview)
	})
	if err != nil {
		return transcriber.Result{}, err
	}
	if err := checkCancelled(ctx); err != nil {
		return transcriber.Result{}, err
	}

	emit("Transcription", 40, "Done")
	if opts.TranscriptDone != nil {
		opts.TranscriptDone(result)
	}

	if !opts.DiarizationOn {
		emit("Done", 100, "no diarization requested")
		return result, nil
	}
	if p.diarizer == nil {
		return transcriber.Result{}, errors.DiarizationFailed("diarization requested but no diarizer configured")
	}

	emit("Diarization", 45, "Identifying speakers...")
	diarization, err := p.diarizer.Diarize(ctx, canonPath, opts.MinSpeakers, opts.MaxSpeakers, func(msg string, pct float64) {
		emit("Diarization", 45+pct*0.5, msg)
	})
	if err != nil {
		return transcriber.Result{}, err
	}
	if err := checkCancelled(ctx); err != nil {
		return transcriber.Result{}, err
	}

	emit("Fusion", 95, "Assigning speakers...")
	result.Segments = fusion.AssignSpeakers(result.Segments, diarization)

	emit("Done", 100, "complete")
	return result, nil
}

// transcribe runs the transcriber over canonPath, splitting into fixed-width
// chunks first when the file's duration exceeds the configured chunk width,
// so a multi-hour recording never requires holding its entire decoded PCM
// buffer in memory at once. Below the threshold it transcribes canonPath
// directly. Segment timestamps from later chunks are shifted by the chunk's
// offset so the merged result reads as one continuous transcript.
func (p *Pipeline) transcribe(ctx context.Context, canonPath string, desc audioio.Descriptor, language string, onSegment transcriber.SegmentProgressFunc) (transcriber.Result, error) {
	chunkMinutes := p.settings.Performance.ChunkSizeMinutes
	if chunkMinutes <= 0 || desc.DurationSeconds <= float64(chunkMinutes*60) {
		return p.transcriber.Transcribe(ctx, canonPath, language, onSegment)
	}

	chunkDir := filepath.Join(p.settings.Paths.Temp, "chunks-"+uuid.NewString())
	chunks, err := audioio.Chunk(ctx, canonPath, chunkMinutes, chunkDir)
	if err != nil {
		return transcriber.Result{}, err
	}
	defer os.RemoveAll(chunkDir)

	chunkSeconds := float64(chunkMinutes * 60)
	var merged transcriber.Result
	for i, chunkPath := range chunks {
		if err := checkCancelled(ctx); err != nil {
			return transcriber.Result{}, err
		}

		base := len(merged.Segments)
		res, err := p.transcriber.Transcribe(ctx, chunkPath, language, func(idx int, preview string) {
			if onSegment != nil {
				onSegment(base+idx, preview)
			}
		})
		if err != nil {
			return transcriber.Result{}, err
		}

		offset := float64(i) * chunkSeconds
		for _, seg := range res.Segments {
			seg.Start += offset
			seg.End += offset
			merged.Segments = append(merged.Segments, seg)
		}
		if i == 0 {
			merged.DetectedLanguage = res.DetectedLanguage
			merged.LanguageConfidence = res.LanguageConfidence
		}
	}
	merged.Duration = desc.DurationSeconds
	return merged, nil
}

func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return errors.TranscriptionCancelled()
	}
	return nil
}

// checkAvailableMemory compares free host memory against the selected
// model's rough resident-set requirement. It is best-effort: an unknown
// model name or a failure to read host memory stats is not fatal, since
// the check exists to fail fast on clearly undersized hosts, not to gate
// every run on a monitoring dependency being healthy.
func checkAvailableMemory(model string) error {
	info, ok := modelregistry.Lookup(model)
	if !ok || info.MinMemoryBytes == 0 {
		return nil
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil
	}
	if vm.Available < info.MinMemoryBytes {
		return errors.SystemInsufficientMemory(info.MinMemoryBytes, vm.Available)
	}
	return nil
}
