// Package batch sequentially processes a list of audio files through the
// pipeline, isolating each item's failure from the rest.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tphakala/dictea-go/internal/audioio"
	"github.com/tphakala/dictea-go/internal/errors"
	"github.com/tphakala/dictea-go/internal/output"
	"github.com/tphakala/dictea-go/internal/pipeline"
	"github.com/tphakala/dictea-go/internal/transcriber"
	"github.com/tphakala/dictea-go/internal/worker"
)

// Status is the lifecycle state of one batch item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// OutputFormat selects which file(s) a completed item writes.
type OutputFormat string

const (
	FormatText OutputFormat = "txt"
	FormatSRT  OutputFormat = "srt"
	FormatBoth OutputFormat = "both"
)

// Item tracks one file's path and outcome through a batch run.
type Item struct {
	Path         string
	Status       Status
	Result       *transcriber.Result
	ErrorMessage string
}

func (i Item) Filename() string {
	return filepath.Base(i.Path)
}

// Options configures one batch run.
type Options struct {
	Language          string
	UseDiarization    bool
	MinSpeakers       int
	MaxSpeakers       int
	OutputDir         string // defaults to each item's own directory when empty
	OutputFormat      OutputFormat
	IncludeTimestamps bool
	IncludeSpeakers   bool
	SkipExisting      bool
}

// Result is the outcome of a full batch run.
type Result struct {
	Items []Item
}

func (r Result) TotalCount() int { return len(r.Items) }

func (r Result) CompletedCount() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == StatusCompleted {
			n++
		}
	}
	return n
}

func (r Result) FailedCount() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (r Result) SuccessRate() float64 {
	if len(r.Items) == 0 {
		return 0
	}
	return float64(r.CompletedCount()) / float64(len(r.Items)) * 100
}

// Processor runs a list of files sequentially through a Pipeline.
type Processor struct {
	pipeline *pipeline.Pipeline
}

// New creates a Processor bound to a Pipeline.
func New(p *pipeline.Pipeline) *Processor {
	return &Processor{pipeline: p}
}

// ItemProgressFunc reports (current, total, filename, percent) for the item
// in flight.
type ItemProgressFunc func(current, total int, filename string, percent float64)

// ItemCompletedFunc reports the final outcome of one item as it finishes.
type ItemCompletedFunc func(index int, success bool, message string)

// Process runs files sequentially, stopping early if ctx is cancelled: the
// item in flight is marked failed with a cancellation error, and every
// remaining pending item is marked skipped.
func (p *Processor) Process(ctx context.Context, files []string, opts Options, onProgress ItemProgressFunc, onItemDone ItemCompletedFunc, emit worker.EmitFunc) Result {
	items := make([]Item, len(files))
	for i, f := range files {
		items[i] = Item{Path: f, Status: StatusPending}
	}

	for i := range items {
		if ctx.Err() != nil {
			markRemainingSkipped(items, i)
			break
		}

		if onProgress != nil {
			onProgress(i+1, len(items), items[i].Filename(), 0)
		}
		if emit != nil {
			emit("Batch", float64(i)/float64(len(items))*100, items[i].Filename())
		}

		p.processItem(ctx, &items[i], opts, i, len(items), onProgress)

		if onItemDone != nil {
			onItemDone(i, items[i].Status == StatusCompleted, items[i].ErrorMessage)
		}
	}

	return Result{Items: items}
}

func (p *Processor) processItem(ctx context.Context, item *Item, opts Options, index, total int, onProgress ItemProgressFunc) {
	item.Status = StatusProcessing

	if err := validateFile(item.Path); err != nil {
		item.Status = StatusFailed
		item.ErrorMessage = err.Error()
		return
	}

	if opts.SkipExisting && outputExists(item.Path, opts) {
		item.Status = StatusSkipped
		return
	}

	itemProgress := func(pct float64) {
		if onProgress != nil {
			onProgress(index+1, total, item.Filename(), pct)
		}
	}

	itemProgress(10)
	result, err := p.pipeline.Run(ctx, item.Path, pipeline.Options{
		Language:      opts.Language,
		DiarizationOn: opts.UseDiarization,
		MinSpeakers:   opts.MinSpeakers,
		MaxSpeakers:   opts.MaxSpeakers,
	}, func(stage string, pct float64, detail string) {
		itemProgress(10 + pct*0.8)
	})
	if err != nil {
		item.Status = StatusFailed
		item.ErrorMessage = err.Error()
		return
	}

	item.Result = &result
	item.Status = StatusCompleted
	itemProgress(90)

	if err := saveResult(*item, opts); err != nil {
		item.Status = StatusFailed
		item.ErrorMessage = err.Error()
		return
	}
	itemProgress(100)
}

func validateFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.AudioFileNotFound(path)
	}
	if !audioio.IsSupported(path) {
		return errors.AudioFormat(path, filepath.Ext(path))
	}
	return nil
}

func outputExists(inputPath string, opts Options) bool {
	dir := opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if opts.OutputFormat == FormatText || opts.OutputFormat == FormatBoth {
		if _, err := os.Stat(filepath.Join(dir, stem+".txt")); err == nil {
			return true
		}
	}
	if opts.OutputFormat == FormatSRT || opts.OutputFormat == FormatBoth {
		if _, err := os.Stat(filepath.Join(dir, stem+".srt")); err == nil {
			return true
		}
	}
	return false
}

func saveResult(item Item, opts Options) error {
	if item.Result == nil {
		return nil
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(item.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))

	if opts.OutputFormat == FormatText || opts.OutputFormat == FormatBoth {
		content := output.ToText(item.Result.Segments, output.TextOptions{
			IncludeTimestamps: opts.IncludeTimestamps,
			IncludeSpeakers:   opts.IncludeSpeakers,
		})
		if err := os.WriteFile(filepath.Join(dir, stem+".txt"), []byte(content), 0o644); err != nil {
			return err
		}
	}
	if opts.OutputFormat == FormatSRT || opts.OutputFormat == FormatBoth {
		if err := os.WriteFile(filepath.Join(dir, stem+".srt"), []byte(output.ToSRT(item.Result.Segments)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func markRemainingSkipped(items []Item, from int) {
	for i := from; i < len(items); i++ {
		if items[i].Status == StatusPending {
			items[i].Status = StatusSkipped
		}
	}
}

// ListAudioFiles returns a case-insensitive name-sorted list of files under
// dir whose extension is in the supported set, optionally descending into
// subdirectories.
func ListAudioFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var files []string

	if recursive {
		walk := func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if audioio.IsSupported(path) {
				files = append(files, path)
			}
			return nil
		}
		if err := filepath.WalkDir(dir, walk); err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && audioio.IsSupported(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})
	return files, nil
}
