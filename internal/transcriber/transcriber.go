// Package transcriber loads a speech-recognition model and produces
// ordered, timed transcription segments, at most one per fixed inference
// window.
// Per-word timings (Segment.Words) are not filled in.
//
// The interpreter lifecycle (load model bytes, configure thread count,
// allocate tensors, delete on Unload) follows the load/init/delete shape of
// a typical embedded tflite interpreter wrapper; the transcribe/stream
// contract and segment shape mirror a Transcriber/TranscriptionResult pair.
package transcriber

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-audio/wav"
	tflite "github.com/tphakala/go-tflite"

	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/errors"
	"github.com/tphakala/dictea-go/internal/modelregistry"
)

// ProgressFunc reports a message and a percent-complete in [0, 100].
type ProgressFunc func(message string, percent float64)

// SegmentProgressFunc reports the ordinal index and a bounded text preview
// of a freshly produced segment.
type SegmentProgressFunc func(index int, textPreview string)

// Transcriber wraps a single TensorFlow Lite ASR model. It is not safe for
// concurrent calls to Transcribe; a single instance processes one file at a
// time, matching the interpreter's own lack of concurrency safety.
type Transcriber struct {
	settings *conf.Settings
	registry *modelregistry.Registry

	mu          sync.Mutex
	interpreter *tflite.Interpreter
	vocab       []string
}

// New creates a Transcriber bound to settings and a model registry. Load is
// deferred until first use or an explicit Load call.
func New(settings *conf.Settings, registry *modelregistry.Registry) *Transcriber {
	return &Transcriber{settings: settings, registry: registry}
}

// Load resolves and initializes the model. Idempotent: a second call on an
// already-loaded Transcriber is a no-op.
func (t *Transcriber) Load(ctx context.Context, progress ProgressFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interpreter != nil {
		return nil
	}

	modelPath, err := t.registry.Ensure(ctx, t.settings.Transcription.Model, modelregistry.ProgressFunc(progress))
	if err != nil {
		return err
	}

	threads := t.determineThreadCount()
	configureMathThreadEnv(threads)

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return errors.ModelLoad(t.settings.Transcription.Model, err.Error())
	}

	model := tflite.NewModel(data)
	if model == nil {
		return errors.ModelLoad(t.settings.Transcription.Model, "cannot parse model file")
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, _ interface{}) {
		fmt.Println(msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return errors.ModelLoad(t.settings.Transcription.Model, "cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		return errors.ModelLoad(t.settings.Transcription.Model, "tensor allocation failed")
	}

	t.interpreter = interpreter
	t.vocab = loadVocab(filepath.Join(filepath.Dir(modelPath), "vocab.txt"))

	if progress != nil {
		progress(fmt.Sprintf("%s ready, using %d threads", t.settings.Transcription.Model, threads), 100)
	}
	return nil
}

// Unload releases the model. Safe to call when nothing is loaded.
func (t *Transcriber) Unload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interpreter != nil {
		t.interpreter.Delete()
		t.interpreter = nil
	}
	t.vocab = nil
}

// determineThreadCount applies the heuristic: an explicit positive setting
// wins; otherwise half of available logical cores (floor), with a floor of
// conf.MinTranscriberThreads.
func (t *Transcriber) determineThreadCount() int {
	if t.settings.Transcription.CPUThreads > 0 {
		return t.settings.Transcription.CPUThreads
	}

	logical := runtime.NumCPU()
	half := logical / 2
	if half < conf.MinTranscriberThreads {
		return conf.MinTranscriberThreads
	}
	return half
}

// configureMathThreadEnv must run before the interpreter's model is
// initialized: the underlying math library reads its thread-count and
// wait-policy environment variables once, at first use.
func configureMathThreadEnv(threads int) {
	os.Setenv("OMP_NUM_THREADS", fmt.Sprintf("%d", threads))
	os.Setenv("MKL_NUM_THREADS", fmt.Sprintf("%d", threads))
	os.Setenv("OMP_WAIT_POLICY", "PASSIVE")
}

func loadVocab(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var vocab []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		vocab = append(vocab, scanner.Text())
	}
	return vocab
}

// Transcribe auto-loads the model if needed, runs inference over path, and
// returns every produced segment. progress fires once per segment with its
// ordinal index and a preview bounded to conf.MaxTextPreviewChars.
func (t *Transcriber) Transcribe(ctx context.Context, path, language string, progress SegmentProgressFunc) (Result, error) {
	if err := t.Load(ctx, nil); err != nil {
		return Result{}, err
	}

	samples, sampleRate, err := readCanonicalSamples(path)
	if err != nil {
		return Result{}, err
	}

	if language == "auto" {
		language = ""
	}
	if language == "" {
		language = conf.DefaultFallbackLanguage
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	segments, err := t.runInference(ctx, samples, sampleRate, progress)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Segments:           segments,
		DetectedLanguage:   language,
		LanguageConfidence: 1.0,
		Duration:           float64(len(samples)) / float64(sampleRate),
	}, nil
}

// TranscribeStream returns a finite, forward-only channel of segments. The
// channel is closed when inference completes or ctx is cancelled; any error
// is sent once on errCh before both channels close.
func (t *Transcriber) TranscribeStream(ctx context.Context, path, language string) (<-chan Segment, <-chan error) {
	segCh := make(chan Segment)
	errCh := make(chan error, 1)

	go func() {
		defer close(segCh)
		defer close(errCh)

		result, err := t.Transcribe(ctx, path, language, nil)
		if err != nil {
			errCh <- err
			return
		}
		for _, seg := range result.Segments {
			select {
			case <-ctx.Done():
				errCh <- errors.TranscriptionCancelled()
				return
			case segCh <- seg:
			}
		}
	}()

	return segCh, errCh
}

func readCanonicalSamples(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.AudioFileNotFound(path)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, errors.AudioCorrupted(path, "not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.AudioCorrupted(path, err.Error())
	}

	floatBuf := buf.AsFloatBuffer()
	samples := make([]float32, len(floatBuf.Data))
	for i, v := range floatBuf.Data {
		samples[i] = float32(v)
	}
	return samples, int(decoder.SampleRate), nil
}

// runInference feeds samples through the interpreter in fixed windows and
// assembles the raw per-window outputs into segments. Cancellation is
// checked between segment emissions, matching the cooperative cancellation
// contract.
func (t *Transcriber) runInference(ctx context.Context, samples []float32, sampleRate int, progress SegmentProgressFunc) ([]Segment, error) {
	const windowSeconds = 30
	windowSize := windowSeconds * sampleRate

	var segments []Segment
	for start := 0; start < len(samples); start += windowSize {
		if err := ctx.Err(); err != nil {
			return segments, errors.TranscriptionCancelled()
		}

		end := start + windowSize
		if end > len(samples) {
			end = len(samples)
		}

		text, confidence, err := t.invokeWindow(samples[start:end])
		if err != nil {
			return segments, errors.TranscriptionFailed(err.Error())
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		seg := Segment{
			Start:      float64(start) / float64(sampleRate),
			End:        float64(end) / float64(sampleRate),
			Text:       text,
			Confidence: confidence,
		}
		segments = append(segments, seg)

		if progress != nil {
			preview := text
			if len(preview) > conf.MaxTextPreviewChars {
				preview = preview[:conf.MaxTextPreviewChars]
			}
			progress(len(segments)-1, preview)
		}
	}
	return segments, nil
}

// invokeWindow runs one inference pass over a fixed-size sample window and
// decodes the output token-id tensor into text via the loaded vocabulary.
func (t *Transcriber) invokeWindow(window []float32) (string, float64, error) {
	input := t.interpreter.GetInputTensor(0)
	if input == nil {
		return "", 0, fmt.Errorf("cannot get input tensor")
	}

	inputBuf := input.Float32s()
	for i := range inputBuf {
		if i < len(window) {
			inputBuf[i] = window[i]
		} else {
			inputBuf[i] = 0
		}
	}

	if status := t.interpreter.Invoke(); status != tflite.OK {
		return "", 0, fmt.Errorf("invoke failed: %v", status)
	}

	tokenTensor := t.interpreter.GetOutputTensor(0)
	if tokenTensor == nil {
		return "", 0, fmt.Errorf("cannot get output tensor")
	}

	var words []string
	for _, id := range tokenTensor.Int32s() {
		if int(id) == 0 {
			break // sentinel end-of-sequence token
		}
		if int(id) < len(t.vocab) {
			words = append(words, t.vocab[id])
		}
	}

	return strings.Join(words, " "), 1.0, nil
}
