// Package transcribe implements the "transcribe" subcommand: run the full
// pipeline over a single file synchronously, printing progress lines and
// writing the chosen output format next to the input (or to --output).
package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/modelregistry"
	"github.com/tphakala/dictea-go/internal/output"
	"github.com/tphakala/dictea-go/internal/pipeline"
	"github.com/tphakala/dictea-go/internal/transcriber"
	"github.com/tphakala/dictea-go/internal/worker"
)

// Command builds the "transcribe" subcommand bound to settings.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		diarize     bool
		minSpeakers int
		maxSpeakers int
		outputPath  string
		format      string
		timestamps  bool
		speakers    bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a single audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args[0], runOptions{
				diarize:     diarize,
				minSpeakers: minSpeakers,
				maxSpeakers: maxSpeakers,
				outputPath:  outputPath,
				format:      format,
				timestamps:  timestamps,
				speakers:    speakers,
			})
		},
	}

	cmd.Flags().BoolVar(&diarize, "diarize", false, "Identify speakers in addition to transcribing")
	cmd.Flags().IntVar(&minSpeakers, "min-speakers", 0, "Lower bound on expected speaker count (0 = unconstrained)")
	cmd.Flags().IntVar(&maxSpeakers, "max-speakers", 0, "Upper bound on expected speaker count (0 = unconstrained)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: input path with a new extension)")
	cmd.Flags().StringVar(&format, "format", "txt", "Output format: txt or srt")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "Include segment timestamps in txt output")
	cmd.Flags().BoolVar(&speakers, "speakers", false, "Include speaker labels in txt output")

	return cmd
}

type runOptions struct {
	diarize     bool
	minSpeakers int
	maxSpeakers int
	outputPath  string
	format      string
	timestamps  bool
	speakers    bool
}

func run(ctx context.Context, settings *conf.Settings, path string, opts runOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ncancelling...")
		cancel()
	}()
	defer signal.Stop(sigCh)

	registry := modelregistry.New(settings.Paths.Models, conf.DefaultModelBaseURL)
	t := transcriber.New(settings, registry)

	var d *diarizer.Diarizer
	if opts.diarize {
		binaryPath := filepath.Join(settings.Paths.Models, "diarizer", conf.DiarizerBinaryName)
		var err error
		d, err = diarizer.New(settings, binaryPath)
		if err != nil {
			return err
		}
	}

	p := pipeline.New(settings, t, d)

	events := worker.Run(ctx, func(ctx context.Context, emit worker.EmitFunc) (transcriber.Result, error) {
		return p.Run(ctx, path, pipeline.Options{
			Language:      settings.Transcription.Language,
			DiarizationOn: opts.diarize,
			MinSpeakers:   opts.minSpeakers,
			MaxSpeakers:   opts.maxSpeakers,
		}, emit)
	})

	<-events.Started
	for evt := range events.Progress {
		fmt.Printf("[%5.1f%%] %s: %s\n", evt.Percent, evt.Stage, evt.Detail)
	}

	// Progress closes only after Finished/Error has already received its one
	// value, so both reads below are non-blocking and exactly one is real.
	if result, ok := <-events.Finished; ok {
		return writeResult(result, path, opts)
	}
	if err := <-events.Error; err != nil {
		return err
	}
	return nil
}

func writeResult(result transcriber.Result, inputPath string, opts runOptions) error {
	dest := opts.outputPath
	if dest == "" {
		stem := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		dest = stem + "." + strings.ToLower(opts.format)
	}

	var content string
	switch strings.ToLower(opts.format) {
	case "srt":
		content = output.ToSRT(result.Segments)
	default:
		content = output.ToText(result.Segments, output.TextOptions{
			IncludeTimestamps: opts.timestamps,
			IncludeSpeakers:   opts.speakers,
		})
	}

	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", dest)
	return nil
}
