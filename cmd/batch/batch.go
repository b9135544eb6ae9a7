// Package batch implements the "batch" subcommand: run every supported
// audio file under a directory through the pipeline sequentially, isolating
// per-file failures.
package batch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/dictea-go/internal/batch"
	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/modelregistry"
	"github.com/tphakala/dictea-go/internal/pipeline"
	"github.com/tphakala/dictea-go/internal/transcriber"
	"github.com/tphakala/dictea-go/internal/worker"
)

// Command builds the "batch" subcommand bound to settings.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		recursive    bool
		diarize      bool
		minSpeakers  int
		maxSpeakers  int
		outputDir    string
		format       string
		timestamps   bool
		speakers     bool
		skipExisting bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Transcribe every audio file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args[0], recursive, batch.Options{
				Language:          settings.Transcription.Language,
				UseDiarization:    diarize,
				MinSpeakers:       minSpeakers,
				MaxSpeakers:       maxSpeakers,
				OutputDir:         outputDir,
				OutputFormat:      batch.OutputFormat(format),
				IncludeTimestamps: timestamps,
				IncludeSpeakers:   speakers,
				SkipExisting:      skipExisting,
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&diarize, "diarize", false, "Identify speakers in addition to transcribing")
	cmd.Flags().IntVar(&minSpeakers, "min-speakers", 0, "Lower bound on expected speaker count (0 = unconstrained)")
	cmd.Flags().IntVar(&maxSpeakers, "max-speakers", 0, "Upper bound on expected speaker count (0 = unconstrained)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default: each file's own directory)")
	cmd.Flags().StringVar(&format, "format", "txt", "Output format: txt, srt, or both")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "Include segment timestamps in txt output")
	cmd.Flags().BoolVar(&speakers, "speakers", false, "Include speaker labels in txt output")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip files whose output already exists")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, dir string, recursive bool, opts batch.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ncancelling, finishing current file...")
		cancel()
	}()
	defer signal.Stop(sigCh)

	files, err := batch.ListAudioFiles(dir, recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no supported audio files found")
		return nil
	}

	registry := modelregistry.New(settings.Paths.Models, conf.DefaultModelBaseURL)
	t := transcriber.New(settings, registry)

	var d *diarizer.Diarizer
	if opts.UseDiarization {
		binaryPath := filepath.Join(settings.Paths.Models, "diarizer", conf.DiarizerBinaryName)
		d, err = diarizer.New(settings, binaryPath)
		if err != nil {
			return err
		}
	}

	p := batch.New(pipeline.New(settings, t, d))

	events := worker.Run(ctx, func(ctx context.Context, emit worker.EmitFunc) (batch.Result, error) {
		result := p.Process(ctx, files, opts,
			func(current, total int, filename string, percent float64) {
				fmt.Printf("[%d/%d] %-30s %5.1f%%\n", current, total, filename, percent)
			},
			func(index int, success bool, message string) {
				if !success {
					fmt.Printf("  failed: %s\n", message)
				}
			},
			emit)
		return result, nil
	})

	<-events.Started
	for range events.Progress {
		// consumed via onProgress above; no separate percent line needed here.
	}

	result, ok := <-events.Finished
	if !ok {
		if err := <-events.Error; err != nil {
			return err
		}
		return nil
	}

	fmt.Printf("\n%d/%d completed, %d failed (%.1f%% success)\n",
		result.CompletedCount(), result.TotalCount(), result.FailedCount(), result.SuccessRate())
	return nil
}
