// Package capture implements the "capture" subcommand: record from a live
// input device until interrupted, save the session, and optionally feed it
// straight into the pipeline.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/dictea-go/internal/capture"
	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/diarizer"
	"github.com/tphakala/dictea-go/internal/modelregistry"
	"github.com/tphakala/dictea-go/internal/output"
	"github.com/tphakala/dictea-go/internal/pipeline"
	"github.com/tphakala/dictea-go/internal/transcriber"
	"github.com/tphakala/dictea-go/internal/worker"
)

// Command builds the "capture" subcommand bound to settings.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		deviceIndex int
		outputPath  string
		transcribe  bool
		diarize     bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record from an input device until interrupted, then save (and optionally transcribe) it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, deviceIndex, outputPath, transcribe, diarize)
		},
	}

	cmd.Flags().IntVar(&deviceIndex, "device", -1, "Input device index (-1 = system default)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "WAV output path (default: capture_<timestamp>.wav in paths.output)")
	cmd.Flags().BoolVar(&transcribe, "transcribe", false, "Run the pipeline on the captured audio once recording stops")
	cmd.Flags().BoolVar(&diarize, "diarize", false, "Identify speakers when --transcribe is set")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, deviceIndex int, outputPath string, transcribeAfter, diarize bool) error {
	var device *capture.DeviceInfo
	if deviceIndex >= 0 {
		devices, err := capture.ListInputDevices()
		if err != nil {
			return err
		}
		for i := range devices {
			if devices[i].Index == deviceIndex {
				device = &devices[i]
				break
			}
		}
		if device == nil {
			return fmt.Errorf("no input device with index %d", deviceIndex)
		}
	}

	conf.PrintUserInfo()

	rec := capture.New(settings)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Println("recording... press Ctrl+C to stop")
	if err := rec.Start(device, func(seconds float64) {
		fmt.Printf("\rrecording: %6.1fs", seconds)
	}); err != nil {
		return err
	}

	<-sigCh
	fmt.Println()

	samples, err := rec.Stop()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("nothing captured")
		return nil
	}

	dest := outputPath
	if dest == "" {
		if err := os.MkdirAll(settings.Paths.Output, 0o755); err != nil {
			return err
		}
		dest = filepath.Join(settings.Paths.Output, fmt.Sprintf("capture_%d.wav", time.Now().Unix()))
	}

	sampleRate := settings.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = conf.CanonicalSampleRate
	}
	channels := settings.Audio.Channels
	if channels <= 0 {
		channels = conf.CanonicalChannels
	}

	savedPath, err := capture.Save(samples, sampleRate, channels, dest, settings.Audio.ExportFormat)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s\n", savedPath)

	if !transcribeAfter {
		return nil
	}

	return transcribeCapture(ctx, settings, savedPath, diarize)
}

func transcribeCapture(ctx context.Context, settings *conf.Settings, path string, diarize bool) error {
	registry := modelregistry.New(settings.Paths.Models, conf.DefaultModelBaseURL)
	t := transcriber.New(settings, registry)

	var d *diarizer.Diarizer
	if diarize {
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
			DiarizationOn: diarize,
		}, emit)
	})

	<-events.Started
	for evt := range events.Progress {
		fmt.Printf("[%5.1f%%] %s: %s\n", evt.Percent, evt.Stage, evt.Detail)
	}

	result, ok := <-events.Finished
	if !ok {
		return <-events.Error
	}

	stem := path[:len(path)-len(filepath.Ext(path))]
	dest := stem + ".txt"
	content := output.ToText(result.Segments, output.TextOptions{IncludeSpeakers: diarize})
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", dest)
	return nil
}
