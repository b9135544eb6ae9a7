// root.go viper root command code
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	batchcmd "github.com/tphakala/dictea-go/cmd/batch"
	capturecmd "github.com/tphakala/dictea-go/cmd/capture"
	transcribecmd "github.com/tphakala/dictea-go/cmd/transcribe"
	versioncmd "github.com/tphakala/dictea-go/cmd/version"
	"github.com/tphakala/dictea-go/internal/buildinfo"
	"github.com/tphakala/dictea-go/internal/conf"
	"github.com/tphakala/dictea-go/internal/logging"
)

// RootCommand creates and returns the root command, wiring every subcommand
// to the same Settings snapshot.
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dictea",
		Short: "Offline audio-to-text engine with speaker attribution",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	transcribeCmd := transcribecmd.Command(settings)
	batchCmd := batchcmd.Command(settings)
	captureCmd := capturecmd.Command(settings)
	versionCmd := versioncmd.Command(info)

	rootCmd.AddCommand(transcribeCmd, batchCmd, captureCmd, versionCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		logging.Init()
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags global to every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Transcription.Model, "model", viper.GetString("transcription.model"), "ASR model name (tiny, base, small, medium, large-v2, large-v3)")
	rootCmd.PersistentFlags().StringVar(&settings.Transcription.Language, "language", viper.GetString("transcription.language"), "Language tag (two letters) or \"auto\"")
	rootCmd.PersistentFlags().IntVar(&settings.Transcription.CPUThreads, "threads", viper.GetInt("transcription.cputhreads"), "CPU threads for inference (0 = auto)")

	return viper.BindPFlags(rootCmd.PersistentFlags())
}
