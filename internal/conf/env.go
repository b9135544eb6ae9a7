// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for an environment variable binding.
type envBinding struct {
	ConfigKey string             // viper config key
	EnvVar    string             // environment variable name
	Validate  func(string) error // optional validation function
}

// getEnvBindings returns all environment variable bindings with validation.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"transcription.model", "DICTEA_ASR_MODEL", nil},
		{"transcription.language", "DICTEA_LANGUAGE", validateEnvLanguage},
		{"transcription.cputhreads", "DICTEA_CPU_THREADS", validateEnvThreads},
		{"transcription.beamsize", "DICTEA_BEAM_SIZE", validateEnvBeamSize},
		{"transcription.vadfilter", "DICTEA_VAD_FILTER", nil}, // bool validation handled by viper
		{"diarization.mode", "DICTEA_DIARIZATION_MODE", nil},
		{"diarization.minspeakers", "DICTEA_MIN_SPEAKERS", validateEnvSpeakerCount},
		{"diarization.maxspeakers", "DICTEA_MAX_SPEAKERS", validateEnvSpeakerCount},
		{"paths.models", "DICTEA_MODELS_DIR", validateEnvPath},
		{"paths.output", "DICTEA_OUTPUT_DIR", validateEnvPath},
		{"paths.temp", "DICTEA_TEMP_DIR", validateEnvPath},
		// FFMPEG_DIR is read directly by internal/audioio's decoder discovery, not through viper.
	}
}

// bindEnvVars sets up environment variable bindings with validation.
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvLanguage(value string) error {
	if value == "auto" {
		return nil
	}
	if len(value) != 2 {
		return fmt.Errorf("language must be a two-letter tag or \"auto\", got %q", value)
	}
	return nil
}

func validateEnvThreads(value string) error {
	threads, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid thread count: %w", err)
	}
	if threads < 0 {
		return fmt.Errorf("thread count must be non-negative, got %d", threads)
	}
	return nil
}

func validateEnvBeamSize(value string) error {
	beamSize, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid beam size: %w", err)
	}
	if beamSize < 1 {
		return fmt.Errorf("beam size must be >= 1, got %d", beamSize)
	}
	return nil
}

func validateEnvSpeakerCount(value string) error {
	count, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid speaker count: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("speaker count must be non-negative, got %d", count)
	}
	return nil
}

func validateEnvPath(value string) error {
	if strings.Contains(value, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for viper.
func configureEnvironmentVariables() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("DICTEA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(); err != nil {
		// Warnings don't block startup; config file / defaults still apply.
		log.Printf("environment variable validation warnings: %v", err)
	}
	return nil
}
