// conf/validate.go
package conf

import (
	"fmt"
)

// ValidationError represents a collection of validation errors.
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateTranscriptionSettings(&settings.Transcription); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateDiarizationSettings(&settings.Diarization); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if err := validatePerformanceSettings(&settings.Performance); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateTranscriptionSettings(settings *TranscriptionSettings) error {
	var errs []string

	if settings.CPUThreads < 0 {
		errs = append(errs, "transcription.cpu_threads must be >= 0")
	}
	if settings.BeamSize < 1 {
		errs = append(errs, "transcription.beam_size must be >= 1")
	}
	if settings.Language != "" && settings.Language != "auto" && len(settings.Language) != 2 {
		errs = append(errs, "transcription.language must be a two-letter tag or \"auto\"")
	}

	if len(errs) > 0 {
		return fmt.Errorf("transcription settings errors: %v", errs)
	}
	return nil
}

func validateDiarizationSettings(settings *DiarizationSettings) error {
	var errs []string

	if settings.Mode != "" && settings.Mode != "sortformer" {
		errs = append(errs, fmt.Sprintf("diarization.mode %q is not supported; only \"sortformer\" is implemented", settings.Mode))
	}
	if settings.MinSpeakers < 0 {
		errs = append(errs, "diarization.min_speakers must be >= 0")
	}
	if settings.MaxSpeakers < 0 {
		errs = append(errs, "diarization.max_speakers must be >= 0")
	}
	if settings.MaxSpeakers > 0 && settings.MinSpeakers > settings.MaxSpeakers {
		errs = append(errs, "diarization.min_speakers must be <= max_speakers when both are set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("diarization settings errors: %v", errs)
	}
	return nil
}

func validateAudioSettings(settings *AudioSettings) error {
	var errs []string

	if settings.SampleRate <= 0 {
		errs = append(errs, "audio.sample_rate must be positive")
	}
	if settings.Channels <= 0 {
		errs = append(errs, "audio.channels must be positive")
	}
	switch settings.ExportFormat {
	case "", "wav":
	default:
		errs = append(errs, fmt.Sprintf("audio.export_format %q is not supported; only \"wav\" is implemented", settings.ExportFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("audio settings errors: %v", errs)
	}
	return nil
}

func validatePerformanceSettings(settings *PerformanceSettings) error {
	if settings.ChunkSizeMinutes <= 0 {
		return fmt.Errorf("performance.chunk_size_minutes must be positive, got %d", settings.ChunkSizeMinutes)
	}
	return nil
}
