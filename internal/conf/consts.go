// conf/consts.go hard coded constants
package conf

const (
	// CanonicalSampleRate is the sample rate every audio stage normalizes to before
	// handing samples to the transcription or diarization models.
	CanonicalSampleRate = 16000
	// CanonicalBitDepth is the PCM bit depth used for on-disk canonical WAV files.
	CanonicalBitDepth = 16
	// CanonicalChannels is the channel count every canonical buffer carries.
	CanonicalChannels = 1

	// MinTranscriberThreads is the floor applied to the auto thread-count heuristic.
	MinTranscriberThreads = 4

	// DefaultFallbackLanguage is reported as the result language whenever
	// transcription.language is "auto" or empty; no language detection is run.
	DefaultFallbackLanguage = "en"

	// MaxTextPreviewChars bounds the per-segment progress preview text.
	MaxTextPreviewChars = 80

	// DefaultModelBaseURL roots the model registry's artifact host, used when
	// no override is configured.
	DefaultModelBaseURL = "https://huggingface.co"

	// DiarizerBinaryName is the external speaker-diarization helper binary
	// the Diarizer shells out to, resolved relative to paths.models.
	DiarizerBinaryName = "dictea-diarize"
)

// SupportedAudioExtensions lists the case-insensitive input suffixes accepted by
// the audio I/O and batch-discovery components. Order is not significant.
var SupportedAudioExtensions = []string{".wav", ".mp3", ".m4a", ".flac", ".ogg", ".wma", ".aac"}
