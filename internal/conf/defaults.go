// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets default values for every recognized configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "dictea-go")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/app.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", 10*1024*1024)

	// Transcription configuration
	viper.SetDefault("transcription.model", "medium")
	viper.SetDefault("transcription.computetype", "int8")
	viper.SetDefault("transcription.language", "auto")
	viper.SetDefault("transcription.cputhreads", 0)
	viper.SetDefault("transcription.vadfilter", true)
	viper.SetDefault("transcription.beamsize", 5)

	// Diarization configuration
	viper.SetDefault("diarization.mode", "sortformer")
	viper.SetDefault("diarization.minspeakers", 0)
	viper.SetDefault("diarization.maxspeakers", 0)

	// Audio capture configuration
	viper.SetDefault("audio.samplerate", CanonicalSampleRate)
	viper.SetDefault("audio.channels", CanonicalChannels)
	viper.SetDefault("audio.exportformat", "wav")

	// Paths configuration
	viper.SetDefault("paths.models", "models")
	viper.SetDefault("paths.output", "output")
	viper.SetDefault("paths.temp", "temp")

	// Performance configuration
	viper.SetDefault("performance.chunksizeminutes", 10)
	viper.SetDefault("performance.aggressivegc", true)
}
