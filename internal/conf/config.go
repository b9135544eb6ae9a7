// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the immutable-after-load snapshot of every tunable the engine
// reads. It is populated once by Load (or lazily by Setting) and handed out
// by pointer; callers must not mutate it outside UpdateSettings.
type Settings struct {
	Debug bool // true to enable debug-level logging

	Main          MainSettings
	Transcription TranscriptionSettings
	Diarization   DiarizationSettings
	Audio         AudioSettings
	Paths         PathSettings
	Performance   PerformanceSettings
}

// MainSettings holds instance identity and logging configuration.
type MainSettings struct {
	Name      string // identifies this instance in logs
	TimeAs24h bool   // true for 24-hour timestamps in human-readable output
	Log       LogConfig
}

// TranscriptionSettings configures the ASR backend.
type TranscriptionSettings struct {
	Model       string // ASR model name: tiny, base, small, medium, large-v2, large-v3, ...
	ComputeType string // precision hint passed to the inference runtime, e.g. "int8"
	Language    string // two-letter tag, or "auto" for none
	CPUThreads  int    // 0 => auto (half of logical cores, floor MinTranscriberThreads)
	VADFilter   bool   // enable the backend's built-in voice-activity pre-filter
	BeamSize    int    // beam-search width, >= 1
}

// DiarizationSettings configures speaker diarization.
type DiarizationSettings struct {
	Mode        string // fixed "sortformer"; any other value is a validation error
	MinSpeakers int    // 0 => auto
	MaxSpeakers int    // 0 => auto
}

// AudioSettings configures live capture and canonicalization.
type AudioSettings struct {
	SampleRate   int    // capture sample rate
	Channels     int    // capture channel count
	ExportFormat string // capture save format, e.g. "wav"
	InputDevice  *int   // capture device index, nil for system default
}

// PathSettings locates on-disk artifacts and scratch space.
type PathSettings struct {
	Models string // model artifact root
	Output string // default transcript output directory
	Temp   string // scratch directory for chunking/canonicalization temp files
}

// PerformanceSettings tunes resource usage for long-running batch jobs.
type PerformanceSettings struct {
	ChunkSizeMinutes int  // long-file chunk width in minutes
	AggressiveGC     bool // force a GC pass between batch items
}

// LogConfig defines the configuration for a rotated log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // path to the log file
	Rotation    RotationType // rotation policy
	MaxSize     int64        // max size in bytes for RotationSize
	RotationDay time.Weekday // day of the week for RotationWeekly
}

// RotationType defines the supported log rotation policies.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// buildDate is injected at link time via -ldflags.
var buildDate string

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh
// Settings snapshot, validates it, and installs it as the process singleton.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		return fmt.Errorf("error configuring environment variables: %w", err)
	}

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	log.Printf("build date: %s, using config file: %s", buildDate, viper.ConfigFileUsed())
	return nil
}

// createDefaultConfig writes the embedded default config to the first default
// config path and re-reads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("created default config file at: %s", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance, or nil if none has been loaded.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// UpdateSettings validates and installs a new settings snapshot.
func UpdateSettings(newSettings *Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := ValidateSettings(newSettings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	settingsInstance = newSettings
	return nil
}

// Setting returns the current settings instance, loading it from disk on first
// call. Settings are effectively immutable after this point: callers read the
// returned pointer but must go through UpdateSettings to change it.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
