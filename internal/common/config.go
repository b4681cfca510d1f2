package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Speech      SpeechConfig      `toml:"speech"`
	Render      RenderConfig      `toml:"render"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// GeminiConfig contains settings for the generative AI boundary.
type GeminiConfig struct {
	APIKey       string  `toml:"api_key"`        // Google API key (or AUDILE_GEMINI_API_KEY)
	ExplainModel string  `toml:"explain_model"`  // Model for explain and vocal validation
	AssessModel  string  `toml:"assess_model"`   // Model for answer-sheet assessment
	SpeechModel  string  `toml:"speech_model"`   // TTS model
	Timeout      string  `toml:"timeout"`        // Per-request timeout, e.g. "2m"
	RateLimit    string  `toml:"rate_limit"`     // Minimum interval between requests, e.g. "1s"
	Temperature  float32 `toml:"temperature"`    // Sampling temperature for analysis calls
}

// SpeechConfig contains playback settings for synthesized narration.
type SpeechConfig struct {
	SampleRate    int    `toml:"sample_rate"`    // PCM sample rate returned by the TTS model
	PlayerCommand string `toml:"player_command"` // External command used to play WAV files
}

// RenderConfig contains settings for PDF page rasterization.
type RenderConfig struct {
	Scale       float64 `toml:"scale"`        // Device scale factor for rasterized pages
	JPEGQuality int     `toml:"jpeg_quality"` // JPEG quality of rasterized output (1-100)
	Timeout     string  `toml:"timeout"`      // Per-render timeout, e.g. "30s"
}

// MaintenanceConfig contains settings for background storage maintenance.
type MaintenanceConfig struct {
	Enabled    bool   `toml:"enabled"`     // Enable scheduled value-log GC
	GCSchedule string `toml:"gc_schedule"` // Cron schedule for Badger GC
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8190,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/audile",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Gemini: GeminiConfig{
			ExplainModel: "gemini-3-flash-preview",
			AssessModel:  "gemini-3-pro-preview",
			SpeechModel:  "gemini-2.5-flash-preview-tts",
			Timeout:      "2m",
			RateLimit:    "1s",
			Temperature:  0.7,
		},
		Speech: SpeechConfig{
			SampleRate:    24000,
			PlayerCommand: "aplay -q",
		},
		Render: RenderConfig{
			Scale:       1.5,
			JPEGQuality: 80,
			Timeout:     "30s",
		},
		Maintenance: MaintenanceConfig{
			Enabled:    true,
			GCSchedule: "@every 10m",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("AUDILE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("AUDILE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("AUDILE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("AUDILE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("AUDILE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("AUDILE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if apiKey := os.Getenv("AUDILE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("AUDILE_GEMINI_EXPLAIN_MODEL"); model != "" {
		config.Gemini.ExplainModel = model
	}
	if model := os.Getenv("AUDILE_GEMINI_ASSESS_MODEL"); model != "" {
		config.Gemini.AssessModel = model
	}
	if model := os.Getenv("AUDILE_GEMINI_SPEECH_MODEL"); model != "" {
		config.Gemini.SpeechModel = model
	}

	if player := os.Getenv("AUDILE_SPEECH_PLAYER"); player != "" {
		config.Speech.PlayerCommand = player
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
