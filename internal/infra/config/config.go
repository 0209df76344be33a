// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

// Environment variables overriding file values.
const (
	AddrEnv         = "AUDIOPLAY_ADDR"
	AdminTokenEnv   = "AUDIOPLAY_ADMIN_TOKEN"
	AudioBackendEnv = "AUDIOPLAY_AUDIO_BACKEND"
	LogLevelEnv     = "AUDIOPLAY_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Admin  AdminConfig   `yaml:"admin"`
	Audio  AudioConfig   `yaml:"audio"`
	Log    LogConfig     `yaml:"log"`
	Tracks []TrackConfig `yaml:"tracks" validate:"required,min=1,unique=ID,dive"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr              string      `yaml:"addr" default:"0.0.0.0:5000" validate:"required,hostname_port"`
	ShutdownTimeoutMs int         `yaml:"shutdown_timeout_ms" default:"10000" validate:"gte=0,lte=60000"`
	Hooks             HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
// An empty token disables authentication on the control RPC.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// AudioConfig selects and configures the audio output.
type AudioConfig struct {
	Backend  string         `yaml:"backend" default:"beep" validate:"oneof=beep mpv noop"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
}

// TrackConfig represents a single playable track.
type TrackConfig struct {
	ID   string `yaml:"id" validate:"required,excludesall=/?#"`
	Path string `yaml:"path" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applies environment overrides
// and defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv(AddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(AdminTokenEnv); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv(AudioBackendEnv); v != "" {
		c.Audio.Backend = v
	}
	if v := os.Getenv(LogLevelEnv); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutMs) * time.Millisecond
}

// TrackList converts the configured tracks into domain tracks, in file order.
func (c *Config) TrackList() []track.Track {
	tracks := make([]track.Track, 0, len(c.Tracks))
	for _, tc := range c.Tracks {
		tracks = append(tracks, track.Track{ID: tc.ID, Path: tc.Path})
	}
	return tracks
}

// IsAdminAuthEnabled reports whether the control RPC requires a token.
func (c *Config) IsAdminAuthEnabled() bool {
	return c.Admin.Token != ""
}
