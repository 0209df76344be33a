package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: "0.0.0.0:5000"},
		Audio:  AudioConfig{Backend: "noop"},
		Log:    LogConfig{Level: "info", Output: "stdout"},
		Tracks: []TrackConfig{
			{ID: "audio1", Path: "a.mp3"},
			{ID: "audio2", Path: "b.mp3"},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "no tracks",
			mutate:  func(c *Config) { c.Tracks = nil },
			wantErr: true,
			errMsg:  "Tracks",
		},
		{
			name: "duplicate track id",
			mutate: func(c *Config) {
				c.Tracks = append(c.Tracks, TrackConfig{ID: "audio1", Path: "c.mp3"})
			},
			wantErr: true,
			errMsg:  "Tracks",
		},
		{
			name:    "missing track path",
			mutate:  func(c *Config) { c.Tracks[1].Path = "" },
			wantErr: true,
			errMsg:  "Path",
		},
		{
			name:    "track id with slash",
			mutate:  func(c *Config) { c.Tracks[0].ID = "a/b" },
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "unknown audio backend",
			mutate:  func(c *Config) { c.Audio.Backend = "pygame" },
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name:    "invalid address",
			mutate:  func(c *Config) { c.Server.Addr = "nope" },
			wantErr: true,
			errMsg:  "Addr",
		},
		{
			name:    "shutdown timeout out of range",
			mutate:  func(c *Config) { c.Server.ShutdownTimeoutMs = 120000 },
			wantErr: true,
			errMsg:  "ShutdownTimeoutMs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
tracks:
  - id: audio1
    path: a.mp3
  - id: audio2
    path: b.mp3
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, "beep", cfg.Audio.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsAdminAuthEnabled())

	tracks := cfg.TrackList()
	require.Len(t, tracks, 2)
	assert.Equal(t, "audio1", tracks[0].ID)
	assert.Equal(t, "b.mp3", tracks[1].Path)
}

func TestParse_FullFile(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: "127.0.0.1:8080"
  hooks:
    on_started: ["echo started"]
admin:
  token: secret
audio:
  backend: noop
  settings:
    sample_rate: 48000
log:
  level: debug
tracks:
  - id: rain
    path: /srv/audio/rain.flac
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, []string{"echo started"}, cfg.Server.Hooks.OnStarted)
	assert.True(t, cfg.IsAdminAuthEnabled())
	assert.Equal(t, "noop", cfg.Audio.Backend)
	assert.Equal(t, 48000, cfg.Audio.Settings["sample_rate"])
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("tracks: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	_, err = Parse([]byte("server:\n  addr: \"0.0.0.0:5000\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("AUDIOPLAY_ADDR", "127.0.0.1:9000")
	t.Setenv("AUDIOPLAY_ADMIN_TOKEN", "from-env")
	t.Setenv("AUDIOPLAY_AUDIO_BACKEND", "noop")

	cfg, err := Parse([]byte(`
admin:
  token: from-file
tracks:
  - id: audio1
    path: a.mp3
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Admin.Token)
	assert.Equal(t, "noop", cfg.Audio.Backend)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks:\n  - id: audio1\n    path: a.mp3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Tracks, 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
