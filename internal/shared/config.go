package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed app.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from app.toml.
type Config struct {
	ClientID                  string         `toml:"client_id"`
	ClientPort                int            `toml:"client_port"`
	LoginRedirectURI          string         `toml:"login_redirect_uri"`
	Theme                     string         `toml:"theme"`
	AppRefreshDurationMS      int            `toml:"app_refresh_duration_in_ms"`
	PlaybackRefreshDurationMS int            `toml:"playback_refresh_duration_in_ms"`
	TrackTableItemMaxLen      int            `toml:"track_table_item_max_len"`
	SeekDurationSecs          int            `toml:"seek_duration_secs"`
	VolumeScrollStep          int            `toml:"volume_scroll_step"`
	TracksPlaybackLimit       int            `toml:"tracks_playback_limit"`
	DefaultDevice             string         `toml:"default_device"`
	CacheTTLHours             int            `toml:"cache_ttl_hours"`
	EnableLyrics              bool           `toml:"enable_lyrics"`
	RequestsPerSecond         float64        `toml:"requests_per_second"`
	PlaybackFormat            string         `toml:"playback_format"`
	LikedIcon                 string         `toml:"liked_icon"`
	PlayIcon                  string         `toml:"play_icon"`
	PauseIcon                 string         `toml:"pause_icon"`
	Database                  DatabaseConfig `toml:"database"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads a TOML configuration file from path on top of [DefaultConfig].
//
// Keys missing from the file keep their default values.
// A missing file is reported with [ErrMissingConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks value ranges that would otherwise break the socket or the UI loop.
func (c *Config) Validate() error {
	if c.ClientPort <= 0 || c.ClientPort > 65535 {
		return fmt.Errorf("%w: client_port %d out of range", ErrInvalidConfig, c.ClientPort)
	}
	if c.AppRefreshDurationMS <= 0 {
		return fmt.Errorf("%w: app_refresh_duration_in_ms must be positive", ErrInvalidConfig)
	}
	if c.PlaybackRefreshDurationMS < 0 {
		return fmt.Errorf("%w: playback_refresh_duration_in_ms must not be negative", ErrInvalidConfig)
	}
	if c.ClientID == "" {
		return fmt.Errorf("%w: client_id must be set", ErrInvalidConfig)
	}
	return nil
}

// PlaybackRefresh is the polling interval for the current playback. Zero disables polling.
func (c *Config) PlaybackRefresh() time.Duration {
	return time.Duration(c.PlaybackRefreshDurationMS) * time.Millisecond
}

// AppRefresh is the UI redraw interval.
func (c *Config) AppRefresh() time.Duration {
	return time.Duration(c.AppRefreshDurationMS) * time.Millisecond
}

// SeekDuration is the offset used by the seek forward/backward commands.
func (c *Config) SeekDuration() time.Duration {
	return time.Duration(c.SeekDurationSecs) * time.Second
}

// CacheTTL is the lifetime of cached contexts, search results and lyrics.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// DatabasePath resolves the SQLite path, defaulting to a file in the cache folder.
func (c *Config) DatabasePath(cacheFolder string) string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(cacheFolder, DatabaseFile)
}

// ExampleConfig returns the embedded example app.toml.
func ExampleConfig() []byte {
	return exampleConf
}

// CreateConfigFile writes data to path, refusing to overwrite an existing file.
func CreateConfigFile(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file at %s", ErrAlreadyExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config folder: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
