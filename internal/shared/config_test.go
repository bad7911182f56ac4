package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.ClientPort != 8080 {
			t.Errorf("expected client port 8080, got %d", config.ClientPort)
		}
		if config.LoginRedirectURI != "http://127.0.0.1:8989/login" {
			t.Errorf("unexpected redirect uri %s", config.LoginRedirectURI)
		}
		if config.Theme != "default" {
			t.Errorf("expected default theme, got %s", config.Theme)
		}
		if config.PlaybackRefresh() != time.Second {
			t.Errorf("expected 1s playback refresh, got %v", config.PlaybackRefresh())
		}
		if config.SeekDuration() != 5*time.Second {
			t.Errorf("expected 5s seek duration, got %v", config.SeekDuration())
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", AppConfigFile)

		if err := CreateConfigFile(configPath, ExampleConfig()); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.ClientID != DefaultConfig().ClientID {
			t.Errorf("created config client id doesn't match default")
		}

		if err := CreateConfigFile(configPath, ExampleConfig()); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("overrides keep defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), AppConfigFile)
			data := `client_port = 9000
theme = "dracula"

[database]
path = "/custom/path.db"
`
			if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if config.ClientPort != 9000 {
				t.Errorf("expected port 9000, got %d", config.ClientPort)
			}
			if config.Theme != "dracula" {
				t.Errorf("expected dracula theme, got %s", config.Theme)
			}
			if config.SeekDurationSecs != 5 {
				t.Errorf("expected default seek duration to survive, got %d", config.SeekDurationSecs)
			}
			if got := config.DatabasePath("/cache"); got != "/custom/path.db" {
				t.Errorf("expected custom database path, got %s", got)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("invalid values", func(t *testing.T) {
			tc := []struct {
				name string
				data string
			}{
				{name: "port out of range", data: "client_port = 70000"},
				{name: "zero refresh", data: "app_refresh_duration_in_ms = 0"},
				{name: "negative playback refresh", data: "playback_refresh_duration_in_ms = -1"},
				{name: "empty client id", data: `client_id = ""`},
				{name: "bad toml", data: "client_port = "},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					configPath := filepath.Join(t.TempDir(), AppConfigFile)
					if err := os.WriteFile(configPath, []byte(tt.data), 0644); err != nil {
						t.Fatalf("failed to write test config: %v", err)
					}
					if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
				})
			}
		})
	})

	t.Run("DatabasePath defaults to cache folder", func(t *testing.T) {
		config := DefaultConfig()
		if got := config.DatabasePath("/tmp/cache"); got != filepath.Join("/tmp/cache", DatabaseFile) {
			t.Errorf("unexpected database path %s", got)
		}
	})
}

func TestPaths(t *testing.T) {
	p := NewPaths("/cfg", "/cache")

	tc := []struct {
		name string
		got  string
		want string
	}{
		{name: "app config", got: p.AppConfig(), want: "/cfg/app.toml"},
		{name: "keymap", got: p.Keymap(), want: "/cfg/keymap.toml"},
		{name: "theme", got: p.Theme(), want: "/cfg/theme.toml"},
		{name: "folders", got: p.Folders(), want: "/cfg/playlist_folders.json"},
		{name: "token", got: p.TokenCache(), want: "/cache/token.json"},
		{name: "lock", got: p.Lock(), want: "/cache/spx.lock"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	t.Run("defaults", func(t *testing.T) {
		p := NewPaths("", "")
		if p.ConfigFolder != ConfigFolder() || p.CacheFolder != CacheFolder() {
			t.Errorf("expected XDG defaults, got %+v", p)
		}
	})
}
