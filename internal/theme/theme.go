// Package theme loads colour themes and turns them into lipgloss styles.
package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/spx/internal/shared"
)

// Config is the set of themes available to the application.
type Config struct {
	Themes []Theme `toml:"themes"`
}

// Theme is a named palette plus per-component style overrides.
type Theme struct {
	Name           string         `toml:"name"`
	Palette        Palette        `toml:"palette"`
	ComponentStyle ComponentStyle `toml:"component_style"`
}

// Component names a styled part of the UI.
type Component string

const (
	BlockTitle          Component = "block_title"
	Border              Component = "border"
	PlaybackTrack       Component = "playback_track"
	PlaybackArtists     Component = "playback_artists"
	PlaybackAlbum       Component = "playback_album"
	PlaybackMetadata    Component = "playback_metadata"
	PlaybackProgressBar Component = "playback_progress_bar"
	CurrentPlaying      Component = "current_playing"
	PageDesc            Component = "page_desc"
	TableHeader         Component = "table_header"
	Selection           Component = "selection"
	Like                Component = "like"
)

// ComponentStyle holds user overrides. Nil entries fall back to built-in styles.
type ComponentStyle struct {
	BlockTitle          *Style `toml:"block_title"`
	Border              *Style `toml:"border"`
	PlaybackTrack       *Style `toml:"playback_track"`
	PlaybackArtists     *Style `toml:"playback_artists"`
	PlaybackAlbum       *Style `toml:"playback_album"`
	PlaybackMetadata    *Style `toml:"playback_metadata"`
	PlaybackProgressBar *Style `toml:"playback_progress_bar"`
	CurrentPlaying      *Style `toml:"current_playing"`
	PageDesc            *Style `toml:"page_desc"`
	TableHeader         *Style `toml:"table_header"`
	Selection           *Style `toml:"selection"`
	Like                *Style `toml:"like"`
}

func (c ComponentStyle) get(comp Component) *Style {
	switch comp {
	case BlockTitle:
		return c.BlockTitle
	case Border:
		return c.Border
	case PlaybackTrack:
		return c.PlaybackTrack
	case PlaybackArtists:
		return c.PlaybackArtists
	case PlaybackAlbum:
		return c.PlaybackAlbum
	case PlaybackMetadata:
		return c.PlaybackMetadata
	case PlaybackProgressBar:
		return c.PlaybackProgressBar
	case CurrentPlaying:
		return c.CurrentPlaying
	case PageDesc:
		return c.PageDesc
	case TableHeader:
		return c.TableHeader
	case Selection:
		return c.Selection
	case Like:
		return c.Like
	}
	return nil
}

var defaultStyles = map[Component]Style{
	BlockTitle:          {Fg: ColorMagenta},
	Border:              {},
	PlaybackTrack:       {Fg: ColorCyan, Modifiers: []Modifier{Bold}},
	PlaybackArtists:     {Fg: ColorCyan, Modifiers: []Modifier{Bold}},
	PlaybackAlbum:       {Fg: ColorYellow},
	PlaybackMetadata:    {Fg: ColorBrightBlack},
	PlaybackProgressBar: {Fg: ColorGreen, Bg: ColorBrightBlack},
	CurrentPlaying:      {Fg: ColorGreen, Modifiers: []Modifier{Bold}},
	PageDesc:            {Fg: ColorCyan, Modifiers: []Modifier{Bold}},
	TableHeader:         {Fg: ColorBlue},
	Selection:           {Modifiers: []Modifier{Reversed, Bold}},
	Like:                {Fg: ColorRed, Modifiers: []Modifier{Bold}},
}

// Style renders comp with the theme's palette, using the built-in style when
// the theme does not override it.
func (t *Theme) Style(comp Component) lipgloss.Style {
	if s := t.ComponentStyle.get(comp); s != nil {
		return s.Render(&t.Palette)
	}
	s := defaultStyles[comp]
	return s.Render(&t.Palette)
}

// App is the base style applied to the whole screen.
func (t *Theme) App() lipgloss.Style {
	style := lipgloss.NewStyle()
	if t.Palette.Background != "" {
		style = style.Background(lipgloss.Color(t.Palette.Background))
	}
	if t.Palette.Foreground != "" {
		style = style.Foreground(lipgloss.Color(t.Palette.Foreground))
	}
	return style
}

// Selection returns the highlighted row style, or a plain style for inactive windows.
func (t *Theme) Selection(active bool) lipgloss.Style {
	if !active {
		return lipgloss.NewStyle()
	}
	return t.Style(Selection)
}

// Find returns the theme named name.
func (c *Config) Find(name string) (*Theme, bool) {
	for i := range c.Themes {
		if c.Themes[i].Name == name {
			return &c.Themes[i], true
		}
	}
	return nil, false
}

// Names lists theme names in order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Themes))
	for i, t := range c.Themes {
		names[i] = t.Name
	}
	return names
}

// Merge appends user themes whose names are not already taken.
func (c *Config) Merge(user *Config) {
	for _, t := range user.Themes {
		if _, exists := c.Find(t.Name); exists {
			continue
		}
		c.Themes = append(c.Themes, t)
	}
}

// DefaultConfig holds the built-in "default" and "dracula" themes.
func DefaultConfig() *Config {
	return &Config{Themes: []Theme{
		{Name: "default", Palette: DefaultPalette()},
		{Name: "dracula", Palette: draculaPalette()},
	}}
}

// Load returns the built-in themes merged with the theme file at path.
// A missing file yields the defaults with found set to false.
func Load(path string) (cfg *Config, found bool, err error) {
	cfg = DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read theme config: %w", err)
	}

	var user Config
	if _, err := toml.Decode(string(data), &user); err != nil {
		return nil, true, fmt.Errorf("%w: theme: %v", shared.ErrInvalidConfig, err)
	}
	for i := range user.Themes {
		if strings.TrimSpace(user.Themes[i].Name) == "" {
			return nil, true, fmt.Errorf("%w: theme %d has no name", shared.ErrInvalidConfig, i)
		}
		user.Themes[i].Palette.fillDefaults()
	}
	cfg.Merge(&user)
	return cfg, true, nil
}
