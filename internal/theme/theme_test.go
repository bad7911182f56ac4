package theme

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/shared"
)

func writeTheme(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theme.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		if diff := cmp.Diff([]string{"default", "dracula"}, cfg.Names()); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}
		if _, ok := cfg.Find("solarized"); ok {
			t.Error("unexpected theme found")
		}
	})

	t.Run("Load merges and skips duplicates", func(t *testing.T) {
		path := writeTheme(t, `
[[themes]]
name = "default"
[themes.palette]
red = "#123456"

[[themes]]
name = "mine"
[themes.palette]
background = "#000000"
red = "#AABBCC"
[themes.component_style]
block_title = { fg = "Red", modifiers = ["Italic"] }
border = { fg = "#00ff00" }
`)
		cfg, found, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Error("expected theme file to be found")
		}
		if diff := cmp.Diff([]string{"default", "dracula", "mine"}, cfg.Names()); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}

		def, _ := cfg.Find("default")
		if def.Palette.Red != "9" {
			t.Errorf("built-in default should be kept, got red=%q", def.Palette.Red)
		}

		mine, ok := cfg.Find("mine")
		if !ok {
			t.Fatal("expected user theme")
		}
		if mine.Palette.Red != "#aabbcc" {
			t.Errorf("unexpected red %q", mine.Palette.Red)
		}
		if mine.Palette.Blue != DefaultPalette().Blue {
			t.Errorf("unset palette entries should fall back, got %q", mine.Palette.Blue)
		}

		title := mine.Style(BlockTitle)
		if title.GetForeground() != lipgloss.Color("#aabbcc") || !title.GetItalic() {
			t.Errorf("unexpected block title style fg=%v italic=%v", title.GetForeground(), title.GetItalic())
		}
		if mine.Style(Border).GetForeground() != lipgloss.Color("#00ff00") {
			t.Error("expected literal border colour")
		}
		if mine.App().GetBackground() != lipgloss.Color("#000000") {
			t.Error("expected app background")
		}
	})

	t.Run("Load missing file", func(t *testing.T) {
		cfg, found, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil || found || len(cfg.Themes) != 2 {
			t.Errorf("unexpected result found=%v err=%v themes=%d", found, err, len(cfg.Themes))
		}
	})

	t.Run("Load invalid colour", func(t *testing.T) {
		path := writeTheme(t, "[[themes]]\nname = \"bad\"\n[themes.palette]\nred = \"red\"\n")
		if _, _, err := Load(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Load unnamed theme", func(t *testing.T) {
		path := writeTheme(t, "[[themes]]\n[themes.palette]\nred = \"#ffffff\"\n")
		if _, _, err := Load(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestStyle(t *testing.T) {
	th, _ := DefaultConfig().Find("default")

	tc := []struct {
		comp Component
		fg   lipgloss.TerminalColor
		bold bool
	}{
		{comp: BlockTitle, fg: lipgloss.Color("13")},
		{comp: PlaybackTrack, fg: lipgloss.Color("14"), bold: true},
		{comp: PlaybackMetadata, fg: lipgloss.Color("8")},
		{comp: CurrentPlaying, fg: lipgloss.Color("10"), bold: true},
		{comp: TableHeader, fg: lipgloss.Color("12")},
	}

	for _, tt := range tc {
		t.Run(string(tt.comp), func(t *testing.T) {
			s := th.Style(tt.comp)
			if s.GetForeground() != tt.fg {
				t.Errorf("fg = %v, want %v", s.GetForeground(), tt.fg)
			}
			if s.GetBold() != tt.bold {
				t.Errorf("bold = %v, want %v", s.GetBold(), tt.bold)
			}
		})
	}

	t.Run("selection", func(t *testing.T) {
		if !th.Selection(true).GetReverse() {
			t.Error("active selection should be reversed")
		}
		if th.Selection(false).GetReverse() {
			t.Error("inactive selection should be plain")
		}
	})

	t.Run("progress bar", func(t *testing.T) {
		s := th.Style(PlaybackProgressBar)
		if s.GetBackground() != lipgloss.Color("8") || s.GetForeground() != lipgloss.Color("10") {
			t.Errorf("unexpected progress bar colours fg=%v bg=%v", s.GetForeground(), s.GetBackground())
		}
	})
}
