package keymap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

func TestParseKey(t *testing.T) {
	tc := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "a", want: Key{Code: "a"}},
		{in: "G", want: Key{Code: "G"}},
		{in: "C-r", want: Key{Mod: ModCtrl, Code: "r"}},
		{in: "M-x", want: Key{Mod: ModAlt, Code: "x"}},
		{in: "space", want: Key{Code: " "}},
		{in: "enter", want: Key{Code: "enter"}},
		{in: "page_down", want: Key{Code: "page_down"}},
		{in: "f12", want: Key{Code: "f12"}},
		{in: " ", wantErr: true},
		{in: "C- ", wantErr: true},
		{in: "X-a", wantErr: true},
		{in: "f13", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if tt.in != "space" && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}

	if (Key{Code: " "}).String() != "space" {
		t.Error("space key should render as \"space\"")
	}
}

func TestKeySequence(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		seq, err := ParseKeySequence("g C-a space")
		if err != nil {
			t.Fatal(err)
		}
		want := KeySequence{{Code: "g"}, {Mod: ModCtrl, Code: "a"}, {Code: " "}}
		if diff := cmp.Diff(want, seq); diff != "" {
			t.Errorf("sequence mismatch (-want +got):\n%s", diff)
		}
		if seq.String() != "g C-a space" {
			t.Errorf("unexpected string %q", seq.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseKeySequence("g  a"); err == nil {
			t.Error("double space should fail")
		}
	})

	t.Run("IsPrefix", func(t *testing.T) {
		g := MustParseKeySequence("g")
		ga := MustParseKeySequence("g a")
		if !g.IsPrefix(ga) || !ga.IsPrefix(ga) {
			t.Error("expected prefix")
		}
		if ga.IsPrefix(g) || MustParseKeySequence("u").IsPrefix(ga) {
			t.Error("unexpected prefix")
		}
	})
}

func TestFromKeyMsg(t *testing.T) {
	tc := []struct {
		name string
		msg  tea.KeyMsg
		want Key
		ok   bool
	}{
		{name: "rune", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, want: Key{Code: "j"}, ok: true},
		{name: "alt rune", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true}, want: Key{Mod: ModAlt, Code: "x"}, ok: true},
		{name: "ctrl", msg: tea.KeyMsg{Type: tea.KeyCtrlR}, want: Key{Mod: ModCtrl, Code: "r"}, ok: true},
		{name: "space", msg: tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, want: Key{Code: " "}, ok: true},
		{name: "enter", msg: tea.KeyMsg{Type: tea.KeyEnter}, want: Key{Code: "enter"}, ok: true},
		{name: "page down", msg: tea.KeyMsg{Type: tea.KeyPgDown}, want: Key{Code: "page_down"}, ok: true},
		{name: "shift tab", msg: tea.KeyMsg{Type: tea.KeyShiftTab}, ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromKeyMsg(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		for _, name := range []string{"NextTrack", "next_track", "next-track"} {
			kind, err := ParseCommandKind(name)
			if err != nil || kind != CmdNextTrack {
				t.Errorf("%s: got %v (%v)", name, kind, err)
			}
		}
		if _, err := ParseCommandKind("Dance"); err == nil {
			t.Error("expected error for unknown command")
		}
	})

	t.Run("descriptions", func(t *testing.T) {
		for k := CmdNone; k < numCommands; k++ {
			if C(k).String() == "" {
				t.Errorf("command %d has no name", k)
			}
			if k != CmdVolumeChange && C(k).Desc() == "" {
				t.Errorf("%s has no description", C(k))
			}
		}
		if got := VolumeChange(-5).Desc(); got != "change playback volume by -5" {
			t.Errorf("unexpected volume description %q", got)
		}
	})

	t.Run("action labels", func(t *testing.T) {
		if got := ActGoToArtist.Label(); got != "go to artist" {
			t.Errorf("unexpected label %q", got)
		}
		if kind, err := ParseActionKind("delete_from_liked"); err != nil || kind != ActDeleteFromLiked {
			t.Errorf("unexpected action %v (%v)", kind, err)
		}
	})
}

func TestConfig(t *testing.T) {
	t.Run("defaults are unique", func(t *testing.T) {
		cfg := DefaultConfig()
		seen := map[string]bool{}
		for _, k := range cfg.Keymaps {
			s := k.KeySequence.String()
			if seen[s] {
				t.Errorf("duplicate default binding %q", s)
			}
			seen[s] = true
		}
		for _, a := range cfg.Actions {
			if seen[a.KeySequence.String()] {
				t.Errorf("action binding %q collides with a command", a.KeySequence)
			}
		}
	})

	t.Run("Find and HasPrefix", func(t *testing.T) {
		cfg := DefaultConfig()
		cmd, ok := cfg.Find(MustParseKeySequence("g a"))
		if !ok || cmd.Kind != CmdShowActionsOnSelectedItem {
			t.Errorf("unexpected command %v (%v)", cmd, ok)
		}
		if _, ok := cfg.Find(MustParseKeySequence("g")); ok {
			t.Error("g alone should not be bound")
		}
		if !cfg.HasPrefix(MustParseKeySequence("g")) {
			t.Error("g should be a pending prefix")
		}
		if cfg.HasPrefix(MustParseKeySequence("n")) {
			t.Error("n is a complete binding, not a prefix")
		}
		if a, ok := cfg.FindAction(MustParseKeySequence("C-y")); !ok || a.Action != ActCopyLink || a.Target != TargetPlayingTrack {
			t.Errorf("unexpected action binding %+v (%v)", a, ok)
		}
		if got := cfg.KeysFor(C(CmdQuit)); len(got) != 2 {
			t.Errorf("expected two quit bindings, got %v", got)
		}
	})

	t.Run("Load merges user file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keymap.toml")
		content := `
[[keymaps]]
command = "Quit"
key_sequence = "n"

[[keymaps]]
command = { VolumeChange = { offset = 10 } }
key_sequence = "M-v"

[[actions]]
action = "go_to_album"
key_sequence = "C-y"
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, found, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Error("expected file to be found")
		}

		if cmd, _ := cfg.Find(MustParseKeySequence("n")); cmd.Kind != CmdQuit {
			t.Errorf("user binding should override default, got %v", cmd)
		}
		if cmd, _ := cfg.Find(MustParseKeySequence("M-v")); cmd != VolumeChange(10) {
			t.Errorf("unexpected volume binding %v", cmd)
		}
		if cmd, _ := cfg.Find(MustParseKeySequence("p")); cmd.Kind != CmdPreviousTrack {
			t.Errorf("default binding should survive, got %v", cmd)
		}
		if a, _ := cfg.FindAction(MustParseKeySequence("C-y")); a.Action != ActGoToAlbum || a.Target != TargetSelectedItem {
			t.Errorf("unexpected action %+v", a)
		}

		count := 0
		for _, k := range cfg.Keymaps {
			if k.KeySequence.String() == "n" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected a single binding for n, got %d", count)
		}
	})

	t.Run("Load missing file", func(t *testing.T) {
		cfg, found, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil || found {
			t.Fatalf("unexpected result found=%v err=%v", found, err)
		}
		if len(cfg.Keymaps) != len(DefaultConfig().Keymaps) {
			t.Error("expected default keymaps")
		}
	})

	t.Run("Load invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keymap.toml")
		if err := os.WriteFile(path, []byte("[[keymaps]]\ncommand = \"Nope\"\nkey_sequence = \"x\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := Load(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestAvailableActions(t *testing.T) {
	track := models.Track{ID: models.TrackID("t1")}
	album := models.Album{ID: models.AlbumID("a1")}
	artist := models.Artist{ID: models.ArtistID("r1")}
	playlist := models.Playlist{ID: models.PlaylistID("p1")}
	show := models.Show{ID: models.NewID(models.ShowType, "s1")}

	data := &models.UserData{
		SavedAlbums:     []models.Album{album},
		FollowedArtists: []models.Artist{artist},
	}
	data.SetLiked(track.ID, true)

	tc := []struct {
		name string
		item Item
		want []ActionKind
	}{
		{
			name: "liked track",
			item: Item{Track: &track},
			want: []ActionKind{ActGoToArtist, ActGoToAlbum, ActGoToRadio, ActShowActionsOnAlbum, ActShowActionsOnArtist, ActCopyLink, ActAddToPlaylist, ActAddToQueue, ActDeleteFromLiked},
		},
		{
			name: "saved album",
			item: Item{Album: &album},
			want: []ActionKind{ActGoToArtist, ActGoToRadio, ActShowActionsOnArtist, ActCopyLink, ActAddToQueue, ActDeleteFromLibrary},
		},
		{
			name: "followed artist",
			item: Item{Artist: &artist},
			want: []ActionKind{ActGoToRadio, ActCopyLink, ActUnfollow},
		},
		{
			name: "unknown playlist",
			item: Item{Playlist: &playlist},
			want: []ActionKind{ActGoToRadio, ActCopyLink, ActAddToLibrary},
		},
		{
			name: "unsaved show",
			item: Item{Show: &show},
			want: []ActionKind{ActCopyLink, ActAddToLibrary},
		},
		{
			name: "episode with show",
			item: Item{Episode: &models.Episode{Show: &show}},
			want: []ActionKind{ActCopyLink, ActAddToPlaylist, ActAddToQueue, ActShowActionsOnShow, ActGoToShow},
		},
		{
			name: "episode without show",
			item: Item{Episode: &models.Episode{}},
			want: []ActionKind{ActCopyLink, ActAddToPlaylist, ActAddToQueue},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableActions(tt.item, data)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
