package keymap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/spx/internal/shared"
)

// Keymap binds a key sequence to a command.
type Keymap struct {
	KeySequence KeySequence `toml:"key_sequence"`
	Command     Command     `toml:"command"`
}

// ActionMap binds a key sequence to an action on the selected item or playing track.
type ActionMap struct {
	KeySequence KeySequence  `toml:"key_sequence"`
	Action      ActionKind   `toml:"action"`
	Target      ActionTarget `toml:"target"`
}

// Config holds all key bindings. Each key sequence maps to at most one entry.
type Config struct {
	Keymaps []Keymap    `toml:"keymaps"`
	Actions []ActionMap `toml:"actions"`
}

func km(seq string, cmd Command) Keymap {
	return Keymap{KeySequence: MustParseKeySequence(seq), Command: cmd}
}

// DefaultConfig returns the built-in bindings.
func DefaultConfig() *Config {
	return &Config{
		Keymaps: []Keymap{
			km("n", C(CmdNextTrack)),
			km("p", C(CmdPreviousTrack)),
			km("space", C(CmdResumePause)),
			km(".", C(CmdPlayRandom)),
			km("C-r", C(CmdRepeat)),
			km("C-s", C(CmdShuffle)),
			km("+", VolumeChange(5)),
			km("-", VolumeChange(-5)),
			km("_", C(CmdMute)),
			km(">", C(CmdSeekForward)),
			km("<", C(CmdSeekBackward)),
			km("q", C(CmdQuit)),
			km("C-c", C(CmdQuit)),
			km("?", C(CmdOpenCommandHelp)),
			km("C-h", C(CmdOpenCommandHelp)),
			km("esc", C(CmdClosePopup)),
			km("j", C(CmdSelectNextOrScrollDown)),
			km("down", C(CmdSelectNextOrScrollDown)),
			km("C-n", C(CmdSelectNextOrScrollDown)),
			km("k", C(CmdSelectPreviousOrScrollUp)),
			km("up", C(CmdSelectPreviousOrScrollUp)),
			km("C-p", C(CmdSelectPreviousOrScrollUp)),
			km("page_down", C(CmdPageSelectNextOrScrollDown)),
			km("C-f", C(CmdPageSelectNextOrScrollDown)),
			km("page_up", C(CmdPageSelectPreviousOrScrollUp)),
			km("C-b", C(CmdPageSelectPreviousOrScrollUp)),
			km("g g", C(CmdSelectFirstOrScrollToTop)),
			km("home", C(CmdSelectFirstOrScrollToTop)),
			km("G", C(CmdSelectLastOrScrollToBottom)),
			km("end", C(CmdSelectLastOrScrollToBottom)),
			km("enter", C(CmdChooseSelected)),
			km("g c", C(CmdJumpToCurrentTrackInContext)),
			km("r", C(CmdRefreshPlayback)),
			km("tab", C(CmdFocusNextWindow)),
			km("T", C(CmdSwitchTheme)),
			km("D", C(CmdSwitchDevice)),
			km("/", C(CmdSearch)),
			km("z", C(CmdQueue)),
			km("g a", C(CmdShowActionsOnSelectedItem)),
			km("a", C(CmdShowActionsOnCurrentTrack)),
			km("Z", C(CmdAddSelectedItemToQueue)),
			km("u p", C(CmdBrowseUserPlaylists)),
			km("u a", C(CmdBrowseUserFollowedArtists)),
			km("u A", C(CmdBrowseUserSavedAlbums)),
			km("g space", C(CmdCurrentlyPlayingContextPage)),
			km("g t", C(CmdTopTrackPage)),
			km("g r", C(CmdRecentlyPlayedTrackPage)),
			km("g y", C(CmdLikedTrackPage)),
			km("g L", C(CmdLyricsPage)),
			km("l", C(CmdLyricsPage)),
			km("g l", C(CmdLibraryPage)),
			km("g s", C(CmdSearchPage)),
			km("g b", C(CmdBrowsePage)),
			km("backspace", C(CmdPreviousPage)),
			km("C-q", C(CmdPreviousPage)),
			km("O", C(CmdOpenSpotifyLinkFromClipboard)),
			km("s t", C(CmdSortTrackByTitle)),
			km("s a", C(CmdSortTrackByArtists)),
			km("s A", C(CmdSortTrackByAlbum)),
			km("s d", C(CmdSortTrackByDuration)),
			km("s D", C(CmdSortTrackByAddedDate)),
			km("s r", C(CmdReverseTrackOrder)),
			km("C-k", C(CmdMovePlaylistItemUp)),
			km("C-j", C(CmdMovePlaylistItemDown)),
			km("N", C(CmdCreatePlaylist)),
		},
		Actions: []ActionMap{
			{KeySequence: MustParseKeySequence("C-y"), Action: ActCopyLink, Target: TargetPlayingTrack},
			{KeySequence: MustParseKeySequence("C-l"), Action: ActToggleLiked, Target: TargetPlayingTrack},
		},
	}
}

// Merge applies user bindings on top of c. User entries come first; a default
// entry is kept only when its key sequence is not bound by the user.
func (c *Config) Merge(user *Config) {
	keymaps := user.Keymaps
	for _, d := range c.Keymaps {
		if !c.boundIn(keymaps, user.Actions, d.KeySequence) {
			keymaps = append(keymaps, d)
		}
	}

	actions := user.Actions
	for _, d := range c.Actions {
		if !c.boundIn(keymaps, actions, d.KeySequence) {
			actions = append(actions, d)
		}
	}

	c.Keymaps, c.Actions = keymaps, actions
}

func (c *Config) boundIn(keymaps []Keymap, actions []ActionMap, seq KeySequence) bool {
	for _, k := range keymaps {
		if k.KeySequence.Equal(seq) {
			return true
		}
	}
	for _, a := range actions {
		if a.KeySequence.Equal(seq) {
			return true
		}
	}
	return false
}

// Find returns the command bound to exactly seq.
func (c *Config) Find(seq KeySequence) (Command, bool) {
	for _, k := range c.Keymaps {
		if k.KeySequence.Equal(seq) {
			return k.Command, true
		}
	}
	return Command{}, false
}

// FindAction returns the action bound to exactly seq.
func (c *Config) FindAction(seq KeySequence) (ActionMap, bool) {
	for _, a := range c.Actions {
		if a.KeySequence.Equal(seq) {
			return a, true
		}
	}
	return ActionMap{}, false
}

// HasPrefix reports whether seq is a strict prefix of some binding, meaning the
// caller should wait for more keys.
func (c *Config) HasPrefix(seq KeySequence) bool {
	for _, k := range c.Keymaps {
		if len(k.KeySequence) > len(seq) && seq.IsPrefix(k.KeySequence) {
			return true
		}
	}
	for _, a := range c.Actions {
		if len(a.KeySequence) > len(seq) && seq.IsPrefix(a.KeySequence) {
			return true
		}
	}
	return false
}

// KeysFor lists the key sequences bound to cmd, for help rendering.
func (c *Config) KeysFor(cmd Command) []KeySequence {
	var out []KeySequence
	for _, k := range c.Keymaps {
		if k.Command == cmd {
			out = append(out, k.KeySequence)
		}
	}
	return out
}

// Load returns the defaults merged with the keymap file at path.
// A missing file yields the defaults with found set to false.
func Load(path string) (cfg *Config, found bool, err error) {
	cfg = DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read keymap config: %w", err)
	}

	var user Config
	if err := toml.Unmarshal(data, &user); err != nil {
		return nil, true, fmt.Errorf("%w: keymap: %v", shared.ErrInvalidConfig, err)
	}
	cfg.Merge(&user)
	return cfg, true, nil
}
