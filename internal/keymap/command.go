package keymap

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

// CommandKind enumerates application commands.
type CommandKind int

const (
	CmdNone CommandKind = iota

	CmdNextTrack
	CmdPreviousTrack
	CmdResumePause
	CmdPlayRandom
	CmdRepeat
	CmdShuffle
	CmdVolumeChange
	CmdMute
	CmdSeekForward
	CmdSeekBackward

	CmdQuit
	CmdOpenCommandHelp
	CmdClosePopup

	CmdSelectNextOrScrollDown
	CmdSelectPreviousOrScrollUp
	CmdPageSelectNextOrScrollDown
	CmdPageSelectPreviousOrScrollUp
	CmdSelectFirstOrScrollToTop
	CmdSelectLastOrScrollToBottom

	CmdJumpToCurrentTrackInContext
	CmdChooseSelected
	CmdRefreshPlayback

	CmdFocusNextWindow
	CmdFocusPreviousWindow

	CmdSwitchTheme
	CmdSwitchDevice
	CmdSearch
	CmdQueue

	CmdShowActionsOnSelectedItem
	CmdShowActionsOnCurrentTrack
	CmdAddSelectedItemToQueue

	CmdBrowseUserPlaylists
	CmdBrowseUserFollowedArtists
	CmdBrowseUserSavedAlbums

	CmdCurrentlyPlayingContextPage
	CmdTopTrackPage
	CmdRecentlyPlayedTrackPage
	CmdLikedTrackPage
	CmdLyricsPage
	CmdLibraryPage
	CmdSearchPage
	CmdBrowsePage
	CmdPreviousPage
	CmdOpenSpotifyLinkFromClipboard

	CmdSortTrackByTitle
	CmdSortTrackByArtists
	CmdSortTrackByAlbum
	CmdSortTrackByDuration
	CmdSortTrackByAddedDate
	CmdReverseTrackOrder

	CmdMovePlaylistItemUp
	CmdMovePlaylistItemDown

	CmdCreatePlaylist

	numCommands
)

type commandInfo struct {
	name string
	desc string
}

var commands = [numCommands]commandInfo{
	CmdNone:                         {"None", "do nothing"},
	CmdNextTrack:                    {"NextTrack", "next track"},
	CmdPreviousTrack:                {"PreviousTrack", "previous track"},
	CmdResumePause:                  {"ResumePause", "resume/pause based on the current playback"},
	CmdPlayRandom:                   {"PlayRandom", "play a random track in the current context"},
	CmdRepeat:                       {"Repeat", "cycle the repeat mode"},
	CmdShuffle:                      {"Shuffle", "toggle the shuffle mode"},
	CmdVolumeChange:                 {"VolumeChange", ""},
	CmdMute:                         {"Mute", "toggle playback volume between 0% and previous level"},
	CmdSeekForward:                  {"SeekForward", "seek forward"},
	CmdSeekBackward:                 {"SeekBackward", "seek backward"},
	CmdQuit:                         {"Quit", "quit the application"},
	CmdOpenCommandHelp:              {"OpenCommandHelp", "go to the command help page"},
	CmdClosePopup:                   {"ClosePopup", "close a popup"},
	CmdSelectNextOrScrollDown:       {"SelectNextOrScrollDown", "select the next item in a list/table or scroll down"},
	CmdSelectPreviousOrScrollUp:     {"SelectPreviousOrScrollUp", "select the previous item in a list/table or scroll up"},
	CmdPageSelectNextOrScrollDown:   {"PageSelectNextOrScrollDown", "select the next page item in a list/table or scroll a page down"},
	CmdPageSelectPreviousOrScrollUp: {"PageSelectPreviousOrScrollUp", "select the previous page item in a list/table or scroll a page up"},
	CmdSelectFirstOrScrollToTop:     {"SelectFirstOrScrollToTop", "select the first item in a list/table or scroll to the top"},
	CmdSelectLastOrScrollToBottom:   {"SelectLastOrScrollToBottom", "select the last item in a list/table or scroll to the bottom"},
	CmdJumpToCurrentTrackInContext:  {"JumpToCurrentTrackInContext", "jump to the current track in the context"},
	CmdChooseSelected:               {"ChooseSelected", "choose the selected item and act on it"},
	CmdRefreshPlayback:              {"RefreshPlayback", "manually refresh the current playback"},
	CmdFocusNextWindow:              {"FocusNextWindow", "focus the next focusable window (if any)"},
	CmdFocusPreviousWindow:          {"FocusPreviousWindow", "focus the previous focusable window (if any)"},
	CmdSwitchTheme:                  {"SwitchTheme", "open a popup for switching theme"},
	CmdSwitchDevice:                 {"SwitchDevice", "open a popup for switching device"},
	CmdSearch:                       {"Search", "open a popup for searching in the current page"},
	CmdQueue:                        {"Queue", "go to the queue page"},
	CmdShowActionsOnSelectedItem:    {"ShowActionsOnSelectedItem", "open a popup showing actions on a selected item"},
	CmdShowActionsOnCurrentTrack:    {"ShowActionsOnCurrentTrack", "open a popup showing actions on the current track"},
	CmdAddSelectedItemToQueue:       {"AddSelectedItemToQueue", "add the selected item to queue"},
	CmdBrowseUserPlaylists:          {"BrowseUserPlaylists", "open a popup for browsing user's playlists"},
	CmdBrowseUserFollowedArtists:    {"BrowseUserFollowedArtists", "open a popup for browsing user's followed artists"},
	CmdBrowseUserSavedAlbums:        {"BrowseUserSavedAlbums", "open a popup for browsing user's saved albums"},
	CmdCurrentlyPlayingContextPage:  {"CurrentlyPlayingContextPage", "go to the currently playing context page"},
	CmdTopTrackPage:                 {"TopTrackPage", "go to the user top track page"},
	CmdRecentlyPlayedTrackPage:      {"RecentlyPlayedTrackPage", "go to the user recently played track page"},
	CmdLikedTrackPage:               {"LikedTrackPage", "go to the user liked track page"},
	CmdLyricsPage:                   {"LyricsPage", "go to the lyrics page of the current track"},
	CmdLibraryPage:                  {"LibraryPage", "go to the user library page"},
	CmdSearchPage:                   {"SearchPage", "go to the search page"},
	CmdBrowsePage:                   {"BrowsePage", "go to the browse page"},
	CmdPreviousPage:                 {"PreviousPage", "go to the previous page"},
	CmdOpenSpotifyLinkFromClipboard: {"OpenSpotifyLinkFromClipboard", "open a Spotify link from clipboard"},
	CmdSortTrackByTitle:             {"SortTrackByTitle", "sort the track table (if any) by track's title"},
	CmdSortTrackByArtists:           {"SortTrackByArtists", "sort the track table (if any) by track's artists"},
	CmdSortTrackByAlbum:             {"SortTrackByAlbum", "sort the track table (if any) by track's album"},
	CmdSortTrackByDuration:          {"SortTrackByDuration", "sort the track table (if any) by track's duration"},
	CmdSortTrackByAddedDate:         {"SortTrackByAddedDate", "sort the track table (if any) by track's added date"},
	CmdReverseTrackOrder:            {"ReverseTrackOrder", "reverse the order of the track table (if any)"},
	CmdMovePlaylistItemUp:           {"MovePlaylistItemUp", "move playlist item up one position"},
	CmdMovePlaylistItemDown:         {"MovePlaylistItemDown", "move playlist item down one position"},
	CmdCreatePlaylist:               {"CreatePlaylist", "create a new playlist"},
}

// Command is an application command. Offset is only used by [CmdVolumeChange].
type Command struct {
	Kind   CommandKind
	Offset int
}

// C is shorthand for an argument-less command.
func C(k CommandKind) Command { return Command{Kind: k} }

// VolumeChange builds a volume change command.
func VolumeChange(offset int) Command { return Command{Kind: CmdVolumeChange, Offset: offset} }

func (c Command) String() string {
	if c.Kind < 0 || c.Kind >= numCommands {
		return fmt.Sprintf("Command(%d)", int(c.Kind))
	}
	return commands[c.Kind].name
}

// Desc is the help text shown on the command help page.
func (c Command) Desc() string {
	if c.Kind == CmdVolumeChange {
		return fmt.Sprintf("change playback volume by %d", c.Offset)
	}
	if c.Kind < 0 || c.Kind >= numCommands {
		return ""
	}
	return commands[c.Kind].desc
}

// normalizeName folds "next_track", "NextTrack" and "next-track" to the same key.
func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
}

// ParseCommandKind accepts PascalCase or snake_case command names.
func ParseCommandKind(s string) (CommandKind, error) {
	n := normalizeName(s)
	for k, info := range commands {
		if normalizeName(info.name) == n {
			return CommandKind(k), nil
		}
	}
	return CmdNone, fmt.Errorf("%w: unknown command %q", shared.ErrInvalidInput, s)
}

// UnmarshalTOML decodes either a bare name (command = "NextTrack") or a table
// with arguments (command = { VolumeChange = { offset = 5 } }).
func (c *Command) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		kind, err := ParseCommandKind(val)
		if err != nil {
			return err
		}
		if kind == CmdVolumeChange {
			return fmt.Errorf("%w: VolumeChange requires an offset", shared.ErrInvalidInput)
		}
		*c = C(kind)
		return nil
	case map[string]any:
		if len(val) != 1 {
			return fmt.Errorf("%w: command table must have exactly one key", shared.ErrInvalidInput)
		}
		for name, args := range val {
			kind, err := ParseCommandKind(name)
			if err != nil {
				return err
			}
			cmd := C(kind)
			if kind == CmdVolumeChange {
				table, _ := args.(map[string]any)
				offset, ok := table["offset"].(int64)
				if !ok {
					return fmt.Errorf("%w: VolumeChange requires an integer offset", shared.ErrInvalidInput)
				}
				cmd.Offset = int(offset)
			}
			*c = cmd
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected command value %v", shared.ErrInvalidInput, v)
	}
}

// ActionKind enumerates actions on a track, album, artist, playlist, show or episode.
type ActionKind int

const (
	ActGoToArtist ActionKind = iota
	ActGoToAlbum
	ActGoToRadio
	ActGoToShow
	ActAddToLibrary
	ActAddToPlaylist
	ActAddToQueue
	ActAddToLiked
	ActDeleteFromLiked
	ActDeleteFromLibrary
	ActDeleteFromPlaylist
	ActShowActionsOnAlbum
	ActShowActionsOnArtist
	ActShowActionsOnShow
	ActToggleLiked
	ActCopyLink
	ActFollow
	ActUnfollow

	numActions
)

var actionNames = [numActions]string{
	ActGoToArtist:          "GoToArtist",
	ActGoToAlbum:           "GoToAlbum",
	ActGoToRadio:           "GoToRadio",
	ActGoToShow:            "GoToShow",
	ActAddToLibrary:        "AddToLibrary",
	ActAddToPlaylist:       "AddToPlaylist",
	ActAddToQueue:          "AddToQueue",
	ActAddToLiked:          "AddToLiked",
	ActDeleteFromLiked:     "DeleteFromLiked",
	ActDeleteFromLibrary:   "DeleteFromLibrary",
	ActDeleteFromPlaylist:  "DeleteFromPlaylist",
	ActShowActionsOnAlbum:  "ShowActionsOnAlbum",
	ActShowActionsOnArtist: "ShowActionsOnArtist",
	ActShowActionsOnShow:   "ShowActionsOnShow",
	ActToggleLiked:         "ToggleLiked",
	ActCopyLink:            "CopyLink",
	ActFollow:              "Follow",
	ActUnfollow:            "Unfollow",
}

func (a ActionKind) String() string {
	if a < 0 || a >= numActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// Label is the human readable form shown in the actions popup ("go to artist").
func (a ActionKind) Label() string {
	var b strings.Builder
	for i, r := range a.String() {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseActionKind accepts PascalCase or snake_case action names.
func ParseActionKind(s string) (ActionKind, error) {
	n := normalizeName(s)
	for k, name := range actionNames {
		if normalizeName(name) == n {
			return ActionKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, s)
}

func (a *ActionKind) UnmarshalText(b []byte) error {
	kind, err := ParseActionKind(string(b))
	if err != nil {
		return err
	}
	*a = kind
	return nil
}

func (a ActionKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ActionTarget selects what a bound action applies to.
type ActionTarget int

const (
	TargetSelectedItem ActionTarget = iota
	TargetPlayingTrack
)

func (t *ActionTarget) UnmarshalText(b []byte) error {
	switch normalizeName(string(b)) {
	case "selecteditem", "":
		*t = TargetSelectedItem
	case "playingtrack":
		*t = TargetPlayingTrack
	default:
		return fmt.Errorf("%w: unknown action target %q", shared.ErrInvalidInput, string(b))
	}
	return nil
}

func (t ActionTarget) String() string {
	if t == TargetPlayingTrack {
		return "PlayingTrack"
	}
	return "SelectedItem"
}
