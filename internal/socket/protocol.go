// package socket implements the UDP protocol between the spx CLI and a running
// spx instance.
//
// A client sends one JSON encoded [Request] per datagram. The server answers
// with a JSON encoded [Response], split into datagrams of at most [MaxPacketSize]
// bytes and terminated by an empty datagram.
package socket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// MaxPacketSize is the size of the receive buffer and of response chunks.
const MaxPacketSize = 4096

// Key names data retrievable with a get request.
type Key string

const (
	KeyPlayback            Key = "playback"
	KeyDevices             Key = "devices"
	KeyUserPlaylists       Key = "user_playlists"
	KeyUserLikedTracks     Key = "user_liked_tracks"
	KeyUserSavedAlbums     Key = "user_saved_albums"
	KeyUserFollowedArtists Key = "user_followed_artists"
	KeyUserTopTracks       Key = "user_top_tracks"
	KeyQueue               Key = "queue"
)

// Keys lists every valid [Key].
var Keys = []Key{
	KeyPlayback, KeyDevices, KeyUserPlaylists, KeyUserLikedTracks,
	KeyUserSavedAlbums, KeyUserFollowedArtists, KeyUserTopTracks, KeyQueue,
}

// ParseKey validates a key name.
func ParseKey(s string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Keys {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown key %q", shared.ErrInvalidInput, s)
}

// IdOrName refers to an item either by id (or link) or by a name that is
// resolved through search.
type IdOrName struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (v IdOrName) Validate() error {
	if (v.ID == "") == (v.Name == "") {
		return fmt.Errorf("%w: exactly one of id or name is required", shared.ErrMissingArgument)
	}
	return nil
}

func (v IdOrName) String() string {
	if v.ID != "" {
		return "id=" + v.ID
	}
	return "name=" + v.Name
}

// Item is an item reference with its type.
type Item struct {
	Type models.ItemType `json:"type"`
	IdOrName
}

// GetRequest asks for the data under Key, or for the context of Item.
type GetRequest struct {
	Key  Key   `json:"key,omitempty"`
	Item *Item `json:"item,omitempty"`
}

// Action names a playback command.
type Action string

const (
	StartContext     Action = "start_context"
	StartTrack       Action = "start_track"
	StartLikedTracks Action = "start_liked_tracks"
	StartRadio       Action = "start_radio"
	PlayPause        Action = "play_pause"
	Play             Action = "play"
	Pause            Action = "pause"
	Next             Action = "next"
	Previous         Action = "previous"
	Shuffle          Action = "shuffle"
	Repeat           Action = "repeat"
	Volume           Action = "volume"
	Seek             Action = "seek"
)

// PlaybackCommand is a playback control. Only the fields of Command are read:
//
//	start_context       context_type, id_or_name, shuffle
//	start_track         id_or_name
//	start_liked_tracks  limit, random
//	start_radio         item_type, id_or_name
//	volume              percent, is_offset
//	seek                position_offset_ms
type PlaybackCommand struct {
	Command     Action          `json:"command"`
	ContextType models.ItemType `json:"context_type,omitempty"`
	ItemType    models.ItemType `json:"item_type,omitempty"`
	Target      *IdOrName       `json:"id_or_name,omitempty"`
	Shuffle     bool            `json:"shuffle,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Random      bool            `json:"random,omitempty"`
	Percent     int             `json:"percent,omitempty"`
	IsOffset    bool            `json:"is_offset,omitempty"`
	OffsetMS    int64           `json:"position_offset_ms,omitempty"`
}

// PlaylistAction names a playlist command.
type PlaylistAction string

const (
	PlaylistNew    PlaylistAction = "new"
	PlaylistDelete PlaylistAction = "delete"
	PlaylistList   PlaylistAction = "list"
	PlaylistImport PlaylistAction = "import"
	PlaylistFork   PlaylistAction = "fork"
	PlaylistSync   PlaylistAction = "sync"
	PlaylistEdit   PlaylistAction = "edit"
)

// EditAction is the change made by a playlist edit.
type EditAction string

const (
	EditAdd    EditAction = "add"
	EditDelete EditAction = "delete"
)

// PlaylistCommand manages the user's playlists. Playlist and track ids may be
// bare ids, URIs or open.spotify.com links.
//
//	new     name, public, collab, description
//	delete  id
//	import  from, to, delete
//	fork    id
//	sync    id (optional), delete
//	edit    playlist_id, action, track_id
type PlaylistCommand struct {
	Command     PlaylistAction `json:"command"`
	Name        string         `json:"name,omitempty"`
	Public      bool           `json:"public,omitempty"`
	Collab      bool           `json:"collab,omitempty"`
	Description string         `json:"description,omitempty"`
	ID          string         `json:"id,omitempty"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	Delete      bool           `json:"delete,omitempty"`
	PlaylistID  string         `json:"playlist_id,omitempty"`
	Action      EditAction     `json:"action,omitempty"`
	TrackID     string         `json:"track_id,omitempty"`
}

type LikeRequest struct {
	Unlike bool `json:"unlike"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

// Request is a CLI request. Exactly one of the variant fields is set.
type Request struct {
	ID       string           `json:"id,omitempty"`
	Get      *GetRequest      `json:"get,omitempty"`
	Playback *PlaybackCommand `json:"playback,omitempty"`
	Connect  *IdOrName        `json:"connect,omitempty"`
	Like     *LikeRequest     `json:"like,omitempty"`
	Playlist *PlaylistCommand `json:"playlist,omitempty"`
	Search   *SearchRequest   `json:"search,omitempty"`
}

// Kind names the variant set on the request, or "" when none or several are.
func (r *Request) Kind() string {
	kind, n := "", 0
	set := func(ok bool, name string) {
		if ok {
			kind = name
			n++
		}
	}
	set(r.Get != nil, "get")
	set(r.Playback != nil, "playback")
	set(r.Connect != nil, "connect")
	set(r.Like != nil, "like")
	set(r.Playlist != nil, "playlist")
	set(r.Search != nil, "search")
	if n != 1 {
		return ""
	}
	return kind
}

// Response carries either the JSON encoded result of a request or an error
// message. A successful request without data has neither field set.
type Response struct {
	ID  string          `json:"id,omitempty"`
	Ok  json.RawMessage `json:"ok,omitempty"`
	Err string          `json:"err,omitempty"`
}

// Error returns the response error, wrapping [shared.ErrBadRequest].
func (r *Response) Error() error {
	if r.Err == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrBadRequest, strings.TrimPrefix(r.Err, "Bad request: "))
}

// ParseTarget parses an item reference as a URI or link, falling back to a bare
// id of type t.
func ParseTarget(s string, t models.ItemType) (models.ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.ID{}, fmt.Errorf("%w: %s id", shared.ErrMissingArgument, t)
	}
	if !strings.HasPrefix(s, "spotify:") && !strings.Contains(s, "/") {
		return models.NewID(t, s), nil
	}
	id, err := models.ParseLink(s)
	if err != nil {
		return models.ID{}, err
	}
	if id.Type != t {
		return models.ID{}, fmt.Errorf("%w: expected a %s, got %s", shared.ErrInvalidInput, t, id.Type)
	}
	return id, nil
}
