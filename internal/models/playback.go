package models

import (
	"fmt"
	"slices"
	"time"
)

// RepeatState is the playback repeat mode.
type RepeatState string

const (
	RepeatOff     RepeatState = "off"
	RepeatTrack   RepeatState = "track"
	RepeatContext RepeatState = "context"
)

// Next cycles off -> track -> context -> off.
func (r RepeatState) Next() RepeatState {
	switch r {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatContext
	default:
		return RepeatOff
	}
}

// PlaybackState is a snapshot of the user's current playback.
type PlaybackState struct {
	Device    Device        `json:"device"`
	IsPlaying bool          `json:"is_playing"`
	Repeat    RepeatState   `json:"repeat_state"`
	Shuffle   bool          `json:"shuffle_state"`
	Progress  time.Duration `json:"progress"`
	Track     *Track        `json:"track,omitempty"`
	Episode   *Episode      `json:"episode,omitempty"`
	Context   ID            `json:"context,omitzero"`
	FetchedAt time.Time     `json:"-"`
}

// Duration of the current item, zero when nothing is loaded.
func (p *PlaybackState) Duration() time.Duration {
	switch {
	case p.Track != nil:
		return p.Track.Duration
	case p.Episode != nil:
		return p.Episode.Duration
	default:
		return 0
	}
}

// HasItem reports whether a track or episode is loaded.
func (p *PlaybackState) HasItem() bool {
	return p.Track != nil || p.Episode != nil
}

// ItemID returns the ID of the current item.
func (p *PlaybackState) ItemID() ID {
	switch {
	case p.Track != nil:
		return p.Track.ID
	case p.Episode != nil:
		return p.Episode.ID
	default:
		return ID{}
	}
}

// ProgressAt extrapolates the playback position at now from the last fetched snapshot.
// The result never exceeds the item's duration.
func (p *PlaybackState) ProgressAt(now time.Time) time.Duration {
	progress := p.Progress
	if p.IsPlaying && !p.FetchedAt.IsZero() && now.After(p.FetchedAt) {
		progress += now.Sub(p.FetchedAt)
	}
	if d := p.Duration(); d > 0 && progress > d {
		progress = d
	}
	return progress
}

// Playback describes what to start: either a context URI or a list of item URIs,
// optionally beginning at Offset.
type Playback struct {
	Context ID   `json:"context,omitzero"`
	URIs    []ID `json:"uris,omitempty"`
	Offset  *ID  `json:"offset,omitempty"`
}

// ContextPlayback starts ctx, optionally at the given track.
func ContextPlayback(ctx ID, offset *ID) Playback {
	return Playback{Context: ctx, Offset: offset}
}

// URIsPlayback starts a list of tracks, optionally at the given track.
func URIsPlayback(ids []ID, offset *ID) Playback {
	return Playback{URIs: ids, Offset: offset}
}

// Validate ensures exactly one of Context and URIs is set.
func (p Playback) Validate() error {
	if p.Context.IsZero() == (len(p.URIs) == 0) {
		return fmt.Errorf("playback must set exactly one of context or uris")
	}
	return nil
}

// LimitURIs keeps at most n items, shifting the window so the offset stays included.
func (p Playback) LimitURIs(n int) Playback {
	if n <= 0 || len(p.URIs) <= n {
		return p
	}
	start := 0
	if p.Offset != nil {
		if i := slices.Index(p.URIs, *p.Offset); i >= 0 && i >= n {
			start = i
		}
	}
	end := min(start+n, len(p.URIs))
	p.URIs = slices.Clone(p.URIs[start:end])
	return p
}

// UserData is the current user's library, loaded once at startup and refreshed on edits.
type UserData struct {
	User            *User           `json:"user"`
	Playlists       []Playlist      `json:"playlists"`
	FollowedArtists []Artist        `json:"followed_artists"`
	SavedAlbums     []Album         `json:"saved_albums"`
	SavedShows      []Show          `json:"saved_shows"`
	LikedTracks     map[string]bool `json:"-"`
}

// IsLikedTrack reports whether the track is in the user's liked songs.
func (u *UserData) IsLikedTrack(t Track) bool {
	return u != nil && u.LikedTracks[t.ID.ID]
}

// SetLiked records a like or unlike made during this session.
func (u *UserData) SetLiked(id ID, liked bool) {
	if u.LikedTracks == nil {
		u.LikedTracks = make(map[string]bool)
	}
	if liked {
		u.LikedTracks[id.ID] = true
	} else {
		delete(u.LikedTracks, id.ID)
	}
}

func (u *UserData) IsFollowedArtist(id ID) bool {
	return u != nil && slices.ContainsFunc(u.FollowedArtists, func(a Artist) bool { return a.ID == id })
}

func (u *UserData) IsSavedAlbum(id ID) bool {
	return u != nil && slices.ContainsFunc(u.SavedAlbums, func(a Album) bool { return a.ID == id })
}

func (u *UserData) IsSavedShow(id ID) bool {
	return u != nil && slices.ContainsFunc(u.SavedShows, func(s Show) bool { return s.ID == id })
}

func (u *UserData) HasPlaylist(id ID) bool {
	return u != nil && slices.ContainsFunc(u.Playlists, func(p Playlist) bool { return p.ID == id })
}

// ModifiablePlaylists returns playlists the user owns or collaborates on.
func (u *UserData) ModifiablePlaylists() []Playlist {
	if u == nil {
		return nil
	}
	var out []Playlist
	for _, p := range u.Playlists {
		if p.Collaborative || (u.User != nil && p.OwnerID == u.User.ID) {
			out = append(out, p)
		}
	}
	return out
}
