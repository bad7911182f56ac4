package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// ContextKind is the kind of a playable [Context].
type ContextKind int

const (
	PlaylistContext ContextKind = iota
	AlbumContext
	ArtistContext
	TracksContext
)

func (k ContextKind) String() string {
	switch k {
	case PlaylistContext:
		return "playlist"
	case AlbumContext:
		return "album"
	case ArtistContext:
		return "artist"
	default:
		return "tracks"
	}
}

// Context is a collection of tracks the user browses and plays from.
//
// Playlist, Album and Artist are set according to Kind. TracksContext is used for
// liked, top, recently played and radio track lists and is identified by Name.
type Context struct {
	Kind     ContextKind `json:"kind"`
	ID       ID          `json:"id,omitzero"`
	Name     string      `json:"name"`
	Playlist *Playlist   `json:"playlist,omitempty"`
	Album    *Album      `json:"album,omitempty"`
	Artist   *Artist     `json:"artist,omitempty"`
	Tracks   []Track     `json:"tracks"`

	// artist contexts only
	Albums         []Album  `json:"albums,omitempty"`
	RelatedArtists []Artist `json:"related_artists,omitempty"`
}

// PlaylistCtx builds a playlist context.
func PlaylistCtx(p Playlist, tracks []Track) *Context {
	return &Context{Kind: PlaylistContext, ID: p.ID, Name: p.Name, Playlist: &p, Tracks: tracks}
}

// AlbumCtx builds an album context.
func AlbumCtx(a Album, tracks []Track) *Context {
	return &Context{Kind: AlbumContext, ID: a.ID, Name: a.Name, Album: &a, Tracks: tracks}
}

// ArtistCtx builds an artist context from the artist's top tracks, albums and related artists.
func ArtistCtx(a Artist, top []Track, albums []Album, related []Artist) *Context {
	return &Context{Kind: ArtistContext, ID: a.ID, Name: a.Name, Artist: &a, Tracks: top, Albums: albums, RelatedArtists: related}
}

// TracksCtx builds a named track list.
func TracksCtx(name string, tracks []Track) *Context {
	return &Context{Kind: TracksContext, Name: name, Tracks: tracks}
}

// Description renders a one line summary shown above the track table.
func (c *Context) Description() string {
	switch c.Kind {
	case PlaylistContext:
		owner := ""
		if c.Playlist != nil {
			owner = c.Playlist.Owner
		}
		return fmt.Sprintf("Playlist: %s | %s | %d songs", c.Name, owner, len(c.Tracks))
	case AlbumContext:
		release := ""
		if c.Album != nil {
			release = c.Album.ReleaseDate
		}
		return fmt.Sprintf("Album: %s | %s | %d songs", c.Name, release, len(c.Tracks))
	case ArtistContext:
		return fmt.Sprintf("Artist: %s", c.Name)
	default:
		return fmt.Sprintf("%s | %d songs", c.Name, len(c.Tracks))
	}
}

// Playable reports whether the context can be started by URI instead of by track list.
func (c *Context) Playable() bool {
	return c.Kind != TracksContext && !c.ID.IsZero()
}

// SortTracks stably sorts the tracks in place.
func (c *Context) SortTracks(order TrackOrder) {
	slices.SortStableFunc(c.Tracks, order.Compare)
}

// ReverseTracks reverses the track order in place.
func (c *Context) ReverseTracks() {
	slices.Reverse(c.Tracks)
}

// IndexOf returns the position of the track with id, or -1.
func (c *Context) IndexOf(id ID) int {
	return slices.IndexFunc(c.Tracks, func(t Track) bool { return t.ID == id })
}

// TrackOrder is a sort key for track tables.
type TrackOrder int

const (
	OrderAddedAt TrackOrder = iota
	OrderTrackName
	OrderAlbum
	OrderArtists
	OrderDuration
)

// ParseTrackOrder parses names like "added_at", "title" or "duration".
func ParseTrackOrder(s string) (TrackOrder, error) {
	switch strings.ToLower(s) {
	case "added_at", "added", "date":
		return OrderAddedAt, nil
	case "track_name", "title", "name":
		return OrderTrackName, nil
	case "album":
		return OrderAlbum, nil
	case "artists", "artist":
		return OrderArtists, nil
	case "duration":
		return OrderDuration, nil
	default:
		return 0, fmt.Errorf("unknown track order %q", s)
	}
}

func (o TrackOrder) String() string {
	switch o {
	case OrderAddedAt:
		return "added_at"
	case OrderTrackName:
		return "track_name"
	case OrderAlbum:
		return "album"
	case OrderArtists:
		return "artists"
	case OrderDuration:
		return "duration"
	default:
		return ""
	}
}

// Compare orders two tracks by the key. Suitable for [slices.SortStableFunc].
func (o TrackOrder) Compare(a, b Track) int {
	switch o {
	case OrderAddedAt:
		return a.AddedAt.Compare(b.AddedAt)
	case OrderTrackName:
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case OrderAlbum:
		return cmp.Compare(strings.ToLower(a.Album.Name), strings.ToLower(b.Album.Name))
	case OrderArtists:
		return cmp.Compare(strings.ToLower(a.ArtistsInfo()), strings.ToLower(b.ArtistsInfo()))
	case OrderDuration:
		return cmp.Compare(a.Duration, b.Duration)
	default:
		return 0
	}
}
