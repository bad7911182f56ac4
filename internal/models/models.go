package models

import (
	"fmt"
	"strings"
	"time"
)

// User is the Spotify account the application is logged in as.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"`
	Country     string `json:"country,omitempty"`
}

// Artist is a Spotify artist.
type Artist struct {
	ID        ID       `json:"id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres,omitempty"`
	Followers int      `json:"followers,omitempty"`
}

// Album is a Spotify album.
type Album struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Artists     []Artist  `json:"artists"`
	ReleaseDate string    `json:"release_date"`
	AlbumType   string    `json:"album_type,omitempty"`
	TotalTracks int       `json:"total_tracks,omitempty"`
	AddedAt     time.Time `json:"added_at,omitzero"`
}

// Track is a Spotify track.
type Track struct {
	ID       ID            `json:"id"`
	Name     string        `json:"name"`
	Artists  []Artist      `json:"artists"`
	Album    Album         `json:"album"`
	Duration time.Duration `json:"duration"`
	Explicit bool          `json:"explicit"`
	AddedAt  time.Time     `json:"added_at,omitzero"`
}

// Playlist is a Spotify playlist.
//
// CurrentFolderID is the playlist-folder the playlist is shown in; 0 is the root.
type Playlist struct {
	ID              ID     `json:"id"`
	Name            string `json:"name"`
	Desc            string `json:"description,omitempty"`
	Owner           string `json:"owner"`
	OwnerID         string `json:"owner_id"`
	Public          bool   `json:"public"`
	Collaborative   bool   `json:"collaborative"`
	SnapshotID      string `json:"snapshot_id,omitempty"`
	TrackCount      int    `json:"track_count"`
	CurrentFolderID int    `json:"-"`
}

// Show is a podcast.
type Show struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

// Episode is a podcast episode.
type Episode struct {
	ID       ID            `json:"id"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Show     *Show         `json:"show,omitempty"`
}

// Device is a Spotify Connect device.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	IsActive   bool   `json:"is_active"`
	Restricted bool   `json:"is_restricted"`
	Volume     int    `json:"volume_percent"`
}

// Category is a browse category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResults holds the results of one query across item types.
type SearchResults struct {
	Tracks    []Track    `json:"tracks"`
	Artists   []Artist   `json:"artists"`
	Albums    []Album    `json:"albums"`
	Playlists []Playlist `json:"playlists"`
}

// Queue is the user's playback queue.
type Queue struct {
	CurrentlyPlaying *Track  `json:"currently_playing"`
	Queue            []Track `json:"queue"`
}

// ArtistNames joins artist names with commas.
func ArtistNames(artists []Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ArtistsInfo joins the track's artist names.
func (t Track) ArtistsInfo() string {
	return ArtistNames(t.Artists)
}

// Display renders "name • artists".
func (t Track) Display() string {
	return fmt.Sprintf("%s • %s", t.Name, t.ArtistsInfo())
}

// Query is the text used to look up lyrics for the track.
func (t Track) Query() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s %s", t.Name, t.Artists[0].Name)
}

func (a Album) Display() string {
	return fmt.Sprintf("%s • %s", a.Name, ArtistNames(a.Artists))
}

// Year returns the release year component of the release date.
func (a Album) Year() string {
	if y, _, ok := strings.Cut(a.ReleaseDate, "-"); ok {
		return y
	}
	return a.ReleaseDate
}

func (p Playlist) Display() string {
	return fmt.Sprintf("%s • %s", p.Name, p.Owner)
}
