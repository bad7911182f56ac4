// Spotify Web API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"time"

	"github.com/desertthunder/spx/internal/models"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

func (u SpotifyUser) Model() *models.User {
	return &models.User{ID: u.ID, DisplayName: u.DisplayName, Product: u.Product, Country: u.Country}
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genres    []string  `json:"genres"`
	Followers followers `json:"followers"`
}

func (a SpotifyArtist) Model() models.Artist {
	return models.Artist{ID: models.ArtistID(a.ID), Name: a.Name, Genres: a.Genres, Followers: a.Followers.Total}
}

func artistModels(in []SpotifyArtist) []models.Artist {
	out := make([]models.Artist, 0, len(in))
	for _, a := range in {
		out = append(out, a.Model())
	}
	return out
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
}

func (a SpotifyAlbum) Model() models.Album {
	return models.Album{
		ID:          models.AlbumID(a.ID),
		Name:        a.Name,
		Artists:     artistModels(a.Artists),
		ReleaseDate: a.ReleaseDate,
		AlbumType:   a.AlbumType,
		TotalTracks: a.TotalTracks,
	}
}

// SpotifyTrack represents a Spotify track. Album is absent on album track listings.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      *SpotifyAlbum   `json:"album,omitempty"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	IsLocal    bool            `json:"is_local"`
	URI        string          `json:"uri"`
}

func (t SpotifyTrack) Model() models.Track {
	track := models.Track{
		ID:       models.TrackID(t.ID),
		Name:     t.Name,
		Artists:  artistModels(t.Artists),
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
		Explicit: t.Explicit,
	}
	if t.Album != nil {
		track.Album = t.Album.Model()
	}
	return track
}

// playable reports whether the track can be started through the Web API.
func (t SpotifyTrack) playable() bool {
	return t.ID != "" && !t.IsLocal && (t.Type == "" || t.Type == "track")
}

// SpotifyShow represents a podcast.
type SpotifyShow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

func (s SpotifyShow) Model() models.Show {
	return models.Show{ID: models.NewID(models.ShowType, s.ID), Name: s.Name, Publisher: s.Publisher}
}

// SpotifyEpisode represents a podcast episode.
type SpotifyEpisode struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DurationMS int          `json:"duration_ms"`
	Show       *SpotifyShow `json:"show"`
}

func (e SpotifyEpisode) Model() models.Episode {
	ep := models.Episode{
		ID:       models.NewID(models.EpisodeType, e.ID),
		Name:     e.Name,
		Duration: time.Duration(e.DurationMS) * time.Millisecond,
	}
	if e.Show != nil {
		show := e.Show.Model()
		ep.Show = &show
	}
	return ep
}

// Owner is the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Owner         Owner               `json:"owner"`
	Public        bool                `json:"public"`
	Collaborative bool                `json:"collaborative"`
	SnapshotID    string              `json:"snapshot_id"`
	Tracks        simplePlaylistTrack `json:"tracks"`
}

func (p SpotifySimplePlaylist) Model() models.Playlist {
	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	return models.Playlist{
		ID:            models.PlaylistID(p.ID),
		Name:          p.Name,
		Desc:          p.Description,
		Owner:         owner,
		OwnerID:       p.Owner.ID,
		Public:        p.Public,
		Collaborative: p.Collaborative,
		SnapshotID:    p.SnapshotID,
		TrackCount:    p.Tracks.Total,
	}
}

// SpotifyPlaylistTrack represents a track within a playlist context.
// Track is nil for removed items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type savedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

type savedShow struct {
	Show SpotifyShow `json:"show"`
}

type playHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// SpotifyDevice is a Spotify Connect device. ID and volume may be null.
type SpotifyDevice struct {
	ID           *string `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	IsActive     bool    `json:"is_active"`
	IsRestricted bool    `json:"is_restricted"`
	Volume       *int    `json:"volume_percent"`
}

func (d SpotifyDevice) Model() models.Device {
	dev := models.Device{Name: d.Name, Type: d.Type, IsActive: d.IsActive, Restricted: d.IsRestricted}
	if d.ID != nil {
		dev.ID = *d.ID
	}
	if d.Volume != nil {
		dev.Volume = *d.Volume
	}
	return dev
}

type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// page is one page of a paginated response.
type page[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// cursorPage is used by the followed artists endpoint.
type cursorPage[T any] struct {
	Items []T     `json:"items"`
	Next  *string `json:"next"`
}

type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
