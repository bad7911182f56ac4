package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// CurrentUser retrieves the current authenticated user's profile.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return user.Model(), nil
}

// UserPlaylists retrieves every playlist in the user's library.
func (c *SpotifyClient) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	items, err := fetchAll[*SpotifySimplePlaylist](ctx, c, "/me/playlists?limit=50")
	if err != nil {
		return nil, err
	}
	return playlistModels(items), nil
}

func playlistModels(items []*SpotifySimplePlaylist) []models.Playlist {
	out := make([]models.Playlist, 0, len(items))
	for _, p := range items {
		if p != nil {
			out = append(out, p.Model())
		}
	}
	return out
}

// SavedTracks retrieves the user's liked tracks, newest first.
func (c *SpotifyClient) SavedTracks(ctx context.Context) ([]models.Track, error) {
	items, err := fetchAll[SpotifySavedTrack](ctx, c, "/me/tracks?limit=50")
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(items))
	for _, it := range items {
		if !it.Track.playable() {
			continue
		}
		t := it.Track.Model()
		t.AddedAt = parseTime(it.AddedAt)
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// SavedAlbums retrieves the user's saved albums.
func (c *SpotifyClient) SavedAlbums(ctx context.Context) ([]models.Album, error) {
	items, err := fetchAll[savedAlbum](ctx, c, "/me/albums?limit=50")
	if err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(items))
	for _, it := range items {
		a := it.Album.Model()
		a.AddedAt = parseTime(it.AddedAt)
		albums = append(albums, a)
	}
	return albums, nil
}

// SavedShows retrieves the user's saved podcasts.
func (c *SpotifyClient) SavedShows(ctx context.Context) ([]models.Show, error) {
	items, err := fetchAll[savedShow](ctx, c, "/me/shows?limit=50")
	if err != nil {
		return nil, err
	}

	shows := make([]models.Show, 0, len(items))
	for _, it := range items {
		shows = append(shows, it.Show.Model())
	}
	return shows, nil
}

// FollowedArtists retrieves every artist the user follows. The endpoint uses
// cursor paging wrapped in an "artists" object.
func (c *SpotifyClient) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	for next := "/me/following?type=artist&limit=50"; next != ""; {
		var resp struct {
			Artists cursorPage[SpotifyArtist] `json:"artists"`
		}
		if err := c.doRequest(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, err
		}
		artists = append(artists, artistModels(resp.Artists.Items)...)

		next = ""
		if resp.Artists.Next != nil {
			next = *resp.Artists.Next
		}
	}
	return artists, nil
}

// TopTracks retrieves the user's most played tracks.
func (c *SpotifyClient) TopTracks(ctx context.Context) ([]models.Track, error) {
	var p page[SpotifyTrack]
	if err := c.doRequest(ctx, http.MethodGet, "/me/top/tracks?limit=50", nil, &p); err != nil {
		return nil, err
	}
	return trackModels(p.Items), nil
}

// RecentlyPlayed retrieves recently played tracks without duplicates, most recent first.
func (c *SpotifyClient) RecentlyPlayed(ctx context.Context) ([]models.Track, error) {
	var p page[playHistory]
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/recently-played?limit=50", nil, &p); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(p.Items))
	tracks := make([]models.Track, 0, len(p.Items))
	for _, h := range p.Items {
		if seen[h.Track.ID] || !h.Track.playable() {
			continue
		}
		seen[h.Track.ID] = true
		tracks = append(tracks, h.Track.Model())
	}
	return tracks, nil
}

func trackModels(in []SpotifyTrack) []models.Track {
	out := make([]models.Track, 0, len(in))
	for _, t := range in {
		if t.playable() {
			out = append(out, t.Model())
		}
	}
	return out
}

// NewPlaylist describes a playlist to create.
type NewPlaylist struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}

// CreatePlaylist creates a playlist owned by userID.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, userID string, p NewPlaylist) (*models.Playlist, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}
	// collaborative playlists cannot be public
	if p.Collaborative {
		p.Public = false
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, p, &created); err != nil {
		return nil, err
	}
	m := created.Model()
	return &m, nil
}

// AddPlaylistItems appends items to a playlist in batches.
func (c *SpotifyClient) AddPlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for _, batch := range chunk(ids, playlistBatchSize) {
		body := map[string]any{"uris": uris(batch)}
		if err := c.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// RemovePlaylistItems removes every occurrence of items from a playlist in batches.
func (c *SpotifyClient) RemovePlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for _, batch := range chunk(ids, playlistBatchSize) {
		tracks := make([]map[string]string, 0, len(batch))
		for _, id := range batch {
			tracks = append(tracks, map[string]string{"uri": id.URI()})
		}
		if err := c.doRequest(ctx, http.MethodDelete, endpoint, map[string]any{"tracks": tracks}, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReorderPlaylistItems moves the item at rangeStart so it lands before insertBefore.
func (c *SpotifyClient) ReorderPlaylistItems(ctx context.Context, playlistID string, rangeStart, insertBefore int) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]int{"range_start": rangeStart, "insert_before": insertBefore}
	return c.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

func uris(ids []models.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.URI())
	}
	return out
}

func rawIDs(ids []models.ID) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.ID)
	}
	return strings.Join(out, ",")
}

// SaveItems adds items to the user's library: tracks are liked, albums and
// shows saved, artists and playlists followed.
func (c *SpotifyClient) SaveItems(ctx context.Context, ids []models.ID) error {
	return c.libraryWrite(ctx, http.MethodPut, ids)
}

// RemoveItems reverses [SpotifyClient.SaveItems].
func (c *SpotifyClient) RemoveItems(ctx context.Context, ids []models.ID) error {
	return c.libraryWrite(ctx, http.MethodDelete, ids)
}

func (c *SpotifyClient) libraryWrite(ctx context.Context, method string, ids []models.ID) error {
	byType := make(map[models.ItemType][]models.ID)
	var order []models.ItemType
	for _, id := range ids {
		if _, ok := byType[id.Type]; !ok {
			order = append(order, id.Type)
		}
		byType[id.Type] = append(byType[id.Type], id)
	}

	for _, t := range order {
		group := byType[t]
		if t == models.PlaylistType {
			for _, id := range group {
				endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(id.ID))
				if err := c.doRequest(ctx, method, endpoint, nil, nil); err != nil {
					return err
				}
			}
			continue
		}

		var path string
		switch t {
		case models.TrackType:
			path = "/me/tracks?ids="
		case models.AlbumType:
			path = "/me/albums?ids="
		case models.ShowType:
			path = "/me/shows?ids="
		case models.ArtistType:
			path = "/me/following?type=artist&ids="
		default:
			return fmt.Errorf("%w: cannot save items of type %s", shared.ErrInvalidInput, t)
		}
		for _, batch := range chunk(group, libraryBatchSize) {
			if err := c.doRequest(ctx, method, path+url.QueryEscape(rawIDs(batch)), nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
