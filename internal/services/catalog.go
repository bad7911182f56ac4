package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

const (
	searchLimit = 20
	radioLimit  = 50
	// recommendations accept at most five seeds
	maxSeeds = 5
)

// Track retrieves a single track by ID.
func (c *SpotifyClient) Track(ctx context.Context, id string) (*models.Track, error) {
	var track SpotifyTrack
	if err := c.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(id), nil, &track); err != nil {
		return nil, err
	}
	m := track.Model()
	return &m, nil
}

// Playlist retrieves playlist metadata by ID.
func (c *SpotifyClient) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	var p SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,description,owner,public,collaborative,snapshot_id,tracks.total", url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &p); err != nil {
		return nil, err
	}
	m := p.Model()
	return &m, nil
}

// PlaylistTracks retrieves every playable track of a playlist.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", url.PathEscape(id))
	items, err := fetchAll[SpotifyPlaylistTrack](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(items))
	for _, it := range items {
		if it.Track == nil || !it.Track.playable() {
			continue
		}
		t := it.Track.Model()
		t.AddedAt = parseTime(it.AddedAt)
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// PlaylistContext retrieves a playlist with all of its tracks.
func (c *SpotifyClient) PlaylistContext(ctx context.Context, id string) (*models.Context, error) {
	p, err := c.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	tracks, err := c.PlaylistTracks(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.PlaylistCtx(*p, tracks), nil
}

// AlbumContext retrieves an album with all of its tracks.
func (c *SpotifyClient) AlbumContext(ctx context.Context, id string) (*models.Context, error) {
	var album SpotifyAlbum
	if err := c.doRequest(ctx, http.MethodGet, "/albums/"+url.PathEscape(id), nil, &album); err != nil {
		return nil, err
	}

	items, err := fetchAll[SpotifyTrack](ctx, c, fmt.Sprintf("/albums/%s/tracks?limit=50", url.PathEscape(id)))
	if err != nil {
		return nil, err
	}

	a := album.Model()
	tracks := make([]models.Track, 0, len(items))
	for _, it := range items {
		t := it.Model()
		t.Album = a
		tracks = append(tracks, t)
	}
	return models.AlbumCtx(a, tracks), nil
}

// ArtistContext retrieves an artist's top tracks, albums and related artists concurrently.
func (c *SpotifyClient) ArtistContext(ctx context.Context, id string) (*models.Context, error) {
	escaped := url.PathEscape(id)

	var (
		artist SpotifyArtist
		top    struct {
			Tracks []SpotifyTrack `json:"tracks"`
		}
		albums  []SpotifyAlbum
		related struct {
			Artists []SpotifyArtist `json:"artists"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.doRequest(gctx, http.MethodGet, "/artists/"+escaped, nil, &artist)
	})
	g.Go(func() error {
		return c.doRequest(gctx, http.MethodGet, "/artists/"+escaped+"/top-tracks?market=from_token", nil, &top)
	})
	g.Go(func() error {
		var err error
		albums, err = fetchAll[SpotifyAlbum](gctx, c, "/artists/"+escaped+"/albums?include_groups=album,single&limit=50")
		return err
	})
	g.Go(func() error {
		// related artists are unavailable for some apps; an empty list is fine
		if err := c.doRequest(gctx, http.MethodGet, "/artists/"+escaped+"/related-artists", nil, &related); err != nil && !IsNotFound(err) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	albumModels := make([]models.Album, 0, len(albums))
	for _, a := range albums {
		albumModels = append(albumModels, a.Model())
	}
	return models.ArtistCtx(artist.Model(), trackModels(top.Tracks), albumModels, artistModels(related.Artists)), nil
}

// Context retrieves the playable context identified by id.
func Context(ctx context.Context, c Client, id models.ID) (*models.Context, error) {
	switch id.Type {
	case models.PlaylistType:
		return c.PlaylistContext(ctx, id.ID)
	case models.AlbumType:
		return c.AlbumContext(ctx, id.ID)
	case models.ArtistType:
		return c.ArtistContext(ctx, id.ID)
	default:
		return nil, fmt.Errorf("%w: %s is not a context", shared.ErrInvalidInput, id.Type)
	}
}

type searchResponse struct {
	Tracks    *page[SpotifyTrack]           `json:"tracks"`
	Artists   *page[SpotifyArtist]          `json:"artists"`
	Albums    *page[SpotifyAlbum]           `json:"albums"`
	Playlists *page[*SpotifySimplePlaylist] `json:"playlists"`
}

// SearchType searches one item type.
func (c *SpotifyClient) SearchType(ctx context.Context, query string, t models.ItemType, limit int) (*models.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrMissingArgument)
	}
	switch t {
	case models.TrackType, models.ArtistType, models.AlbumType, models.PlaylistType:
	default:
		return nil, fmt.Errorf("%w: cannot search for %s", shared.ErrInvalidInput, t)
	}
	if limit <= 0 || limit > 50 {
		limit = searchLimit
	}

	params := url.Values{"q": {query}, "type": {string(t)}, "limit": {strconv.Itoa(limit)}}
	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	results := &models.SearchResults{}
	if resp.Tracks != nil {
		results.Tracks = trackModels(resp.Tracks.Items)
	}
	if resp.Artists != nil {
		results.Artists = artistModels(resp.Artists.Items)
	}
	if resp.Albums != nil {
		for _, a := range resp.Albums.Items {
			results.Albums = append(results.Albums, a.Model())
		}
	}
	if resp.Playlists != nil {
		results.Playlists = playlistModels(resp.Playlists.Items)
	}
	return results, nil
}

// Search runs one query against tracks, artists, albums and playlists concurrently.
func (c *SpotifyClient) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	types := []models.ItemType{models.TrackType, models.ArtistType, models.AlbumType, models.PlaylistType}
	partial := make([]*models.SearchResults, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			res, err := c.SearchType(gctx, query, t, searchLimit)
			if err != nil {
				return fmt.Errorf("search %s: %w", t, err)
			}
			partial[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.SearchResults{
		Tracks:    partial[0].Tracks,
		Artists:   partial[1].Artists,
		Albums:    partial[2].Albums,
		Playlists: partial[3].Playlists,
	}, nil
}

// RadioTracks returns recommendations seeded from a track, artist, album or playlist.
func (c *SpotifyClient) RadioTracks(ctx context.Context, seed models.ID) ([]models.Track, error) {
	params := url.Values{"limit": {strconv.Itoa(radioLimit)}}

	switch seed.Type {
	case models.TrackType:
		params.Set("seed_tracks", seed.ID)
	case models.ArtistType:
		params.Set("seed_artists", seed.ID)
	case models.AlbumType, models.PlaylistType:
		seedCtx, err := Context(ctx, c, seed)
		if err != nil {
			return nil, err
		}
		if len(seedCtx.Tracks) == 0 {
			return nil, fmt.Errorf("%w: %s has no tracks to seed a radio", shared.ErrTrackNotFound, seed)
		}
		seeds := models.IDs(seedCtx.Tracks[:min(maxSeeds, len(seedCtx.Tracks))])
		params.Set("seed_tracks", rawIDs(seeds))
	default:
		return nil, fmt.Errorf("%w: cannot start a radio from %s", shared.ErrInvalidInput, seed.Type)
	}

	var resp struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/recommendations?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return trackModels(resp.Tracks), nil
}

// Categories lists browse categories.
func (c *SpotifyClient) Categories(ctx context.Context) ([]models.Category, error) {
	var resp struct {
		Categories page[category] `json:"categories"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/browse/categories?limit=50", nil, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(resp.Categories.Items))
	for _, cat := range resp.Categories.Items {
		out = append(out, models.Category{ID: cat.ID, Name: cat.Name})
	}
	return out, nil
}

// CategoryPlaylists lists playlists in a browse category.
func (c *SpotifyClient) CategoryPlaylists(ctx context.Context, categoryID string) ([]models.Playlist, error) {
	var resp struct {
		Playlists page[*SpotifySimplePlaylist] `json:"playlists"`
	}
	endpoint := fmt.Sprintf("/browse/categories/%s/playlists?limit=50", url.PathEscape(categoryID))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return playlistModels(resp.Playlists.Items), nil
}
