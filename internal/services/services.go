package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spx/internal/models"
)

var _ Client = (*SpotifyClient)(nil)

// Client is the subset of the Spotify Web API used by the player, the socket
// handlers, the playlist tasks and the TUI.
type Client interface {
	CurrentUser(ctx context.Context) (*models.User, error)

	// CurrentPlayback returns nil without error when no device is playing.
	CurrentPlayback(ctx context.Context) (*models.PlaybackState, error)
	Devices(ctx context.Context) ([]models.Device, error)
	Queue(ctx context.Context) (*models.Queue, error)
	Resume(ctx context.Context, deviceID string) error
	Pause(ctx context.Context, deviceID string) error
	NextTrack(ctx context.Context, deviceID string) error
	PreviousTrack(ctx context.Context, deviceID string) error
	Seek(ctx context.Context, deviceID string, position time.Duration) error
	SetRepeat(ctx context.Context, deviceID string, state models.RepeatState) error
	SetShuffle(ctx context.Context, deviceID string, state bool) error
	SetVolume(ctx context.Context, deviceID string, percent int) error
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
	StartPlayback(ctx context.Context, deviceID string, p models.Playback) error
	AddToQueue(ctx context.Context, deviceID string, id models.ID) error

	UserPlaylists(ctx context.Context) ([]models.Playlist, error)
	SavedTracks(ctx context.Context) ([]models.Track, error)
	SavedAlbums(ctx context.Context) ([]models.Album, error)
	SavedShows(ctx context.Context) ([]models.Show, error)
	FollowedArtists(ctx context.Context) ([]models.Artist, error)
	TopTracks(ctx context.Context) ([]models.Track, error)
	RecentlyPlayed(ctx context.Context) ([]models.Track, error)

	Track(ctx context.Context, id string) (*models.Track, error)
	Playlist(ctx context.Context, id string) (*models.Playlist, error)
	PlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
	PlaylistContext(ctx context.Context, id string) (*models.Context, error)
	AlbumContext(ctx context.Context, id string) (*models.Context, error)
	ArtistContext(ctx context.Context, id string) (*models.Context, error)
	Search(ctx context.Context, query string) (*models.SearchResults, error)
	SearchType(ctx context.Context, query string, t models.ItemType, limit int) (*models.SearchResults, error)
	RadioTracks(ctx context.Context, seed models.ID) ([]models.Track, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryPlaylists(ctx context.Context, categoryID string) ([]models.Playlist, error)

	CreatePlaylist(ctx context.Context, userID string, p NewPlaylist) (*models.Playlist, error)
	AddPlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error
	RemovePlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error
	ReorderPlaylistItems(ctx context.Context, playlistID string, rangeStart, insertBefore int) error
	SaveItems(ctx context.Context, ids []models.ID) error
	RemoveItems(ctx context.Context, ids []models.ID) error
}

// LoadUserData fetches the user's profile and library concurrently.
func LoadUserData(ctx context.Context, c Client) (*models.UserData, error) {
	data := &models.UserData{LikedTracks: make(map[string]bool)}
	var liked []models.Track

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() (err error) { data.User, err = c.CurrentUser(gctx); return })
	g.Go(func() (err error) { data.Playlists, err = c.UserPlaylists(gctx); return })
	g.Go(func() (err error) { data.FollowedArtists, err = c.FollowedArtists(gctx); return })
	g.Go(func() (err error) { data.SavedAlbums, err = c.SavedAlbums(gctx); return })
	g.Go(func() (err error) { data.SavedShows, err = c.SavedShows(gctx); return })
	g.Go(func() (err error) { liked, err = c.SavedTracks(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, t := range liked {
		data.LikedTracks[t.ID.ID] = true
	}
	return data, nil
}
