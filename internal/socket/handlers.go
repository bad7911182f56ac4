package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/player"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// ImportCleaner forgets recorded imports of a deleted playlist.
// Implemented by repositories.ImportRepository.
type ImportCleaner interface {
	DeleteByPlaylist(playlist models.ID) (int64, error)
}

// Handler answers CLI requests with the Web API client, the player and the
// playlist engine.
type Handler struct {
	client    services.Client
	player    *player.Player
	playlists *tasks.PlaylistEngine
	imports   ImportCleaner
	logger    *log.Logger

	// TracksLimit caps liked-track playback when a request sets no limit.
	TracksLimit int

	shuffle func([]models.Track)
}

// NewHandler creates a handler. imports may be nil.
func NewHandler(client services.Client, p *player.Player, playlists *tasks.PlaylistEngine, imports ImportCleaner, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		client:      client,
		player:      p,
		playlists:   playlists,
		imports:     imports,
		logger:      logger,
		TracksLimit: 50,
		shuffle: func(tracks []models.Track) {
			rand.Shuffle(len(tracks), func(i, j int) { tracks[i], tracks[j] = tracks[j], tracks[i] })
		},
	}
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return data, nil
}

// Handle dispatches req on its variant.
func (h *Handler) Handle(ctx context.Context, req *Request) ([]byte, error) {
	switch req.Kind() {
	case "get":
		return h.get(ctx, req.Get)
	case "playback":
		return nil, h.playback(ctx, req.Playback)
	case "connect":
		return nil, h.connect(ctx, *req.Connect)
	case "like":
		return nil, h.like(ctx, req.Like.Unlike)
	case "playlist":
		return h.playlist(ctx, req.Playlist)
	case "search":
		if req.Search.Query == "" {
			return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
		}
		results, err := h.client.Search(ctx, req.Search.Query)
		if err != nil {
			return nil, err
		}
		return encode(results)
	default:
		return nil, fmt.Errorf("%w: request must set exactly one variant", shared.ErrInvalidInput)
	}
}

func (h *Handler) get(ctx context.Context, req *GetRequest) ([]byte, error) {
	if req.Item != nil {
		return h.getItem(ctx, *req.Item)
	}

	var (
		v   any
		err error
	)
	switch req.Key {
	case KeyPlayback:
		v, err = h.player.Refresh(ctx)
	case KeyDevices:
		v, err = h.client.Devices(ctx)
	case KeyUserPlaylists:
		v, err = h.client.UserPlaylists(ctx)
	case KeyUserLikedTracks:
		v, err = h.client.SavedTracks(ctx)
	case KeyUserSavedAlbums:
		v, err = h.client.SavedAlbums(ctx)
	case KeyUserFollowedArtists:
		v, err = h.client.FollowedArtists(ctx)
	case KeyUserTopTracks:
		v, err = h.client.TopTracks(ctx)
	case KeyQueue:
		v, err = h.client.Queue(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown key %q", shared.ErrInvalidInput, req.Key)
	}
	if err != nil {
		return nil, err
	}
	return encode(v)
}

func (h *Handler) getItem(ctx context.Context, item Item) ([]byte, error) {
	id, err := h.resolve(ctx, item.Type, item.IdOrName)
	if err != nil {
		return nil, err
	}

	var v any
	switch id.Type {
	case models.PlaylistType:
		v, err = h.client.PlaylistContext(ctx, id.ID)
	case models.AlbumType:
		v, err = h.client.AlbumContext(ctx, id.ID)
	case models.ArtistType:
		v, err = h.client.ArtistContext(ctx, id.ID)
	case models.TrackType:
		v, err = h.client.Track(ctx, id.ID)
	}
	if err != nil {
		return nil, err
	}
	return encode(v)
}

// resolve turns an item reference into an ID. Names resolve to the first search
// result of the type.
func (h *Handler) resolve(ctx context.Context, t models.ItemType, ref IdOrName) (models.ID, error) {
	switch t {
	case models.PlaylistType, models.AlbumType, models.ArtistType, models.TrackType:
	default:
		return models.ID{}, fmt.Errorf("%w: unsupported item type %q", shared.ErrInvalidInput, t)
	}
	if err := ref.Validate(); err != nil {
		return models.ID{}, err
	}
	if ref.ID != "" {
		return ParseTarget(ref.ID, t)
	}

	results, err := h.client.SearchType(ctx, ref.Name, t, 1)
	if err != nil {
		return models.ID{}, fmt.Errorf("failed to search for %s: %w", t, err)
	}

	var found models.ID
	switch {
	case t == models.PlaylistType && len(results.Playlists) > 0:
		found = results.Playlists[0].ID
	case t == models.AlbumType && len(results.Albums) > 0:
		found = results.Albums[0].ID
	case t == models.ArtistType && len(results.Artists) > 0:
		found = results.Artists[0].ID
	case t == models.TrackType && len(results.Tracks) > 0:
		found = results.Tracks[0].ID
	}
	if found.IsZero() {
		return models.ID{}, fmt.Errorf("%w: cannot find %s with name='%s'", shared.ErrNotFound, t, ref.Name)
	}
	h.logger.Debug("resolved item name", "type", t, "name", ref.Name, "id", found.ID)
	return found, nil
}

func (h *Handler) playback(ctx context.Context, cmd *PlaybackCommand) error {
	if _, err := h.player.Refresh(ctx); err != nil {
		return err
	}

	switch cmd.Command {
	case StartContext:
		if !cmd.ContextType.IsContext() || cmd.ContextType == models.ShowType {
			return fmt.Errorf("%w: context type must be playlist, album or artist", shared.ErrInvalidInput)
		}
		id, err := h.resolve(ctx, cmd.ContextType, deref(cmd.Target))
		if err != nil {
			return err
		}
		var shuffle *bool
		if cmd.Shuffle {
			shuffle = &cmd.Shuffle
		}
		return h.player.Handle(ctx, player.Start(models.ContextPlayback(id, nil), shuffle))
	case StartTrack:
		id, err := h.resolve(ctx, models.TrackType, deref(cmd.Target))
		if err != nil {
			return err
		}
		return h.player.Handle(ctx, player.Start(models.URIsPlayback([]models.ID{id}, nil), nil))
	case StartLikedTracks:
		return h.startLiked(ctx, cmd.Limit, cmd.Random)
	case StartRadio:
		id, err := h.resolve(ctx, cmd.ItemType, deref(cmd.Target))
		if err != nil {
			return err
		}
		tracks, err := h.client.RadioTracks(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get radio tracks: %w", err)
		}
		if len(tracks) == 0 {
			return fmt.Errorf("%w: no radio tracks for %s", shared.ErrNotFound, id)
		}
		return h.player.Handle(ctx, player.Start(models.URIsPlayback(models.IDs(tracks), nil), nil))
	case PlayPause:
		return h.player.Handle(ctx, player.Do(player.ResumePause))
	case Play:
		return h.player.Handle(ctx, player.Do(player.Resume))
	case Pause:
		return h.player.Handle(ctx, player.Do(player.Pause))
	case Next:
		return h.player.Handle(ctx, player.Do(player.NextTrack))
	case Previous:
		return h.player.Handle(ctx, player.Do(player.PreviousTrack))
	case Shuffle:
		return h.player.Handle(ctx, player.Do(player.Shuffle))
	case Repeat:
		return h.player.Handle(ctx, player.Do(player.Repeat))
	case Volume:
		if cmd.IsOffset {
			return h.player.Handle(ctx, player.ChangeVolume(cmd.Percent))
		}
		if cmd.Percent < 0 || cmd.Percent > 100 {
			return fmt.Errorf("%w: volume must be within 0..100, got %d", shared.ErrInvalidInput, cmd.Percent)
		}
		return h.player.Handle(ctx, player.SetVolume(cmd.Percent))
	case Seek:
		return h.player.Handle(ctx, player.SeekBy(time.Duration(cmd.OffsetMS)*time.Millisecond))
	default:
		return fmt.Errorf("%w: unknown playback command %q", shared.ErrInvalidInput, cmd.Command)
	}
}

func deref(v *IdOrName) IdOrName {
	if v == nil {
		return IdOrName{}
	}
	return *v
}

// startLiked plays the first limit liked tracks, shuffling them first when random.
func (h *Handler) startLiked(ctx context.Context, limit int, random bool) error {
	tracks, err := h.client.SavedTracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get liked tracks: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no liked tracks", shared.ErrNotFound)
	}
	if random {
		h.shuffle(tracks)
	}
	if limit <= 0 {
		limit = h.TracksLimit
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return h.player.Handle(ctx, player.Start(models.URIsPlayback(models.IDs(tracks), nil), nil))
}

func (h *Handler) connect(ctx context.Context, ref IdOrName) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	id := ref.ID
	if id == "" {
		devices, err := h.client.Devices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}
		d, ok := player.FindDevice(devices, "", ref.Name)
		if !ok {
			return fmt.Errorf("%w: no device with name=%s found", shared.ErrDeviceNotFound, ref.Name)
		}
		id = d.ID
	}
	return h.player.Handle(ctx, player.Transfer(id, false))
}

func (h *Handler) like(ctx context.Context, unlike bool) error {
	state, err := h.player.Refresh(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return shared.ErrNoPlayback
	}
	if state.Track == nil {
		h.logger.Info("current item is not a track, nothing to like")
		return nil
	}

	ids := []models.ID{state.Track.ID}
	if unlike {
		return h.client.RemoveItems(ctx, ids)
	}
	return h.client.SaveItems(ctx, ids)
}

func (h *Handler) playlist(ctx context.Context, cmd *PlaylistCommand) ([]byte, error) {
	switch cmd.Command {
	case PlaylistNew:
		if cmd.Name == "" {
			return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
		}
		user, err := h.client.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		created, err := h.client.CreatePlaylist(ctx, user.ID, services.NewPlaylist{
			Name:          cmd.Name,
			Description:   cmd.Description,
			Public:        cmd.Public,
			Collaborative: cmd.Collab,
		})
		if err != nil {
			return nil, err
		}
		return encode(created)
	case PlaylistDelete:
		id, err := ParseTarget(cmd.ID, models.PlaylistType)
		if err != nil {
			return nil, err
		}
		if err := h.client.RemoveItems(ctx, []models.ID{id}); err != nil {
			return nil, fmt.Errorf("failed to delete playlist: %w", err)
		}
		if h.imports != nil {
			n, err := h.imports.DeleteByPlaylist(id)
			if err != nil {
				h.logger.Warn("failed to forget playlist imports", "playlist", id.ID, "error", err)
			} else if n > 0 {
				h.logger.Info("forgot playlist imports", "playlist", id.ID, "count", n)
			}
		}
		return encode(map[string]string{"deleted": id.URI()})
	case PlaylistList:
		playlists, err := h.client.UserPlaylists(ctx)
		if err != nil {
			return nil, err
		}
		return encode(playlists)
	case PlaylistImport:
		from, err := ParseTarget(cmd.From, models.PlaylistType)
		if err != nil {
			return nil, err
		}
		to, err := ParseTarget(cmd.To, models.PlaylistType)
		if err != nil {
			return nil, err
		}
		result, err := h.playlists.Import(ctx, nil, from, to, cmd.Delete)
		if err != nil {
			return nil, err
		}
		return encode(result)
	case PlaylistFork:
		id, err := ParseTarget(cmd.ID, models.PlaylistType)
		if err != nil {
			return nil, err
		}
		result, err := h.playlists.Fork(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		return encode(result)
	case PlaylistSync:
		var target *models.ID
		if cmd.ID != "" {
			id, err := ParseTarget(cmd.ID, models.PlaylistType)
			if err != nil {
				return nil, err
			}
			target = &id
		}
		results, err := h.playlists.Sync(ctx, nil, target, cmd.Delete)
		if err != nil {
			return nil, err
		}
		return encode(results)
	case PlaylistEdit:
		return nil, h.editPlaylist(ctx, cmd)
	default:
		return nil, fmt.Errorf("%w: unknown playlist command %q", shared.ErrInvalidInput, cmd.Command)
	}
}

func (h *Handler) editPlaylist(ctx context.Context, cmd *PlaylistCommand) error {
	playlist, err := ParseTarget(cmd.PlaylistID, models.PlaylistType)
	if err != nil {
		return err
	}
	track, err := ParseTarget(cmd.TrackID, models.TrackType)
	if err != nil {
		return err
	}

	ids := []models.ID{track}
	switch cmd.Action {
	case EditAdd:
		return h.client.AddPlaylistItems(ctx, playlist.ID, ids)
	case EditDelete:
		return h.client.RemovePlaylistItems(ctx, playlist.ID, ids)
	default:
		return fmt.Errorf("%w: edit action must be add or delete, got %q", shared.ErrInvalidInput, cmd.Action)
	}
}
