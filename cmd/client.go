package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/socket"
)

// request sends req to the running instance and prints the response.
func (r *Runner) request(ctx context.Context, cmd *cli.Command, req *socket.Request) error {
	r.logger.Debug("sending request", "kind", req.Kind(), "port", r.config.ClientPort)

	resp, err := r.send(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Error(); err != nil {
		return err
	}
	if len(resp.Ok) == 0 {
		return r.writePlain("OK\n")
	}

	if cmd.String("format") == "table" {
		table, ok, err := renderTable(req, resp.Ok)
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if ok {
			return r.writePlain("%s\n", table)
		}
	}

	return r.writeJSON(resp.Ok, true)
}

func decode[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// renderTable renders responses that have a tabular form. ok is false for the rest.
func renderTable(req *socket.Request, data []byte) (string, bool, error) {
	switch {
	case req.Get != nil && req.Get.Item != nil:
		if req.Get.Item.Type == models.TrackType {
			t, err := decode[models.Track](data)
			return formatter.TracksTable([]models.Track{t}), err == nil, err
		}
		c, err := decode[models.Context](data)
		if err != nil {
			return "", false, err
		}
		if c.Kind == models.ArtistContext {
			return formatter.TracksTable(c.Tracks) + "\n" + formatter.AlbumsTable(c.Albums), true, nil
		}
		return formatter.TracksTable(c.Tracks), true, nil
	case req.Get != nil:
		return renderKey(req.Get.Key, data)
	case req.Search != nil:
		res, err := decode[models.SearchResults](data)
		return formatter.SearchTable(&res), err == nil, err
	case req.Playlist != nil && req.Playlist.Command == socket.PlaylistList:
		pls, err := decode[[]models.Playlist](data)
		return formatter.PlaylistsTable(pls), err == nil, err
	}
	return "", false, nil
}

func renderKey(key socket.Key, data []byte) (string, bool, error) {
	switch key {
	case socket.KeyPlayback:
		st, err := decode[*models.PlaybackState](data)
		return formatter.PlaybackTable(st), err == nil, err
	case socket.KeyDevices:
		devices, err := decode[[]models.Device](data)
		return formatter.DevicesTable(devices), err == nil, err
	case socket.KeyUserPlaylists:
		pls, err := decode[[]models.Playlist](data)
		return formatter.PlaylistsTable(pls), err == nil, err
	case socket.KeyUserLikedTracks, socket.KeyUserTopTracks:
		tracks, err := decode[[]models.Track](data)
		return formatter.TracksTable(tracks), err == nil, err
	case socket.KeyUserSavedAlbums:
		albums, err := decode[[]models.Album](data)
		return formatter.AlbumsTable(albums), err == nil, err
	case socket.KeyUserFollowedArtists:
		artists, err := decode[[]models.Artist](data)
		return formatter.ArtistsTable(artists), err == nil, err
	case socket.KeyQueue:
		q, err := decode[models.Queue](data)
		return formatter.TracksTable(q.Queue), err == nil, err
	}
	return "", false, nil
}

func idOrName(cmd *cli.Command) (socket.IdOrName, error) {
	v := socket.IdOrName{ID: cmd.String("id"), Name: cmd.String("name")}
	return v, v.Validate()
}

func itemType(s string) (models.ItemType, error) {
	if s == "" {
		return "", fmt.Errorf("%w: item type", shared.ErrMissingArgument)
	}
	return models.ParseItemType(strings.ToLower(s))
}

// GetKey prints the data stored under a key.
func (r *Runner) GetKey(ctx context.Context, cmd *cli.Command) error {
	key, err := socket.ParseKey(cmd.StringArg("key"))
	if err != nil {
		return err
	}
	return r.request(ctx, cmd, &socket.Request{Get: &socket.GetRequest{Key: key}})
}

// GetItem prints a playlist, album or artist context, or a track.
func (r *Runner) GetItem(ctx context.Context, cmd *cli.Command) error {
	t, err := itemType(cmd.StringArg("type"))
	if err != nil {
		return err
	}
	ref, err := idOrName(cmd)
	if err != nil {
		return err
	}
	return r.request(ctx, cmd, &socket.Request{Get: &socket.GetRequest{Item: &socket.Item{Type: t, IdOrName: ref}}})
}

func (r *Runner) playback(ctx context.Context, cmd *cli.Command, pc socket.PlaybackCommand) error {
	return r.request(ctx, cmd, &socket.Request{Playback: &pc})
}

// PlaybackStartContext starts a playlist, album or artist.
func (r *Runner) PlaybackStartContext(ctx context.Context, cmd *cli.Command) error {
	t, err := itemType(cmd.StringArg("context_type"))
	if err != nil {
		return err
	}
	if !t.IsContext() || t == models.ShowType {
		return fmt.Errorf("%w: %s is not a context type", shared.ErrInvalidArgument, t)
	}
	ref, err := idOrName(cmd)
	if err != nil {
		return err
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{
		Command:     socket.StartContext,
		ContextType: t,
		Target:      &ref,
		Shuffle:     cmd.Bool("shuffle"),
	})
}

// PlaybackStartTrack plays a single track.
func (r *Runner) PlaybackStartTrack(ctx context.Context, cmd *cli.Command) error {
	ref, err := idOrName(cmd)
	if err != nil {
		return err
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{Command: socket.StartTrack, Target: &ref})
}

// PlaybackStartLiked plays the user's liked tracks.
func (r *Runner) PlaybackStartLiked(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", shared.ErrInvalidFlag)
	}
	if limit == 0 {
		limit = r.config.TracksPlaybackLimit
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{
		Command: socket.StartLikedTracks,
		Limit:   limit,
		Random:  cmd.Bool("random"),
	})
}

// PlaybackStartRadio starts a radio seeded by an item.
func (r *Runner) PlaybackStartRadio(ctx context.Context, cmd *cli.Command) error {
	t, err := itemType(cmd.StringArg("item_type"))
	if err != nil {
		return err
	}
	ref, err := idOrName(cmd)
	if err != nil {
		return err
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{Command: socket.StartRadio, ItemType: t, Target: &ref})
}

var simpleActions = map[string]socket.Action{
	"play-pause": socket.PlayPause,
	"play":       socket.Play,
	"pause":      socket.Pause,
	"next":       socket.Next,
	"previous":   socket.Previous,
	"shuffle":    socket.Shuffle,
	"repeat":     socket.Repeat,
}

// PlaybackSimple handles the playback commands without arguments.
func (r *Runner) PlaybackSimple(ctx context.Context, cmd *cli.Command) error {
	action, ok := simpleActions[cmd.Name]
	if !ok {
		return fmt.Errorf("%w: unknown playback command %q", shared.ErrInvalidInput, cmd.Name)
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{Command: action})
}

// PlaybackVolume sets or offsets the volume.
func (r *Runner) PlaybackVolume(ctx context.Context, cmd *cli.Command) error {
	percent, offset := cmd.Int("percent"), cmd.Bool("offset")
	if !offset && (percent < 0 || percent > 100) {
		return fmt.Errorf("%w: volume must be between 0 and 100", shared.ErrInvalidFlag)
	}
	return r.playback(ctx, cmd, socket.PlaybackCommand{Command: socket.Volume, Percent: percent, IsOffset: offset})
}

// PlaybackSeek seeks relative to the current position.
func (r *Runner) PlaybackSeek(ctx context.Context, cmd *cli.Command) error {
	return r.playback(ctx, cmd, socket.PlaybackCommand{Command: socket.Seek, OffsetMS: int64(cmd.Int("offset-ms"))})
}

// Connect transfers the playback to a device.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	ref, err := idOrName(cmd)
	if err != nil {
		return err
	}
	return r.request(ctx, cmd, &socket.Request{Connect: &ref})
}

// Like likes or unlikes the playing track.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	return r.request(ctx, cmd, &socket.Request{Like: &socket.LikeRequest{Unlike: cmd.Bool("unlike")}})
}

// Search prints the results of a query across item types.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	return r.request(ctx, cmd, &socket.Request{Search: &socket.SearchRequest{Query: query}})
}
