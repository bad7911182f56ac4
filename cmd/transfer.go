package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/socket"
	"github.com/desertthunder/spx/internal/tasks"
)

func (r *Runner) playlist(ctx context.Context, cmd *cli.Command, pc socket.PlaylistCommand) error {
	return r.request(ctx, cmd, &socket.Request{Playlist: &pc})
}

func requiredArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// PlaylistNew creates a playlist owned by the user.
func (r *Runner) PlaylistNew(ctx context.Context, cmd *cli.Command) error {
	name, err := requiredArg(cmd, "name")
	if err != nil {
		return err
	}
	return r.playlist(ctx, cmd, socket.PlaylistCommand{
		Command:     socket.PlaylistNew,
		Name:        name,
		Public:      cmd.Bool("public"),
		Collab:      cmd.Bool("collab"),
		Description: cmd.String("description"),
	})
}

// PlaylistDelete unfollows a playlist and forgets its recorded imports.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}
	return r.playlist(ctx, cmd, socket.PlaylistCommand{Command: socket.PlaylistDelete, ID: id})
}

// PlaylistList prints the user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	return r.playlist(ctx, cmd, socket.PlaylistCommand{Command: socket.PlaylistList})
}

// PlaylistImport adds the tracks of one playlist that are missing from another.
func (r *Runner) PlaylistImport(ctx context.Context, cmd *cli.Command) error {
	from, err := requiredArg(cmd, "from")
	if err != nil {
		return err
	}
	to, err := requiredArg(cmd, "to")
	if err != nil {
		return err
	}
	r.logger.Info("importing playlist", "from", from, "to", to, "delete", cmd.Bool("delete"))
	return r.playlist(ctx, cmd, socket.PlaylistCommand{
		Command: socket.PlaylistImport,
		From:    from,
		To:      to,
		Delete:  cmd.Bool("delete"),
	})
}

// PlaylistFork copies a playlist into a new one.
func (r *Runner) PlaylistFork(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}
	return r.playlist(ctx, cmd, socket.PlaylistCommand{Command: socket.PlaylistFork, ID: id})
}

// PlaylistSync re-runs recorded imports. Without an id every import is synced.
func (r *Runner) PlaylistSync(ctx context.Context, cmd *cli.Command) error {
	return r.playlist(ctx, cmd, socket.PlaylistCommand{
		Command: socket.PlaylistSync,
		ID:      strings.TrimSpace(cmd.StringArg("id")),
		Delete:  cmd.Bool("delete"),
	})
}

// PlaylistEdit adds a track to or deletes a track from a playlist.
func (r *Runner) PlaylistEdit(ctx context.Context, cmd *cli.Command) error {
	action := socket.EditAction(strings.ToLower(cmd.StringArg("action")))
	if action != socket.EditAdd && action != socket.EditDelete {
		return fmt.Errorf("%w: edit action must be add or delete, got %q", shared.ErrInvalidArgument, action)
	}
	return r.playlist(ctx, cmd, socket.PlaylistCommand{
		Command:    socket.PlaylistEdit,
		Action:     action,
		PlaylistID: cmd.String("playlist-id"),
		TrackID:    cmd.String("track-id"),
	})
}

// PlaylistExport writes playlists to files without going through a running instance.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if cmd.Bool("all") {
		playlists, err := client.UserPlaylists(ctx)
		if err != nil {
			return fmt.Errorf("failed to list playlists: %w", err)
		}
		ids = ids[:0]
		for _, p := range playlists {
			ids = append(ids, p.ID.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: playlist ids or --all", shared.ErrMissingArgument)
	}

	for i, id := range ids {
		target, err := socket.ParseTarget(id, models.PlaylistType)
		if err != nil {
			return err
		}
		ids[i] = target.ID
	}

	engine := tasks.NewPlaylistEngine(client, nil, r.logger)

	r.logger.Info("starting export", "playlists", len(ids), "format", cmd.String("export-format"))
	r.writePlain("Exporting %d playlists...\n\n", len(ids))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := engine.BulkExport(ctx, progressCh, ids, tasks.BulkExportOpts{
		Format:     cmd.String("export-format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %s/%s playlists\n", humanize.Comma(int64(result.SuccessfulExports)), humanize.Comma(int64(result.TotalPlaylists)))
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d playlists:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.PlaylistID, res.Error)
			}
		}
	}
	return nil
}
