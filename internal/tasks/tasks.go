package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// batchSize is the Web API limit on items per playlist write.
const batchSize = 100

// ImportStore persists playlist imports so that they can be synced later.
// Implemented by repositories.ImportRepository.
type ImportStore interface {
	Record(source, target models.ID) (*models.PlaylistImport, error)
	List() ([]*models.PlaylistImport, error)
	ListByTarget(target models.ID) ([]*models.PlaylistImport, error)
	MarkSynced(id string, at time.Time) error
}

// ImportResult summarises one import of a source playlist into a target.
type ImportResult struct {
	Source  *models.Playlist `json:"source"`
	Target  *models.Playlist `json:"target"`
	Added   []models.Track   `json:"added"`
	Removed []models.Track   `json:"removed"`
	Record  string           `json:"record_id,omitempty"`
}

func (r *ImportResult) String() string {
	return fmt.Sprintf("Imported %q into %q: %d added, %d removed", r.Source.Name, r.Target.Name, len(r.Added), len(r.Removed))
}

// PlaylistEngine runs multi-step playlist operations against the Web API.
type PlaylistEngine struct {
	client  services.Client
	imports ImportStore
	logger  *log.Logger
	now     func() time.Time
}

// NewPlaylistEngine creates an engine. imports may be nil, in which case imports
// are not recorded and [PlaylistEngine.Sync] is unavailable.
func NewPlaylistEngine(client services.Client, imports ImportStore, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &PlaylistEngine{client: client, imports: imports, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Import adds every track of from that is missing in to. With deleteExtra, tracks
// of to that are absent from from are removed. The pair is recorded for [PlaylistEngine.Sync].
func (e *PlaylistEngine) Import(ctx context.Context, progress chan<- ProgressUpdate, from, to models.ID, deleteExtra bool) (*ImportResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}
	if err := (&models.PlaylistImport{Source: from, Target: to}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var src, dst *models.Context
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		e.sendProgress(progress, fetchUpdate(FetchSource, from.ID))
		src, err = e.client.PlaylistContext(gctx, from.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch source playlist: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		e.sendProgress(progress, fetchUpdate(FetchDest, to.ID))
		dst, err = e.client.PlaylistContext(gctx, to.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch target playlist: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, compareUpdate(len(src.Tracks), len(dst.Tracks)))
	missing, extra := diffTracks(src.Tracks, dst.Tracks)

	result := &ImportResult{Source: src.Playlist, Target: dst.Playlist, Added: missing}

	if err := e.writeChunks(ctx, progress, AddTracks, missing, func(ids []models.ID) error {
		return e.client.AddPlaylistItems(ctx, to.ID, ids)
	}); err != nil {
		return result, fmt.Errorf("failed to add tracks: %w", err)
	}

	if deleteExtra && len(extra) > 0 {
		if err := e.writeChunks(ctx, progress, RemoveTracks, extra, func(ids []models.ID) error {
			return e.client.RemovePlaylistItems(ctx, to.ID, ids)
		}); err != nil {
			return result, fmt.Errorf("failed to remove tracks: %w", err)
		}
		result.Removed = extra
	}

	if e.imports != nil {
		rec, err := e.imports.Record(from, to)
		if err != nil {
			e.logger.Warn("failed to record playlist import", "source", from.ID, "target", to.ID, "error", err)
		} else {
			result.Record = rec.ID
			if err := e.imports.MarkSynced(rec.ID, e.now()); err != nil {
				e.logger.Warn("failed to mark import synced", "id", rec.ID, "error", err)
			}
		}
	}

	e.logger.Info("playlist import complete", "source", from.ID, "target", to.ID, "added", len(result.Added), "removed", len(result.Removed))
	return result, nil
}

// writeChunks applies write to the track ids in batches of [batchSize].
func (e *PlaylistEngine) writeChunks(ctx context.Context, progress chan<- ProgressUpdate, phase Phase, tracks []models.Track, write func([]models.ID) error) error {
	ids := make([]models.ID, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}

	total := (len(ids) + batchSize - 1) / batchSize
	step := 0
	for chunk := range slices.Chunk(ids, batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		step++
		e.sendProgress(progress, writeTracksUpdate(phase, step, total, len(chunk)))
		if err := write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// diffTracks returns tracks of src missing from dst and tracks of dst missing from src,
// each in their original order without duplicates.
func diffTracks(src, dst []models.Track) (missing, extra []models.Track) {
	inSrc := make(map[models.ID]bool, len(src))
	for _, t := range src {
		inSrc[t.ID] = true
	}
	inDst := make(map[models.ID]bool, len(dst))
	for _, t := range dst {
		inDst[t.ID] = true
	}

	seen := make(map[models.ID]bool)
	for _, t := range src {
		if !inDst[t.ID] && !seen[t.ID] {
			seen[t.ID] = true
			missing = append(missing, t)
		}
	}
	for _, t := range dst {
		if !inSrc[t.ID] && !seen[t.ID] {
			seen[t.ID] = true
			extra = append(extra, t)
		}
	}
	return missing, extra
}

// Fork copies a playlist into a new playlist named "<name> (fork)" owned by the
// current user.
func (e *PlaylistEngine) Fork(ctx context.Context, progress chan<- ProgressUpdate, id models.ID) (*ImportResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}
	if id.Type != models.PlaylistType || id.IsZero() {
		return nil, fmt.Errorf("%w: fork requires a playlist id", shared.ErrInvalidInput)
	}

	src, err := e.client.Playlist(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	user, err := e.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	e.sendProgress(progress, createPlaylistUpdate(nil))
	created, err := e.client.CreatePlaylist(ctx, user.ID, services.NewPlaylist{
		Name:        src.Name + " (fork)",
		Description: src.Desc,
		Public:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	e.sendProgress(progress, createPlaylistUpdate(created))

	return e.Import(ctx, progress, id, created.ID, false)
}

// Sync re-runs recorded imports: those into target when it is set, otherwise all of them.
func (e *PlaylistEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, target *models.ID, deleteExtra bool) ([]*ImportResult, error) {
	if e.imports == nil {
		return nil, fmt.Errorf("%w: playlist import store not configured", shared.ErrServiceUnavailable)
	}

	var (
		records []*models.PlaylistImport
		err     error
	)
	if target != nil {
		records, err = e.imports.ListByTarget(*target)
	} else {
		records, err = e.imports.List()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist imports: %w", err)
	}
	if len(records) == 0 {
		if target != nil {
			return nil, fmt.Errorf("%w: no imports recorded into %s", shared.ErrNotFound, target.ID)
		}
		return nil, fmt.Errorf("%w: no imports recorded", shared.ErrNotFound)
	}

	var (
		results []*ImportResult
		errs    []error
	)
	for i, rec := range records {
		e.sendProgress(progress, syncUpdate(i+1, len(records), rec))
		res, err := e.Import(ctx, progress, rec.Source, rec.Target, deleteExtra)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("sync %s -> %s: %w", rec.Source.ID, rec.Target.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
