package tasks

import (
	"fmt"

	"github.com/desertthunder/spx/internal/models"
)

// ProgressUpdate reports a step of a long-running playlist operation.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any // *models.Playlist or *models.PlaylistImport, when the phase has one
}

type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Compare
	AddTracks
	RemoveTracks
	CreatePlaylist
	SyncImports
	ExportPlaylist
)

var phaseNames = [...]string{
	FetchSource:    "fetch_source",
	FetchDest:      "fetch_dest",
	Compare:        "compare",
	AddTracks:      "add_tracks",
	RemoveTracks:   "remove_tracks",
	CreatePlaylist: "create_playlist",
	SyncImports:    "sync_imports",
	ExportPlaylist: "export_playlist",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return ""
	}
	return phaseNames[p]
}

func newUpdate(p Phase, step, total int, format string, args ...any) ProgressUpdate {
	return ProgressUpdate{Phase: p, Step: step, Total: total, Message: fmt.Sprintf(format, args...)}
}

func fetchUpdate(p Phase, id string) ProgressUpdate {
	side := "source"
	if p == FetchDest {
		side = "target"
	}
	return newUpdate(p, 1, 1, "Fetching %s playlist (%s)...", side, id)
}

func compareUpdate(src, dst int) ProgressUpdate {
	return newUpdate(Compare, 1, 1, "Comparing %d source tracks with %d target tracks...", src, dst)
}

func writeTracksUpdate(p Phase, step, total, n int) ProgressUpdate {
	verb := "Adding"
	if p == RemoveTracks {
		verb = "Removing"
	}
	return newUpdate(p, step, total, "[%d/%d] %s %d tracks...", step, total, verb, n)
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	if pl == nil {
		return newUpdate(CreatePlaylist, 1, 1, "Creating playlist on Spotify...")
	}
	u := newUpdate(CreatePlaylist, 1, 1, "Playlist created: %s (ID: %s)", pl.Name, pl.ID.ID)
	u.Data = pl
	return u
}

func syncUpdate(step, total int, rec *models.PlaylistImport) ProgressUpdate {
	u := newUpdate(SyncImports, step, total, "[%d/%d] Syncing %s -> %s", step, total, rec.Source.ID, rec.Target.ID)
	u.Data = rec
	return u
}

// exportUpdate reports a playlist export starting (err nil, files 0),
// finishing or failing.
func exportUpdate(step, total int, name string, files int, err error) ProgressUpdate {
	switch {
	case err != nil:
		return newUpdate(ExportPlaylist, step, total, "[%d/%d] ✗ %s: %v", step, total, name, err)
	case files > 0:
		return newUpdate(ExportPlaylist, step, total, "[%d/%d] ✓ %s (%d files)", step, total, name, files)
	default:
		return newUpdate(ExportPlaylist, step, total, "[%d/%d] Exporting: %s...", step, total, name)
	}
}
