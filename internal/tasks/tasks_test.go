package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/shared"
	tu "github.com/desertthunder/spx/internal/testing"
)

func track(id string) models.Track {
	return models.Track{ID: models.TrackID(id), Name: "Song " + id, Artists: []models.Artist{{Name: "Artist"}}}
}

func tracks(ids ...string) []models.Track {
	out := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, track(id))
	}
	return out
}

func trackIDs(ts []models.Track) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID.ID)
	}
	return out
}

func setupEngine(t *testing.T) (*PlaylistEngine, *tu.FakeClient, *repositories.ImportRepository) {
	t.Helper()

	db, err := shared.OpenCache(":memory:", shared.DatabaseConfig{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client := tu.NewFakeClient()
	client.AddPlaylist(models.Playlist{ID: models.PlaylistID("src"), Name: "Mix", Desc: "road trip"}, tracks("t1", "t2", "t3")...)
	client.AddPlaylist(models.Playlist{ID: models.PlaylistID("dst"), Name: "Target"}, tracks("t2", "t4")...)

	imports := repositories.NewImportRepository(db)
	engine := NewPlaylistEngine(client, imports, log.New(os.Stderr))
	return engine, client, imports
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	src, dst := models.PlaylistID("src"), models.PlaylistID("dst")

	t.Run("AddsMissingTracks", func(t *testing.T) {
		engine, client, imports := setupEngine(t)

		res, err := engine.Import(ctx, nil, src, dst, false)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		if diff := cmp.Diff([]string{"t1", "t3"}, trackIDs(res.Added)); diff != "" {
			t.Errorf("added mismatch (-want +got):\n%s", diff)
		}
		if len(res.Removed) != 0 {
			t.Errorf("expected nothing removed, got %v", trackIDs(res.Removed))
		}
		if diff := cmp.Diff([]string{"t2", "t4", "t1", "t3"}, trackIDs(client.PlaylistItems["dst"])); diff != "" {
			t.Errorf("target mismatch (-want +got):\n%s", diff)
		}
		if res.Source.Name != "Mix" || res.Target.Name != "Target" {
			t.Errorf("unexpected playlists: %+v -> %+v", res.Source, res.Target)
		}

		rec, err := imports.Get(src, dst)
		if err != nil {
			t.Fatalf("import not recorded: %v", err)
		}
		if rec.ID != res.Record || rec.SyncedAt == nil {
			t.Errorf("unexpected record: %+v", rec)
		}
		if !strings.Contains(res.String(), "2 added, 0 removed") {
			t.Errorf("unexpected summary %q", res.String())
		}
	})

	t.Run("DeletesExtraTracks", func(t *testing.T) {
		engine, client, _ := setupEngine(t)

		res, err := engine.Import(ctx, nil, src, dst, true)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		if diff := cmp.Diff([]string{"t4"}, trackIDs(res.Removed)); diff != "" {
			t.Errorf("removed mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"t2", "t1", "t3"}, trackIDs(client.PlaylistItems["dst"])); diff != "" {
			t.Errorf("target mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("NothingToAdd", func(t *testing.T) {
		engine, client, _ := setupEngine(t)
		client.PlaylistItems["dst"] = tracks("t1", "t2", "t3")

		res, err := engine.Import(ctx, nil, src, dst, true)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if len(res.Added) != 0 || len(res.Removed) != 0 {
			t.Errorf("expected no changes, got %+v", res)
		}
		if client.Called("AddPlaylistItems") || client.Called("RemovePlaylistItems") {
			t.Errorf("unexpected writes: %v", client.Calls)
		}
	})

	t.Run("WritesInBatches", func(t *testing.T) {
		engine, client, _ := setupEngine(t)
		ids := make([]string, 250)
		for i := range ids {
			ids[i] = fmt.Sprintf("bulk%03d", i)
		}
		client.AddPlaylist(models.Playlist{ID: models.PlaylistID("big"), Name: "Big"}, tracks(ids...)...)
		client.AddPlaylist(models.Playlist{ID: models.PlaylistID("empty"), Name: "Empty"})
		client.Reset()

		progress := make(chan ProgressUpdate, 32)
		if _, err := engine.Import(ctx, progress, models.PlaylistID("big"), models.PlaylistID("empty"), false); err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		var writes []string
		for _, c := range client.Calls {
			if strings.HasPrefix(c, "AddPlaylistItems") {
				writes = append(writes, c)
			}
		}
		want := []string{
			"AddPlaylistItems(empty, 100)",
			"AddPlaylistItems(empty, 100)",
			"AddPlaylistItems(empty, 50)",
		}
		if diff := cmp.Diff(want, writes); diff != "" {
			t.Errorf("writes mismatch (-want +got):\n%s", diff)
		}
		if got := len(client.PlaylistItems["empty"]); got != 250 {
			t.Errorf("expected 250 tracks, got %d", got)
		}

		close(progress)
		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		for _, p := range []Phase{FetchSource, FetchDest, Compare, AddTracks} {
			if !slices.Contains(phases, p) {
				t.Errorf("missing %s progress update in %v", p, phases)
			}
		}
	})

	t.Run("Validation", func(t *testing.T) {
		engine, _, _ := setupEngine(t)

		tests := []struct {
			name     string
			from, to models.ID
		}{
			{"SamePlaylist", src, src},
			{"NotPlaylist", models.TrackID("t1"), dst},
			{"MissingTarget", src, models.ID{Type: models.PlaylistType}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := engine.Import(ctx, nil, tt.from, tt.to, false)
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("UnknownSource", func(t *testing.T) {
		engine, _, _ := setupEngine(t)
		_, err := engine.Import(ctx, nil, models.PlaylistID("nope"), dst, false)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("WithoutStore", func(t *testing.T) {
		client := tu.NewFakeClient()
		client.AddPlaylist(models.Playlist{ID: src, Name: "Mix"}, tracks("t1")...)
		client.AddPlaylist(models.Playlist{ID: dst, Name: "Target"})
		engine := NewPlaylistEngine(client, nil, nil)

		res, err := engine.Import(ctx, nil, src, dst, false)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if res.Record != "" {
			t.Errorf("expected no record, got %q", res.Record)
		}
	})
}

func TestFork(t *testing.T) {
	ctx := context.Background()

	t.Run("CopiesPlaylist", func(t *testing.T) {
		engine, client, imports := setupEngine(t)

		res, err := engine.Fork(ctx, nil, models.PlaylistID("src"))
		if err != nil {
			t.Fatalf("Fork failed: %v", err)
		}

		if res.Target.Name != "Mix (fork)" || res.Target.OwnerID != "me" {
			t.Errorf("unexpected fork: %+v", res.Target)
		}
		if diff := cmp.Diff([]string{"t1", "t2", "t3"}, trackIDs(client.PlaylistItems[res.Target.ID.ID])); diff != "" {
			t.Errorf("fork tracks mismatch (-want +got):\n%s", diff)
		}
		if !client.Called("CreatePlaylist(me, Mix (fork))") {
			t.Errorf("playlist not created: %v", client.Calls)
		}

		recs, err := imports.ListByTarget(res.Target.ID)
		if err != nil || len(recs) != 1 {
			t.Fatalf("expected fork to be recorded, got %v, %v", recs, err)
		}
	})

	t.Run("RequiresPlaylist", func(t *testing.T) {
		engine, _, _ := setupEngine(t)
		_, err := engine.Fork(ctx, nil, models.AlbumID("a1"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("UnknownPlaylist", func(t *testing.T) {
		engine, client, _ := setupEngine(t)
		_, err := engine.Fork(ctx, nil, models.PlaylistID("nope"))
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if client.Called("CreatePlaylist") {
			t.Error("no playlist should be created")
		}
	})
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	src, dst := models.PlaylistID("src"), models.PlaylistID("dst")

	t.Run("NothingRecorded", func(t *testing.T) {
		engine, _, _ := setupEngine(t)
		if _, err := engine.Sync(ctx, nil, nil, false); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := engine.Sync(ctx, nil, &dst, false); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RepeatsImports", func(t *testing.T) {
		engine, client, _ := setupEngine(t)
		if _, err := engine.Import(ctx, nil, src, dst, false); err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		client.PlaylistItems["src"] = append(client.PlaylistItems["src"], track("t5"))

		results, err := engine.Sync(ctx, nil, nil, false)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if diff := cmp.Diff([]string{"t5"}, trackIDs(results[0].Added)); diff != "" {
			t.Errorf("added mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ByTarget", func(t *testing.T) {
		engine, client, _ := setupEngine(t)
		client.AddPlaylist(models.Playlist{ID: models.PlaylistID("other"), Name: "Other"})
		if _, err := engine.Import(ctx, nil, src, dst, false); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if _, err := engine.Import(ctx, nil, src, models.PlaylistID("other"), false); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		client.Reset()

		other := models.PlaylistID("other")
		results, err := engine.Sync(ctx, nil, &other, true)
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if len(results) != 1 || results[0].Target.ID != other {
			t.Errorf("expected only the other playlist to sync, got %+v", results)
		}
		if client.Called("PlaylistContext(dst)") {
			t.Errorf("dst should not be synced: %v", client.Calls)
		}
	})

	t.Run("ContinuesPastFailures", func(t *testing.T) {
		engine, client, imports := setupEngine(t)
		if _, err := imports.Record(models.PlaylistID("gone"), dst); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if _, err := engine.Import(ctx, nil, src, dst, false); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		client.PlaylistItems["src"] = append(client.PlaylistItems["src"], track("t6"))

		results, err := engine.Sync(ctx, nil, &dst, false)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected joined ErrNotFound, got %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected the healthy import to sync, got %d results", len(results))
		}
	})

	t.Run("WithoutStore", func(t *testing.T) {
		engine := NewPlaylistEngine(tu.NewFakeClient(), nil, nil)
		if _, err := engine.Sync(ctx, nil, nil, false); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestDiffTracks(t *testing.T) {
	missing, extra := diffTracks(tracks("a", "b", "b", "c"), tracks("c", "d", "d"))
	if diff := cmp.Diff([]string{"a", "b"}, trackIDs(missing)); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d"}, trackIDs(extra)); diff != "" {
		t.Errorf("extra mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		format      string
		ids         []string
		wantSuccess int
		wantFailed  int
		wantFiles   []string
	}{
		{"JSON", "json", []string{"src", "dst"}, 2, 0, []string{"src.json", "dst.json"}},
		{"CSV", "csv", []string{"src"}, 1, 0, []string{"src_tracks.csv", "src_metadata.json"}},
		{"Markdown", "markdown", []string{"dst"}, 1, 0, []string{filepath.Join("dst", "README.md")}},
		{"PartialFailure", "txt", []string{"src", "missing"}, 1, 1, []string{"src_tracks.txt"}},
		{"UnknownFormat", "xml", []string{"src"}, 0, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := setupEngine(t)
			dir := t.TempDir()

			progress := make(chan ProgressUpdate, 16)
			res, err := engine.BulkExport(ctx, progress, tt.ids, BulkExportOpts{
				Format:     tt.format,
				OutputDir:  dir,
				NumWorkers: 2,
				RateLimit:  1000,
			})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if res.TotalPlaylists != len(tt.ids) || res.SuccessfulExports != tt.wantSuccess || res.FailedExports != tt.wantFailed {
				t.Errorf("unexpected counts: %+v", res)
			}
			for _, f := range tt.wantFiles {
				tu.AssertFileExists(t, filepath.Join(dir, f))
			}
			if res.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %q", res.ManifestPath)
			}
			tu.AssertFileExists(t, res.ManifestPath)

			if tt.wantFailed > 0 {
				manifest := tu.MustReadFile(t, res.ManifestPath)
				if !strings.Contains(manifest, `"status": "failed"`) {
					t.Errorf("manifest missing failure:\n%s", manifest)
				}
			}
		})
	}

	t.Run("Cancelled", func(t *testing.T) {
		engine, _, _ := setupEngine(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := engine.BulkExport(cctx, nil, []string{"src", "dst"}, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if res == nil || res.ManifestPath != "" {
			t.Errorf("expected partial result without manifest, got %+v", res)
		}
	})

	t.Run("ExportPlaylist", func(t *testing.T) {
		engine, _, _ := setupEngine(t)
		dir := t.TempDir()

		files, err := engine.ExportPlaylist(ctx, "src", "txt", dir)
		if err != nil {
			t.Fatalf("ExportPlaylist failed: %v", err)
		}
		content := tu.MustReadFile(t, files[0])
		if !strings.Contains(content, "1. Artist - Song t1") {
			t.Errorf("unexpected export:\n%s", content)
		}
	})
}
