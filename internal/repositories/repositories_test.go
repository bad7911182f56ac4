package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenCache(":memory:", shared.DatabaseConfig{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "playlist_imports")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestLyricRepository(t *testing.T) {
	t.Run("Put and Get", func(t *testing.T) {
		repo := NewLyricRepository(setupTestDB(t))

		in := &models.Lyrics{Query: "hey jude beatles", Found: true, Track: "Hey Jude", Artists: "The Beatles", Lyric: "[Verse 1]\nHey Jude"}
		if err := repo.Put(in); err != nil {
			t.Fatalf("failed to save lyrics: %v", err)
		}

		got, err := repo.Get("hey jude beatles")
		if err != nil {
			t.Fatalf("failed to get lyrics: %v", err)
		}
		if !got.Found || got.Track != "Hey Jude" || got.Lyric != in.Lyric {
			t.Errorf("unexpected lyrics %+v", got)
		}
		if got.CreatedAt.IsZero() {
			t.Error("created_at should be set")
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		repo := NewLyricRepository(setupTestDB(t))

		if err := repo.Put(&models.Lyrics{Query: "q"}); err != nil {
			t.Fatal(err)
		}
		if err := repo.Put(&models.Lyrics{Query: "q", Found: true, Lyric: "la"}); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Get("q")
		if err != nil {
			t.Fatal(err)
		}
		if !got.Found || got.Lyric != "la" {
			t.Errorf("expected replaced row, got %+v", got)
		}
		if n, _ := repo.Count(); n != 1 {
			t.Errorf("expected 1 row, got %d", n)
		}
	})

	t.Run("errors", func(t *testing.T) {
		repo := NewLyricRepository(setupTestDB(t))

		if _, err := repo.Get("absent"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Put(&models.Lyrics{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("DeleteBefore", func(t *testing.T) {
		repo := NewLyricRepository(setupTestDB(t))
		now := time.Now().UTC()

		old := &models.Lyrics{Query: "old", CreatedAt: now.Add(-48 * time.Hour)}
		fresh := &models.Lyrics{Query: "fresh", CreatedAt: now}
		for _, l := range []*models.Lyrics{old, fresh} {
			if err := repo.Put(l); err != nil {
				t.Fatal(err)
			}
		}

		n, err := repo.DeleteBefore(now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 deleted row, got %d", n)
		}
		if _, err := repo.Get("fresh"); err != nil {
			t.Errorf("fresh lyrics should remain: %v", err)
		}
	})
}

func TestImportRepository(t *testing.T) {
	a, b, c := models.PlaylistID("a"), models.PlaylistID("b"), models.PlaylistID("c")

	t.Run("Record", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))

		first, err := repo.Record(a, b)
		if err != nil {
			t.Fatalf("failed to record import: %v", err)
		}
		if first.ID == "" || first.Sequence != 1 {
			t.Errorf("unexpected import %+v", first)
		}

		again, err := repo.Record(a, b)
		if err != nil {
			t.Fatalf("failed to record duplicate import: %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("duplicate import should return existing row, got %s want %s", again.ID, first.ID)
		}
	})

	t.Run("Record validates", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))

		tc := []struct {
			name           string
			source, target models.ID
		}{
			{name: "same playlist", source: a, target: a},
			{name: "not a playlist", source: models.AlbumID("x"), target: b},
			{name: "empty", source: models.ID{Type: models.PlaylistType}, target: b},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := repo.Record(tt.source, tt.target); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("List and ListByTarget", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		for _, pair := range [][2]models.ID{{a, b}, {c, b}, {a, c}} {
			if _, err := repo.Record(pair[0], pair[1]); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 || all[0].Source != a || all[2].Target != c {
			t.Errorf("unexpected imports %+v", all)
		}

		intoB, err := repo.ListByTarget(b)
		if err != nil {
			t.Fatal(err)
		}
		if len(intoB) != 2 || intoB[0].Source != a || intoB[1].Source != c {
			t.Errorf("unexpected imports into b %+v", intoB)
		}
	})

	t.Run("MarkSynced", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		imp, err := repo.Record(a, b)
		if err != nil {
			t.Fatal(err)
		}

		at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
		if err := repo.MarkSynced(imp.ID, at); err != nil {
			t.Fatalf("failed to mark synced: %v", err)
		}

		got, err := repo.Get(a, b)
		if err != nil {
			t.Fatal(err)
		}
		if got.SyncedAt == nil || !got.SyncedAt.Equal(at) {
			t.Errorf("unexpected synced_at %v", got.SyncedAt)
		}

		if err := repo.MarkSynced("missing", at); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteByPlaylist", func(t *testing.T) {
		repo := NewImportRepository(setupTestDB(t))
		for _, pair := range [][2]models.ID{{a, b}, {b, c}, {a, c}} {
			if _, err := repo.Record(pair[0], pair[1]); err != nil {
				t.Fatal(err)
			}
		}

		n, err := repo.DeleteByPlaylist(b)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 deleted imports, got %d", n)
		}
		if _, err := repo.Get(a, b); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
