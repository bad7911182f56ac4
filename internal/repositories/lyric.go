package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// LyricRepository caches lyric lookups by query.
type LyricRepository struct {
	db *sql.DB
}

// NewLyricRepository creates a new LyricRepository with the given database connection
func NewLyricRepository(db *sql.DB) *LyricRepository {
	return &LyricRepository{db: db}
}

// Get returns the cached lookup for query, or [shared.ErrNotFound].
func (r *LyricRepository) Get(query string) (*models.Lyrics, error) {
	row := r.db.QueryRow(`
		SELECT query, track, artists, lyric, found, created_at
		FROM lyrics
		WHERE query = ?
	`, query)

	var l models.Lyrics
	if err := row.Scan(&l.Query, &l.Track, &l.Artists, &l.Lyric, &l.Found, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no lyrics cached for %q", shared.ErrNotFound, query)
		}
		return nil, fmt.Errorf("failed to scan lyrics: %w", err)
	}
	return &l, nil
}

// Put inserts or replaces the cached lookup for l.Query.
func (r *LyricRepository) Put(l *models.Lyrics) error {
	if l.Query == "" {
		return fmt.Errorf("%w: lyrics query is required", shared.ErrInvalidInput)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO lyrics (query, track, artists, lyric, found, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (query) DO UPDATE SET
			track = excluded.track,
			artists = excluded.artists,
			lyric = excluded.lyric,
			found = excluded.found,
			created_at = excluded.created_at
	`, l.Query, l.Track, l.Artists, l.Lyric, l.Found, l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save lyrics: %w", err)
	}
	return nil
}

// DeleteBefore removes lookups cached before t and returns how many were removed.
func (r *LyricRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM lyrics WHERE created_at < ?", t.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete lyrics: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached lookups.
func (r *LyricRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lyrics").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lyrics: %w", err)
	}
	return n, nil
}
