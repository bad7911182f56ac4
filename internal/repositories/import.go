package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// ImportRepository stores playlist imports for later syncs.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the given database connection
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

const importColumns = "id, sequence, source_id, target_id, created_at, synced_at"

// Record stores an import of source into target. Recording the same pair twice
// returns the existing row.
func (r *ImportRepository) Record(source, target models.ID) (*models.PlaylistImport, error) {
	imp := &models.PlaylistImport{Source: source, Target: target, CreatedAt: time.Now().UTC()}
	if err := imp.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if existing, err := r.Get(source, target); err == nil {
		return existing, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	sequence, err := NextSequence(r.db, "playlist_imports")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}
	imp.ID = shared.GenerateID()
	imp.Sequence = sequence

	_, err = r.db.Exec(`
		INSERT INTO playlist_imports (id, sequence, source_id, target_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, imp.ID, imp.Sequence, source.ID, target.ID, imp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playlist import: %w", err)
	}
	return imp, nil
}

// Get returns the import of source into target, or [shared.ErrNotFound].
func (r *ImportRepository) Get(source, target models.ID) (*models.PlaylistImport, error) {
	row := r.db.QueryRow(
		"SELECT "+importColumns+" FROM playlist_imports WHERE source_id = ? AND target_id = ?",
		source.ID, target.ID,
	)
	return r.scanOne(row)
}

// List returns every recorded import in insertion order.
func (r *ImportRepository) List() ([]*models.PlaylistImport, error) {
	rows, err := r.db.Query("SELECT " + importColumns + " FROM playlist_imports ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist imports: %w", err)
	}
	return r.scanMany(rows)
}

// ListByTarget returns the imports into target in insertion order.
func (r *ImportRepository) ListByTarget(target models.ID) ([]*models.PlaylistImport, error) {
	rows, err := r.db.Query(
		"SELECT "+importColumns+" FROM playlist_imports WHERE target_id = ? ORDER BY sequence",
		target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist imports: %w", err)
	}
	return r.scanMany(rows)
}

// MarkSynced records the time an import was last replayed.
func (r *ImportRepository) MarkSynced(id string, at time.Time) error {
	result, err := r.db.Exec("UPDATE playlist_imports SET synced_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update playlist import: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: playlist import %s", shared.ErrNotFound, id)
	}
	return nil
}

// DeleteByPlaylist removes every import where playlist is the source or the target.
func (r *ImportRepository) DeleteByPlaylist(playlist models.ID) (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM playlist_imports WHERE source_id = ? OR target_id = ?",
		playlist.ID, playlist.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete playlist imports: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ImportRepository) scan(s scanner) (*models.PlaylistImport, error) {
	var (
		imp            models.PlaylistImport
		source, target string
		syncedAt       sql.NullTime
	)
	if err := s.Scan(&imp.ID, &imp.Sequence, &source, &target, &imp.CreatedAt, &syncedAt); err != nil {
		return nil, err
	}
	imp.Source = models.PlaylistID(source)
	imp.Target = models.PlaylistID(target)
	if syncedAt.Valid {
		imp.SyncedAt = &syncedAt.Time
	}
	return &imp, nil
}

func (r *ImportRepository) scanOne(row *sql.Row) (*models.PlaylistImport, error) {
	imp, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist import", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist import: %w", err)
	}
	return imp, nil
}

func (r *ImportRepository) scanMany(rows *sql.Rows) ([]*models.PlaylistImport, error) {
	defer rows.Close()

	var imports []*models.PlaylistImport
	for rows.Next() {
		imp, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist import: %w", err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlist imports: %w", err)
	}
	return imports, nil
}
