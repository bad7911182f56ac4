package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/spx/internal/shared"
)

// sequences maps a table to its single-row counter table.
var sequences = map[string]string{
	"playlist_imports": "playlist_imports_sequence",
}

// NextSequence increments the counter of table and returns the new value.
func NextSequence(db *sql.DB, table string) (int, error) {
	seq, ok := sequences[table]
	if !ok {
		return 0, fmt.Errorf("%w: no sequence for table %q", shared.ErrInvalidInput, table)
	}

	var n int
	err := db.QueryRow("UPDATE " + seq + " SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s has no counter row", seq)
	} else if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", seq, err)
	}
	return n, nil
}
