package models

import (
	"fmt"
	"time"
)

// Lyrics is the outcome of one lyric lookup. Found is false when no song matched
// the query; negative results are cached too.
type Lyrics struct {
	Query     string    `json:"query"`
	Found     bool      `json:"found"`
	Track     string    `json:"track,omitempty"`
	Artists   string    `json:"artists,omitempty"`
	Lyric     string    `json:"lyric,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Expired reports whether the record is older than ttl at now. A zero ttl never expires.
func (l *Lyrics) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(l.CreatedAt) > ttl
}

// PlaylistImport records that Source was imported into Target so that later
// syncs can repeat it.
type PlaylistImport struct {
	ID        string     `json:"id"`
	Sequence  int        `json:"sequence"`
	Source    ID         `json:"source"`
	Target    ID         `json:"target"`
	CreatedAt time.Time  `json:"created_at"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
}

// Validate checks that both ends are distinct playlists.
func (p *PlaylistImport) Validate() error {
	if p.Source.Type != PlaylistType || p.Target.Type != PlaylistType {
		return fmt.Errorf("import source and target must be playlists")
	}
	if p.Source.IsZero() || p.Target.IsZero() {
		return fmt.Errorf("import source and target are required")
	}
	if p.Source == p.Target {
		return fmt.Errorf("cannot import a playlist into itself")
	}
	return nil
}
