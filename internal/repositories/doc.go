// Package repositories implements SQLite persistence for the application cache.
//
// Key Implementations:
//   - [LyricRepository] : lyric lookups keyed by normalized query, including misses
//   - [ImportRepository] : playlist imports replayed by `spx playlist sync`
//
// Tables are created by the embedded migrations in the shared package; see [shared.OpenCache].
// Import rows carry a sequence number from a dedicated sequence table so listings keep insertion order
// independent of UUIDs and timestamps. [NextSequence] increments it atomically.
package repositories
