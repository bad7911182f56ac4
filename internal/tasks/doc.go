// Package tasks runs multi-step playlist operations against the Spotify Web API with
// real-time progress reporting.
//
// # Core Operations
//
// [PlaylistEngine] provides:
//
//  1. [PlaylistEngine.Import] : copy one playlist into another
//     - Fetches both playlists concurrently
//     - Adds source tracks missing from the target in batches of 100
//     - Optionally removes target tracks that are not in the source
//     - Records the pair in the [ImportStore] for later syncs
//
//  2. [PlaylistEngine.Fork] : create "<name> (fork)" owned by the current user and import into it
//
//  3. [PlaylistEngine.Sync] : repeat recorded imports, for one target or all of them
//
//  4. [PlaylistEngine.BulkExport] : export many playlists through a rate limited worker pool
//     and write a manifest summarising the run
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Updates are sent with
// select/default so a slow or absent reader never blocks an operation.
package tasks
