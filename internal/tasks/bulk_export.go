package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

type (
	BulkExportResult     = formatter.BulkExportResult
	PlaylistExportResult = formatter.PlaylistExportResult
)

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Context    *models.Context
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: spotify_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Playlists are fetched one at a time under the rate limiter and handed to a pool of
// workers that write the files. Failures are recorded per playlist and a manifest
// summarising the run is written to the output directory.
func (e *PlaylistEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Format == "" {
		opts.Format = "json"
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	// The producer owns the fetch side; workers only touch the filesystem.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			c, err := e.client.PlaylistContext(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			e.sendProgress(prog, exportUpdate(i+1, len(ids), c.Name, 0, nil))
			jobs <- PlaylistExportJob{PlaylistID: id, Context: c}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportUpdate(completed, len(ids), res.PlaylistName, len(res.Files), nil))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportUpdate(completed, len(ids), res.PlaylistName, 0, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it is closed.
func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- exportSinglePlaylist(job, opts)
	}
}

func exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.PlaylistID,
		PlaylistName: j.Context.Name,
		Files:        []string{},
	}

	files, err := formatter.Export(j.Context, opts.Format, opts.OutputDir)
	if err != nil {
		result.Error = err
		return result
	}
	result.Files = files
	result.Success = true
	return result
}

// ExportPlaylist writes a single playlist in format under dir.
func (e *PlaylistEngine) ExportPlaylist(ctx context.Context, id, format, dir string) ([]string, error) {
	start := time.Now()
	c, err := e.client.PlaylistContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	files, err := formatter.Export(c, format, dir)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("playlist exported", "id", id, "files", len(files), "took", time.Since(start))
	return files, nil
}
