package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/shared"
)

func (r *Runner) databasePath() string {
	return r.config.DatabasePath(r.paths.CacheFolder)
}

// CacheMigrate creates the cache database if needed and applies pending migrations.
func (r *Runner) CacheMigrate(ctx context.Context, cmd *cli.Command) error {
	path := r.databasePath()
	r.logger.Info("migrating cache database", "path", path)

	db, err := shared.OpenCache(path, r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to migrate cache database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.writePlain("✓ Cache database at version %d\n", version)
	return nil
}

// CacheRollback reverts the most recent migration.
func (r *Runner) CacheRollback(ctx context.Context, cmd *cli.Command) error {
	path := r.databasePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: cache database %s", shared.ErrNotFound, path)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.logger.Info("rolled back cache database", "version", version)
	r.writePlain("✓ Cache database at version %d\n", version)
	return nil
}

// CacheStatus prints the database location, schema version and cached lyric count.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	path := r.databasePath()
	info, err := os.Stat(path)
	if err != nil {
		r.writePlainHeader("Cache")
		r.writePlain("Path: %s\nStatus: not created (run 'spx cache migrate')\n", path)
		return nil
	}

	db, err := shared.OpenCache(path, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	lyrics, err := repositories.NewLyricRepository(db).Count()
	if err != nil {
		return err
	}
	imports, err := repositories.NewImportRepository(db).List()
	if err != nil {
		return err
	}

	r.writePlainHeader("Cache")
	r.writePlain("Path: %s\n", path)
	r.writePlain("Size: %s\n", humanize.Bytes(uint64(info.Size())))
	r.writePlain("Schema version: %d\n", version)
	r.writePlain("Cached lyrics: %s\n", humanize.Comma(int64(lyrics)))
	r.writePlain("Recorded imports: %s\n", humanize.Comma(int64(len(imports))))
	return nil
}

// CachePurge removes cached lyrics older than the cache TTL, or all of them with --all.
// Nothing is removed without --all when the TTL is zero.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenCache(r.databasePath(), r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-r.config.CacheTTL())
	switch {
	case cmd.Bool("all"):
		cutoff = time.Now().Add(time.Hour)
	case r.config.CacheTTL() == 0:
		// a zero ttl keeps lyrics forever, see lyrics.NewFinder
		r.writePlain("- cache_ttl_hours is 0, nothing expires (use --all to remove everything)\n")
		return nil
	}

	n, err := repositories.NewLyricRepository(db).DeleteBefore(cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge lyrics: %w", err)
	}
	r.logger.Info("purged cached lyrics", "removed", n, "before", cutoff)
	r.writePlain("✓ Removed %s cached lyrics\n", humanize.Comma(n))
	return nil
}
