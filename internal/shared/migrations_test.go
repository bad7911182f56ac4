package shared

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations(migrationFiles)
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_lyrics" {
			t.Errorf("expected first migration create_lyrics, got %s", migrations[0].Name)
		}
	})

	t.Run("incomplete migration", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/0001_only_up_up.sql": {Data: []byte("CREATE TABLE x (id INTEGER)")},
		}
		if _, err := loadMigrations(fsys); err == nil {
			t.Error("expected error for migration without down script")
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := OpenCache(":memory:", DatabaseConfig{})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		for _, table := range []string{"lyrics", "playlist_imports"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		version, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 2 {
			t.Errorf("expected version 2, got %d", version)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM playlist_imports LIMIT 1"); err == nil {
			t.Error("playlist_imports should be dropped after rollback")
		}
		if version, _ := CurrentVersion(db); version != 1 {
			t.Errorf("expected version 1 after rollback, got %d", version)
		}
	})

	t.Run("Rollback with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when no migrations are applied")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := OpenCache(filepath.Join(t.TempDir(), "cache", DatabaseFile), DatabaseConfig{MaxOpenConns: 2})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations(migrationFiles)
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestRemoveComments(t *testing.T) {
	got := removeComments("-- header\nCREATE TABLE t (id INTEGER) -- trailing\n\n")
	if got != "CREATE TABLE t (id INTEGER)" {
		t.Errorf("unexpected result %q", got)
	}
}
