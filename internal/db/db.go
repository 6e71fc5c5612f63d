// Package db persists items in a local SQLite file.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/sieve/internal/config"
)

// DBFileName is the database file inside the base directory.
const DBFileName = "sieve.db"

// ExportsDirName is the default export directory inside the base directory.
const ExportsDirName = "exports"

// migrations are applied in order; entry i moves user_version from i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
	  id            TEXT PRIMARY KEY,
	  type          TEXT NOT NULL,
	  title         TEXT NOT NULL,
	  body          TEXT NOT NULL DEFAULT '',
	  tags_json     TEXT,
	  source        TEXT NOT NULL DEFAULT '',
	  stage         TEXT NOT NULL,
	  mode          TEXT,
	  reach         INTEGER,
	  impact        INTEGER,
	  confidence    INTEGER,
	  effort        INTEGER,
	  final_score   REAL,
	  assigned_to   TEXT,
	  start_date    TEXT,
	  due_date      TEXT,
	  project       TEXT,
	  task_category TEXT,
	  certainty     TEXT,
	  revision      INTEGER NOT NULL DEFAULT 1,
	  created_at    INTEGER NOT NULL,
	  updated_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_stage ON items(stage, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC, id DESC);`,

	// purge scans done items by age
	`CREATE INDEX IF NOT EXISTS idx_items_stage_updated ON items(stage, updated_at);`,
}

// CurrentSchemaVersion is the user_version after every migration has run.
var CurrentSchemaVersion = len(migrations)

// Init opens (creating if needed) baseDir/sieve.db in WAL mode and brings
// the schema up to date. It also creates baseDir/exports.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, ExportsDirName)} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		_ = os.Chmod(dir, 0700)
	}

	dbPath := filepath.Join(baseDir, DBFileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := checkJournalMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// ConfigurePool applies non-zero pool limits from cfg.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

func migrate(ctx context.Context, db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", version, len(migrations))
	}
	for v := version; v < len(migrations); v++ {
		if err := applyMigration(ctx, db, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

// applyMigration runs one schema step and its version bump atomically.
func applyMigration(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("migration %d: set user_version: %w", version, err)
	}
	return tx.Commit()
}

func checkJournalMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("read journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL journal mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in PRAGMA user_version.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion overwrites PRAGMA user_version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
