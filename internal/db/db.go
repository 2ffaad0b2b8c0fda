package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/sift/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DBTX is satisfied by both *sql.DB and *sql.Tx so query functions can
// run standalone or inside a transaction. Multi-statement mutations
// (consolidation, answer materialization, feedback) must use a
// transaction so a crash mid-update cannot leave counts inconsistent.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Init initializes the SQLite database at baseDir/sift.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sift.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "sift.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return database, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(database *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS items (
		  id          TEXT PRIMARY KEY,
		  text        TEXT NOT NULL,
		  status      TEXT NOT NULL DEFAULT 'open',
		  domain      TEXT,
		  project_id  TEXT,
		  source      TEXT,
		  created_at  INTEGER NOT NULL,
		  updated_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_status_created
		ON items(status, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_items_project
		ON items(project_id)
		WHERE project_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS domains (
		  path            TEXT PRIMARY KEY,
		  display_name    TEXT NOT NULL,
		  target_percent  REAL NOT NULL DEFAULT 0,
		  keywords_json   TEXT,
		  active          INTEGER NOT NULL DEFAULT 1,
		  created_at      INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
		  id             TEXT PRIMARY KEY,
		  name           TEXT NOT NULL,
		  name_norm      TEXT NOT NULL,
		  domain         TEXT NOT NULL,
		  description    TEXT,
		  status         TEXT NOT NULL DEFAULT 'active',
		  keywords_json  TEXT,
		  created_at     INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_domain_name
		ON projects(domain, name_norm)
		WHERE status = 'active';

		CREATE TABLE IF NOT EXISTS routing_confidence (
		  signature        TEXT NOT NULL,
		  target           TEXT NOT NULL,
		  correct_count    INTEGER NOT NULL DEFAULT 0,
		  incorrect_count  INTEGER NOT NULL DEFAULT 0,
		  updated_at       INTEGER NOT NULL,
		  PRIMARY KEY (signature, target)
		);

		CREATE TABLE IF NOT EXISTS learned_thresholds (
		  name              TEXT PRIMARY KEY,
		  value             REAL NOT NULL,
		  confidence        REAL NOT NULL DEFAULT 0.5,
		  adjustment_count  INTEGER NOT NULL DEFAULT 0,
		  updated_at        INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS questions (
		  id                 TEXT PRIMARY KEY,
		  question_type      TEXT NOT NULL,
		  question_text      TEXT NOT NULL,
		  context            TEXT,
		  options_json       TEXT,
		  status             TEXT NOT NULL DEFAULT 'pending',
		  answer             TEXT,
		  target_domain      TEXT,
		  target_project_id  TEXT,
		  item_id            TEXT,
		  confidence         REAL NOT NULL DEFAULT 0,
		  created_at         INTEGER NOT NULL,
		  answered_at        INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_questions_status
		ON questions(status, created_at ASC);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(database *sql.DB) error {
	var journalMode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
