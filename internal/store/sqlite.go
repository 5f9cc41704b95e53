package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB holds both durable stores in one SQLite database: the seen-projects set
// and the run ledger. Every statement commits on its own, so a write that
// returns nil is already on disk — that is the checkpoint the poller relies on.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath and ensures the
// seen_projects and outcomes tables exist.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS seen_projects (
		project_id INTEGER PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		project_id    INTEGER PRIMARY KEY,
		title         TEXT NOT NULL,
		fetched_at    TEXT NOT NULL,
		analyzed      INTEGER NOT NULL DEFAULT 0,
		submitted     INTEGER NOT NULL DEFAULT 0,
		detail        TEXT NOT NULL DEFAULT '',
		analysis_file TEXT NOT NULL DEFAULT ''
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db: db}, nil
}

// HasSeen returns true if the given project ID has already been recorded.
func (d *DB) HasSeen(projectID int64) (bool, error) {
	var exists int
	err := d.db.QueryRow("SELECT 1 FROM seen_projects WHERE project_id = ?", projectID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %d: %w", projectID, err)
	}
	return true, nil
}

// MarkSeen records a project ID as seen. If it already exists the call is a no-op.
func (d *DB) MarkSeen(projectID int64) error {
	_, err := d.db.Exec("INSERT OR IGNORE INTO seen_projects (project_id) VALUES (?)", projectID)
	if err != nil {
		return fmt.Errorf("marking project %d as seen: %w", projectID, err)
	}
	return nil
}

// CountSeen returns the number of recorded project IDs.
func (d *DB) CountSeen() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM seen_projects").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting seen projects: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
