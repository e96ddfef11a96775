package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS builds (
  build_number TEXT PRIMARY KEY,
  number_of_parts INTEGER NOT NULL,
  time_per_part REAL NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  worker_id TEXT NOT NULL,
  build_number TEXT NOT NULL,
  number_of_parts INTEGER NOT NULL,
  time_per_part REAL NOT NULL,
  started_at INTEGER NOT NULL,
  defects INTEGER NOT NULL DEFAULT 0,
  total_parts INTEGER,
  submitted_at INTEGER,
  submitted_auto INTEGER NOT NULL DEFAULT 0,
  total_active_seconds INTEGER,
  total_inactive_seconds INTEGER
);

CREATE INDEX IF NOT EXISTS idx_sessions_worker ON sessions(worker_id);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);

CREATE TABLE IF NOT EXISTS session_pauses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  ended_at INTEGER,
  FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_session_pauses_session ON session_pauses(session_id);

CREATE TABLE IF NOT EXISTS session_popups (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  responded_at INTEGER NOT NULL,
  FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_session_popups_session ON session_popups(session_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	// A worker may have at most one session without a submission. The
	// partial unique index makes the store itself reject a second open
	// session even if two creations race.
	openIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_worker_open
  ON sessions(worker_id) WHERE submitted_at IS NULL;
`
	if _, err := db.Exec(openIdx); err != nil {
		return fmt.Errorf("create open-session index: %w", err)
	}

	return nil
}

// OpenSessionCount returns the number of sessions not yet submitted.
func (db *DB) OpenSessionCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sessions WHERE submitted_at IS NULL").Scan(&count)
	return count, err
}

// BuildCount returns the total number of builds in the catalog.
func (db *DB) BuildCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&count)
	return count, err
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure, such as a second open session for the same worker.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
