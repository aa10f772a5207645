package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)
)

const schemaVersion = 1

// DB wraps the SQLite connection shared by every repository. SQLite's
// own locking plus WAL mode make a single *sql.DB safe for concurrent
// use from multiple goroutines; MaxOpenConns is pinned to 1 to avoid
// writer lock contention across pooled connections.
type DB struct {
	conn *sql.DB
	path string
}

// validateIntegrity checks an existing database file for corruption
// before it is opened for real use. A missing file is not corruption:
// it will be created by schema initialization.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='raw_posts'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	return nil
}

// Open creates (or reopens) the SQLite-backed store at path. A
// corrupted database file is auto-cleared rather than left to fail
// every subsequent call: forumsearch's source of truth can always be
// re-crawled or rebuilt, so surviving corruption matters more than
// preserving a broken file.
func Open(path string, journalMode string, busyTimeoutMs int, cacheSizeMB int) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if validErr := validateIntegrity(path); validErr != nil {
		slog.Warn("store_db_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))

		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, fmt.Errorf("database corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
		}
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")

		slog.Info("store_db_cleared", slog.String("path", path), slog.String("reason", "corruption detected"))
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_synchronous=NORMAL&_busy_timeout=%d", path, journalMode, busyTimeoutMs)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", journalMode),
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheSizeMB*1024),
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, path: path}
	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database, useful in tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	db := &DB{conn: conn, path: ":memory:"}
	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS raw_posts (
	id              TEXT PRIMARY KEY,
	subreddit       TEXT NOT NULL,
	permalink       TEXT UNIQUE NOT NULL,
	title           TEXT NOT NULL,
	body            TEXT,
	author          TEXT,
	score           INTEGER DEFAULT 0,
	comment_count   INTEGER DEFAULT 0,
	created_utc     INTEGER DEFAULT 0,
	crawled_at      TEXT NOT NULL,
	raw_bytes       BLOB,
	post_type       TEXT DEFAULT 'self'
);

CREATE INDEX IF NOT EXISTS idx_raw_posts_subreddit ON raw_posts(subreddit);
CREATE INDEX IF NOT EXISTS idx_raw_posts_created_utc ON raw_posts(created_utc);
CREATE INDEX IF NOT EXISTS idx_raw_posts_crawled_at ON raw_posts(crawled_at);

CREATE TABLE IF NOT EXISTS processed_posts (
	id                TEXT PRIMARY KEY,
	title_tokens      TEXT DEFAULT '[]',
	body_tokens       TEXT DEFAULT '[]',
	all_tokens        TEXT DEFAULT '[]',
	token_count       INTEGER DEFAULT 0,
	pipeline_version  INTEGER DEFAULT 1,
	processed_at      TEXT NOT NULL,
	FOREIGN KEY (id) REFERENCES raw_posts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_processed_posts_version ON processed_posts(pipeline_version);

CREATE TABLE IF NOT EXISTS index_versions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	index_type  TEXT NOT NULL,
	shard_id    TEXT NOT NULL,
	version     INTEGER NOT NULL,
	status      TEXT DEFAULT 'building',
	doc_count   INTEGER DEFAULT 0,
	file_path   TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_index_versions_shard_type ON index_versions(shard_id, index_type);
CREATE INDEX IF NOT EXISTS idx_index_versions_status ON index_versions(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_index_versions_active ON index_versions(index_type, shard_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS jobs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	job_type        TEXT NOT NULL,
	status          TEXT DEFAULT 'pending',
	payload         TEXT DEFAULT '{}',
	priority        INTEGER DEFAULT 10,
	created_at      TEXT NOT NULL,
	started_at      TEXT,
	completed_at    TEXT,
	error           TEXT,
	retries         INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_jobs_dequeue ON jobs(status, priority, created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_type ON jobs(job_type);

CREATE TABLE IF NOT EXISTS shard_assignments (
	subreddit  TEXT PRIMARY KEY,
	shard_id   TEXT NOT NULL
);
`

func (db *DB) initSchema() error {
	if _, err := db.conn.Exec(schemaDDL); err != nil {
		return err
	}
	_, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion))
	return err
}

// SchemaVersion returns the schema version stamped on the open database.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}
