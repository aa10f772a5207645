package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/forumsearch/core/internal/forumerr"
)

// InsertIndexVersion appends a new version row with status "building"
// and returns its generated id.
func (db *DB) InsertIndexVersion(v IndexVersion) (int64, error) {
	if v.Status == "" {
		v.Status = IndexStatusBuilding
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.Exec(
		`INSERT INTO index_versions (index_type, shard_id, version, status, doc_count, file_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.IndexType, v.ShardID, v.Version, v.Status, v.DocCount, v.FilePath, v.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert index version %s/%s v%d: %w", v.ShardID, v.IndexType, v.Version, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Activate atomically swaps the active index for a (type, shard) pair:
// any currently active row transitions to stale, then the named version
// transitions to active. Both statements run in a single transaction so
// there is never a window where zero or two versions are active.
func (db *DB) Activate(indexType, shardID string, version int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin activate transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE index_versions SET status = ? WHERE index_type = ? AND shard_id = ? AND status = ?`,
		IndexStatusStale, indexType, shardID, IndexStatusActive,
	); err != nil {
		return fmt.Errorf("mark stale: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE index_versions SET status = ? WHERE index_type = ? AND shard_id = ? AND version = ?`,
		IndexStatusActive, indexType, shardID, version,
	)
	if err != nil {
		return fmt.Errorf("activate version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return forumerr.NotFound(fmt.Sprintf("index version %s/%s v%d not found", shardID, indexType, version), nil)
	}

	return tx.Commit()
}

// GetActive returns the currently active index version for (type, shard),
// or nil if none is active.
func (db *DB) GetActive(indexType, shardID string) (*IndexVersion, error) {
	row := db.conn.QueryRow(
		`SELECT id, index_type, shard_id, version, status, doc_count, file_path, created_at
		 FROM index_versions WHERE index_type = ? AND shard_id = ? AND status = ?`,
		indexType, shardID, IndexStatusActive)
	v, err := scanIndexVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetAllActive returns every currently active index version across all
// shards and types.
func (db *DB) GetAllActive() ([]IndexVersion, error) {
	rows, err := db.conn.Query(
		`SELECT id, index_type, shard_id, version, status, doc_count, file_path, created_at
		 FROM index_versions WHERE status = ? ORDER BY shard_id, index_type`, IndexStatusActive)
	if err != nil {
		return nil, fmt.Errorf("get all active: %w", err)
	}
	defer rows.Close()
	return scanIndexVersions(rows)
}

// GetLatestVersionNumber returns the highest version number recorded for
// (type, shard) across every status, or 0 if none exist.
func (db *DB) GetLatestVersionNumber(indexType, shardID string) (int, error) {
	var v sql.NullInt64
	err := db.conn.QueryRow(
		`SELECT MAX(version) FROM index_versions WHERE index_type = ? AND shard_id = ?`,
		indexType, shardID,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("get latest version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

// GetStale returns stale index versions, candidates for file GC.
func (db *DB) GetStale() ([]IndexVersion, error) {
	rows, err := db.conn.Query(
		`SELECT id, index_type, shard_id, version, status, doc_count, file_path, created_at
		 FROM index_versions WHERE status = ?`, IndexStatusStale)
	if err != nil {
		return nil, fmt.Errorf("get stale: %w", err)
	}
	defer rows.Close()
	return scanIndexVersions(rows)
}

// DeleteIndexVersion removes a version row by id, after its file has
// been garbage collected.
func (db *DB) DeleteIndexVersion(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM index_versions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete index version %d: %w", id, err)
	}
	return nil
}

func scanIndexVersion(row *sql.Row) (*IndexVersion, error) {
	var v IndexVersion
	var createdAt string
	if err := row.Scan(&v.ID, &v.IndexType, &v.ShardID, &v.Version, &v.Status, &v.DocCount, &v.FilePath, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	v.CreatedAt = t
	return &v, nil
}

func scanIndexVersions(rows *sql.Rows) ([]IndexVersion, error) {
	var out []IndexVersion
	for rows.Next() {
		var v IndexVersion
		var createdAt string
		if err := rows.Scan(&v.ID, &v.IndexType, &v.ShardID, &v.Version, &v.Status, &v.DocCount, &v.FilePath, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		v.CreatedAt = t
		out = append(out, v)
	}
	return out, rows.Err()
}
