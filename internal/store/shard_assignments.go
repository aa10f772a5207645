package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// UpsertShardAssignments persists a subreddit -> shard_id plan in bulk.
// Replanning is idempotent: re-upserting the same plan is a no-op.
func (db *DB) UpsertShardAssignments(assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin shard assignment transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO shard_assignments (subreddit, shard_id) VALUES (?, ?)
		ON CONFLICT(subreddit) DO UPDATE SET shard_id = excluded.shard_id`)
	if err != nil {
		return fmt.Errorf("prepare shard assignment upsert: %w", err)
	}
	defer stmt.Close()

	for sub, shardID := range assignments {
		if _, err := stmt.Exec(sub, shardID); err != nil {
			return fmt.Errorf("upsert shard assignment %s -> %s: %w", sub, shardID, err)
		}
	}
	return tx.Commit()
}

// GetShardAssignment returns the shard a subreddit is routed to, or
// ("", false) if no assignment has been planned yet.
func (db *DB) GetShardAssignment(subreddit string) (string, bool, error) {
	var shardID string
	err := db.conn.QueryRow(`SELECT shard_id FROM shard_assignments WHERE subreddit = ?`, subreddit).Scan(&shardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get shard assignment %s: %w", subreddit, err)
	}
	return shardID, true, nil
}

// AllShardAssignments returns the full subreddit -> shard_id mapping.
func (db *DB) AllShardAssignments() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT subreddit, shard_id FROM shard_assignments ORDER BY subreddit`)
	if err != nil {
		return nil, fmt.Errorf("all shard assignments: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var sub, shardID string
		if err := rows.Scan(&sub, &shardID); err != nil {
			return nil, err
		}
		out[sub] = shardID
	}
	return out, rows.Err()
}
