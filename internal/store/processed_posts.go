package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forumsearch/core/internal/forumerr"
)

// UpsertProcessedPost inserts or replaces the processed form of a post.
func (db *DB) UpsertProcessedPost(p ProcessedPost) error {
	if p.ProcessedAt.IsZero() {
		p.ProcessedAt = time.Now().UTC()
	}
	titleJSON, err := json.Marshal(p.TitleTokens)
	if err != nil {
		return fmt.Errorf("marshal title tokens: %w", err)
	}
	bodyJSON, err := json.Marshal(p.BodyTokens)
	if err != nil {
		return fmt.Errorf("marshal body tokens: %w", err)
	}
	allJSON, err := json.Marshal(p.AllTokens)
	if err != nil {
		return fmt.Errorf("marshal all tokens: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO processed_posts (id, title_tokens, body_tokens, all_tokens, token_count, pipeline_version, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title_tokens=excluded.title_tokens,
			body_tokens=excluded.body_tokens,
			all_tokens=excluded.all_tokens,
			token_count=excluded.token_count,
			pipeline_version=excluded.pipeline_version,
			processed_at=excluded.processed_at`,
		p.ID, string(titleJSON), string(bodyJSON), string(allJSON), p.TokenCount, p.PipelineVersion,
		p.ProcessedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert processed post %s: %w", p.ID, err)
	}
	return nil
}

// GetProcessedPost returns the processed form of a post by id.
func (db *DB) GetProcessedPost(id string) (*ProcessedPost, error) {
	row := db.conn.QueryRow(
		`SELECT id, title_tokens, body_tokens, all_tokens, token_count, pipeline_version, processed_at
		 FROM processed_posts WHERE id = ?`, id)
	p, err := scanProcessedPost(row)
	if err == sql.ErrNoRows {
		return nil, forumerr.NotFound(fmt.Sprintf("processed post %s not found", id), nil)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TokensBySubreddits returns {doc_id: all_tokens} for processed posts
// whose raw parent belongs to one of subs. This is the direct input to
// the BM25 and TF-IDF builders.
func (db *DB) TokensBySubreddits(subs []string) (map[string][]string, error) {
	if len(subs) == 0 {
		return map[string][]string{}, nil
	}
	query := `SELECT p.id, p.all_tokens
	          FROM processed_posts p
	          JOIN raw_posts r ON r.id = p.id
	          WHERE r.subreddit IN (` + placeholders(len(subs)) + `)`
	args := make([]any, len(subs))
	for i, s := range subs {
		args[i] = s
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("tokens by subreddits: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, allJSON string
		if err := rows.Scan(&id, &allJSON); err != nil {
			return nil, err
		}
		var tokens []string
		if err := json.Unmarshal([]byte(allJSON), &tokens); err != nil {
			return nil, fmt.Errorf("unmarshal all_tokens for %s: %w", id, err)
		}
		out[id] = tokens
	}
	return out, rows.Err()
}

// DeleteAllProcessed truncates processed_posts wholesale, so the
// pipeline can rebuild every row from raw_posts with a new pipeline
// version.
func (db *DB) DeleteAllProcessed() error {
	_, err := db.conn.Exec(`DELETE FROM processed_posts`)
	if err != nil {
		return fmt.Errorf("delete all processed posts: %w", err)
	}
	return nil
}

func scanProcessedPost(row *sql.Row) (*ProcessedPost, error) {
	var p ProcessedPost
	var titleJSON, bodyJSON, allJSON, processedAt string
	if err := row.Scan(&p.ID, &titleJSON, &bodyJSON, &allJSON, &p.TokenCount, &p.PipelineVersion, &processedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(titleJSON), &p.TitleTokens); err != nil {
		return nil, fmt.Errorf("unmarshal title_tokens: %w", err)
	}
	if err := json.Unmarshal([]byte(bodyJSON), &p.BodyTokens); err != nil {
		return nil, fmt.Errorf("unmarshal body_tokens: %w", err)
	}
	if err := json.Unmarshal([]byte(allJSON), &p.AllTokens); err != nil {
		return nil, fmt.Errorf("unmarshal all_tokens: %w", err)
	}
	t, err := time.Parse(timeLayout, processedAt)
	if err != nil {
		return nil, fmt.Errorf("parse processed_at: %w", err)
	}
	p.ProcessedAt = t
	return &p, nil
}
