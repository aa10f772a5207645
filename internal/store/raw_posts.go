package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/forumsearch/core/internal/forumerr"
)

const timeLayout = time.RFC3339Nano

// InsertRawPost inserts a new raw post. Rows are immutable after insert;
// callers must not attempt to update one via this method.
func (db *DB) InsertRawPost(p RawPost) error {
	if p.CrawledAt.IsZero() {
		p.CrawledAt = time.Now().UTC()
	}
	if p.PostType == "" {
		p.PostType = "self"
	}
	_, err := db.conn.Exec(
		`INSERT INTO raw_posts
			(id, subreddit, permalink, title, body, author, score, comment_count, created_utc, crawled_at, raw_bytes, post_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Subreddit, p.Permalink, p.Title, p.Body, p.Author, p.Score, p.CommentCount, p.CreatedUTC,
		p.CrawledAt.Format(timeLayout), p.RawBytes, p.PostType,
	)
	if err != nil {
		return fmt.Errorf("insert raw post %s: %w", p.ID, err)
	}
	return nil
}

// GetRawPost returns the raw post with the given id.
func (db *DB) GetRawPost(id string) (*RawPost, error) {
	row := db.conn.QueryRow(
		`SELECT id, subreddit, permalink, title, body, author, score, comment_count, created_utc, crawled_at, raw_bytes, post_type
		 FROM raw_posts WHERE id = ?`, id)
	p, err := scanRawPost(row)
	if err == sql.ErrNoRows {
		return nil, forumerr.NotFound(fmt.Sprintf("raw post %s not found", id), nil)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListUnprocessed returns raw posts that have no corresponding row in
// processed_posts, ordered by crawl time. Used by preprocessing jobs to
// find the work remaining.
func (db *DB) ListUnprocessed(limit int) ([]RawPost, error) {
	rows, err := db.conn.Query(
		`SELECT r.id, r.subreddit, r.permalink, r.title, r.body, r.author, r.score, r.comment_count, r.created_utc, r.crawled_at, r.raw_bytes, r.post_type
		 FROM raw_posts r
		 LEFT JOIN processed_posts p ON p.id = r.id
		 WHERE p.id IS NULL
		 ORDER BY r.crawled_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	defer rows.Close()

	var out []RawPost
	for rows.Next() {
		p, err := scanRawPostRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListBySubreddits returns every raw post whose subreddit is in subs.
func (db *DB) ListBySubreddits(subs []string) ([]RawPost, error) {
	if len(subs) == 0 {
		return nil, nil
	}
	query := `SELECT id, subreddit, permalink, title, body, author, score, comment_count, created_utc, crawled_at, raw_bytes, post_type
	          FROM raw_posts WHERE subreddit IN (` + placeholders(len(subs)) + `)`
	args := make([]any, len(subs))
	for i, s := range subs {
		args[i] = s
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by subreddits: %w", err)
	}
	defer rows.Close()

	var out []RawPost
	for rows.Next() {
		p, err := scanRawPostRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DocCountsBySubreddit returns {subreddit: doc_count} across every raw
// post, input for the shard planner.
func (db *DB) DocCountsBySubreddit() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT subreddit, COUNT(*) FROM raw_posts GROUP BY subreddit`)
	if err != nil {
		return nil, fmt.Errorf("doc counts by subreddit: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sub string
		var n int
		if err := rows.Scan(&sub, &n); err != nil {
			return nil, err
		}
		counts[sub] = n
	}
	return counts, rows.Err()
}

// DeleteRawPost purges a raw post and, via the foreign key cascade, its
// processed form.
func (db *DB) DeleteRawPost(id string) error {
	_, err := db.conn.Exec(`DELETE FROM raw_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete raw post %s: %w", id, err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRawPost(row *sql.Row) (*RawPost, error) {
	return scanRawPostScannable(row)
}

func scanRawPostRows(rows *sql.Rows) (*RawPost, error) {
	return scanRawPostScannable(rows)
}

func scanRawPostScannable(s scannable) (*RawPost, error) {
	var p RawPost
	var crawledAt string
	if err := s.Scan(&p.ID, &p.Subreddit, &p.Permalink, &p.Title, &p.Body, &p.Author,
		&p.Score, &p.CommentCount, &p.CreatedUTC, &crawledAt, &p.RawBytes, &p.PostType); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, crawledAt)
	if err != nil {
		return nil, fmt.Errorf("parse crawled_at: %w", err)
	}
	p.CrawledAt = t
	return &p, nil
}

func placeholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += "?"
	}
	return s
}
