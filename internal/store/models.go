// Package store is the SQLite-backed persistence layer for forumsearch.
//
// It owns five tables: raw_posts (crawled, immutable), processed_posts
// (derived, rebuildable), index_versions (zero-downtime index swap
// bookkeeping), jobs (durable work queue), and shard_assignments
// (subreddit -> shard routing). Every other package reaches the
// database exclusively through the repositories defined here.
package store

import "time"

// RawPost is a crawled forum post. Rows are immutable after insert;
// deletion only happens as part of a full purge.
type RawPost struct {
	ID           string
	Subreddit    string
	Permalink    string
	Title        string
	Body         *string
	Author       *string
	Score        int
	CommentCount int
	CreatedUTC   int64
	CrawledAt    time.Time
	RawBytes     []byte
	PostType     string
}

// ProcessedPost is the tokenized, index-ready form of a RawPost.
// Rows are derived and disposable: they may be dropped and rebuilt
// wholesale without touching raw_posts.
type ProcessedPost struct {
	ID              string
	TitleTokens     []string
	BodyTokens      []string
	AllTokens       []string
	TokenCount      int
	PipelineVersion int
	ProcessedAt     time.Time
}

// Index version lifecycle states.
const (
	IndexStatusBuilding = "building"
	IndexStatusActive   = "active"
	IndexStatusStale    = "stale"
)

// IndexVersion tracks a single built index file's lifecycle. At most
// one row per (IndexType, ShardID) may carry status "active".
type IndexVersion struct {
	ID        int64
	IndexType string
	ShardID   string
	Version   int
	Status    string
	DocCount  int
	FilePath  string
	CreatedAt time.Time
}

// Job lifecycle states.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is a unit of background work: crawl, preprocess, build_index, or
// rebuild. Workers claim pending jobs atomically.
type Job struct {
	ID          int64
	JobType     string
	Status      string
	Payload     string
	Priority    int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       *string
	Retries     int
}

// ShardAssignment records which shard a subreddit's documents live in.
type ShardAssignment struct {
	Subreddit string
	ShardID   string
}
