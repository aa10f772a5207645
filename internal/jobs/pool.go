package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forumsearch/core/internal/store"
)

// Pool manages a fixed-size group of Workers sharing one handler
// registry and Queue, plus convenience enqueue helpers for the job
// types the build/crawl/preprocess pipeline uses.
type Pool struct {
	queue        Queue
	enqueuer     *store.DB
	handlers     map[string]Handler
	workerCount  int
	pollInterval time.Duration
	maxRetries   int

	workers []*Worker
	cancel  context.CancelFunc
}

// NewPool returns a Pool with workerCount workers, none started yet.
// db is used both as the Queue workers claim from and as the enqueue
// target for the convenience helpers below.
func NewPool(db *store.DB, workerCount int, pollInterval time.Duration, maxRetries int) *Pool {
	return &Pool{
		queue:        db,
		enqueuer:     db,
		handlers:     make(map[string]Handler),
		workerCount:  workerCount,
		pollInterval: pollInterval,
		maxRetries:   maxRetries,
	}
}

// Register installs a handler for job_type, shared by every worker in
// the pool. Call before Start; registering after Start does not
// retroactively update already-running workers' handler maps since
// each worker is handed a snapshot copy.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches workerCount workers, each polling independently. It
// is a no-op if the pool is already running.
func (p *Pool) Start(ctx context.Context) {
	if len(p.workers) > 0 {
		slog.Warn("pool already running, ignoring Start")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	handlers := make(map[string]Handler, len(p.handlers))
	for k, v := range p.handlers {
		handlers[k] = v
	}

	for i := 0; i < p.workerCount; i++ {
		w := NewWorker(fmt.Sprintf("worker-%d", i), p.queue, handlers, p.pollInterval, p.maxRetries)
		w.Start(ctx)
		p.workers = append(p.workers, w)
	}
	slog.Info("job pool started", "workers", len(p.workers))
}

// Stop signals every worker to exit and waits up to timeout in total
// (split evenly across workers) for them to finish in-flight jobs.
func (p *Pool) Stop(timeout time.Duration) {
	if p.cancel != nil {
		p.cancel()
	}
	perWorker := timeout
	if n := len(p.workers); n > 0 {
		perWorker = timeout / time.Duration(n)
	}
	for _, w := range p.workers {
		w.Stop(perWorker)
	}
	p.workers = nil
	slog.Info("job pool stopped")
}

// IsRunning reports whether the pool has active workers.
func (p *Pool) IsRunning() bool { return len(p.workers) > 0 }

// WorkerCount returns the number of running workers.
func (p *Pool) WorkerCount() int { return len(p.workers) }

// RecoverStale resets any job stuck in running for longer than maxAge
// back to pending, returning the count healed.
func (p *Pool) RecoverStale(maxAge time.Duration) (int64, error) {
	return p.enqueuer.RecoverStaleRunning(maxAge)
}

// Cleanup deletes completed jobs beyond the most recent keepLast.
func (p *Pool) Cleanup(keepLast int) (int64, error) {
	return p.enqueuer.CleanupCompleted(keepLast)
}

// EnqueueCrawl enqueues a crawl job for subreddit.
func (p *Pool) EnqueueCrawl(subreddit string, maxPages, priority int) (int64, error) {
	return p.enqueueJSON("crawl", priority, map[string]any{
		"subreddit": subreddit,
		"max_pages": maxPages,
	})
}

// EnqueuePreprocess enqueues a preprocessing job, defaulting subreddit
// to "all".
func (p *Pool) EnqueuePreprocess(subreddit string, priority int) (int64, error) {
	if subreddit == "" {
		subreddit = "all"
	}
	return p.enqueueJSON("preprocess", priority, map[string]any{"subreddit": subreddit})
}

// EnqueueBuildIndex enqueues an index build job for indexType (bm25,
// tfidf, vector, or autocomplete), defaulting subreddit to "all".
func (p *Pool) EnqueueBuildIndex(indexType, subreddit string, priority int) (int64, error) {
	if subreddit == "" {
		subreddit = "all"
	}
	return p.enqueueJSON("build_index", priority, map[string]any{
		"index_type": indexType,
		"subreddit":  subreddit,
	})
}

// EnqueueRebuild enqueues a rebuild job, which rebuilds every index type
// from the posts already stored; it does not crawl or preprocess.
func (p *Pool) EnqueueRebuild(priority int) (int64, error) {
	return p.enqueueJSON("rebuild", priority, map[string]any{})
}

func (p *Pool) enqueueJSON(jobType string, priority int, payload map[string]any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	return p.enqueuer.Enqueue(jobType, string(raw), priority)
}
