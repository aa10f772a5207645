// Package jobs runs the worker pool that drains the durable job queue
// persisted by internal/store: each worker polls for a claimable job,
// dispatches it to a handler registered by job_type, and reports
// success or failure back to the store.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forumsearch/core/internal/forumerr"
	"github.com/forumsearch/core/internal/store"
)

// Handler processes one job's payload. A returned error marks the job
// failed (and, under max retries, re-enqueued); a nil return marks it
// completed.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Queue is the subset of *store.DB a Worker needs, narrowed to an
// interface so job dispatch can be tested against a fake store.
type Queue interface {
	ClaimNext(jobType string) (*store.Job, error)
	Complete(id int64) error
	Fail(id int64, errMsg string) error
	Retry(id int64) error
	GetJob(id int64) (*store.Job, error)
}

// Worker polls a Queue at PollInterval, claiming and executing at most
// one job per tick. It runs its poll loop on its own goroutine, started
// by Start and stopped cooperatively by Stop.
type Worker struct {
	Name         string
	Queue        Queue
	Handlers     map[string]Handler
	PollInterval time.Duration
	MaxRetries   int
	JobType      string // empty claims any job type

	stop chan struct{}
	done chan struct{}
}

// NewWorker returns a Worker with the given name, sharing handlers and
// queue across the whole pool. JobType is left empty (claim any type);
// set it directly on the returned Worker to dedicate it to one type.
func NewWorker(name string, q Queue, handlers map[string]Handler, pollInterval time.Duration, maxRetries int) *Worker {
	return &Worker{
		Name:         name,
		Queue:        q,
		Handlers:     handlers,
		PollInterval: pollInterval,
		MaxRetries:   maxRetries,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the poll loop on a new goroutine.
func (w *Worker) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop signals the poll loop to exit and blocks until it does, or until
// timeout elapses.
func (w *Worker) Stop(timeout time.Duration) {
	close(w.stop)
	select {
	case <-w.done:
	case <-time.After(timeout):
		slog.Warn("worker did not stop within timeout", "worker", w.Name, "timeout", timeout)
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		claimed := w.tick(ctx)

		if claimed {
			continue // busy — look for the next job immediately
		}

		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick attempts to claim and execute one job, returning true if a job
// was claimed (regardless of outcome).
func (w *Worker) tick(ctx context.Context) bool {
	job, err := w.Queue.ClaimNext(w.JobType)
	if err != nil {
		slog.Error("claim_next failed", "worker", w.Name, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	handler, ok := w.Handlers[job.JobType]
	if !ok {
		msg := fmt.Sprintf("no handler registered for %q", job.JobType)
		if ferr := w.Queue.Fail(job.ID, msg); ferr != nil {
			slog.Error("failed to mark job failed", "job_id", job.ID, "error", ferr)
		}
		slog.Error("no handler for job type", "worker", w.Name, "job_id", job.ID, "job_type", job.JobType)
		return true
	}

	slog.Info("executing job", "worker", w.Name, "job_id", job.ID, "job_type", job.JobType)

	if err := handler(ctx, json.RawMessage(job.Payload)); err != nil {
		w.handleFailure(job, err)
		return true
	}

	if err := w.Queue.Complete(job.ID); err != nil {
		slog.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}
	return true
}

func (w *Worker) handleFailure(job *store.Job, cause error) {
	kind := forumerr.KindOf(cause)
	var errMsg string
	if kind == "" {
		errMsg = fmt.Sprintf("%T: %s", cause, cause.Error())
	} else {
		errMsg = fmt.Sprintf("%s: %s", kind, cause.Error())
	}

	if err := w.Queue.Fail(job.ID, errMsg); err != nil {
		slog.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}
	slog.Error("job failed", "worker", w.Name, "job_id", job.ID, "error", errMsg)

	updated, err := w.Queue.GetJob(job.ID)
	if err != nil {
		slog.Error("failed to re-read job after failure", "job_id", job.ID, "error", err)
		return
	}
	if updated.Retries < w.MaxRetries {
		if err := w.Queue.Retry(job.ID); err != nil {
			slog.Error("failed to re-enqueue job", "job_id", job.ID, "error", err)
			return
		}
		slog.Info("job re-enqueued", "worker", w.Name, "job_id", job.ID, "retries", updated.Retries, "max_retries", w.MaxRetries)
	}
}
