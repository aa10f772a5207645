package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Enqueue inserts a pending job and returns its generated id.
func (db *DB) Enqueue(jobType string, payload string, priority int) (int64, error) {
	if payload == "" {
		payload = "{}"
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := db.conn.Exec(
		`INSERT INTO jobs (job_type, status, payload, priority, created_at, retries)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		jobType, JobStatusPending, payload, priority, now,
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue job %s: %w", jobType, err)
	}
	return res.LastInsertId()
}

// ClaimNext atomically claims the next pending job, optionally filtered
// by jobType. It guarantees a pending job is handed to exactly one
// caller: the candidate id is selected, a conditional UPDATE flips it
// from pending to running only if it is still pending, and the row is
// re-read to confirm the update actually took effect before the job is
// returned. If another worker won the race the UPDATE affects zero rows
// and ClaimNext returns (nil, nil) rather than a half-claimed job.
func (db *DB) ClaimNext(jobType string) (*Job, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	var row *sql.Row
	if jobType != "" {
		row = tx.QueryRow(
			`SELECT id FROM jobs WHERE status = ? AND job_type = ? ORDER BY priority ASC, created_at ASC LIMIT 1`,
			JobStatusPending, jobType)
	} else {
		row = tx.QueryRow(
			`SELECT id FROM jobs WHERE status = ? ORDER BY priority ASC, created_at ASC LIMIT 1`,
			JobStatusPending)
	}

	var id int64
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("select candidate job: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.Exec(
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		JobStatusRunning, now, id, JobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("claim job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	row = tx.QueryRow(
		`SELECT id, job_type, status, payload, priority, created_at, started_at, completed_at, error, retries
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("reread claimed job %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if job.Status != JobStatusRunning {
		return nil, nil
	}
	return job, nil
}

// Complete marks a job completed.
func (db *DB) Complete(id int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := db.conn.Exec(`UPDATE jobs SET status = ?, completed_at = ? WHERE id = ?`, JobStatusCompleted, now, id)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	return nil
}

// Fail marks a job failed, records errMsg, and increments its retry
// counter. It does not itself decide whether to retry; the worker loop
// re-reads the job and compares its updated counter against its
// configured max.
func (db *DB) Fail(id int64, errMsg string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := db.conn.Exec(
		`UPDATE jobs SET status = ?, completed_at = ?, error = ?, retries = retries + 1 WHERE id = ?`,
		JobStatusFailed, now, errMsg, id)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	return nil
}

// Retry resets a failed job back to pending, clearing its timestamps and
// error while preserving the retry counter.
func (db *DB) Retry(id int64) error {
	_, err := db.conn.Exec(
		`UPDATE jobs SET status = ?, started_at = NULL, completed_at = NULL, error = NULL WHERE id = ?`,
		JobStatusPending, id)
	if err != nil {
		return fmt.Errorf("retry job %d: %w", id, err)
	}
	return nil
}

// GetJob fetches a single job by id.
func (db *DB) GetJob(id int64) (*Job, error) {
	row := db.conn.QueryRow(
		`SELECT id, job_type, status, payload, priority, created_at, started_at, completed_at, error, retries
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// PendingCount counts pending jobs, optionally filtered by type.
func (db *DB) PendingCount(jobType string) (int, error) {
	var n int
	var err error
	if jobType != "" {
		err = db.conn.QueryRow(`SELECT COUNT(*) FROM jobs WHERE status = ? AND job_type = ?`, JobStatusPending, jobType).Scan(&n)
	} else {
		err = db.conn.QueryRow(`SELECT COUNT(*) FROM jobs WHERE status = ?`, JobStatusPending).Scan(&n)
	}
	return n, err
}

// GetRunning returns every job currently in the running state.
func (db *DB) GetRunning() ([]Job, error) {
	rows, err := db.conn.Query(
		`SELECT id, job_type, status, payload, priority, created_at, started_at, completed_at, error, retries
		 FROM jobs WHERE status = ? ORDER BY started_at`, JobStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("get running: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// GetFailed returns the most recent failed jobs, up to limit.
func (db *DB) GetFailed(limit int) ([]Job, error) {
	rows, err := db.conn.Query(
		`SELECT id, job_type, status, payload, priority, created_at, started_at, completed_at, error, retries
		 FROM jobs WHERE status = ? ORDER BY completed_at DESC LIMIT ?`, JobStatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// CleanupCompleted deletes completed jobs beyond the most recent
// keepLast, preventing unbounded growth of the jobs table.
func (db *DB) CleanupCompleted(keepLast int) (int64, error) {
	res, err := db.conn.Exec(
		`DELETE FROM jobs WHERE status = ? AND id NOT IN (
			SELECT id FROM jobs WHERE status = ? ORDER BY completed_at DESC LIMIT ?
		 )`, JobStatusCompleted, JobStatusCompleted, keepLast)
	if err != nil {
		return 0, fmt.Errorf("cleanup completed: %w", err)
	}
	return res.RowsAffected()
}

// RecoverStaleRunning resets any running job whose started_at predates
// maxAge back to pending, healing a worker that crashed mid-job.
func (db *DB) RecoverStaleRunning(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)
	res, err := db.conn.Exec(
		`UPDATE jobs SET status = ?, started_at = NULL WHERE status = ? AND started_at < ?`,
		JobStatusPending, JobStatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("recover stale running: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var createdAt string
	var startedAt, completedAt, errMsg sql.NullString
	if err := row.Scan(&j.ID, &j.JobType, &j.Status, &j.Payload, &j.Priority, &createdAt, &startedAt, &completedAt, &errMsg, &j.Retries); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	j.CreatedAt = t
	if startedAt.Valid {
		st, err := time.Parse(timeLayout, startedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		j.StartedAt = &st
	}
	if completedAt.Valid {
		ct, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		j.CompletedAt = &ct
	}
	if errMsg.Valid {
		j.Error = &errMsg.String
	}
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var j Job
		var createdAt string
		var startedAt, completedAt, errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.JobType, &j.Status, &j.Payload, &j.Priority, &createdAt, &startedAt, &completedAt, &errMsg, &j.Retries); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		j.CreatedAt = t
		if startedAt.Valid {
			st, err := time.Parse(timeLayout, startedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse started_at: %w", err)
			}
			j.StartedAt = &st
		}
		if completedAt.Valid {
			ct, err := time.Parse(timeLayout, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse completed_at: %w", err)
			}
			j.CompletedAt = &ct
		}
		if errMsg.Valid {
			j.Error = &errMsg.String
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
