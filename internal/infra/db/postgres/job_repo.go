package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tokenrisk/scanner/internal/domain/job"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// JobRepository is the pgxpool-backed job.Repository implementation.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Enqueue inserts a new pending job for scanID unless one is already open
// (pending or running), enforcing the single-open-job-per-scan invariant
// with a lock on the scan row rather than a unique index, since "open"
// spans two statuses.
func (r *JobRepository) Enqueue(ctx context.Context, scanID scan.ID) (job.EnqueueResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return job.EnqueueResult{}, eris.Wrap(err, "postgres: begin enqueue tx")
	}
	defer tx.Rollback(ctx)

	// Lock the scan row first so concurrent enqueues for the same scan
	// serialize even when no open job row exists yet to lock.
	if _, err := tx.Exec(ctx, `SELECT id FROM scans WHERE id = $1 FOR UPDATE;`, scanID); err != nil {
		return job.EnqueueResult{}, eris.Wrap(err, "postgres: lock scan row")
	}

	const findOpen = `
SELECT id, status FROM scan_jobs
WHERE scan_id = $1 AND status IN ($2, $3)
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE;`

	var existingID, existingStatus string
	err = tx.QueryRow(ctx, findOpen, scanID, string(job.StatusPending), string(job.StatusRunning)).Scan(&existingID, &existingStatus)
	if err == nil {
		return job.EnqueueResult{Enqueued: false, JobID: job.ID(existingID), Status: job.Status(existingStatus)}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return job.EnqueueResult{}, eris.Wrap(err, "postgres: lookup open job")
	}

	id := job.ID(uuid.NewString())
	const insert = `
INSERT INTO scan_jobs (id, scan_id, status, attempt, created_at)
VALUES ($1, $2, $3, 0, $4);`
	if _, err := tx.Exec(ctx, insert, id, scanID, string(job.StatusPending), time.Now()); err != nil {
		return job.EnqueueResult{}, eris.Wrap(err, "postgres: insert job")
	}

	if err := tx.Commit(ctx); err != nil {
		return job.EnqueueResult{}, eris.Wrap(err, "postgres: commit enqueue tx")
	}
	return job.EnqueueResult{Enqueued: true, JobID: id, Status: job.StatusPending}, nil
}

// ClaimNext atomically claims the oldest pending job using SKIP LOCKED so
// multiple worker processes never block on, or double-claim, the same row.
func (r *JobRepository) ClaimNext(ctx context.Context) (*job.Job, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: begin claim tx")
	}
	defer tx.Rollback(ctx)

	const selectNext = `
SELECT id, scan_id, status, attempt, created_at
FROM scan_jobs
WHERE status = $1
ORDER BY created_at ASC
LIMIT 1
FOR UPDATE SKIP LOCKED;`

	var (
		j         job.Job
		status    string
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, selectNext, string(job.StatusPending)).Scan(&j.ID, &j.ScanID, &status, &j.Attempt, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: select next job")
	}
	j.Status = job.Status(status)
	j.CreatedAt = createdAt

	now := time.Now()
	const claim = `UPDATE scan_jobs SET status = $1, attempt = attempt + 1, started_at = $2 WHERE id = $3;`
	if _, err := tx.Exec(ctx, claim, string(job.StatusRunning), now, j.ID); err != nil {
		return nil, false, eris.Wrap(err, "postgres: claim job")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, eris.Wrap(err, "postgres: commit claim tx")
	}
	j.Status = job.StatusRunning
	j.Attempt++
	j.StartedAt = &now
	return &j, true, nil
}

// Finalize records the terminal outcome of a claimed job.
func (r *JobRepository) Finalize(ctx context.Context, id job.ID, status job.Status, errMsg string) error {
	const q = `UPDATE scan_jobs SET status = $1, finished_at = $2, error = $3 WHERE id = $4;`
	_, err := r.pool.Exec(ctx, q, string(status), time.Now(), errMsg, id)
	if err != nil {
		return eris.Wrap(err, "postgres: finalize job")
	}
	return nil
}

// Get returns the job by id, or (nil, false, nil) if it doesn't exist.
func (r *JobRepository) Get(ctx context.Context, id job.ID) (*job.Job, bool, error) {
	const q = `
SELECT id, scan_id, status, attempt, created_at, started_at, finished_at, error
FROM scan_jobs WHERE id = $1;`

	var (
		j         job.Job
		status    string
		createdAt time.Time
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&j.ID, &j.ScanID, &status, &j.Attempt, &createdAt, &j.StartedAt, &j.FinishedAt, &j.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get job")
	}
	j.Status = job.Status(status)
	j.CreatedAt = createdAt
	return &j, true, nil
}
