package job

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// ID is a scan job's unique identifier.
type ID string

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Open reports whether the status counts toward the single-claim invariant
// (at most one job per scan is pending or running).
func (s Status) Open() bool { return s == StatusPending || s == StatusRunning }

// Job is a unit of work queued to run a scan.
type Job struct {
	ID         ID
	ScanID     scan.ID
	Status     Status
	Attempt    int
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      string
}

// EnqueueResult is the outcome of an idempotent enqueue call.
type EnqueueResult struct {
	Enqueued bool
	JobID    ID
	Status   Status
}

// Repository is the persistence port for the job queue.
type Repository interface {
	// Enqueue inserts a new pending job for scanID unless one is already
	// pending or running, in which case it returns that job's id and status
	// with Enqueued=false.
	Enqueue(ctx context.Context, scanID scan.ID) (EnqueueResult, error)
	// ClaimNext atomically claims the oldest pending job, or returns
	// (nil, false, nil) if the queue is empty.
	ClaimNext(ctx context.Context) (*Job, bool, error)
	Finalize(ctx context.Context, id ID, status Status, errMsg string) error
	Get(ctx context.Context, id ID) (*Job, bool, error)
}
