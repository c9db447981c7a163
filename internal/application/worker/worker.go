package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tokenrisk/scanner/internal/domain/job"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// Worker is the process-local singleton that drains the job queue. Trigger
// is safe to call from any goroutine without awaiting it; the background
// loop is started exactly once and then woken by a buffered signal on every
// subsequent trigger.
type Worker struct {
	Jobs   job.Repository
	Runner JobRunner

	once sync.Once
	wake chan struct{}
}

// JobRunner executes the scan behind a claimed job.
type JobRunner interface {
	Run(ctx context.Context, scanID scan.ID) error
}

// New builds a Worker. Call Trigger to start and wake its background loop.
func New(jobs job.Repository, runner JobRunner) *Worker {
	return &Worker{Jobs: jobs, Runner: runner, wake: make(chan struct{}, 1)}
}

// Trigger starts the background loop on first call and otherwise sends a
// non-blocking wake signal so an idle loop re-checks the pending queue.
func (w *Worker) Trigger() {
	w.once.Do(func() { go w.loop() })
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) loop() {
	for range w.wake {
		w.drain()
	}
}

// drain claims and runs jobs until the pending queue is empty.
func (w *Worker) drain() {
	ctx := context.Background()
	for {
		j, ok, err := w.Jobs.ClaimNext(ctx)
		if err != nil {
			zap.L().Error("worker: failed to claim next job", zap.Error(err))
			return
		}
		if !ok {
			return
		}

		runErr := w.Runner.Run(ctx, j.ScanID)
		if runErr != nil {
			if err := w.Jobs.Finalize(ctx, j.ID, job.StatusFailed, runErr.Error()); err != nil {
				zap.L().Error("worker: failed to finalize failed job", zap.Error(err))
			}
			continue
		}
		if err := w.Jobs.Finalize(ctx, j.ID, job.StatusCompleted, ""); err != nil {
			zap.L().Error("worker: failed to finalize completed job", zap.Error(err))
		}
	}
}
