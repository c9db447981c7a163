package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/domain/job"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

type fakeJobRepo struct {
	mu      sync.Mutex
	pending []*job.Job
	done    []*job.Job
}

func (r *fakeJobRepo) Enqueue(_ context.Context, scanID scan.ID) (job.EnqueueResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := &job.Job{ID: job.ID(scanID), ScanID: scanID, Status: job.StatusPending}
	r.pending = append(r.pending, j)
	return job.EnqueueResult{Enqueued: true, JobID: j.ID, Status: j.Status}, nil
}

func (r *fakeJobRepo) ClaimNext(_ context.Context) (*job.Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil, false, nil
	}
	j := r.pending[0]
	r.pending = r.pending[1:]
	j.Status = job.StatusRunning
	return j, true, nil
}

func (r *fakeJobRepo) Finalize(_ context.Context, id job.ID, status job.Status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, &job.Job{ID: id, Status: status, Error: errMsg})
	return nil
}

func (r *fakeJobRepo) Get(_ context.Context, id job.ID) (*job.Job, bool, error) {
	return nil, false, nil
}

type fakeJobRunner struct {
	mu      sync.Mutex
	ran     []scan.ID
	failIDs map[scan.ID]bool
}

func (r *fakeJobRunner) Run(_ context.Context, id scan.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, id)
	if r.failIDs[id] {
		return assertErr{}
	}
	return nil
}

type assertErr struct{}

func (assertErr) Error() string { return "run failed" }

func TestWorker_Trigger_DrainsAllPendingJobs(t *testing.T) {
	jobs := &fakeJobRepo{}
	runner := &fakeJobRunner{}
	w := New(jobs, runner)

	jobs.Enqueue(context.Background(), scan.ID("s1"))
	jobs.Enqueue(context.Background(), scan.ID("s2"))

	w.Trigger()

	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.ran) == 2
	}, 2*time.Second, 10*time.Millisecond)

	jobs.mu.Lock()
	doneCount := len(jobs.done)
	jobs.mu.Unlock()
	assert.Equal(t, 2, doneCount)
}

func TestWorker_Trigger_FinalizesFailedJobsAsFailed(t *testing.T) {
	jobs := &fakeJobRepo{}
	runner := &fakeJobRunner{failIDs: map[scan.ID]bool{"bad": true}}
	w := New(jobs, runner)

	jobs.Enqueue(context.Background(), scan.ID("bad"))
	w.Trigger()

	require.Eventually(t, func() bool {
		jobs.mu.Lock()
		defer jobs.mu.Unlock()
		return len(jobs.done) == 1
	}, 2*time.Second, 10*time.Millisecond)

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	assert.Equal(t, job.StatusFailed, jobs.done[0].Status)
}

func TestWorker_Trigger_IsSafeToCallConcurrentlyAndRepeatedly(t *testing.T) {
	jobs := &fakeJobRepo{}
	runner := &fakeJobRunner{}
	w := New(jobs, runner)

	for i := 0; i < 5; i++ {
		jobs.Enqueue(context.Background(), scan.ID("s"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Trigger()
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		jobs.mu.Lock()
		defer jobs.mu.Unlock()
		return len(jobs.done) == 5
	}, 2*time.Second, 10*time.Millisecond)
}
