package scanservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applicationllm "github.com/tokenrisk/scanner/internal/application/llm"
	"github.com/tokenrisk/scanner/internal/domain/job"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

type fakeScanRepo struct {
	byID   map[scan.ID]*scan.Scan
	latest *scan.Scan
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{byID: make(map[scan.ID]*scan.Scan)}
}

func (f *fakeScanRepo) Create(_ context.Context, s *scan.Scan) error {
	copied := *s
	f.byID[s.ID] = &copied
	return nil
}

func (f *fakeScanRepo) Get(_ context.Context, id scan.ID) (*scan.Scan, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, scan.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeScanRepo) LatestComplete(_ context.Context, _, _ string) (*scan.Scan, error) {
	if f.latest == nil {
		return nil, scan.ErrNotFound
	}
	copied := *f.latest
	return &copied, nil
}

func (f *fakeScanRepo) ClaimForRun(_ context.Context, id scan.ID) (*scan.Scan, error) {
	s, ok := f.byID[id]
	if !ok || s.Status != scan.StatusQueued {
		return nil, scan.ErrNotFound
	}
	s.Status = scan.StatusRunning
	return s, nil
}

func (f *fakeScanRepo) Complete(_ context.Context, id scan.ID, ev, assess map[string]any, narrative, modelID string, durationMS int64) error {
	s, ok := f.byID[id]
	if !ok {
		return scan.ErrNotFound
	}
	s.Status = scan.StatusComplete
	s.Evidence = ev
	s.Assessment = assess
	s.Narrative = narrative
	s.ModelID = modelID
	s.DurationMS = durationMS
	return nil
}

func (f *fakeScanRepo) Fail(_ context.Context, id scan.ID, ev map[string]any, errMsg string, durationMS int64) error {
	s, ok := f.byID[id]
	if !ok {
		return scan.ErrNotFound
	}
	s.Status = scan.StatusFailed
	s.Evidence = ev
	s.Error = errMsg
	s.DurationMS = durationMS
	return nil
}

type fakeJobRepo struct {
	enqueued []scan.ID
}

func (f *fakeJobRepo) Enqueue(_ context.Context, scanID scan.ID) (job.EnqueueResult, error) {
	f.enqueued = append(f.enqueued, scanID)
	return job.EnqueueResult{Enqueued: true, JobID: job.ID("j1"), Status: job.StatusPending}, nil
}

func (f *fakeJobRepo) ClaimNext(context.Context) (*job.Job, bool, error) { return nil, false, nil }
func (f *fakeJobRepo) Finalize(context.Context, job.ID, job.Status, string) error { return nil }
func (f *fakeJobRepo) Get(context.Context, job.ID) (*job.Job, bool, error) { return nil, false, nil }

type fakeRPC struct {
	code string
	err  error
}

func (f *fakeRPC) GetCode(context.Context, string) (string, string, error) {
	return f.code, "http://rpc.test", f.err
}

type fakeTrigger struct {
	triggered int
}

func (f *fakeTrigger) Trigger() { f.triggered++ }

const validAddress = "0x1234567890abcdef1234567890abcdef12345678"

func TestCreateScan_RejectsInvalidAddressFormat(t *testing.T) {
	svc := &Service{RPC: &fakeRPC{code: "0x6080"}, Scans: newFakeScanRepo(), Jobs: &fakeJobRepo{}, Worker: &fakeTrigger{}, Network: "base"}

	_, err := svc.CreateScan(context.Background(), "not-an-address")

	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCreateScan_RejectsAddressWithNoBytecode(t *testing.T) {
	svc := &Service{RPC: &fakeRPC{code: "0x"}, Scans: newFakeScanRepo(), Jobs: &fakeJobRepo{}, Worker: &fakeTrigger{}, Network: "base"}

	_, err := svc.CreateScan(context.Background(), validAddress)

	assert.ErrorIs(t, err, ErrNotAContract)
}

func TestCreateScan_QueuesNewScanAndTriggersWorkerWhenNoCacheHit(t *testing.T) {
	scans := newFakeScanRepo()
	jobs := &fakeJobRepo{}
	trigger := &fakeTrigger{}
	svc := &Service{RPC: &fakeRPC{code: "0x6080"}, Scans: scans, Jobs: jobs, Worker: trigger, Network: "base", CacheTTL: 15 * time.Minute}

	result, err := svc.CreateScan(context.Background(), validAddress)

	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, "queued", result.Status)
	assert.Len(t, jobs.enqueued, 1)
	assert.Equal(t, 1, trigger.triggered)
	assert.Contains(t, scans.byID, result.ScanID)
}

func TestCreateScan_ReturnsCachedScanWithinTTL(t *testing.T) {
	scans := newFakeScanRepo()
	cachedID := scan.ID("cached-1")
	scans.latest = &scan.Scan{ID: cachedID, Status: scan.StatusComplete, CreatedAt: time.Now().Add(-5 * time.Minute)}
	jobs := &fakeJobRepo{}
	svc := &Service{RPC: &fakeRPC{code: "0x6080"}, Scans: scans, Jobs: jobs, Worker: &fakeTrigger{}, Network: "base", CacheTTL: 15 * time.Minute}

	result, err := svc.CreateScan(context.Background(), validAddress)

	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, cachedID, result.ScanID)
	assert.Empty(t, jobs.enqueued)
}

func TestCreateScan_IgnoresStaleCacheBeyondTTL(t *testing.T) {
	scans := newFakeScanRepo()
	scans.latest = &scan.Scan{ID: scan.ID("stale-1"), Status: scan.StatusComplete, CreatedAt: time.Now().Add(-time.Hour)}
	jobs := &fakeJobRepo{}
	svc := &Service{RPC: &fakeRPC{code: "0x6080"}, Scans: scans, Jobs: jobs, Worker: &fakeTrigger{}, Network: "base", CacheTTL: 15 * time.Minute}

	result, err := svc.CreateScan(context.Background(), validAddress)

	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Len(t, jobs.enqueued, 1)
}

func TestRunScan_SkipsWhenScanIsTerminal(t *testing.T) {
	scans := newFakeScanRepo()
	id := scan.ID("s1")
	scans.byID[id] = &scan.Scan{ID: id, Status: scan.StatusComplete}
	jobs := &fakeJobRepo{}
	trigger := &fakeTrigger{}
	svc := &Service{Scans: scans, Jobs: jobs, Worker: trigger}

	result, err := svc.RunScan(context.Background(), id)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, jobs.enqueued)
	assert.Equal(t, 0, trigger.triggered)
}

func TestRunScan_RequeuesAndTriggersWhenNotTerminal(t *testing.T) {
	scans := newFakeScanRepo()
	id := scan.ID("s1")
	scans.byID[id] = &scan.Scan{ID: id, Status: scan.StatusQueued}
	jobs := &fakeJobRepo{}
	trigger := &fakeTrigger{}
	svc := &Service{Scans: scans, Jobs: jobs, Worker: trigger}

	result, err := svc.RunScan(context.Background(), id)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Len(t, jobs.enqueued, 1)
	assert.Equal(t, 1, trigger.triggered)
}

func TestRunScan_ReturnsNotFoundForUnknownScan(t *testing.T) {
	svc := &Service{Scans: newFakeScanRepo(), Jobs: &fakeJobRepo{}, Worker: &fakeTrigger{}}

	_, err := svc.RunScan(context.Background(), scan.ID("missing"))

	assert.ErrorIs(t, err, scan.ErrNotFound)
}

func TestGetScan_ReturnsNotFoundForUnknownScan(t *testing.T) {
	svc := &Service{Scans: newFakeScanRepo()}

	_, err := svc.GetScan(context.Background(), scan.ID("missing"))

	assert.ErrorIs(t, err, scan.ErrNotFound)
}

func TestPreflightContractCode_ReportsSizeFromHexBytecode(t *testing.T) {
	svc := &Service{RPC: &fakeRPC{code: "0x6080604052"}, Network: "base"}

	result, err := svc.PreflightContractCode(context.Background(), validAddress)

	require.NoError(t, err)
	assert.True(t, result.HasCode)
	assert.Equal(t, 5, result.BytecodeSizeBytes)
	assert.Equal(t, "base", result.Chain)
}

func TestPreflightContractCode_NoCodeWhenBytecodeIsEmpty(t *testing.T) {
	svc := &Service{RPC: &fakeRPC{code: "0x"}, Network: "base"}

	result, err := svc.PreflightContractCode(context.Background(), validAddress)

	require.NoError(t, err)
	assert.False(t, result.HasCode)
	assert.Equal(t, 0, result.BytecodeSizeBytes)
}

type fakeLLMClient struct {
	out string
	err error
}

func (f *fakeLLMClient) Complete(context.Context, string, string, string) (string, error) {
	return f.out, f.err
}

func TestChatAboutScan_RejectsEmptyMessageList(t *testing.T) {
	svc := &Service{Scans: newFakeScanRepo()}

	_, err := svc.ChatAboutScan(context.Background(), scan.ID("s1"), nil)

	assert.ErrorIs(t, err, ErrEmptyMessages)
}

func TestChatAboutScan_ReturnsNotFoundForUnknownScan(t *testing.T) {
	svc := &Service{Scans: newFakeScanRepo()}

	_, err := svc.ChatAboutScan(context.Background(), scan.ID("missing"), []ChatMessage{{Role: "user", Content: "is this a honeypot?"}})

	assert.ErrorIs(t, err, scan.ErrNotFound)
}

func TestChatAboutScan_BuildsSnapshotFromPersistedEvidenceAndCallsBridge(t *testing.T) {
	scans := newFakeScanRepo()
	id := scan.ID("s1")
	scans.byID[id] = &scan.Scan{
		ID:           id,
		TokenAddress: validAddress,
		Status:       scan.StatusComplete,
		Evidence: map[string]any{
			"items": []any{
				map[string]any{"id": "ev_honeypot_aaaa0000", "tool": "honeypot_getSimulation", "title": "Honeypot simulation", "status": "ok", "data": map[string]any{"isHoneypot": false}},
			},
		},
		Assessment: map[string]any{"overallScore": 72, "riskLevel": "medium"},
	}
	bridge := &applicationllm.Bridge{Client: &fakeLLMClient{out: `{"message": "This token does not appear to be a honeypot (ev_honeypot_aaaa0000)."}`}, PrimaryModel: "test-model"}
	svc := &Service{Scans: scans, Bridge: bridge}

	result, err := svc.ChatAboutScan(context.Background(), id, []ChatMessage{{Role: "user", Content: "is this a honeypot?"}})

	require.NoError(t, err)
	assert.Contains(t, result.Message, "ev_honeypot_aaaa0000")
}

func TestChatAboutScan_PropagatesBridgeError(t *testing.T) {
	scans := newFakeScanRepo()
	id := scan.ID("s1")
	scans.byID[id] = &scan.Scan{ID: id, TokenAddress: validAddress, Status: scan.StatusComplete}
	bridge := &applicationllm.Bridge{Client: &fakeLLMClient{err: assertErr{}}, PrimaryModel: "test-model"}
	svc := &Service{Scans: scans, Bridge: bridge}

	_, err := svc.ChatAboutScan(context.Background(), id, []ChatMessage{{Role: "user", Content: "hello"}})

	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "llm call failed" }
