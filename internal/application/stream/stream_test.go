package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/domain/event"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

type fakeScans struct {
	s *scan.Scan
}

func (f *fakeScans) Create(context.Context, *scan.Scan) error { return nil }
func (f *fakeScans) Get(_ context.Context, id scan.ID) (*scan.Scan, error) {
	if f.s == nil || f.s.ID != id {
		return nil, scan.ErrNotFound
	}
	copied := *f.s
	return &copied, nil
}
func (f *fakeScans) LatestComplete(context.Context, string, string) (*scan.Scan, error) {
	return nil, scan.ErrNotFound
}
func (f *fakeScans) ClaimForRun(context.Context, scan.ID) (*scan.Scan, error) { return nil, nil }
func (f *fakeScans) Complete(context.Context, scan.ID, map[string]any, map[string]any, string, string, int64) error {
	return nil
}
func (f *fakeScans) Fail(context.Context, scan.ID, map[string]any, string, int64) error { return nil }

type fakeEvents struct {
	all []event.Event
}

func (f *fakeEvents) Append(_ context.Context, e event.Event) (event.Event, error) { return e, nil }
func (f *fakeEvents) ListEvents(context.Context, scan.ID) ([]event.Event, error)   { return f.all, nil }
func (f *fakeEvents) ListEventsAfter(_ context.Context, _ scan.ID, after int64) ([]event.Event, error) {
	var out []event.Event
	for _, e := range f.all {
		if e.ID > after {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakeEvents) GetLatestEvent(context.Context, scan.ID) (event.Event, bool, error) {
	if len(f.all) == 0 {
		return event.Event{}, false, nil
	}
	return f.all[len(f.all)-1], true, nil
}

func TestStreamer_Stream_ReplaysThenSendsEndOnRunCompleted(t *testing.T) {
	scanID := scan.ID("s1")
	events := &fakeEvents{all: []event.Event{
		{ID: 1, ScanID: scanID, Type: event.TypeRunStarted},
		{ID: 2, ScanID: scanID, Type: event.TypeRunCompleted},
	}}
	scans := &fakeScans{s: &scan.Scan{ID: scanID, Status: scan.StatusComplete}}

	s := &Streamer{Events: events, Scans: scans}

	var frames []Frame
	err := s.Stream(context.Background(), scanID, 0, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, frames, 4) // ready, run.started, run.completed, end
	assert.Equal(t, "ready", frames[0].Event)
	assert.Equal(t, "run.started", frames[1].Event)
	assert.Equal(t, "run.completed", frames[2].Event)
	assert.Equal(t, "end", frames[3].Event)
}

func TestStreamer_Stream_ReturnsErrorWhenScanNotFound(t *testing.T) {
	s := &Streamer{Events: &fakeEvents{}, Scans: &fakeScans{}}
	err := s.Stream(context.Background(), scan.ID("missing"), 0, func(Frame) error { return nil })
	assert.ErrorIs(t, err, scan.ErrNotFound)
}

func TestStreamer_Stream_StopsWhenSendReturnsError(t *testing.T) {
	scanID := scan.ID("s1")
	events := &fakeEvents{all: []event.Event{{ID: 1, ScanID: scanID, Type: event.TypeRunStarted}}}
	scans := &fakeScans{s: &scan.Scan{ID: scanID, Status: scan.StatusRunning}}

	s := &Streamer{Events: events, Scans: scans}

	boom := assertErr{}
	err := s.Stream(context.Background(), scanID, 0, func(f Frame) error {
		if f.Event == "run.started" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

type assertErr struct{}

func (assertErr) Error() string { return "send failed" }

func TestStreamer_Stream_StopsOnContextCancel(t *testing.T) {
	scanID := scan.ID("s1")
	scans := &fakeScans{s: &scan.Scan{ID: scanID, Status: scan.StatusRunning}}
	s := &Streamer{Events: &fakeEvents{}, Scans: scans}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Stream(ctx, scanID, 0, func(Frame) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
