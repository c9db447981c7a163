package scan

import (
	"context"
	"errors"
	"time"
)

// ID is a scan's unique identifier (a UUID string).
type ID string

// Status is a scan's lifecycle state.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the status is one the runner will never transition
// out of on its own (complete, failed, canceled).
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCanceled
}

// Scan is the aggregate root of a single token risk scan.
type Scan struct {
	ID             ID
	Network        string
	TokenAddress   string
	Status         Status
	CreatedAt      time.Time
	DurationMS     int64
	ScannerVersion string
	ScoreVersion   string
	Evidence       map[string]any // opaque JSON ledger, keyed "items" -> []evidence.Item
	Assessment     map[string]any // opaque JSON assessment
	Narrative      string
	ModelID        string
	Error          string
}

// ErrNotFound is returned by a Repository when no scan matches the lookup.
var ErrNotFound = errors.New("scan: not found")

// Repository is the persistence port for scans.
type Repository interface {
	Create(ctx context.Context, s *Scan) error
	Get(ctx context.Context, id ID) (*Scan, error)
	// LatestComplete returns the most recent scan with status=complete for
	// the given network+token, or ErrNotFound if none exists.
	LatestComplete(ctx context.Context, network, tokenAddress string) (*Scan, error)
	// ClaimForRun atomically transitions a scan from queued to running and
	// returns the updated row; ErrNotFound if the scan wasn't in queued.
	ClaimForRun(ctx context.Context, id ID) (*Scan, error)
	Complete(ctx context.Context, id ID, evidence, assessment map[string]any, narrative, modelID string, durationMS int64) error
	Fail(ctx context.Context, id ID, evidence map[string]any, errMsg string, durationMS int64) error
}
