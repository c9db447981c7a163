package event

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// Level is the severity of a logged event, independent of the scan's status.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Type is a dotted event-type string, e.g. "step.completed".
type Type string

const (
	TypeRunStarted       Type = "run.started"
	TypeRunCompleted     Type = "run.completed"
	TypeRunFailed        Type = "run.failed"
	TypeStepStarted      Type = "step.started"
	TypeStepCompleted    Type = "step.completed"
	TypeStepFailed       Type = "step.failed"
	TypeLogLine          Type = "log.line"
	TypeEvidenceItem     Type = "evidence.item"
	TypeArtifactPlan     Type = "artifact.plan"
	TypeAssessmentFinal  Type = "assessment.final"
)

// Event is a single immutable append in a scan's event log.
type Event struct {
	ID        int64 // global monotonic id
	ScanID    scan.ID
	Seq       int // monotonic within a scan, starting at 1
	Timestamp time.Time
	Level     Level
	Type      Type
	StepKey   string
	Message   string
	Payload   map[string]any
}

// IsTerminal reports whether this event type closes out a scan run.
func (e Event) IsTerminal() bool {
	return e.Type == TypeRunCompleted || e.Type == TypeRunFailed
}

// Repository is the persistence port for a scan's append-only event log.
type Repository interface {
	// Append inserts a new event with seq = current max(seq) for the scan + 1,
	// serialized against concurrent appenders for the same scan.
	Append(ctx context.Context, e Event) (Event, error)
	ListEvents(ctx context.Context, scanID scan.ID) ([]Event, error)
	ListEventsAfter(ctx context.Context, scanID scan.ID, afterEventID int64) ([]Event, error)
	GetLatestEvent(ctx context.Context, scanID scan.ID) (Event, bool, error)
}
