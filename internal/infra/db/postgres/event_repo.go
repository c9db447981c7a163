package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tokenrisk/scanner/internal/domain/event"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

// EventRepository is the pgxpool-backed event.Repository implementation.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Append inserts e with seq = current max(seq)+1 for its scan, under a
// row lock on the scan so concurrent appenders for the same run serialize
// rather than racing on the max(seq) read.
func (r *EventRepository) Append(ctx context.Context, e event.Event) (event.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: begin append tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM scans WHERE id = $1 FOR UPDATE`, e.ScanID); err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: lock scan for event append")
	}

	var nextSeq int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM scan_events WHERE scan_id = $1`, e.ScanID).Scan(&nextSeq); err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: compute next event seq")
	}
	e.Seq = nextSeq

	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: marshal event payload")
	}

	const insert = `
INSERT INTO scan_events (scan_id, seq, ts, level, type, step_key, message, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;`

	if err := tx.QueryRow(ctx, insert, e.ScanID, e.Seq, e.Timestamp, string(e.Level), string(e.Type), e.StepKey, e.Message, payloadJSON).Scan(&e.ID); err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: insert event")
	}

	if err := tx.Commit(ctx); err != nil {
		return event.Event{}, eris.Wrap(err, "postgres: commit append tx")
	}
	return e, nil
}

// ListEvents returns every event for scanID in append order.
func (r *EventRepository) ListEvents(ctx context.Context, scanID scan.ID) ([]event.Event, error) {
	return r.listEvents(ctx, `
SELECT id, scan_id, seq, ts, level, type, step_key, message, payload
FROM scan_events WHERE scan_id = $1 ORDER BY seq ASC;`, scanID)
}

// ListEventsAfter returns every event for scanID with id > afterEventID, in
// append order; this is the replay cursor for a resumable event stream.
func (r *EventRepository) ListEventsAfter(ctx context.Context, scanID scan.ID, afterEventID int64) ([]event.Event, error) {
	return r.listEvents(ctx, `
SELECT id, scan_id, seq, ts, level, type, step_key, message, payload
FROM scan_events WHERE scan_id = $1 AND id > $2 ORDER BY seq ASC;`, scanID, afterEventID)
}

func (r *EventRepository) listEvents(ctx context.Context, q string, args ...any) ([]event.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetLatestEvent returns the most recently appended event for scanID.
func (r *EventRepository) GetLatestEvent(ctx context.Context, scanID scan.ID) (event.Event, bool, error) {
	const q = `
SELECT id, scan_id, seq, ts, level, type, step_key, message, payload
FROM scan_events WHERE scan_id = $1 ORDER BY seq DESC LIMIT 1;`

	row := r.pool.QueryRow(ctx, q, scanID)
	e, err := scanEventRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, false, nil
		}
		return event.Event{}, false, err
	}
	return e, true, nil
}

func scanEventRow(row rowScanner) (event.Event, error) {
	var (
		e           event.Event
		level, typ  string
		payloadJSON []byte
	)
	if err := row.Scan(&e.ID, &e.ScanID, &e.Seq, &e.Timestamp, &level, &typ, &e.StepKey, &e.Message, &payloadJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, eris.Wrap(err, "postgres: scan event row")
	}
	e.Level = event.Level(level)
	e.Type = event.Type(typ)
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
			return event.Event{}, eris.Wrap(err, "postgres: unmarshal event payload")
		}
	}
	return e, nil
}
