package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/event"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

const (
	pollInterval        = 1200 * time.Millisecond
	heartbeatInterval   = 15 * time.Second
	terminalCheckEvery  = 4
	readyRetryMS        = 3000
)

// Frame is one transport-level unit the caller writes out. A Comment frame
// carries no id/event/data (SSE comment line). Frames for logged events
// carry ID, Event and Data; the ready frame carries Event, Data and Retry
// but no ID; the end frame carries Event and Data only.
type Frame struct {
	Comment string
	ID      string
	Event   string
	Data    string
	Retry   int
}

// Sender writes one frame to the subscriber. It returns an error on write
// failure or client disconnect, which stops the stream loop.
type Sender func(Frame) error

// Streamer implements replay-then-tail fan-out over a scan's event log with
// a resumable cursor.
type Streamer struct {
	Events event.Repository
	Scans  scan.Repository
}

// Stream runs the read-side loop for scanID starting after cursor (0 for a
// fresh subscriber with no prior Last-Event-ID). It blocks until the run
// reaches a terminal event, the scan is observed in a terminal status, or
// ctx is canceled.
func (s *Streamer) Stream(ctx context.Context, scanID scan.ID, cursor int64, send Sender) error {
	sc, err := s.Scans.Get(ctx, scanID)
	if err != nil {
		return err
	}

	if err := send(Frame{Event: "ready", Data: readyPayload(cursor), Retry: readyRetryMS}); err != nil {
		return err
	}

	lastTraffic := time.Now()
	iteration := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		events, err := s.Events.ListEventsAfter(ctx, scanID, cursor)
		if err != nil {
			return err
		}

		if len(events) > 0 {
			lastTraffic = time.Now()
		}

		for _, e := range events {
			data, err := json.Marshal(e.Payload)
			if err != nil {
				data = []byte("{}")
			}
			frame := Frame{ID: formatID(e.ID), Event: string(e.Type), Data: string(data)}
			if err := send(frame); err != nil {
				return err
			}
			cursor = e.ID

			if e.IsTerminal() {
				return send(Frame{Event: "end", Data: "{}"})
			}
		}

		iteration++
		if len(events) == 0 {
			if iteration%terminalCheckEvery == 0 {
				sc, err = s.Scans.Get(ctx, scanID)
				if err != nil {
					return err
				}
				if sc.Status.Terminal() {
					trailing, err := s.Events.ListEventsAfter(ctx, scanID, cursor)
					if err != nil {
						return err
					}
					for _, e := range trailing {
						data, _ := json.Marshal(e.Payload)
						if err := send(Frame{ID: formatID(e.ID), Event: string(e.Type), Data: string(data)}); err != nil {
							return err
						}
						cursor = e.ID
					}
					return send(Frame{Event: "end", Data: "{}"})
				}
			}

			if time.Since(lastTraffic) >= heartbeatInterval {
				if err := send(Frame{Comment: "keep-alive"}); err != nil {
					return err
				}
				lastTraffic = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func readyPayload(cursor int64) string {
	b, _ := json.Marshal(map[string]any{"cursor": cursor})
	return string(b)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
