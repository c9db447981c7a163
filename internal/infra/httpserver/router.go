package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"

	"github.com/tokenrisk/scanner/internal/domain/event"
	domainllm "github.com/tokenrisk/scanner/internal/domain/llm"
	"github.com/tokenrisk/scanner/internal/domain/scan"

	"github.com/tokenrisk/scanner/internal/application/scanservice"
	"github.com/tokenrisk/scanner/internal/application/stream"
	"github.com/tokenrisk/scanner/internal/middleware"
)

// Router wires the scan lifecycle API onto a chi mux.
type Router struct {
	svc      *scanservice.Service
	streamer *stream.Streamer
}

// NewRouter builds the HTTP handler for the whole API surface.
func NewRouter(svc *scanservice.Service, streamer *stream.Streamer, healthCheckers map[string]middleware.HealthChecker) http.Handler {
	rt := &Router{svc: svc, streamer: streamer}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Last-Event-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(healthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/preflight/contract-code", rt.wrap(rt.handlePreflight))
		r.Post("/scans", rt.wrap(rt.handleCreateScan))
		r.Get("/scans/{id}", rt.wrap(rt.handleGetScan))
		r.Post("/scans/{id}/run", rt.wrap(rt.handleRunScan))
		r.Get("/scans/{id}/events", rt.wrap(rt.handleListEvents))
		r.Get("/scans/{id}/stream", rt.handleStream)
		r.Post("/scans/{id}/chat", rt.wrap(rt.handleChat))
	})

	return mux
}

// errInvalidScanID is returned by parseScanID when the {id} path param is
// not a well-formed UUID, so wrap can answer 400 instead of letting a
// malformed id reach the repository layer as a lookup miss.
var errInvalidScanID = errors.New("invalid scan id")

// parseScanID reads and validates the {id} chi path param.
func parseScanID(req *http.Request) (scan.ID, error) {
	raw := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(raw); err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidScanID, err)
	}
	return scan.ID(raw), nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap translates a handlerFunc's returned error into the right HTTP status.
func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, errInvalidScanID):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, scan.ErrNotFound):
				http.Error(w, "scan not found", http.StatusNotFound)
			case errors.Is(err, scanservice.ErrInvalidAddress):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, scanservice.ErrNotAContract):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, scanservice.ErrEmptyMessages):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domainllm.ErrNoOutput):
				http.Error(w, "assistant unavailable", http.StatusServiceUnavailable)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			middleware.IncrementFailed()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// GET /api/preflight/contract-code?address=0x...
func (rt *Router) handlePreflight(w http.ResponseWriter, req *http.Request) error {
	address := middleware.SanitizeString(req.URL.Query().Get("address"))
	if err := middleware.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %v", scanservice.ErrInvalidAddress, err)
	}
	result, err := rt.svc.PreflightContractCode(req.Context(), address)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /api/scans  body: {"tokenAddress": "0x..."}
func (rt *Router) handleCreateScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		TokenAddress string `json:"tokenAddress"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	tokenAddress := middleware.SanitizeString(body.TokenAddress)
	if err := middleware.ValidateAddress(tokenAddress); err != nil {
		return fmt.Errorf("%w: %v", scanservice.ErrInvalidAddress, err)
	}

	result, err := rt.svc.CreateScan(req.Context(), tokenAddress)
	if err != nil {
		return err
	}

	middleware.IncrementScans()
	status := http.StatusCreated
	if result.Cached {
		status = http.StatusOK
	}
	return writeJSON(w, status, result)
}

// GET /api/scans/{id}
func (rt *Router) handleGetScan(w http.ResponseWriter, req *http.Request) error {
	id, err := parseScanID(req)
	if err != nil {
		return err
	}
	sc, err := rt.svc.GetScan(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sc)
}

// POST /api/scans/{id}/run
func (rt *Router) handleRunScan(w http.ResponseWriter, req *http.Request) error {
	id, err := parseScanID(req)
	if err != nil {
		return err
	}
	result, err := rt.svc.RunScan(req.Context(), id)
	if err != nil {
		return err
	}
	status := http.StatusAccepted
	if result.Skipped {
		status = http.StatusOK
	}
	return writeJSON(w, status, result)
}

// GET /api/scans/{id}/events?after=N
func (rt *Router) handleListEvents(w http.ResponseWriter, req *http.Request) error {
	id, err := parseScanID(req)
	if err != nil {
		return err
	}

	sc, err := rt.svc.GetScan(req.Context(), id)
	if err != nil {
		return err
	}

	var events []event.Event
	nextAfter := int64(0)
	if v := req.URL.Query().Get("after"); v != "" {
		after, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil {
			return eris.Wrap(parseErr, "invalid after cursor")
		}
		nextAfter = after
		events, err = rt.streamer.Events.ListEventsAfter(req.Context(), id, after)
	} else {
		events, err = rt.streamer.Events.ListEvents(req.Context(), id)
	}
	if err != nil {
		return err
	}
	if len(events) > 0 {
		nextAfter = events[len(events)-1].ID
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"scanId":    id,
		"status":    sc.Status,
		"events":    events,
		"nextAfter": nextAfter,
	})
}

// POST /api/scans/{id}/chat  body: {"messages": [{"role": "...", "content": "..."}]}
func (rt *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	id, err := parseScanID(req)
	if err != nil {
		return err
	}

	var body struct {
		Messages []scanservice.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	for i, m := range body.Messages {
		body.Messages[i].Content = middleware.SanitizeString(m.Content)
	}

	result, err := rt.svc.ChatAboutScan(req.Context(), id, body.Messages)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /api/scans/{id}/stream — Server-Sent Events. Not routed through wrap
// since it needs to stream frames rather than return a single JSON body.
func (rt *Router) handleStream(w http.ResponseWriter, req *http.Request) {
	id, err := parseScanID(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cursor := resolveCursor(req)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err = rt.streamer.Stream(req.Context(), id, cursor, func(f stream.Frame) error {
		if _, err := w.Write(frameBytes(f)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		// the connection is already committed to text/event-stream; nothing
		// further to send but a comment noting the failure for curious clients.
		_, _ = w.Write([]byte(": stream error\n\n"))
		flusher.Flush()
	}
}

// resolveCursor reads the replay starting point as the max of the `after`
// query parameter and the Last-Event-ID header (per the SSE reconnection
// convention), so a client that has advanced past its last-seen event ID
// via `after` never gets replayed stale events.
func resolveCursor(req *http.Request) int64 {
	var cursor int64
	if v := req.URL.Query().Get("after"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > cursor {
			cursor = n
		}
	}
	if v := req.Header.Get("Last-Event-ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > cursor {
			cursor = n
		}
	}
	return cursor
}

func frameBytes(f stream.Frame) []byte {
	var b []byte
	if f.Comment != "" {
		b = append(b, ':')
		b = append(b, []byte(f.Comment)...)
		b = append(b, '\n', '\n')
		return b
	}
	if f.ID != "" {
		b = append(b, []byte("id: "+f.ID+"\n")...)
	}
	if f.Event != "" {
		b = append(b, []byte("event: "+f.Event+"\n")...)
	}
	if f.Retry > 0 {
		b = append(b, []byte("retry: "+strconv.Itoa(f.Retry)+"\n")...)
	}
	b = append(b, []byte("data: "+f.Data+"\n\n")...)
	return b
}
