package scanservice

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	applicationllm "github.com/tokenrisk/scanner/internal/application/llm"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/domain/job"
	"github.com/tokenrisk/scanner/internal/domain/scan"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ErrInvalidAddress is returned when a caller-supplied token address fails
// the 0x+40-hex-char format check.
var ErrInvalidAddress = eris.New("scanservice: invalid token address format")

// ErrNotAContract is returned by CreateScan when the chain RPC preflight
// reports no bytecode at the address.
var ErrNotAContract = eris.New("scanservice: address has no contract bytecode")

// ErrEmptyMessages is returned by ChatAboutScan when the caller supplies no
// messages to answer.
var ErrEmptyMessages = eris.New("scanservice: chat message list cannot be empty")

// CodeFetcher is the chain RPC surface CreateScan needs for its preflight
// bytecode check. It is satisfied by *providers.RPCClient.
type CodeFetcher interface {
	GetCode(ctx context.Context, address string) (string, string, error)
}

// Trigger wakes the background worker. It is satisfied by *worker.Worker.
type Trigger interface {
	Trigger()
}

// Service implements the scan lifecycle API: CreateScan, RunScan, GetScan,
// ChatAboutScan.
type Service struct {
	Scans   scan.Repository
	Jobs    job.Repository
	RPC     CodeFetcher
	Worker  Trigger
	Bridge  *applicationllm.Bridge
	Network string

	CacheTTL time.Duration
}

// CreateResult is the response shape for CreateScan.
type CreateResult struct {
	ScanID ID     `json:"scanId"`
	Status string `json:"status"`
	Cached bool   `json:"cached"`
}

// ID is a scan identifier as surfaced to API callers.
type ID = scan.ID

// PreflightResult is the response shape for the contract-code preflight.
type PreflightResult struct {
	Chain             string `json:"chain"`
	Address           string `json:"address"`
	HasCode           bool   `json:"hasCode"`
	BytecodeSizeBytes int    `json:"bytecodeSizeBytes"`
}

// RunResult is the response shape for RunScan.
type RunResult struct {
	ScanID  ID     `json:"scanId"`
	Status  string `json:"status"`
	Skipped bool   `json:"skipped"`
}

// ChatResult is the response shape for ChatAboutScan.
type ChatResult struct {
	Message string `json:"message"`
}

func normalizeAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if !addressPattern.MatchString(trimmed) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(trimmed), nil
}

// PreflightContractCode backs GET /api/preflight/contract-code: it validates
// the address and reports whether the chain has bytecode there, without
// creating a scan.
func (s *Service) PreflightContractCode(ctx context.Context, address string) (PreflightResult, error) {
	normalized, err := normalizeAddress(address)
	if err != nil {
		return PreflightResult{}, err
	}

	hexCode, _, err := s.RPC.GetCode(ctx, normalized)
	if err != nil {
		return PreflightResult{}, eris.Wrap(err, "scanservice: preflight eth_getCode")
	}

	hasCode := hexCode != "" && hexCode != "0x"
	size := 0
	if hasCode {
		size = (len(hexCode) - 2) / 2
	}
	return PreflightResult{
		Chain:             s.Network,
		Address:           normalized,
		HasCode:           hasCode,
		BytecodeSizeBytes: size,
	}, nil
}

// CreateScan validates and preflights tokenAddress, returns a fresh complete
// scan from cache when one is recent enough, and otherwise queues a new run.
func (s *Service) CreateScan(ctx context.Context, tokenAddress string) (CreateResult, error) {
	normalized, err := normalizeAddress(tokenAddress)
	if err != nil {
		return CreateResult{}, err
	}

	hexCode, _, err := s.RPC.GetCode(ctx, normalized)
	if err != nil {
		return CreateResult{}, eris.Wrap(err, "scanservice: preflight eth_getCode")
	}
	if hexCode == "" || hexCode == "0x" {
		return CreateResult{}, ErrNotAContract
	}

	if cached, ok, err := s.lookupCached(ctx, normalized); err != nil {
		return CreateResult{}, err
	} else if ok {
		return CreateResult{ScanID: cached.ID, Status: string(cached.Status), Cached: true}, nil
	}

	id := scan.ID(uuid.NewString())
	newScan := &scan.Scan{
		ID:           id,
		Network:      s.Network,
		TokenAddress: normalized,
		Status:       scan.StatusQueued,
		CreatedAt:    time.Now(),
	}
	if err := s.Scans.Create(ctx, newScan); err != nil {
		return CreateResult{}, eris.Wrap(err, "scanservice: create scan")
	}

	if _, err := s.Jobs.Enqueue(ctx, id); err != nil {
		return CreateResult{}, eris.Wrap(err, "scanservice: enqueue job")
	}
	s.Worker.Trigger()

	return CreateResult{ScanID: id, Status: string(scan.StatusQueued), Cached: false}, nil
}

func (s *Service) lookupCached(ctx context.Context, tokenAddress string) (*scan.Scan, bool, error) {
	latest, err := s.Scans.LatestComplete(ctx, s.Network, tokenAddress)
	if err != nil {
		if err == scan.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "scanservice: lookup latest complete scan")
	}

	ttl := s.CacheTTL
	if ttl <= 0 {
		return nil, false, nil
	}
	if time.Since(latest.CreatedAt) > ttl {
		return nil, false, nil
	}
	return latest, true, nil
}

// RunScan re-queues scanId for another run unless it is already in a
// terminal state, in which case it reports skipped=true without error.
func (s *Service) RunScan(ctx context.Context, id ID) (RunResult, error) {
	sc, err := s.Scans.Get(ctx, id)
	if err != nil {
		return RunResult{}, err
	}

	if sc.Status.Terminal() {
		return RunResult{ScanID: id, Status: string(sc.Status), Skipped: true}, nil
	}

	if _, err := s.Jobs.Enqueue(ctx, id); err != nil {
		return RunResult{}, eris.Wrap(err, "scanservice: enqueue job")
	}
	s.Worker.Trigger()

	return RunResult{ScanID: id, Status: "queued", Skipped: false}, nil
}

// GetScan returns the full scan record, including its evidence ledger and
// assessment once the run has progressed far enough to have produced them.
func (s *Service) GetScan(ctx context.Context, id ID) (*scan.Scan, error) {
	return s.Scans.Get(ctx, id)
}

// ChatAboutScan answers a follow-up question about an already-scanned token
// from a bounded snapshot of its evidence and assessment only.
func (s *Service) ChatAboutScan(ctx context.Context, id ID, messages []ChatMessage) (ChatResult, error) {
	if len(messages) == 0 {
		return ChatResult{}, ErrEmptyMessages
	}

	sc, err := s.Scans.Get(ctx, id)
	if err != nil {
		return ChatResult{}, err
	}

	items := extractEvidenceItems(sc.Evidence)
	snapshotJSON := buildSnapshot(messages, items, sc.Assessment)

	reply, err := s.Bridge.Chat(ctx, sc.TokenAddress, snapshotJSON)
	if err != nil {
		return ChatResult{}, eris.Wrap(err, "scanservice: chat completion")
	}
	return ChatResult{Message: reply}, nil
}

// extractEvidenceItems pulls the "items" slice out of a scan's opaque
// Evidence map, tolerating both the in-process shape ([]evidence.Item, set
// directly by the pipeline runner before persistence) and the JSON-decoded
// shape ([]any of map[string]any, once it has round-tripped through a
// repository).
func extractEvidenceItems(evidencePayload map[string]any) []map[string]any {
	if evidencePayload == nil {
		return nil
	}
	raw, ok := evidencePayload["items"]
	if !ok {
		return nil
	}

	switch typed := raw.(type) {
	case []evidence.Item:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, itemToMap(item))
		}
		return out
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, v := range typed {
			if m, ok := v.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func itemToMap(item evidence.Item) map[string]any {
	m := map[string]any{
		"id":     item.ID,
		"tool":   string(item.Tool),
		"title":  item.Title,
		"status": string(item.Status),
	}
	if item.SourceURL != "" {
		m["sourceUrl"] = item.SourceURL
	}
	if item.Error != "" {
		m["error"] = item.Error
	}
	if item.Data != nil {
		m["data"] = item.Data
	}
	return m
}
