package llm

import "github.com/tokenrisk/scanner/internal/domain/evidence"

const (
	compactMaxStringLen = 240
	compactMaxChildren  = 20
	compactMaxDepth     = 2
)

// evidencePayloadItem is the wire shape of one ledger item sent to the
// assessor, independent of the internal evidence.Item struct so prompt
// payloads never leak fields the model shouldn't see (e.g. sourceUrl noise).
type evidencePayloadItem struct {
	ID     string         `json:"id"`
	Tool   evidence.Tool  `json:"tool"`
	Title  string         `json:"title"`
	Status evidence.Status `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// fullPayload renders every ledger item verbatim.
func fullPayload(ledger *evidence.Ledger) []evidencePayloadItem {
	items := ledger.Items()
	out := make([]evidencePayloadItem, len(items))
	for i, it := range items {
		out[i] = evidencePayloadItem{ID: it.ID, Tool: it.Tool, Title: it.Title, Status: it.Status, Data: it.Data, Error: it.Error}
	}
	return out
}

// compactPayload renders every ledger item with bounded string length and
// bounded object/array depth and width, to keep the assessor prompt within
// a safe character budget on large evidence ledgers (e.g. holders lists).
func compactPayload(ledger *evidence.Ledger) []evidencePayloadItem {
	items := ledger.Items()
	out := make([]evidencePayloadItem, len(items))
	for i, it := range items {
		var data map[string]any
		if it.Data != nil {
			data, _ = truncateValue(it.Data, 0).(map[string]any)
		}
		out[i] = evidencePayloadItem{ID: it.ID, Tool: it.Tool, Title: truncateString(it.Title), Status: it.Status, Data: data, Error: truncateString(it.Error)}
	}
	return out
}

func truncateString(s string) string {
	if len(s) <= compactMaxStringLen {
		return s
	}
	return s[:compactMaxStringLen] + "…"
}

// truncateValue recursively bounds a decoded-JSON value (map[string]any,
// []any, or scalar) to compactMaxDepth levels of nesting and
// compactMaxChildren entries per level, truncating strings along the way.
func truncateValue(v any, depth int) any {
	switch t := v.(type) {
	case string:
		return truncateString(t)
	case map[string]any:
		if depth >= compactMaxDepth {
			return "(object omitted: max depth reached)"
		}
		out := make(map[string]any, len(t))
		count := 0
		for k, child := range t {
			if count >= compactMaxChildren {
				break
			}
			out[k] = truncateValue(child, depth+1)
			count++
		}
		return out
	case []any:
		if depth >= compactMaxDepth {
			return "(array omitted: max depth reached)"
		}
		n := len(t)
		if n > compactMaxChildren {
			n = compactMaxChildren
		}
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = truncateValue(t[i], depth+1)
		}
		return out
	default:
		return t
	}
}
