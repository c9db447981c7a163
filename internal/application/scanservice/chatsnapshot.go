package scanservice

import (
	"encoding/json"
	"strings"
)

const (
	maxSnapshotMessages      = 8
	maxMessageContentChars   = 500
	maxSnapshotEvidenceItems = 8
	snapshotCharBudget       = 8000
)

// ChatMessage is one turn of a chat-about-scan conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// keywordToolPreference maps a lowercase keyword found in the latest user
// message to the tool names whose evidence is most likely relevant,
// highest-priority first.
var keywordToolPreference = map[string][]string{
	"liquidity":  {"lp_v2_lockStatus", "dexscreener_getPairs"},
	"lock":       {"lp_v2_lockStatus", "dexscreener_getPairs"},
	"lp":         {"lp_v2_lockStatus", "dexscreener_getPairs"},
	"holder":     {"holders_getTopHolders"},
	"holders":    {"holders_getTopHolders"},
	"supply":     {"holders_getTopHolders", "rpc_getErc20Metadata"},
	"concentrat": {"holders_getTopHolders"},
	"honeypot":   {"honeypot_getSimulation"},
	"tax":        {"honeypot_getSimulation"},
	"sell":       {"honeypot_getSimulation"},
	"buy":        {"honeypot_getSimulation"},
	"owner":      {"contract_ownerStatus"},
	"renounce":   {"contract_ownerStatus"},
	"mint":       {"contract_capabilityScan"},
	"blacklist":  {"contract_capabilityScan"},
	"pause":      {"contract_capabilityScan"},
	"proxy":      {"basescan_getSourceInfo", "contract_capabilityScan"},
	"upgrade":    {"basescan_getSourceInfo", "contract_capabilityScan"},
	"source":     {"basescan_getSourceInfo"},
	"deploy":     {"basescan_getContractCreation"},
	"price":      {"dexscreener_getPairs"},
}

// buildSnapshot builds a bounded, JSON-encodable evidence snapshot for the
// chat prompt. It tries a full rendering first; if that exceeds
// snapshotCharBudget it falls back to a compact rendering that drops each
// item's data field and all but the latest message.
func buildSnapshot(messages []ChatMessage, evidenceItems []map[string]any, assessment map[string]any) string {
	trimmedMessages := trimMessages(messages)
	preferred := preferredTools(trimmedMessages)
	orderedItems := orderByPreference(evidenceItems, preferred, maxSnapshotEvidenceItems)

	full := map[string]any{
		"assessment": assessment,
		"evidence":   orderedItems,
		"messages":   trimmedMessages,
	}
	if body, err := json.Marshal(full); err == nil && len(body) <= snapshotCharBudget {
		return string(body)
	}

	compactItems := make([]map[string]any, len(orderedItems))
	for i, item := range orderedItems {
		compactItems[i] = map[string]any{
			"id":     item["id"],
			"tool":   item["tool"],
			"title":  item["title"],
			"status": item["status"],
			"error":  item["error"],
		}
	}
	lastMessage := trimmedMessages
	if len(lastMessage) > 1 {
		lastMessage = lastMessage[len(lastMessage)-1:]
	}

	compact := map[string]any{
		"assessment": assessment,
		"evidence":   compactItems,
		"messages":   lastMessage,
	}
	body, err := json.Marshal(compact)
	if err != nil {
		return "{}"
	}
	return string(body)
}

func trimMessages(messages []ChatMessage) []ChatMessage {
	start := 0
	if len(messages) > maxSnapshotMessages {
		start = len(messages) - maxSnapshotMessages
	}
	out := make([]ChatMessage, 0, len(messages)-start)
	for _, m := range messages[start:] {
		content := m.Content
		if len(content) > maxMessageContentChars {
			content = content[:maxMessageContentChars]
		}
		out = append(out, ChatMessage{Role: m.Role, Content: content})
	}
	return out
}

// preferredTools derives the tool-name priority order from keyword matches
// against the latest user message, falling back to no preference (original
// ledger order) when nothing matches or there is no user message.
func preferredTools(messages []ChatMessage) []string {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			lastUser = strings.ToLower(messages[i].Content)
			break
		}
	}
	if lastUser == "" {
		return nil
	}

	var preferred []string
	seen := make(map[string]bool)
	for keyword, tools := range keywordToolPreference {
		if !strings.Contains(lastUser, keyword) {
			continue
		}
		for _, tool := range tools {
			if !seen[tool] {
				seen[tool] = true
				preferred = append(preferred, tool)
			}
		}
	}
	return preferred
}

// orderByPreference sorts evidence items so that items whose tool appears
// in preferred come first (in preferred's order), then the remaining items
// in their original order, capped at limit.
func orderByPreference(items []map[string]any, preferred []string, limit int) []map[string]any {
	rank := make(map[string]int, len(preferred))
	for i, tool := range preferred {
		rank[tool] = i
	}

	indexed := make([]map[string]any, len(items))
	copy(indexed, items)

	preferredItems := make([]map[string]any, 0, len(items))
	restItems := make([]map[string]any, 0, len(items))
	for _, item := range indexed {
		tool, _ := item["tool"].(string)
		if _, ok := rank[tool]; ok {
			preferredItems = append(preferredItems, item)
		} else {
			restItems = append(restItems, item)
		}
	}
	sortByRank(preferredItems, rank)

	out := append(preferredItems, restItems...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByRank(items []map[string]any, rank map[string]int) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			toolA, _ := items[j]["tool"].(string)
			toolB, _ := items[j-1]["tool"].(string)
			if rank[toolA] < rank[toolB] {
				items[j], items[j-1] = items[j-1], items[j]
			} else {
				break
			}
		}
	}
}
