package evidence

import "time"

// Tool enumerates the closed set of executors the pipeline runner can invoke.
type Tool string

const (
	ToolRPCBytecode        Tool = "rpc_getBytecode"
	ToolRPCErc20Metadata   Tool = "rpc_getErc20Metadata"
	ToolBasescanSourceInfo Tool = "basescan_getSourceInfo"
	ToolBasescanCreation   Tool = "basescan_getContractCreation"
	ToolDexscreenerPairs   Tool = "dexscreener_getPairs"
	ToolHoneypotSimulation Tool = "honeypot_getSimulation"
	ToolLPV2LockStatus     Tool = "lp_v2_lockStatus"
	ToolOwnerStatus        Tool = "contract_ownerStatus"
	ToolCapabilityScan     Tool = "contract_capabilityScan"
	ToolTopHolders         Tool = "holders_getTopHolders"
)

// AllTools lists every tool in the closed enum, in no particular order.
var AllTools = []Tool{
	ToolRPCBytecode,
	ToolRPCErc20Metadata,
	ToolBasescanSourceInfo,
	ToolBasescanCreation,
	ToolDexscreenerPairs,
	ToolHoneypotSimulation,
	ToolLPV2LockStatus,
	ToolOwnerStatus,
	ToolCapabilityScan,
	ToolTopHolders,
}

// Status is the outcome of a single tool invocation.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// Item is a single tool invocation's result: identity, status, and opaque data.
type Item struct {
	ID        string         `json:"id"`
	Tool      Tool           `json:"tool"`
	Title     string         `json:"title"`
	SourceURL string         `json:"sourceUrl,omitempty"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Status    Status         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Unavailable builds an "unavailable" evidence item carrying the given error,
// the canonical shape every executor falls back to rather than panicking.
func Unavailable(id string, tool Tool, title, sourceURL string, fetchedAt time.Time, err error) Item {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Item{
		ID:        id,
		Tool:      tool,
		Title:     title,
		SourceURL: sourceURL,
		FetchedAt: fetchedAt,
		Status:    StatusUnavailable,
		Error:     msg,
	}
}

// OK builds a successful evidence item with the given tool-specific data.
func OK(id string, tool Tool, title, sourceURL string, fetchedAt time.Time, data map[string]any) Item {
	return Item{
		ID:        id,
		Tool:      tool,
		Title:     title,
		SourceURL: sourceURL,
		FetchedAt: fetchedAt,
		Status:    StatusOK,
		Data:      data,
	}
}
