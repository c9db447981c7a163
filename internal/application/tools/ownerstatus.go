package tools

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/analysis"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// OwnerStatusExecutor implements contract_ownerStatus. It depends on
// basescan_getSourceInfo's functionNames to know whether owner() exists.
type OwnerStatusExecutor struct {
	RPC *providers.RPCClient
}

func (e *OwnerStatusExecutor) Execute(ctx context.Context, address string, prior evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolOwnerStatus)
	now := time.Now()

	functionNames, ok := sourceFunctionNames(prior)
	if !ok || !containsFunction(functionNames, "owner") {
		status := analysis.NoOwnerFunction()
		return evidence.OK(id, evidence.ToolOwnerStatus, "Owner status", "", now, map[string]any{
			"hasOwnerFunction": status.HasOwnerFunction,
			"owner":            nil,
			"renounced":        status.Renounced,
		})
	}

	raw, sourceURL, err := e.RPC.EthCall(ctx, address, providers.SelectorOwner)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolOwnerStatus, "Owner status", sourceURL, now, err)
	}

	status := analysis.DecodeOwner(raw)
	data := map[string]any{
		"hasOwnerFunction": status.HasOwnerFunction,
		"renounced":        status.Renounced,
	}
	if status.Owner != nil {
		data["owner"] = *status.Owner
	} else {
		data["owner"] = nil
	}

	return evidence.OK(id, evidence.ToolOwnerStatus, "Owner status", sourceURL, now, data)
}

func sourceFunctionNames(prior evidence.Ledger) ([]string, bool) {
	item, ok := prior.ByTool(evidence.ToolBasescanSourceInfo)
	if !ok || item.Status != evidence.StatusOK {
		return nil, false
	}
	raw, ok := item.Data["functionNames"].([]string)
	if ok {
		return raw, true
	}
	rawAny, ok := item.Data["functionNames"].([]any)
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(rawAny))
	for _, n := range rawAny {
		if s, ok := n.(string); ok {
			names = append(names, s)
		}
	}
	return names, true
}

func containsFunction(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
