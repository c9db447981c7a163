package tools

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// SourceInfoExecutor implements basescan_getSourceInfo: verified source,
// parsed ABI function names, and proxy status. Downstream steps
// (contract_ownerStatus, contract_capabilityScan) depend on this item's
// functionNames and isProxy fields.
type SourceInfoExecutor struct {
	Explorer *providers.ExplorerClient
}

func (e *SourceInfoExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolBasescanSourceInfo)
	now := time.Now()

	info, sourceURL, err := e.Explorer.GetSourceInfo(ctx, address)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolBasescanSourceInfo, "Contract source info", sourceURL, now, err)
	}

	functionNames := make([]string, 0, len(info.ABI))
	for _, f := range info.ABI {
		functionNames = append(functionNames, f.Name)
	}

	return evidence.OK(id, evidence.ToolBasescanSourceInfo, "Contract source info", sourceURL, now, map[string]any{
		"contractName":          info.ContractName,
		"isVerified":            info.SourceCode != "",
		"isProxy":               info.IsProxy,
		"implementationAddress": info.ImplementationAddress,
		"functionNames":         functionNames,
	})
}
