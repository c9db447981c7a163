package tools

import (
	"context"
	"strings"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// CreationExecutor implements basescan_getContractCreation: deployer address
// and creation tx hash. lp_v2_lockStatus depends on deployerAddress.
type CreationExecutor struct {
	Explorer *providers.ExplorerClient
}

func (e *CreationExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolBasescanCreation)
	now := time.Now()

	creation, sourceURL, err := e.Explorer.GetContractCreation(ctx, address)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolBasescanCreation, "Contract creation", sourceURL, now, err)
	}

	return evidence.OK(id, evidence.ToolBasescanCreation, "Contract creation", sourceURL, now, map[string]any{
		"deployerAddress": strings.ToLower(creation.DeployerAddress),
		"txHash":          creation.TxHash,
	})
}
