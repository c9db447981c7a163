package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/analysis"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

// CapabilityScanExecutor implements contract_capabilityScan. It depends on
// basescan_getSourceInfo's functionNames and isProxy fields.
type CapabilityScanExecutor struct{}

func (e *CapabilityScanExecutor) Execute(_ context.Context, _ string, prior evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolCapabilityScan)
	now := time.Now()

	item, ok := prior.ByTool(evidence.ToolBasescanSourceInfo)
	if !ok || item.Status != evidence.StatusOK {
		return evidence.Unavailable(id, evidence.ToolCapabilityScan, "Capability scan", "", now,
			fmt.Errorf("contract source info was not available to scan for capabilities"))
	}

	functionNames, _ := sourceFunctionNames(prior)
	isProxy, _ := item.Data["isProxy"].(bool)

	caps := analysis.ScanCapabilities(functionNames, isProxy)

	return evidence.OK(id, evidence.ToolCapabilityScan, "Capability scan", item.SourceURL, now, map[string]any{
		"mintPossible":     caps.MintPossible,
		"canBlacklist":     caps.CanBlacklist,
		"canPause":         caps.CanPause,
		"canSetFees":       caps.CanSetFees,
		"hasTradingToggle": caps.HasTradingToggle,
		"upgradeableProxy": caps.UpgradeableProxy,
	})
}
