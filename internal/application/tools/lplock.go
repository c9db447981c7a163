package tools

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/analysis"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// LPLockExecutor implements lp_v2_lockStatus. It depends on
// dexscreener_getPairs.bestPair.pairAddress and, optionally,
// basescan_getContractCreation.deployerAddress.
type LPLockExecutor struct {
	RPC *providers.RPCClient
}

func (e *LPLockExecutor) Execute(ctx context.Context, _ string, prior evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolLPV2LockStatus)
	now := time.Now()

	pairAddress, ok := bestPairAddress(prior)
	if !ok {
		return evidence.Unavailable(id, evidence.ToolLPV2LockStatus, "LP lock status", "", now,
			fmt.Errorf("no DEX pair available to probe for LP lock status"))
	}

	deployerAddress, hasDeployer := deployerAddressOf(prior)

	reservesHex, sourceURL, err := e.RPC.EthCall(ctx, pairAddress, providers.SelectorGetReserves)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolLPV2LockStatus, "LP lock status", sourceURL, now, err)
	}

	totalSupplyHex, u, err := e.RPC.EthCall(ctx, pairAddress, providers.SelectorTotalSupply)
	sourceURL = u
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolLPV2LockStatus, "LP lock status", sourceURL, now, err)
	}

	zeroBalanceHex, u, err := e.RPC.EthCall(ctx, pairAddress, providers.CallData(providers.SelectorBalanceOf, providers.EncodeAddressArg(analysis.ZeroAddress)))
	sourceURL = u
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolLPV2LockStatus, "LP lock status", sourceURL, now, err)
	}

	deadBalanceHex, u, err := e.RPC.EthCall(ctx, pairAddress, providers.CallData(providers.SelectorBalanceOf, providers.EncodeAddressArg(analysis.DeadAddress)))
	sourceURL = u
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolLPV2LockStatus, "LP lock status", sourceURL, now, err)
	}

	var deployerBalance *big.Int
	if hasDeployer {
		deployerBalanceHex, u, err := e.RPC.EthCall(ctx, pairAddress, providers.CallData(providers.SelectorBalanceOf, providers.EncodeAddressArg(deployerAddress)))
		sourceURL = u
		if err == nil {
			deployerBalance = providers.DecodeABIUint(deployerBalanceHex)
		}
	}

	result := analysis.InferLock(
		reservesHex,
		providers.DecodeABIUint(totalSupplyHex),
		providers.DecodeABIUint(zeroBalanceHex),
		providers.DecodeABIUint(deadBalanceHex),
		deployerBalance,
	)

	return evidence.OK(id, evidence.ToolLPV2LockStatus, "LP lock status", sourceURL, now, map[string]any{
		"pairAddress": pairAddress,
		"isV2Like":    result.IsV2Like,
		"burnedPct":   result.BurnedPct,
		"deployerPct": result.DeployerPct,
		"status":      string(result.Status),
		"confidence":  string(result.Confidence),
		"reason":      result.Reason,
	})
}

func bestPairAddress(prior evidence.Ledger) (string, bool) {
	item, ok := prior.ByTool(evidence.ToolDexscreenerPairs)
	if !ok || item.Status != evidence.StatusOK {
		return "", false
	}
	best, ok := item.Data["bestPair"].(map[string]any)
	if !ok {
		return "", false
	}
	addr, ok := best["pairAddress"].(string)
	if !ok || addr == "" {
		return "", false
	}
	return addr, true
}

func deployerAddressOf(prior evidence.Ledger) (string, bool) {
	item, ok := prior.ByTool(evidence.ToolBasescanCreation)
	if !ok || item.Status != evidence.StatusOK {
		return "", false
	}
	addr, ok := item.Data["deployerAddress"].(string)
	if !ok || addr == "" {
		return "", false
	}
	return addr, true
}
