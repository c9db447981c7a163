package tools

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// MetadataExecutor implements rpc_getErc20Metadata: four independent
// eth_call reads (name, symbol, decimals, totalSupply), fanned out
// concurrently and merged.
type MetadataExecutor struct {
	RPC *providers.RPCClient
}

func (e *MetadataExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolRPCErc20Metadata)
	now := time.Now()

	var name, symbol, decimalsHex, totalSupplyHex string
	var nameURL, symbolURL, decimalsURL, totalSupplyURL string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, u, err := e.RPC.EthCall(gctx, address, providers.SelectorName)
		nameURL = u
		if err != nil {
			return err
		}
		name = providers.DecodeABIString(raw)
		return nil
	})
	g.Go(func() error {
		raw, u, err := e.RPC.EthCall(gctx, address, providers.SelectorSymbol)
		symbolURL = u
		if err != nil {
			return err
		}
		symbol = providers.DecodeABIString(raw)
		return nil
	})
	g.Go(func() error {
		raw, u, err := e.RPC.EthCall(gctx, address, providers.SelectorDecimals)
		decimalsURL = u
		if err != nil {
			return err
		}
		decimalsHex = raw
		return nil
	})
	g.Go(func() error {
		raw, u, err := e.RPC.EthCall(gctx, address, providers.SelectorTotalSupply)
		totalSupplyURL = u
		if err != nil {
			return err
		}
		totalSupplyHex = raw
		return nil
	})

	waitErr := g.Wait()

	// All four calls hit the same RPC endpoint, so any non-empty captured
	// URL identifies the source once every goroutine has joined.
	var sourceURL string
	for _, u := range []string{nameURL, symbolURL, decimalsURL, totalSupplyURL} {
		if u != "" {
			sourceURL = u
			break
		}
	}

	if waitErr != nil {
		return evidence.Unavailable(id, evidence.ToolRPCErc20Metadata, "ERC-20 metadata", sourceURL, now, waitErr)
	}

	decimals := providers.DecodeABIUint(decimalsHex)
	totalSupply := providers.DecodeABIUint(totalSupplyHex)

	return evidence.OK(id, evidence.ToolRPCErc20Metadata, "ERC-20 metadata", sourceURL, now, map[string]any{
		"name":        name,
		"symbol":      symbol,
		"decimals":    decimals.Int64(),
		"totalSupply": totalSupply.String(),
	})
}
