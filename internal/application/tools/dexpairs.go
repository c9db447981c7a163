package tools

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// DexPairsExecutor implements dexscreener_getPairs: every known trading pair
// plus the one with the highest USD liquidity as bestPair, which
// lp_v2_lockStatus depends on.
type DexPairsExecutor struct {
	Dex        *providers.DexClient
	NetworkTag string
}

func (e *DexPairsExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolDexscreenerPairs)
	now := time.Now()

	pairs, sourceURL, err := e.Dex.GetPairs(ctx, e.NetworkTag, address)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolDexscreenerPairs, "DEX pairs", sourceURL, now, err)
	}

	pairList := make([]map[string]any, len(pairs))
	var best *providers.Pair
	for i, p := range pairs {
		pairList[i] = pairToMap(p)
		if best == nil || p.LiquidityUSD > best.LiquidityUSD {
			pc := p
			best = &pc
		}
	}

	data := map[string]any{"pairs": pairList}
	if best != nil {
		data["bestPair"] = pairToMap(*best)
	}

	return evidence.OK(id, evidence.ToolDexscreenerPairs, "DEX pairs", sourceURL, now, data)
}

func pairToMap(p providers.Pair) map[string]any {
	return map[string]any{
		"pairAddress": p.PairAddress,
		"dexId":       p.DexID,
		"url":         p.URL,
		"baseToken": map[string]any{
			"address": p.BaseToken.Address,
			"name":    p.BaseToken.Name,
			"symbol":  p.BaseToken.Symbol,
		},
		"quoteToken": map[string]any{
			"address": p.QuoteToken.Address,
			"name":    p.QuoteToken.Name,
			"symbol":  p.QuoteToken.Symbol,
		},
		"priceUsd":       p.PriceUSD,
		"liquidityUsd":   p.LiquidityUSD,
		"priceChangeH24": p.PriceChangeH24,
		"volumeH24":      p.VolumeH24,
		"txns": map[string]any{
			"h24": map[string]any{
				"buys":  p.TxnsH24.Buys,
				"sells": p.TxnsH24.Sells,
			},
		},
		"pairCreatedAt": p.PairCreatedAt,
	}
}
