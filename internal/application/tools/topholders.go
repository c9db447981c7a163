package tools

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/analysis"
	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// TopHoldersExecutor implements holders_getTopHolders. It derives
// pctOfSupply and relativeSharePct from the rpc_getErc20Metadata item when
// available.
type TopHoldersExecutor struct {
	Holders         *providers.HoldersClient
	Mode            string
	Limit           int
	MinRows         int
	ArchiveProbeCap int
}

func (e *TopHoldersExecutor) Execute(ctx context.Context, address string, prior evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolTopHolders)
	now := time.Now()

	result, sourceURL, err := e.Holders.GetTopHolders(ctx, address, e.Mode, e.Limit, e.MinRows, e.ArchiveProbeCap)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolTopHolders, "Top holders", sourceURL, now, err)
	}

	totalSupply, decimals, decimalsKnown := metadataOf(prior)

	balances := make([]*big.Int, len(result.Rows))
	for i, row := range result.Rows {
		balances[i] = parseHolderBalance(row.Balance, decimals, decimalsKnown)
	}

	method := analysis.FetchMethodTransferScan
	if result.Method == string(analysis.FetchMethodTokenHolders) {
		method = analysis.FetchMethodTokenHolders
	}

	holders := analysis.ComputeHolderShares(balances, totalSupply, decimals, decimalsKnown, method)

	rows := make([]map[string]any, len(holders))
	for i, h := range holders {
		row := map[string]any{
			"address":          result.Rows[i].Address,
			"rawBalance":       h.RawBalance.String(),
			"relativeSharePct": h.RelativeSharePct,
		}
		if h.PctOfSupply != nil {
			row["pctOfSupply"] = *h.PctOfSupply
		} else {
			row["pctOfSupply"] = nil
		}
		rows[i] = row
	}

	data := map[string]any{
		"method":     result.Method,
		"probedDate": result.ProbedDate,
		"holders":    rows,
	}
	if top5 := analysis.TopNSums(holders, 5); top5 != nil {
		data["top5Pct"] = *top5
	} else {
		data["top5Pct"] = nil
	}
	if top10 := analysis.TopNSums(holders, 10); top10 != nil {
		data["top10Pct"] = *top10
	} else {
		data["top10Pct"] = nil
	}

	return evidence.OK(id, evidence.ToolTopHolders, "Top holders", sourceURL, now, data)
}

func metadataOf(prior evidence.Ledger) (totalSupply *big.Int, decimals int, known bool) {
	item, ok := prior.ByTool(evidence.ToolRPCErc20Metadata)
	if !ok || item.Status != evidence.StatusOK {
		return nil, 0, false
	}
	tsStr, ok := item.Data["totalSupply"].(string)
	if !ok {
		return nil, 0, false
	}
	ts, ok := new(big.Int).SetString(tsStr, 10)
	if !ok {
		return nil, 0, false
	}
	dec, ok := item.Data["decimals"].(int64)
	if !ok {
		if f, ok := item.Data["decimals"].(float64); ok {
			dec = int64(f)
		} else {
			return ts, 0, false
		}
	}
	return ts, int(dec), true
}

// parseHolderBalance parses a holder balance string into base units. A
// balance with no decimal point is already in base units and is parsed
// directly. A balance with a decimal point (Bitquery's
// TokenHolders.Balance.Amount returns pre-divided decimal strings) is
// scaled up by 10^decimals so it lines up with a totalSupply that is itself
// in base units: the integer part shifts left by decimals digits and the
// fractional part is padded or truncated to exactly decimals digits. If
// decimals is unknown, the scale can't be aligned, so this falls back to
// stripping the decimal point rather than guessing a scale.
func parseHolderBalance(s string, decimals int, decimalsKnown bool) *big.Int {
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v
	}

	intPart, fracPart, hasPoint := strings.Cut(s, ".")
	if !hasPoint {
		return big.NewInt(0)
	}

	if !decimalsKnown {
		cleaned := strings.ReplaceAll(s, ".", "")
		if v, ok := new(big.Int).SetString(cleaned, 10); ok {
			return v
		}
		return big.NewInt(0)
	}

	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	} else {
		fracPart += strings.Repeat("0", decimals-len(fracPart))
	}

	combined := intPart + fracPart
	if combined == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
