package tools

import (
	"context"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// HoneypotExecutor implements honeypot_getSimulation: a buy/sell/transfer
// simulation against the token.
type HoneypotExecutor struct {
	Honeypot *providers.HoneypotClient
}

func (e *HoneypotExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolHoneypotSimulation)
	now := time.Now()

	sim, sourceURL, err := e.Honeypot.Simulate(ctx, address)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolHoneypotSimulation, "Honeypot simulation", sourceURL, now, err)
	}

	return evidence.OK(id, evidence.ToolHoneypotSimulation, "Honeypot simulation", sourceURL, now, map[string]any{
		"simulationSuccess": sim.SimulationSuccess,
		"isHoneypot":        sim.IsHoneypot,
		"buyTax":            sim.BuyTax,
		"sellTax":           sim.SellTax,
		"transferTax":       sim.TransferTax,
		"buyGas":            sim.BuyGas,
		"sellGas":           sim.SellGas,
		"pairAddress":       sim.PairAddress,
	})
}
