package tools

import (
	"context"
	"strings"
	"time"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	"github.com/tokenrisk/scanner/internal/infra/providers"
)

// BytecodeExecutor implements rpc_getBytecode: it checks whether the target
// address carries deployed bytecode at all. A false hasCode here is the one
// evidence result that terminates a run.
type BytecodeExecutor struct {
	RPC *providers.RPCClient
}

func (e *BytecodeExecutor) Execute(ctx context.Context, address string, _ evidence.Ledger) evidence.Item {
	id := evidence.NewID(evidence.ToolRPCBytecode)
	now := time.Now()

	code, sourceURL, err := e.RPC.GetCode(ctx, address)
	if err != nil {
		return evidence.Unavailable(id, evidence.ToolRPCBytecode, "Contract bytecode", sourceURL, now, err)
	}

	hasCode := code != "" && code != "0x"
	sizeBytes := 0
	if hasCode {
		sizeBytes = (len(strings.TrimPrefix(code, "0x"))) / 2
	}

	return evidence.OK(id, evidence.ToolRPCBytecode, "Contract bytecode", sourceURL, now, map[string]any{
		"hasCode":           hasCode,
		"bytecodeSizeBytes": sizeBytes,
	})
}
