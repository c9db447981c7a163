package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

func TestOwnerStatusExecutor_NoOwnerFunctionWhenABILacksOwner(t *testing.T) {
	ledger := evidence.NewLedger(evidence.OK("ev_source_1", evidence.ToolBasescanSourceInfo, "t", "u", time.Now(), map[string]any{
		"functionNames": []any{"transfer", "mint"},
		"isProxy":       false,
	}))

	ex := &OwnerStatusExecutor{}
	item := ex.Execute(context.Background(), "0xabc", *ledger)

	require.Equal(t, evidence.StatusOK, item.Status)
	assert.False(t, item.Data["hasOwnerFunction"].(bool))
	assert.Nil(t, item.Data["owner"])
}

func TestOwnerStatusExecutor_NoOwnerFunctionWhenSourceInfoMissing(t *testing.T) {
	ledger := evidence.NewLedger()

	ex := &OwnerStatusExecutor{}
	item := ex.Execute(context.Background(), "0xabc", *ledger)

	require.Equal(t, evidence.StatusOK, item.Status)
	assert.False(t, item.Data["hasOwnerFunction"].(bool))
}
