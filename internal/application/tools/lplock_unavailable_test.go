package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

func TestLPLockExecutor_UnavailableWhenNoPairAddress(t *testing.T) {
	ledger := evidence.NewLedger()

	ex := &LPLockExecutor{}
	item := ex.Execute(context.Background(), "0xabc", *ledger)

	assert.Equal(t, evidence.StatusUnavailable, item.Status)
	assert.NotEmpty(t, item.Error)
}
