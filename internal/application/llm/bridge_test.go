package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
	domainllm "github.com/tokenrisk/scanner/internal/domain/llm"
	"github.com/tokenrisk/scanner/internal/domain/plan"
)

type scriptedClient struct {
	calls int
	outs  []string
	errs  []error
}

func (c *scriptedClient) Complete(_ context.Context, _, _, _ string) (string, error) {
	i := c.calls
	c.calls++
	var out string
	var err error
	if i < len(c.outs) {
		out = c.outs[i]
	}
	if i < len(c.errs) {
		err = c.errs[i]
	}
	return out, err
}

func TestBridge_Chat_ExtractsMessageFromJSONObjectResponse(t *testing.T) {
	client := &scriptedClient{outs: []string{`{"message": "looks fine (ev_dex_a1b2c3d4)"}`}}
	b := &Bridge{Client: client, PrimaryModel: "m1"}

	out, err := b.Chat(context.Background(), "0xabc", `{}`)

	require.NoError(t, err)
	assert.Equal(t, "looks fine (ev_dex_a1b2c3d4)", out)
	assert.Equal(t, 1, client.calls)
}

func TestBridge_Chat_RetriesOnNoOutputThenSucceeds(t *testing.T) {
	client := &scriptedClient{
		outs: []string{"", `{"message": "fallback model answered"}`},
		errs: []error{domainllm.ErrNoOutput, nil},
	}
	b := &Bridge{Client: client, PrimaryModel: "m1", FallbackModel: "m2"}

	out, err := b.Chat(context.Background(), "0xabc", `{}`)

	require.NoError(t, err)
	assert.Equal(t, "fallback model answered", out)
	assert.Equal(t, 2, client.calls)
}

func TestBridge_Chat_ReturnsErrorOnMalformedJSONResponse(t *testing.T) {
	client := &scriptedClient{outs: []string{"not json"}}
	b := &Bridge{Client: client, PrimaryModel: "m1"}

	_, err := b.Chat(context.Background(), "0xabc", `{}`)

	assert.Error(t, err)
}

func TestBridge_Plan_FallsBackToNilPlanWhenClientFails(t *testing.T) {
	client := &scriptedClient{errs: []error{assertErr{}}}
	b := &Bridge{Client: client, PrimaryModel: "m1"}

	result, usedFallback := b.Plan(context.Background(), "0xabc", plan.Availability{})

	assert.True(t, usedFallback)
	assert.Nil(t, result)
}

func TestBridge_Plan_FiltersStepsByAvailabilityAndUnknownTools(t *testing.T) {
	client := &scriptedClient{outs: []string{
		`{"steps": [{"tool": "holders_getTopHolders", "stepKey": "holders", "reason": "check concentration"}, {"tool": "not_a_real_tool", "stepKey": "x", "reason": "y"}, {"tool": "dexscreener_getPairs", "stepKey": "dex", "reason": "liquidity"}]}`,
	}}
	b := &Bridge{Client: client, PrimaryModel: "m1"}

	result, usedFallback := b.Plan(context.Background(), "0xabc", plan.Availability{HoldersEnabled: false})

	assert.False(t, usedFallback)
	require.Len(t, result, 1)
	assert.Equal(t, evidence.ToolDexscreenerPairs, result[0].Tool)
}

type assertErr struct{}

func (assertErr) Error() string { return "llm call failed" }
