package analysis

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reservesBlob(len194OrMore bool) string {
	if len194OrMore {
		return "0x" + repeat("0", 192)
	}
	return "0x" + repeat("0", 100)
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s[0])
	}
	return string(out)
}

func TestInferLock_NotV2Like(t *testing.T) {
	res := InferLock(reservesBlob(false), big.NewInt(1000), big.NewInt(0), big.NewInt(0), nil)
	assert.False(t, res.IsV2Like)
	assert.Equal(t, LockStatusUnknown, res.Status)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestInferLock_LockedWhenBurnedAtLeast95Pct(t *testing.T) {
	totalSupply := big.NewInt(1000)
	zero := big.NewInt(970)
	dead := big.NewInt(0)
	res := InferLock(reservesBlob(true), totalSupply, zero, dead, nil)
	assert.True(t, res.IsV2Like)
	assert.Equal(t, LockStatusLocked, res.Status)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Equal(t, "97.0000", res.BurnedPct)
}

func TestInferLock_UnlockedWhenDeployerHoldsAtLeast20Pct(t *testing.T) {
	totalSupply := big.NewInt(1000)
	zero := big.NewInt(0)
	dead := big.NewInt(0)
	deployer := big.NewInt(250)
	res := InferLock(reservesBlob(true), totalSupply, zero, dead, deployer)
	assert.Equal(t, LockStatusUnlocked, res.Status)
	assert.Equal(t, ConfidenceMedium, res.Confidence)
	assert.Equal(t, "25.0000", res.DeployerPct)
}

func TestInferLock_UnknownWhenNeitherThresholdMet(t *testing.T) {
	totalSupply := big.NewInt(1000)
	zero := big.NewInt(10)
	dead := big.NewInt(0)
	deployer := big.NewInt(50)
	res := InferLock(reservesBlob(true), totalSupply, zero, dead, deployer)
	assert.Equal(t, LockStatusUnknown, res.Status)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestInferLock_ExactlyAtBurnedThreshold(t *testing.T) {
	totalSupply := big.NewInt(10000)
	zero := big.NewInt(9500)
	dead := big.NewInt(0)
	res := InferLock(reservesBlob(true), totalSupply, zero, dead, nil)
	assert.Equal(t, LockStatusLocked, res.Status)
}
