package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOwner_RenouncedAtZeroAddress(t *testing.T) {
	raw := "0x" + strings.Repeat("0", 64)
	status := DecodeOwner(raw)
	require.True(t, status.HasOwnerFunction)
	require.NotNil(t, status.Owner)
	assert.True(t, status.Renounced)
}

func TestDecodeOwner_RenouncedAtDeadAddress(t *testing.T) {
	raw := "0x" + strings.Repeat("0", 24) + strings.Repeat("0", 36) + "dead"
	status := DecodeOwner(raw)
	require.True(t, status.HasOwnerFunction)
	assert.True(t, status.Renounced)
}

func TestDecodeOwner_NotRenouncedForRegularAddress(t *testing.T) {
	raw := "0x" + strings.Repeat("0", 24) + "1111111111111111111111111111111111111111"[:40]
	status := DecodeOwner(raw)
	require.True(t, status.HasOwnerFunction)
	assert.False(t, status.Renounced)
}

func TestDecodeOwner_NoOwnerFunctionWhenReturnTooShort(t *testing.T) {
	status := DecodeOwner("0x1234")
	assert.False(t, status.HasOwnerFunction)
	assert.Nil(t, status.Owner)
}
