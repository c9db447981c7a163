package analysis

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHolderShares_AbsoluteWhenTokenHoldersAndDecimalsKnown(t *testing.T) {
	balances := []*big.Int{big.NewInt(400), big.NewInt(100)}
	totalSupply := big.NewInt(1000)
	holders := ComputeHolderShares(balances, totalSupply, 18, true, FetchMethodTokenHolders)
	require.Len(t, holders, 2)
	require.NotNil(t, holders[0].PctOfSupply)
	assert.Equal(t, "40.000000000000000000", *holders[0].PctOfSupply)
	assert.Equal(t, "80.000000000000000000", holders[0].RelativeSharePct)
}

func TestComputeHolderShares_NilPctOfSupplyWhenMethodIsTransferScan(t *testing.T) {
	balances := []*big.Int{big.NewInt(400), big.NewInt(100)}
	totalSupply := big.NewInt(1000)
	holders := ComputeHolderShares(balances, totalSupply, 18, true, FetchMethodTransferScan)
	for _, h := range holders {
		assert.Nil(t, h.PctOfSupply)
		assert.NotEmpty(t, h.RelativeSharePct)
	}
}

func TestComputeHolderShares_NilPctOfSupplyWhenDecimalsUnknown(t *testing.T) {
	balances := []*big.Int{big.NewInt(1)}
	holders := ComputeHolderShares(balances, big.NewInt(1000), 18, false, FetchMethodTokenHolders)
	assert.Nil(t, holders[0].PctOfSupply)
}

func TestComputeHolderShares_ScaleCappedAt36AndDisplayDecimalsAt18(t *testing.T) {
	balances := []*big.Int{big.NewInt(1)}
	holders := ComputeHolderShares(balances, big.NewInt(2), 40, true, FetchMethodTokenHolders)
	require.NotNil(t, holders[0].PctOfSupply)
	// 18 fractional digits expected regardless of the oversized decimals input.
	dotIdx := -1
	for i, c := range *holders[0].PctOfSupply {
		if c == '.' {
			dotIdx = i
			break
		}
	}
	require.NotEqual(t, -1, dotIdx)
	assert.Len(t, (*holders[0].PctOfSupply)[dotIdx+1:], 18)
}

func TestTopNSums_SumsWhenAllPresent(t *testing.T) {
	p1, p2 := "40.0000", "10.0000"
	holders := []Holder{
		{PctOfSupply: &p1},
		{PctOfSupply: &p2},
	}
	sum := TopNSums(holders, 2)
	require.NotNil(t, sum)
	assert.Equal(t, "50.0000", *sum)
}

func TestTopNSums_NilWhenAnyMissing(t *testing.T) {
	p1 := "40.0000"
	holders := []Holder{
		{PctOfSupply: &p1},
		{PctOfSupply: nil},
	}
	sum := TopNSums(holders, 2)
	assert.Nil(t, sum)
}
