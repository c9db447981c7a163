package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenrisk/scanner/internal/infra/providers"
)

func TestPairToMap_CarriesAllFields(t *testing.T) {
	p := providers.Pair{
		PairAddress:    "0xpair",
		DexID:          "uniswap",
		URL:            "https://example.test",
		BaseToken:      providers.TokenRef{Address: "0xbase", Name: "Base Token", Symbol: "BASE"},
		QuoteToken:     providers.TokenRef{Address: "0xquote", Name: "Wrapped Ether", Symbol: "WETH"},
		PriceUSD:       "1.23",
		LiquidityUSD:   5000,
		PriceChangeH24: 1.5,
		VolumeH24:      1000,
		TxnsH24:        providers.TxnCounts{Buys: 42, Sells: 17},
		PairCreatedAt:  1700000000,
	}
	m := pairToMap(p)

	assert.Equal(t, "0xpair", m["pairAddress"])
	assert.Equal(t, "uniswap", m["dexId"])
	assert.Equal(t, 5000.0, m["liquidityUsd"])
	assert.Equal(t, 1.5, m["priceChangeH24"])
	assert.Equal(t, 1000.0, m["volumeH24"])
	assert.Equal(t, int64(1700000000), m["pairCreatedAt"])

	baseToken, ok := m["baseToken"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xbase", baseToken["address"])
	assert.Equal(t, "BASE", baseToken["symbol"])

	quoteToken, ok := m["quoteToken"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xquote", quoteToken["address"])
	assert.Equal(t, "WETH", quoteToken["symbol"])

	txns, ok := m["txns"].(map[string]any)
	require.True(t, ok)
	h24, ok := txns["h24"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 42, h24["buys"])
	assert.Equal(t, 17, h24["sells"])
}
