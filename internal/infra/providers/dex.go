package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
)

// DexClient is a DEX-aggregator REST client (Dexscreener-shaped).
type DexClient struct {
	baseURL string
}

func NewDexClient(baseURL string) *DexClient { return &DexClient{baseURL: baseURL} }

// TokenRef is the base/quote token side of a trading pair.
type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnCounts is the buy/sell count for a pair over a time window.
type TxnCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Pair is one trading pool returned by the token-pairs endpoint.
type Pair struct {
	PairAddress    string    `json:"pairAddress"`
	DexID          string    `json:"dexId"`
	URL            string    `json:"url"`
	BaseToken      TokenRef  `json:"baseToken"`
	QuoteToken     TokenRef  `json:"quoteToken"`
	PriceUSD       string    `json:"priceUsd"`
	LiquidityUSD   float64   `json:"liquidityUsd"`
	PriceChangeH24 float64   `json:"priceChangeH24"`
	VolumeH24      float64   `json:"volumeH24"`
	TxnsH24        TxnCounts `json:"txnsH24"`
	PairCreatedAt  int64     `json:"pairCreatedAt"`
}

type rawPair struct {
	PairAddress string   `json:"pairAddress"`
	DexID       string   `json:"dexId"`
	URL         string   `json:"url"`
	BaseToken   TokenRef `json:"baseToken"`
	QuoteToken  TokenRef `json:"quoteToken"`
	PriceUSD    string   `json:"priceUsd"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Txns struct {
		H24 TxnCounts `json:"h24"`
	} `json:"txns"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

// GetPairs fetches every known pair for a token on the given network.
func (c *DexClient) GetPairs(ctx context.Context, network, address string) ([]Pair, string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sourceURL := fmt.Sprintf("%s/token-pairs/v1/%s/%s", c.baseURL, network, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, sourceURL, eris.Wrap(err, "dex: build request")
	}

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, sourceURL, eris.Wrap(err, "dex: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, sourceURL, fmt.Errorf("dex aggregator http error (%d)", resp.StatusCode)
	}

	var rows []rawPair
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, sourceURL, eris.Wrap(err, "dex: decode response")
	}

	out := make([]Pair, len(rows))
	for i, r := range rows {
		out[i] = Pair{
			PairAddress:    r.PairAddress,
			DexID:          r.DexID,
			URL:            r.URL,
			BaseToken:      r.BaseToken,
			QuoteToken:     r.QuoteToken,
			PriceUSD:       r.PriceUSD,
			LiquidityUSD:   r.Liquidity.USD,
			PriceChangeH24: r.PriceChange.H24,
			VolumeH24:      r.Volume.H24,
			TxnsH24:        r.Txns.H24,
			PairCreatedAt:  r.PairCreatedAt,
		}
	}
	return out, sourceURL, nil
}
