package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const honeypotTimeout = 12 * time.Second

// HoneypotClient is a buy/sell simulation REST client (honeypot.is-shaped).
type HoneypotClient struct {
	apiKey  string
	baseURL string
}

func NewHoneypotClient(apiKey, baseURL string) *HoneypotClient {
	return &HoneypotClient{apiKey: apiKey, baseURL: baseURL}
}

// Simulation is the decoded shape of a honeypot simulation response.
type Simulation struct {
	SimulationSuccess bool    `json:"simulationSuccess"`
	IsHoneypot        bool    `json:"isHoneypot"`
	BuyTax            float64 `json:"buyTax"`
	SellTax           float64 `json:"sellTax"`
	TransferTax       float64 `json:"transferTax"`
	BuyGas            int64   `json:"buyGas"`
	SellGas           int64   `json:"sellGas"`
	PairAddress       string  `json:"pairAddress"`
}

// Simulate runs a buy/sell simulation for the given token address.
func (c *HoneypotClient) Simulate(ctx context.Context, address string) (Simulation, string, error) {
	ctx, cancel := context.WithTimeout(ctx, honeypotTimeout)
	defer cancel()

	sourceURL := fmt.Sprintf("%s/IsHoneypot?address=%s", c.baseURL, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return Simulation{}, sourceURL, eris.Wrap(err, "honeypot: build request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := SharedClient.Do(req)
	if err != nil {
		return Simulation{}, sourceURL, eris.Wrap(err, "honeypot: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Simulation{}, sourceURL, fmt.Errorf("honeypot simulator http error (%d)", resp.StatusCode)
	}

	var sim Simulation
	if err := json.NewDecoder(resp.Body).Decode(&sim); err != nil {
		return Simulation{}, sourceURL, eris.Wrap(err, "honeypot: decode response")
	}
	return sim, sourceURL, nil
}
