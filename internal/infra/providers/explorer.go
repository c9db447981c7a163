package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// chainID is pinned to Base per this system's fixed-network scope.
const chainID = "8453"

// ExplorerClient is a v2-API block-explorer REST client (Basescan-shaped).
type ExplorerClient struct {
	apiKey  string
	baseURL string
}

func NewExplorerClient(apiKey, baseURL string) *ExplorerClient {
	return &ExplorerClient{apiKey: apiKey, baseURL: baseURL}
}

type explorerEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *ExplorerClient) get(ctx context.Context, params url.Values) (json.RawMessage, string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	params.Set("chainid", chainID)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	sourceURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, sourceURL, eris.Wrap(err, "explorer: build request")
	}

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, sourceURL, eris.Wrap(err, "explorer: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, sourceURL, fmt.Errorf("explorer http error (%d)", resp.StatusCode)
	}

	var env explorerEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, sourceURL, eris.Wrap(err, "explorer: decode response")
	}
	if env.Status == "0" {
		return nil, sourceURL, fmt.Errorf("explorer error: %s", env.Message)
	}
	return env.Result, sourceURL, nil
}

// ABIFunction is one entry of a parsed contract ABI's function list.
type ABIFunction struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SourceInfo is the decoded shape of a getsourcecode response.
type SourceInfo struct {
	SourceCode           string        `json:"sourceCode"`
	ABI                  []ABIFunction `json:"abi"`
	ContractName         string        `json:"contractName"`
	IsProxy              bool          `json:"isProxy"`
	ImplementationAddress string      `json:"implementationAddress"`
}

type explorerSourceRow struct {
	SourceCode  string `json:"SourceCode"`
	ABI         string `json:"ABI"`
	ContractName string `json:"ContractName"`
	Proxy       string `json:"Proxy"`
	Implementation string `json:"Implementation"`
}

// GetSourceInfo fetches verified source, parses the ABI for function names,
// and reports proxy status.
func (c *ExplorerClient) GetSourceInfo(ctx context.Context, address string) (SourceInfo, string, error) {
	params := url.Values{"module": {"contract"}, "action": {"getsourcecode"}, "address": {address}}
	raw, sourceURL, err := c.get(ctx, params)
	if err != nil {
		return SourceInfo{}, sourceURL, err
	}

	var rows []explorerSourceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return SourceInfo{}, sourceURL, eris.Wrap(err, "explorer: decode source rows")
	}
	if len(rows) == 0 {
		return SourceInfo{}, sourceURL, fmt.Errorf("explorer: no source rows returned")
	}
	row := rows[0]

	info := SourceInfo{
		SourceCode:             row.SourceCode,
		ContractName:           row.ContractName,
		IsProxy:                row.Proxy == "1",
		ImplementationAddress:  row.Implementation,
	}
	if row.ABI != "" && row.ABI != "Contract source code not verified" {
		var fns []ABIFunction
		if err := json.Unmarshal([]byte(row.ABI), &fns); err == nil {
			for _, f := range fns {
				if f.Type == "function" {
					info.ABI = append(info.ABI, f)
				}
			}
		}
	}
	return info, sourceURL, nil
}

// ContractCreation is the decoded shape of a getcontractcreation response.
type ContractCreation struct {
	DeployerAddress string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
}

// GetContractCreation fetches the deployer address and creation tx hash.
func (c *ExplorerClient) GetContractCreation(ctx context.Context, address string) (ContractCreation, string, error) {
	params := url.Values{"module": {"contract"}, "action": {"getcontractcreation"}, "contractaddresses": {address}}
	raw, sourceURL, err := c.get(ctx, params)
	if err != nil {
		return ContractCreation{}, sourceURL, err
	}

	var rows []ContractCreation
	if err := json.Unmarshal(raw, &rows); err != nil {
		return ContractCreation{}, sourceURL, eris.Wrap(err, "explorer: decode creation rows")
	}
	if len(rows) == 0 {
		return ContractCreation{}, sourceURL, fmt.Errorf("explorer: no creation rows returned")
	}
	return rows[0], sourceURL, nil
}
