package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultTimeout = 10 * time.Second

// RPCClient is a minimal JSON-RPC 2.0 client over a chain's HTTP RPC
// endpoint, exposing only the two methods this system calls.
type RPCClient struct {
	url string
}

func NewRPCClient(url string) *RPCClient { return &RPCClient{url: url} }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Call performs a single JSON-RPC 2.0 request and returns the raw result.
func (c *RPCClient) Call(ctx context.Context, method string, params ...any) (json.RawMessage, string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, c.url, eris.Wrap(err, "rpc: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, c.url, eris.Wrap(err, "rpc: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, c.url, eris.Wrap(err, "rpc: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.url, fmt.Errorf("chain RPC error (http %d)", resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, c.url, eris.Wrap(err, "rpc: decode response")
	}
	if parsed.Error != nil {
		return nil, c.url, fmt.Errorf("chain RPC error (%d): %s", parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.Result, c.url, nil
}

// GetCode calls eth_getCode for the "latest" block and returns the raw
// 0x-prefixed hex bytecode.
func (c *RPCClient) GetCode(ctx context.Context, address string) (string, string, error) {
	raw, sourceURL, err := c.Call(ctx, "eth_getCode", address, "latest")
	if err != nil {
		return "", sourceURL, err
	}
	var hexCode string
	if err := json.Unmarshal(raw, &hexCode); err != nil {
		return "", sourceURL, eris.Wrap(err, "rpc: decode eth_getCode result")
	}
	return hexCode, sourceURL, nil
}

// EthCall performs a read-only eth_call against `to` with the given
// selector+args hex payload and returns the raw 0x-prefixed hex return.
func (c *RPCClient) EthCall(ctx context.Context, to, data string) (string, string, error) {
	callObj := map[string]string{"to": to, "data": data}
	raw, sourceURL, err := c.Call(ctx, "eth_call", callObj, "latest")
	if err != nil {
		return "", sourceURL, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return "", sourceURL, eris.Wrap(err, "rpc: decode eth_call result")
	}
	return hexResult, sourceURL, nil
}
