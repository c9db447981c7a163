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

const holdersPerAttemptTimeout = 10 * time.Second

// HoldersClient is an indexed-holder GraphQL client (Bitquery-shaped). No
// GraphQL client library is used — the query set is two fixed documents, so
// a plain HTTP POST with a JSON body is simpler than pulling in a generic
// GraphQL client for a single indexed dataset.
type HoldersClient struct {
	token   string
	baseURL string
}

func NewHoldersClient(token, baseURL string) *HoldersClient {
	return &HoldersClient{token: token, baseURL: baseURL}
}

// HolderRow is one returned holder balance, in whichever shape the
// successful query produced.
type HolderRow struct {
	Address string
	Balance string // decimal string: token amount for token_holders, summed USD amount for transfer_scan
}

// FetchResult is the outcome of GetTopHolders: which query satisfied the
// request (or neither), and on which probed date.
type FetchResult struct {
	Method      string // "token_holders" | "transfer_scan"
	ProbedDate  string
	Rows        []HolderRow
}

// ErrQuotaExceeded is returned when the upstream responds 402/429 or with a
// quota-shaped envelope error; per spec the fallback query is never
// attempted in that case.
var ErrQuotaExceeded = eris.New("holders: quota exceeded")

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *HoldersClient) post(ctx context.Context, query string, variables map[string]any) (json.RawMessage, string, error) {
	ctx, cancel := context.WithTimeout(ctx, holdersPerAttemptTimeout)
	defer cancel()

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, c.baseURL, eris.Wrap(err, "holders: encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, c.baseURL, eris.Wrap(err, "holders: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := SharedClient.Do(req)
	if err != nil {
		return nil, c.baseURL, eris.Wrap(err, "holders: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests {
		return nil, c.baseURL, ErrQuotaExceeded
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.baseURL, fmt.Errorf("holders provider http error (%d)", resp.StatusCode)
	}

	var env graphqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, c.baseURL, eris.Wrap(err, "holders: decode response")
	}
	if len(env.Errors) > 0 {
		msg := env.Errors[0].Message
		if isQuotaShaped(msg) {
			return nil, c.baseURL, ErrQuotaExceeded
		}
		return nil, c.baseURL, fmt.Errorf("holders provider error: %s", msg)
	}
	return env.Data, c.baseURL, nil
}

func isQuotaShaped(msg string) bool {
	for _, needle := range []string{"quota", "rate limit", "too many requests", "limit exceeded"} {
		if containsFold(msg, needle) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	hl, nl := []byte(haystack), []byte(needle)
	toLower := func(b byte) byte {
		if b >= 'A' && b <= 'Z' {
			return b + 32
		}
		return b
	}
	n := len(nl)
	if n == 0 || n > len(hl) {
		return n == 0
	}
	for i := 0; i+n <= len(hl); i++ {
		match := true
		for j := 0; j < n; j++ {
			if toLower(hl[i+j]) != toLower(nl[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

const tokenHoldersQuery = `
query ($token: String!, $date: String!, $limit: Int!) {
  EVM(network: base) {
    TokenHolders(
      date: $date
      tokenSmartContract: $token
      limit: { count: $limit }
      orderBy: { descending: Balance }
    ) {
      Holder { Address }
      Balance { Amount }
      FirstDate
    }
  }
}`

const balanceUpdatesQuery = `
query ($token: String!, $limit: Int!) {
  EVM(network: base) {
    BalanceUpdates(
      where: { Currency: { SmartContract: { is: $token } } }
      orderBy: { descendingByField: "usd_sum" }
      limit: { count: $limit }
    ) {
      BalanceUpdate { Address }
      usd_sum: sum(of: BalanceUpdate_AmountInUSD)
    }
  }
}`

type tokenHoldersResponse struct {
	EVM struct {
		TokenHolders []struct {
			Holder struct {
				Address string `json:"Address"`
			} `json:"Holder"`
			Balance struct {
				Amount string `json:"Amount"`
			} `json:"Balance"`
			FirstDate string `json:"FirstDate"`
		} `json:"TokenHolders"`
	} `json:"EVM"`
}

type balanceUpdatesResponse struct {
	EVM struct {
		BalanceUpdates []struct {
			BalanceUpdate struct {
				Address string `json:"Address"`
			} `json:"BalanceUpdate"`
			USDSum string `json:"usd_sum"`
		} `json:"BalanceUpdates"`
	} `json:"EVM"`
}

// probeDaysFast and probeDaysFull are the fixed day-offset sequences tried
// against the primary TokenHolders query before giving up.
var probeDaysFast = []int{1, 2, 7}
var probeDaysFull = []int{1, 2, 3, 7, 14, 30}

// GetTopHolders attempts the primary TokenHolders query across the probe-day
// sequence for the given mode, stopping at the first date with at least
// minRows rows; on quota-shaped failure the fallback is never attempted and
// the call returns ErrQuotaExceeded. If every primary probe returns fewer
// than minRows rows (without a quota error), the BalanceUpdates fallback is
// attempted once.
func (c *HoldersClient) GetTopHolders(ctx context.Context, tokenAddress string, mode string, limit, minRows, archiveProbeCap int) (FetchResult, string, error) {
	days := probeDaysFast
	if mode == "full" {
		days = probeDaysFull
		if archiveProbeCap > 0 {
			capped := make([]int, 0, len(days))
			for _, d := range days {
				if d > archiveProbeCap {
					break
				}
				capped = append(capped, d)
			}
			if len(capped) > 0 {
				days = capped
			}
		}
	}

	now := time.Now().UTC()
	var sourceURL string
	for _, offset := range days {
		date := now.AddDate(0, 0, -offset).Format("2006-01-02")
		raw, u, err := c.post(ctx, tokenHoldersQuery, map[string]any{"token": tokenAddress, "date": date, "limit": limit})
		sourceURL = u
		if err != nil {
			if eris.Is(err, ErrQuotaExceeded) {
				return FetchResult{}, sourceURL, err
			}
			continue
		}

		var parsed tokenHoldersResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		if len(parsed.EVM.TokenHolders) >= minRows {
			rows := make([]HolderRow, len(parsed.EVM.TokenHolders))
			for i, h := range parsed.EVM.TokenHolders {
				rows[i] = HolderRow{Address: h.Holder.Address, Balance: h.Balance.Amount}
			}
			return FetchResult{Method: "token_holders", ProbedDate: date, Rows: rows}, sourceURL, nil
		}
	}

	raw, u, err := c.post(ctx, balanceUpdatesQuery, map[string]any{"token": tokenAddress, "limit": limit})
	sourceURL = u
	if err != nil {
		return FetchResult{}, sourceURL, err
	}

	var parsed balanceUpdatesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return FetchResult{}, sourceURL, eris.Wrap(err, "holders: decode BalanceUpdates response")
	}
	rows := make([]HolderRow, len(parsed.EVM.BalanceUpdates))
	for i, u := range parsed.EVM.BalanceUpdates {
		rows[i] = HolderRow{Address: u.BalanceUpdate.Address, Balance: u.USDSum}
	}
	return FetchResult{Method: "transfer_scan", Rows: rows}, sourceURL, nil
}
