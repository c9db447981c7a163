package analysis

import "math/big"

// MaxScale and MaxDisplayDecimals cap how far holder-supply math will scale
// raw integer amounts, preventing a malformed or absurd decimals field from
// blowing up the big.Int exponents involved.
const (
	MaxScale           = 36
	MaxDisplayDecimals = 18
)

// FetchMethod distinguishes a true on-chain holders listing from an
// approximation, since only the former lets pctOfSupply be computed against
// a real totalSupply.
type FetchMethod string

const (
	FetchMethodTokenHolders FetchMethod = "token_holders"
	FetchMethodTransferScan FetchMethod = "transfer_scan"
)

// Holder is a single top-holder row with its derived percentages.
type Holder struct {
	Address          string
	RawBalance       *big.Int
	PctOfSupply      *string // fixed-point percent string, nil when not computable
	RelativeSharePct string  // always defined: share among the returned top-N
}

// cappedScale clamps a token's decimals to the range [0, MaxScale].
func cappedScale(decimals int) int {
	if decimals > MaxScale {
		return MaxScale
	}
	if decimals < 0 {
		return 0
	}
	return decimals
}

// displayDecimals clamps the fractional precision used when rendering a
// percentage, independent of the token's own decimals.
func displayDecimals(decimals int) int {
	d := cappedScale(decimals)
	if d > MaxDisplayDecimals {
		return MaxDisplayDecimals
	}
	return d
}

// ComputeHolderShares derives pctOfSupply (when possible) and
// relativeSharePct (always) for a set of top-holder balances.
//
// pctOfSupply is computed only when method is FetchMethodTokenHolders and
// totalSupply is known (non-nil and non-zero) and decimals is known
// (decimalsKnown); otherwise every holder's PctOfSupply is left nil.
// relativeSharePct is always computed, against the sum of the balances
// actually returned, and must be read as relative to that set, not to the
// token's full supply.
func ComputeHolderShares(balances []*big.Int, totalSupply *big.Int, decimals int, decimalsKnown bool, method FetchMethod) []Holder {
	p := displayDecimals(decimals)

	canComputeAbsolute := method == FetchMethodTokenHolders && decimalsKnown && totalSupply != nil && totalSupply.Sign() > 0

	sum := big.NewInt(0)
	for _, b := range balances {
		sum.Add(sum, b)
	}

	holders := make([]Holder, len(balances))
	for i, b := range balances {
		h := Holder{RawBalance: b}
		h.RelativeSharePct = ratioToPercent(b, sum, p)
		if canComputeAbsolute {
			pct := ratioToPercent(b, totalSupply, p)
			h.PctOfSupply = &pct
		}
		holders[i] = h
	}
	return holders
}

// TopNSums sums pctOfSupply over the first n holders (assumed already
// sorted descending by balance), returning nil if any of the first n
// holders lacks a pctOfSupply.
func TopNSums(holders []Holder, n int) *string {
	if n > len(holders) {
		n = len(holders)
	}
	if n == 0 {
		zero := "0"
		return &zero
	}

	sum := big.NewInt(0)
	scale := 0
	for i := 0; i < n; i++ {
		if holders[i].PctOfSupply == nil {
			return nil
		}
		v, p, ok := parseFixed(*holders[i].PctOfSupply)
		if !ok {
			return nil
		}
		if i == 0 {
			scale = p
		}
		sum.Add(sum, v)
	}
	result := formatFixed(sum, scale)
	return &result
}

// parseFixed inverts formatFixed: given a string produced with p fractional
// digits, returns the scaled integer value and p.
func parseFixed(s string) (*big.Int, int, bool) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	dot := -1
	for i, c := range s {
		if c == '.' {
			dot = i
			break
		}
	}
	digits := s
	p := 0
	if dot >= 0 {
		digits = s[:dot] + s[dot+1:]
		p = len(s) - dot - 1
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, 0, false
	}
	if neg {
		v.Neg(v)
	}
	return v, p, true
}
