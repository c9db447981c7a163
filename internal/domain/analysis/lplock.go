package analysis

import (
	"math/big"
	"strings"
)

// GetReservesSelector is the 4-byte function selector for the V2-style
// getReserves() call used to probe a pair contract.
const GetReservesSelector = "0x0902f1ac"

// ZeroAddress and DeadAddress are the well-known sentinel addresses checked
// when classifying burned liquidity or renounced ownership.
const (
	ZeroAddress = "0x0000000000000000000000000000000000000000"
	DeadAddress = "0x000000000000000000000000000000000000dead"
)

// LockConfidence is the certainty attached to an LPLockResult's status.
type LockConfidence string

const (
	ConfidenceHigh   LockConfidence = "high"
	ConfidenceMedium LockConfidence = "medium"
	ConfidenceLow    LockConfidence = "low"
)

// LockStatus is the inferred liquidity-lock state of a pair.
type LockStatus string

const (
	LockStatusLocked  LockStatus = "locked"
	LockStatusUnlocked LockStatus = "unlocked"
	LockStatusUnknown LockStatus = "unknown"
)

// LPLockResult is the outcome of LP lock inference on a single pair.
type LPLockResult struct {
	IsV2Like    bool
	BurnedPct   string // fixed 4-fractional-digit decimal string, empty if not computed
	DeployerPct string
	Status      LockStatus
	Confidence  LockConfidence
	Reason      string
}

// IsV2LikeReserves reports whether a getReserves() return blob is long
// enough to be a plausible V2 (reserve0, reserve1, blockTimestampLast) tuple:
// three 32-byte words hex-encoded, i.e. at least 194 hex characters including
// the "0x" prefix (2 + 3*64).
func IsV2LikeReserves(hexBlob string) bool {
	return len(hexBlob) >= 194
}

// ratioToPercent computes (num*100*10^p)/den as a fixed p-fractional-digit
// decimal string, using arbitrary-precision integer arithmetic throughout so
// large token-amount ratios never lose precision to floating point.
func ratioToPercent(num, den *big.Int, p int) string {
	if den == nil || den.Sign() == 0 {
		return ""
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(p)), nil)
	scaled := new(big.Int).Mul(num, big.NewInt(100))
	scaled.Mul(scaled, scale)
	q := new(big.Int).Quo(scaled, den)
	return formatFixed(q, p)
}

// formatFixed renders an integer q as a decimal string with p fractional
// digits, i.e. q interpreted as (value * 10^p).
func formatFixed(q *big.Int, p int) string {
	s := q.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) <= p {
		s = "0" + s
	}
	intPart := s[:len(s)-p]
	fracPart := s[len(s)-p:]
	out := intPart
	if p > 0 {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// percentGE reports whether a fixed-point percent string (as produced by
// ratioToPercent) is greater than or equal to threshold, comparing via the
// same integer representation rather than parsing back to float.
func percentGE(pctStr string, threshold int, p int) bool {
	if pctStr == "" {
		return false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(p)), nil)
	thresholdScaled := new(big.Int).Mul(big.NewInt(int64(threshold)), scale)

	neg := strings.HasPrefix(pctStr, "-")
	raw := strings.Replace(pctStr, ".", "", 1)
	raw = strings.TrimPrefix(raw, "-")
	for len(raw) <= p {
		raw = "0" + raw
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return false
	}
	if neg {
		v.Neg(v)
	}
	return v.Cmp(thresholdScaled) >= 0
}

// InferLock classifies a pair's liquidity lock from on-chain balances.
// totalSupply, zeroBalance, deadBalance, and deployerBalance are the raw
// integer values decoded from totalSupply() and balanceOf(...) on the
// pair token. deployerBalance may be nil when no deployer address is known.
func InferLock(reservesHexBlob string, totalSupply, zeroBalance, deadBalance, deployerBalance *big.Int) LPLockResult {
	if !IsV2LikeReserves(reservesHexBlob) {
		return LPLockResult{
			IsV2Like:   false,
			Status:     LockStatusUnknown,
			Confidence: ConfidenceLow,
			Reason:     "pair contract does not expose a V2-style getReserves() response",
		}
	}

	burned := new(big.Int).Add(zeroBalance, deadBalance)
	burnedPct := ratioToPercent(burned, totalSupply, 4)

	var deployerPct string
	if deployerBalance != nil {
		deployerPct = ratioToPercent(deployerBalance, totalSupply, 4)
	}

	res := LPLockResult{
		IsV2Like:    true,
		BurnedPct:   burnedPct,
		DeployerPct: deployerPct,
	}

	switch {
	case percentGE(burnedPct, 95, 4):
		res.Status = LockStatusLocked
		res.Confidence = ConfidenceHigh
		res.Reason = "at least 95% of LP tokens are held at the zero or dead address"
	case percentGE(deployerPct, 20, 4):
		res.Status = LockStatusUnlocked
		res.Confidence = ConfidenceMedium
		res.Reason = "the deployer address holds at least 20% of LP tokens and can withdraw liquidity"
	default:
		res.Status = LockStatusUnknown
		res.Confidence = ConfidenceLow
		res.Reason = "LP token distribution does not clearly indicate locked or unlocked liquidity"
	}
	return res
}
