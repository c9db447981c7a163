package analysis

import "strings"

// Capabilities is the set of risk-relevant boolean flags inferred from a
// contract's ABI function names.
type Capabilities struct {
	MintPossible      bool `json:"mintPossible"`
	CanBlacklist      bool `json:"canBlacklist"`
	CanPause          bool `json:"canPause"`
	CanSetFees        bool `json:"canSetFees"`
	HasTradingToggle  bool `json:"hasTradingToggle"`
	UpgradeableProxy  bool `json:"upgradeableProxy"`
}

var (
	blacklistSubstrings = []string{"blacklist", "blocklist"}
	pauseSubstrings     = []string{"pause", "unpause"}
	feeSubstrings       = []string{"setfee", "tax", "settax", "setbuy", "setsell"}
	tradingSubstrings   = []string{"trading", "enabletrading", "disabletrading"}
)

func containsAny(name string, substrs []string) bool {
	for _, s := range substrs {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// ScanCapabilities inspects a list of ABI function names (any case) and the
// source-info proxy flag to derive the capability set.
func ScanCapabilities(functionNames []string, upgradeableProxy bool) Capabilities {
	caps := Capabilities{UpgradeableProxy: upgradeableProxy}
	for _, raw := range functionNames {
		name := strings.ToLower(raw)
		if strings.Contains(name, "mint") {
			caps.MintPossible = true
		}
		if containsAny(name, blacklistSubstrings) {
			caps.CanBlacklist = true
		}
		if containsAny(name, pauseSubstrings) {
			caps.CanPause = true
		}
		if containsAny(name, feeSubstrings) {
			caps.CanSetFees = true
		}
		if containsAny(name, tradingSubstrings) {
			caps.HasTradingToggle = true
		}
	}
	return caps
}
