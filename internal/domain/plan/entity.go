package plan

import "github.com/tokenrisk/scanner/internal/domain/evidence"

// Step is a single ordered entry in a plan: which tool to run, under what
// stable step key, and why (for display only).
type Step struct {
	StepKey string       `json:"stepKey"`
	Tool    evidence.Tool `json:"tool"`
	Title   string       `json:"title"`
	Reason  string       `json:"reason"`
}

// Plan is an ordered sequence of steps.
type Plan []Step

// Availability reports which tools are usable given the current process
// configuration (provider credentials present), used to filter both the
// baseline and the LLM-proposed plan.
type Availability struct {
	ExplorerEnabled bool
	HoldersEnabled  bool
}

// Allows reports whether the given tool may run under this availability.
func (a Availability) Allows(tool evidence.Tool) bool {
	switch tool {
	case evidence.ToolBasescanSourceInfo, evidence.ToolBasescanCreation,
		evidence.ToolOwnerStatus, evidence.ToolCapabilityScan:
		return a.ExplorerEnabled
	case evidence.ToolTopHolders:
		return a.HoldersEnabled
	default:
		return true
	}
}

// Baseline is the unconditional plan run by every scan before configuration
// and planner-proposed additions are applied.
func Baseline() Plan {
	return Plan{
		{StepKey: "rpc_bytecode", Tool: evidence.ToolRPCBytecode, Title: "Check contract bytecode", Reason: "Confirm the address is a deployed contract"},
		{StepKey: "rpc_metadata", Tool: evidence.ToolRPCErc20Metadata, Title: "Read ERC-20 metadata", Reason: "Collect name, symbol, decimals, total supply"},
		{StepKey: "dex_pairs", Tool: evidence.ToolDexscreenerPairs, Title: "Look up trading pairs", Reason: "Find liquidity and price data"},
		{StepKey: "honeypot_sim", Tool: evidence.ToolHoneypotSimulation, Title: "Simulate a buy/sell", Reason: "Detect honeypot and transfer tax behavior"},
		{StepKey: "lp_lock", Tool: evidence.ToolLPV2LockStatus, Title: "Check LP lock status", Reason: "Determine whether liquidity can be withdrawn"},
	}
}

// explorerSteps is appended when an explorer API key is configured.
func explorerSteps() Plan {
	return Plan{
		{StepKey: "explorer_source", Tool: evidence.ToolBasescanSourceInfo, Title: "Fetch verified source and ABI", Reason: "Inspect contract source and proxy status"},
		{StepKey: "explorer_creation", Tool: evidence.ToolBasescanCreation, Title: "Fetch contract creation info", Reason: "Identify deployer and creation transaction"},
		{StepKey: "owner_status", Tool: evidence.ToolOwnerStatus, Title: "Check ownership", Reason: "Determine whether ownership is renounced"},
		{StepKey: "capability_scan", Tool: evidence.ToolCapabilityScan, Title: "Scan ABI capabilities", Reason: "Detect mint, blacklist, pause, fee, and trading-toggle functions"},
	}
}

// holdersStep is appended when a holders-provider token is configured.
func holdersStep() Plan {
	return Plan{
		{StepKey: "top_holders", Tool: evidence.ToolTopHolders, Title: "Fetch top holders", Reason: "Assess supply concentration"},
	}
}

// Merge combines the baseline plan with an LLM-proposed plan, filtered by
// availability, per §4.5's plan-merge algorithm: baseline first (bytecode,
// metadata, dex, honeypot, lp), then explorer steps iff enabled, then the
// holders step iff enabled, then any planner-proposed tool not already
// present, preserving the planner's relative order among those additions.
// Deduplication is by tool name only, regardless of step key.
func Merge(proposed Plan, avail Availability) Plan {
	var merged Plan
	seen := make(map[evidence.Tool]bool)

	add := func(steps Plan) {
		for _, s := range steps {
			if seen[s.Tool] || !avail.Allows(s.Tool) {
				continue
			}
			seen[s.Tool] = true
			merged = append(merged, s)
		}
	}

	add(Baseline())
	if avail.ExplorerEnabled {
		add(explorerSteps())
	}
	if avail.HoldersEnabled {
		add(holdersStep())
	}

	for _, s := range proposed {
		if seen[s.Tool] || !avail.Allows(s.Tool) {
			continue
		}
		seen[s.Tool] = true
		merged = append(merged, s)
	}

	return merged
}
