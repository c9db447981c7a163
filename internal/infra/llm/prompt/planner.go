package prompt

import (
	"fmt"
	"strings"
)

// PlannerSystemPrompt names the allowed tool set and the required plan
// schema. availableTools is conditional on which provider credentials are
// configured for this process.
func PlannerSystemPrompt(availableTools []string) string {
	return fmt.Sprintf(`You are a blockchain risk-scanning planner. You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema below.

You may only propose tools from this allowed set: %s

Requirements:
- "steps" must be a non-empty array.
- Each step has "tool" (one of the allowed tools above), "stepKey" (a short stable slug), and "reason" (one sentence, plain text).
- Do not invent tools outside the allowed set.
- Order steps so that prerequisite data is gathered before the tools that depend on it.

Schema:
{
  "steps": [
    {"tool": "<one of the allowed tools>", "stepKey": "<slug>", "reason": "<string>"}
  ]
}`, strings.Join(availableTools, ", "))
}

// PlannerUserPrompt builds the user turn for a single planning call.
func PlannerUserPrompt(tokenAddress string) string {
	return fmt.Sprintf("Propose an investigation plan for the token contract at address %s on Base. Respond with the JSON per schema.", tokenAddress)
}
