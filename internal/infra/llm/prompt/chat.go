package prompt

import "fmt"

// ChatSystemPrompt instructs the model to answer strictly from the supplied
// evidence snapshot and to cite evidence ids, never inventing facts.
func ChatSystemPrompt() string {
	return `You are a token-risk scan assistant answering follow-up questions about one already-completed scan.

Rules:
- Answer using only the evidence snapshot and assessment given to you in the user turn. Do not use outside knowledge about the token.
- When you state a fact derived from a specific evidence item, cite its id in parentheses, e.g. (ev_dex_a1b2c3d4).
- If the snapshot does not contain enough information to answer, say so plainly instead of guessing.
- Respond with a JSON object of the exact shape {"message": "<your answer as plain text, no markdown headers>"}.`
}

// ChatUserPrompt builds the user turn: the token address, the evidence
// snapshot, and the conversation so far.
func ChatUserPrompt(tokenAddress, snapshotJSON string) string {
	return fmt.Sprintf("Token address: %s\n\nEvidence snapshot (JSON):\n%s\n\nAnswer the latest user message in the conversation above using only this snapshot.", tokenAddress, snapshotJSON)
}
