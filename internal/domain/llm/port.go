package llm

import "context"

// Client is a structured-output oracle: a JSON-object-constrained chat
// completion call against a named model. Implementations never fabricate a
// result on failure — they return ErrNoOutput, ErrQuotaExceeded, or a
// wrapped transport error.
type Client interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}
