package llm

import "errors"

// ErrNoOutput indicates the model returned no usable completion content,
// the trigger condition for the bridge's model/payload retry matrix.
var ErrNoOutput = errors.New("llm: no output generated")

// ErrQuotaExceeded indicates the provider returned a quota or rate-limit
// error (HTTP 429 or similar) rather than a transient failure.
var ErrQuotaExceeded = errors.New("llm: quota exceeded")
