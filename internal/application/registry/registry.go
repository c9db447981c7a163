package registry

import (
	"context"

	"github.com/tokenrisk/scanner/internal/domain/evidence"
)

// Executor consumes the token address plus the evidence collected so far in
// this run and returns one new evidence item. It never panics or returns an
// error past the caller: a failure is represented as an "unavailable" item.
type Executor interface {
	Execute(ctx context.Context, address string, prior evidence.Ledger) evidence.Item
}

// Registry is the closed map from tool name to its executor, built once at
// process start.
type Registry map[evidence.Tool]Executor

// Build assembles a Registry from the given executors, keyed by the tool
// each one implements.
func Build(executors map[evidence.Tool]Executor) Registry {
	reg := make(Registry, len(executors))
	for tool, ex := range executors {
		reg[tool] = ex
	}
	return reg
}

// Get looks up the executor for a tool, reporting absence rather than a nil
// interface value so callers never invoke a missing tool by accident.
func (r Registry) Get(tool evidence.Tool) (Executor, bool) {
	ex, ok := r[tool]
	return ex, ok
}
