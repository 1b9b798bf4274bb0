// Package contextretriever provides a trivial passthrough ContextRetriever
// reference implementation, used only for intent-driven prompts (debug,
// generate, explain). A real deployment wires its own retrieval-augmented
// index behind the same interface.
package contextretriever

import "context"

// Retriever is the minimal capability the Cascade/Orchestrator depend on.
type Retriever interface {
	RetrieveAndFormat(ctx context.Context, query string, k int) (string, error)
}

// Passthrough returns empty context for every query. It satisfies Retriever
// without performing any retrieval, so intent-agnostic callers still
// compile and run against a real contract.
type Passthrough struct{}

// RetrieveAndFormat always returns an empty string.
func (Passthrough) RetrieveAndFormat(ctx context.Context, query string, k int) (string, error) {
	return "", nil
}
