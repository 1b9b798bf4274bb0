// Package invoker implements the substitutable backend-invocation
// capability (spec §6): a subprocess path for local daemons, and an
// HTTP path for remote providers, behind a single interface the rest of
// the module depends on.
package invoker

import (
	"context"
	"time"
)

// Invoker runs prompt against modelName and returns its text response.
type Invoker interface {
	Invoke(ctx context.Context, modelName, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error)
}

// KeyStore is the external opaque credential store. The core never
// writes to it.
type KeyStore interface {
	Get(provider string) (string, bool)
	Has(provider string) bool
}
