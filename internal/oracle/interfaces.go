// Package oracle provides the model-oracle clients the pipeline calls for
// extraction, critique, enrichment, and response generation. Every client
// wraps its HTTP calls in a circuit breaker; callers must treat every call
// as fallible and supply a stage-local default.
package oracle

import "context"

// TextGenerator produces a text completion for a prompt.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingGenerator produces a vector embedding for a text.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
