// Package backend defines the opaque prompt/response contract the LLM
// classifier speaks to a concrete backend (spec §4.4): a single text
// prompt in, a single text response out. Prompt construction, parsing,
// schema validation and retry all live one layer up, in internal/llmclassify —
// a Backend is deliberately dumb.
package backend

import "context"

// Backend sends an opaque prompt to a concrete LLM and returns its raw
// text response.
type Backend interface {
	// Complete returns the model's raw text response to prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Healthy performs a minimal round-trip to confirm the backend is
	// reachable. Called once per run before any classification.
	Healthy(ctx context.Context) error
	// Name identifies the backend for logs and Classification.Rationale.
	Name() string
}
