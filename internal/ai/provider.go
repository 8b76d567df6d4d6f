// Package ai wraps the external extraction backend: an LLM asked to turn raw
// source payloads into the canonical field set, with chunked batch calls and
// per-item degradation on failure.
package ai

import "context"

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only by the Gateway; not exported to the rest of the system.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
