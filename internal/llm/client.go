// Package llm provides the chat-completion client used by the process stage.
package llm

import "context"

// SystemPrompt frames every completion request sent by the pipeline.
const SystemPrompt = "You are a helpful assistant for BI intent discovery. Always respond with valid JSON."

// Client is the minimal completion interface the process stage depends on.
type Client interface {
	// Complete sends a prompt and returns the raw text of the first choice.
	Complete(ctx context.Context, prompt string) (string, error)
}
