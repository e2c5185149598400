package llm

import (
	"context"
	"errors"
)

// Client abstracts the text-completion backend.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Request captures one completion call. APIKey is the caller-supplied credential.
type Request struct {
	Prompt              string
	MaxTokens           int
	Temperature         float64
	StructuredReasoning bool
	APIKey              string
}

// Completion is the backend output for a Request.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ReasoningInstruction is sent ahead of the prompt when structured reasoning is requested.
const ReasoningInstruction = "Think through the problem step by step. Lay out your reasoning first, then give your final answer under a clearly labelled conclusion."

var (
	// ErrMissingCredential is returned when a request has no API key.
	ErrMissingCredential = errors.New("llm credential missing")
	// ErrEmptyCompletion is returned when the backend answers without text.
	ErrEmptyCompletion = errors.New("llm returned empty completion")
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, ErrNotImplemented
}
