// Package generator turns a rendered prompt into a recommendation using the
// text-completion backend.
package generator

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"actionplan-backend/internal/llm"
	"actionplan-backend/internal/prompt"
)

const (
	DefaultMaxTokens = 1500
	DefaultTimeout   = 120 * time.Second
	// Temperature is pinned so regeneration is as repeatable as the backend allows.
	Temperature = 0.0
)

// Recommendation is the completion output for one finding.
type Recommendation struct {
	Text        string    `json:"text"`
	Model       string    `json:"model,omitempty"`
	PromptHash  string    `json:"promptHash"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Generator calls the backend with fixed decoding settings and a bounded wait.
type Generator struct {
	Client    llm.Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Now       func() time.Time
}

// New returns a Generator, applying defaults to zero settings.
func New(client llm.Client, model string, maxTokens int, timeout time.Duration) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		Client:    client,
		Model:     model,
		MaxTokens: maxTokens,
		Timeout:   timeout,
	}
}

// CheckCredential fails with KindMissingCredential when apiKey is blank.
func (g *Generator) CheckCredential(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return missingCredential()
	}
	return nil
}

// Generate requests a recommendation for promptText. It never retries; every
// failure is an *Error.
func (g *Generator) Generate(ctx context.Context, apiKey, promptText string) (Recommendation, error) {
	if err := g.CheckCredential(apiKey); err != nil {
		return Recommendation{}, err
	}
	if g.Client == nil {
		return Recommendation{}, backendError(llm.ErrNotImplemented)
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := g.Client.Complete(callCtx, llm.Request{
		Prompt:              promptText,
		MaxTokens:           maxTokens,
		Temperature:         Temperature,
		StructuredReasoning: true,
		APIKey:              apiKey,
	})
	if err != nil {
		return Recommendation{}, classify(callCtx, err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Recommendation{}, backendError(llm.ErrEmptyCompletion)
	}

	model := out.Model
	if model == "" {
		model = g.Model
	}
	return Recommendation{
		Text:        text,
		Model:       model,
		PromptHash:  prompt.Hash(promptText),
		GeneratedAt: g.now(),
	}, nil
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func classify(ctx context.Context, err error) *Error {
	if errors.Is(err, llm.ErrMissingCredential) {
		return missingCredential()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	return backendError(err)
}
