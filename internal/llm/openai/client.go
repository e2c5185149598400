package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"actionplan-backend/internal/llm"
	"actionplan-backend/internal/shared/telemetry"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// Config configures a Client.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client using the Chat Completions API.
type Client struct {
	client openai.Client
	model  string
}

// NewClient constructs a client. The API key travels with each request.
func NewClient(cfg Config) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		// Retries are user-initiated.
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return llm.Completion{}, llm.ErrMissingCredential
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: buildMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if supportsTemperature(c.model) {
		params.Temperature = openai.Float(req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithAPIKey(req.APIKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return llm.Completion{}, fmt.Errorf("llm http status %d: %w", apiErr.StatusCode, err)
		}
		return llm.Completion{}, fmt.Errorf("llm request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("llm response missing choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return llm.Completion{}, llm.ErrEmptyCompletion
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	telemetry.Info("llm.completion", map[string]any{
		"model":             model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"finish_reason":     string(resp.Choices[0].FinishReason),
	})

	return llm.Completion{
		Text:             text,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func buildMessages(req llm.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.StructuredReasoning {
		messages = append(messages, openai.SystemMessage(llm.ReasoningInstruction))
	}
	return append(messages, openai.UserMessage(req.Prompt))
}

// gpt-5 family models reject an explicit temperature.
func supportsTemperature(model string) bool {
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
