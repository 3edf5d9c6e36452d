package openai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"docbot-backend/internal/llm"
)

const defaultTemperature = 0.2

// Client implements llm.Completer using OpenAI Chat Completions through
// langchaingo.
type Client struct {
	model llms.Model
	name  string
}

// Option tweaks the underlying langchaingo client.
type Option = lcopenai.Option

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option { return lcopenai.WithBaseURL(baseURL) }

// NewClient constructs a new OpenAI client. A non-positive timeout means 120s.
func NewClient(apiKey, model string, timeout time.Duration, opts ...Option) (*Client, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	all := append([]Option{
		lcopenai.WithToken(apiKey),
		lcopenai.WithModel(model),
		lcopenai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)
	m, err := lcopenai.New(all...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return NewWithModel(m, model), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, name string) *Client {
	return &Client{model: model, name: name}
}

// Complete sends prompt as a single user message and returns the first
// choice unchanged. gpt-5 models get no custom temperature.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(defaultTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("openai request model=%s: %w", c.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai model=%s: %w", c.name, llm.ErrEmptyCompletion)
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		return "", fmt.Errorf("openai model=%s: %w", c.name, llm.ErrEmptyCompletion)
	}
	logUsage(c.name, llm.PromptHash(prompt), choice.GenerationInfo)
	return choice.Content, nil
}

func logUsage(model, promptHash string, info map[string]any) {
	total, ok := info["TotalTokens"]
	if !ok {
		log.Printf("llm response model=%s prompt_hash=%s", model, promptHash)
		return
	}
	log.Printf("llm response model=%s prompt_hash=%s prompt_tokens=%v completion_tokens=%v total_tokens=%v",
		model, promptHash, info["PromptTokens"], info["CompletionTokens"], total)
}

var _ llm.Completer = (*Client)(nil)
