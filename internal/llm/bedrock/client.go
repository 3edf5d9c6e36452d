package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	lcbedrock "github.com/tmc/langchaingo/llms/bedrock"

	"docbot-backend/internal/llm"
)

// DefaultModel is the Claude model used when LLM_MODEL is unset.
const DefaultModel = lcbedrock.ModelAnthropicClaudeV3Sonnet

// Client implements llm.Completer on Amazon Bedrock through langchaingo.
type Client struct {
	model   llms.Model
	modelID string
}

// New builds a Bedrock runtime client for region and wraps it.
func New(ctx context.Context, region, modelID string) (*Client, error) {
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModel
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewFromConfig(cfg, modelID)
}

// NewFromConfig wraps an already-loaded AWS config.
func NewFromConfig(cfg aws.Config, modelID string) (*Client, error) {
	model, err := lcbedrock.New(
		lcbedrock.WithClient(bedrockruntime.NewFromConfig(cfg)),
		lcbedrock.WithModel(modelID),
	)
	if err != nil {
		return nil, fmt.Errorf("bedrock client: %w", err)
	}
	return NewWithModel(model, modelID), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, modelID string) *Client {
	return &Client{model: model, modelID: modelID}
}

// Complete sends prompt as one human message and returns the first choice
// unchanged.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	resp, err := c.model.GenerateContent(ctx, content, llms.WithMaxTokens(maxTokens))
	if err != nil {
		return "", fmt.Errorf("bedrock invoke model=%s: %w", c.modelID, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("bedrock model=%s: %w", c.modelID, llm.ErrEmptyCompletion)
	}
	text := resp.Choices[0].Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("bedrock model=%s: %w", c.modelID, llm.ErrEmptyCompletion)
	}
	return text, nil
}

var _ llm.Completer = (*Client)(nil)
