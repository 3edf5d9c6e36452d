package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"docbot-backend/internal/llm"
)

type fakeModel struct {
	reply    string
	err      error
	prompt   string
	options  llms.CallOptions
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestCompletePassesPromptAndBudget(t *testing.T) {
	model := &fakeModel{reply: " {\"summary\":\"ok\"} "}
	client := NewWithModel(model, DefaultModel)

	out, err := client.Complete(context.Background(), "Analyze this", 1000)
	require.NoError(t, err)
	assert.Equal(t, " {\"summary\":\"ok\"} ", out)
	assert.Equal(t, 1000, model.options.MaxTokens)
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	require.Len(t, model.messages[0].Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "Analyze this"}, model.messages[0].Parts[0])
}

func TestCompleteWrapsModelError(t *testing.T) {
	boom := errors.New("throttled")
	client := NewWithModel(&fakeModel{err: boom}, "m")

	_, err := client.Complete(context.Background(), "p", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := NewWithModel(&fakeModel{}, "m")

	_, err := client.Complete(context.Background(), "p", 10)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestCompleteWhitespaceOnlyIsEmpty(t *testing.T) {
	client := NewWithModel(&fakeModel{reply: " \n "}, "m")

	_, err := client.Complete(context.Background(), "p", 10)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}
