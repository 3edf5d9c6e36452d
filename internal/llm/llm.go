package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Completer turns a prompt into generated text within a token budget.
// Implementations may fail transiently; callers decide whether to retry.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrNotImplemented is returned by the placeholder completer.
var ErrNotImplemented = errors.New("LLM not implemented")

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return "", ErrNotImplemented
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}

// PromptHash fingerprints a prompt for logs without recording its content.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}
