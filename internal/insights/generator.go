package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"docbot-backend/internal/llm"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/telemetry"
)

const (
	// PromptTextLimit is how many characters of the document go into the prompt.
	PromptTextLimit = 8000
	// MaxTokens is the completion budget for one insight call.
	MaxTokens = 1000
)

var errNotObject = errors.New("insight response is not a JSON object")

// Generator produces an Insight for extracted text with one completion call.
type Generator struct {
	LLM llm.Completer
}

// NewGenerator returns a Generator backed by c.
func NewGenerator(c llm.Completer) *Generator {
	return &Generator{LLM: c}
}

// Generate never fails: a call error or unusable output yields Fallback(text).
func (g *Generator) Generate(ctx context.Context, text string) Insight {
	prompt := BuildPrompt(text)
	start := time.Now()
	raw, err := g.LLM.Complete(ctx, prompt, MaxTokens)
	if err != nil {
		return g.fallback(text, "completion_failed", err, start)
	}
	insight, err := Parse(raw)
	if err != nil {
		return g.fallback(text, "unparseable_response", err, start)
	}
	telemetry.Info("insights.generated", map[string]any{
		"prompt_hash": llm.PromptHash(prompt),
		"duration_ms": time.Since(start).Milliseconds(),
		"text_length": len([]rune(text)),
	})
	return insight
}

func (g *Generator) fallback(text, reason string, err error, start time.Time) Insight {
	metrics.IncInsightFallback()
	telemetry.Error("insights.fallback", map[string]any{
		"reason":      reason,
		"error":       err,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return Fallback(text)
}

// Parse decodes a model response into an Insight. Surrounding whitespace and
// a Markdown code fence are removed first; the remainder must be an object.
func Parse(raw string) (Insight, error) {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return Insight{}, errNotObject
	}
	var in Insight
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return Insight{}, err
	}
	return in, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// BuildPrompt embeds the leading PromptTextLimit characters of text.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following document and provide insights in JSON format:\n\n")
	b.WriteString("Document Text:\n")
	b.WriteString(Truncate(text, PromptTextLimit))
	b.WriteString("...\n\n")
	b.WriteString(`Please provide a JSON response with the following structure:
{
  "summary": "A brief 1-2 sentence summary of the document",
  "keyEntities": ["list", "of", "key", "entities", "or", "topics"],
  "sentiment": "positive/neutral/negative",
  "readingTime": "estimated reading time in minutes",
  "documentType": "type of document (manual, policy, contract, etc.)",
  "language": "detected language"
}

Respond only with valid JSON.`)
	return b.String()
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
