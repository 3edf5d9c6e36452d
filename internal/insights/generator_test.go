package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbot-backend/internal/llm"
)

type recordingCompleter struct {
	reply     string
	err       error
	prompt    string
	maxTokens int
}

func (r *recordingCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	r.prompt = prompt
	r.maxTokens = maxTokens
	return r.reply, r.err
}

func TestGenerateParsesModelOutput(t *testing.T) {
	c := &recordingCompleter{reply: `{"summary":"Vacation policy.","keyEntities":["vacation","employees"],"sentiment":"neutral","readingTime":"1 minutes","documentType":"policy","language":"en"}`}
	got := NewGenerator(c).Generate(context.Background(), "Vacation: 20 days.")

	assert.Equal(t, "Vacation policy.", got.Summary)
	assert.Equal(t, []string{"vacation", "employees"}, got.KeyEntities)
	assert.Equal(t, "policy", got.DocumentType)
	assert.Equal(t, MaxTokens, c.maxTokens)
	assert.Contains(t, c.prompt, "Vacation: 20 days....")
	assert.Contains(t, c.prompt, "Respond only with valid JSON.")
}

func TestGenerateFallbackOnCompletionError(t *testing.T) {
	text := strings.Repeat("a", 2500)
	got := NewGenerator(&recordingCompleter{err: errors.New("throttled")}).Generate(context.Background(), text)

	assert.Equal(t, Insight{
		Summary:      "Document analysis completed",
		KeyEntities:  []string{"document", "content"},
		Sentiment:    "neutral",
		ReadingTime:  "3 minutes",
		DocumentType: "document",
		Language:     "en",
	}, got)
}

func TestGenerateFallbackOnNonJSON(t *testing.T) {
	got := NewGenerator(&recordingCompleter{reply: "Sure! Here is your analysis."}).Generate(context.Background(), "short")
	assert.Equal(t, Fallback("short"), got)
	assert.Equal(t, "1 minutes", got.ReadingTime)
}

func TestGenerateFallbackOnNonObjectJSON(t *testing.T) {
	got := NewGenerator(&recordingCompleter{reply: `["summary"]`}).Generate(context.Background(), "")
	assert.Equal(t, Fallback(""), got)
	assert.Equal(t, "0 minutes", got.ReadingTime)
}

func TestGenerateWithPlaceholderFallsBack(t *testing.T) {
	got := NewGenerator(llm.PlaceholderClient{}).Generate(context.Background(), "x")
	assert.Equal(t, "Document analysis completed", got.Summary)
}

func TestFallbackCountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 1001)
	assert.Equal(t, "2 minutes", Fallback(text).ReadingTime)
}

func TestParseStripsCodeFence(t *testing.T) {
	cases := []string{
		"```json\n{\"summary\":\"s\"}\n```",
		"```\n{\"summary\":\"s\"}\n```",
		"  \n{\"summary\":\"s\"}\n ",
	}
	for _, raw := range cases {
		in, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "s", in.Summary)
	}
}

func TestParseToleratesMissingAndPreservesExtraFields(t *testing.T) {
	in, err := Parse(`{"summary":"s","confidence":0.9,"sentiment":5}`)
	require.NoError(t, err)
	assert.Equal(t, "s", in.Summary)
	assert.Empty(t, in.Language)
	assert.Nil(t, in.KeyEntities)

	out, err := json.Marshal(in)
	require.NoError(t, err)
	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, 0.9, round["confidence"])
	assert.Equal(t, float64(5), round["sentiment"])
	assert.Equal(t, "s", round["summary"])
	_, hasLanguage := round["language"]
	assert.False(t, hasLanguage)
}

func TestBuildPromptTruncatesAt8000Characters(t *testing.T) {
	text := strings.Repeat("ä", 9000)
	prompt := BuildPrompt(text)
	assert.Contains(t, prompt, strings.Repeat("ä", 8000)+"...")
	assert.NotContains(t, prompt, strings.Repeat("ä", 8001))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "", Truncate("héllo", 0))
}
