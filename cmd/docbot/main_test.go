package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbot-backend/internal/bootstrap"
	"docbot-backend/internal/chat"
	"docbot-backend/internal/documents"
	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/insights"
	"docbot-backend/internal/llm"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/storage/object/local"
)

func useTestApp(t *testing.T, dir string) {
	t.Helper()
	completer := llm.CompleterFunc(func(ctx context.Context, prompt string, maxTokens int) (string, error) {
		if strings.Contains(prompt, "User Question:") {
			return "20 days.", nil
		}
		return `{"summary":"Vacation policy."}`, nil
	})
	orig := buildApp
	buildApp = func(ctx context.Context, cfg config.Config, skipRouter bool) (*bootstrap.App, error) {
		store := local.New(dir)
		docs := documents.NewService(store)
		return &bootstrap.App{
			Config:    cfg,
			Store:     store,
			LLM:       completer,
			Documents: docs,
			Pipeline:  ingestion.New(store, docs, insights.NewGenerator(completer)),
			Chat:      chat.NewService(store, docs.Repo, completer),
		}, nil
	}
	t.Cleanup(func() { buildApp = orig })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCMD()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUploadIngestThenAsk(t *testing.T) {
	dir := t.TempDir()
	useTestApp(t, dir)

	file := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(file, []byte("Vacation: 20 days."), 0o644))

	out, err := run(t, "upload", file, "--type", "text/plain", "--ingest")
	require.NoError(t, err)
	var doc documents.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, documents.StatusProcessed, doc.Status)
	assert.Equal(t, "policy.txt", doc.FileName)

	out, err = run(t, "ask", doc.ID, "How", "many", "vacation", "days?", "--session", "cli")
	require.NoError(t, err)
	assert.Equal(t, "20 days.\n", out)
}

func TestIngestRequiresKey(t *testing.T) {
	useTestApp(t, t.TempDir())
	_, err := run(t, "ingest")
	assert.Error(t, err)
}

func TestAskUnprocessedDocument(t *testing.T) {
	useTestApp(t, t.TempDir())
	_, err := run(t, "ask", "missing", "question")
	assert.ErrorIs(t, err, chat.ErrDocumentNotReady)
}
