package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docbot-backend/internal/documents"
	"docbot-backend/internal/insights"
	"docbot-backend/internal/llm"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/telemetry"
)

const (
	// ContextTextLimit is how many characters of the document ground an answer.
	ContextTextLimit = 10000
	// MaxTokens is the completion budget for one answer.
	MaxTokens = 2000
)

// Service answers questions about processed documents. Each call is a single
// turn: stored history is never fed back into the prompt.
type Service struct {
	Store   object.Store
	Docs    documents.Repo
	LLM     llm.Completer
	History HistoryStore

	now func() time.Time
}

// NewService wires a Service with the object-store history backend.
func NewService(store object.Store, docs documents.Repo, completer llm.Completer) *Service {
	return &Service{
		Store:   store,
		Docs:    docs,
		LLM:     completer,
		History: NewObjectHistory(store),
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Respond builds a grounded prompt from the document's extracted text and
// record, asks the completer once and returns the answer unchanged. When a
// session id is given the exchange is appended to its history; history
// failures are logged and never returned.
func (s *Service) Respond(ctx context.Context, req Request) (Reply, error) {
	docID := strings.TrimSpace(req.DocumentID)
	if docID == "" || strings.TrimSpace(req.Message) == "" {
		metrics.IncChatRequest("invalid")
		return Reply{}, fmt.Errorf("%w: Missing required fields: documentId, message", ErrInvalidInput)
	}
	if !documents.ValidID(docID) {
		metrics.IncChatRequest("not_ready")
		return Reply{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, docID)
	}
	start := time.Now()

	obj, err := s.Store.Get(ctx, documents.ProcessedKey(docID))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			metrics.IncChatRequest("not_ready")
			return Reply{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, docID)
		}
		metrics.IncChatRequest("error")
		return Reply{}, fmt.Errorf("load document text: %w", err)
	}

	var meta *documents.Document
	if doc, err := s.Docs.Get(ctx, docID); err == nil {
		meta = &doc
	} else if !errors.Is(err, documents.ErrNotFound) {
		telemetry.Warn("chat.metadata_unavailable", map[string]any{
			"document_id": docID,
			"error":       err,
		})
	}

	prompt := BuildPrompt(string(obj.Body), req.Message, meta)
	answer, err := s.LLM.Complete(ctx, prompt, MaxTokens)
	if err != nil {
		metrics.IncChatRequest("error")
		return Reply{}, fmt.Errorf("generate answer: %w", err)
	}

	now := s.clock()
	if req.SessionID != "" && s.History != nil {
		err := s.History.Append(ctx, docID, req.SessionID,
			Message{Role: RoleUser, Content: req.Message, Timestamp: now},
			Message{Role: RoleAssistant, Content: answer, Timestamp: now},
		)
		if err != nil {
			metrics.IncChatHistoryFailure()
			telemetry.Error("chat.history_failed", map[string]any{
				"document_id": docID,
				"session_id":  req.SessionID,
				"error":       err,
			})
		}
	}

	metrics.IncChatRequest("ok")
	telemetry.Info("chat.answered", map[string]any{
		"document_id": docID,
		"prompt_hash": llm.PromptHash(prompt),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return Reply{Content: answer, Timestamp: now}, nil
}

// SessionHistory returns a session's stored messages.
func (s *Service) SessionHistory(ctx context.Context, documentID, sessionID string) ([]Message, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: documentId and sessionId are required", ErrInvalidInput)
	}
	if !documents.ValidID(documentID) {
		return nil, fmt.Errorf("%w: invalid documentId", ErrInvalidInput)
	}
	if s.History == nil {
		return []Message{}, nil
	}
	return s.History.History(ctx, documentID, sessionID)
}

// BuildPrompt assembles the grounded prompt. meta may be nil, in which case
// the document header is omitted.
func BuildPrompt(text, question string, meta *documents.Document) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant that answers questions about documents. ")
	b.WriteString("You have access to the full content of a document and should provide accurate, helpful answers based on that content.\n\n")
	if meta != nil {
		docType, summary := "document", "No summary available"
		if meta.Insights != nil {
			if meta.Insights.DocumentType != "" {
				docType = meta.Insights.DocumentType
			}
			if meta.Insights.Summary != "" {
				summary = meta.Insights.Summary
			}
		}
		fmt.Fprintf(&b, "\nDocument: %s\nType: %s\nSummary: %s\n", meta.FileName, docType, summary)
	}
	b.WriteString("\n\nDocument Content:\n")
	b.WriteString(insights.Truncate(text, ContextTextLimit))
	b.WriteString("...\n\n")
	b.WriteString("User Question: ")
	b.WriteString(question)
	b.WriteString(`

Instructions:
- Answer based solely on the document content provided
- Be specific and cite relevant sections when possible
- If the information isn't in the document, say so clearly
- Keep answers concise but comprehensive
- Use a helpful, professional tone

Answer:`)
	return b.String()
}
