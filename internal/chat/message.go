package chat

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput reports a chat request missing documentId or message.
	ErrInvalidInput = errors.New("invalid chat request")
	// ErrDocumentNotReady means no extracted text exists for the document yet.
	ErrDocumentNotReady = errors.New("document not found or not processed")
)

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat session's history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is a single chat turn against a processed document.
type Request struct {
	DocumentID string
	Message    string
	SessionID  string
}

// Reply is the generated answer.
type Reply struct {
	Content   string
	Timestamp time.Time
}
