package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docbot-backend/internal/documents"
	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/util"
)

// HistoryStore persists the exchanges of a chat session. Sessions are created
// lazily by the first Append and are never truncated.
type HistoryStore interface {
	Append(ctx context.Context, documentID, sessionID string, msgs ...Message) error
	History(ctx context.Context, documentID, sessionID string) ([]Message, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// ObjectHistory keeps each session as a JSON array at
// chats/{documentId}/{sessionId}.json. Append is a read-modify-write with no
// conditional put, so concurrent senders on one session can lose an exchange.
type ObjectHistory struct {
	Store object.Store
}

// NewObjectHistory returns an ObjectHistory over store.
func NewObjectHistory(store object.Store) *ObjectHistory {
	return &ObjectHistory{Store: store}
}

// SessionKey returns the object key holding a session's history. Session ids
// that are not safe key segments are hashed.
func SessionKey(documentID, sessionID string) string {
	return documentPrefix(documentID) + util.SafeKeySegment(sessionID) + ".json"
}

func documentPrefix(documentID string) string {
	return documents.ChatsPrefix + util.SafeKeySegment(documentID) + "/"
}

func (h *ObjectHistory) Append(ctx context.Context, documentID, sessionID string, msgs ...Message) error {
	history, err := h.History(ctx, documentID, sessionID)
	if err != nil {
		return err
	}
	history = append(history, msgs...)
	body, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := h.Store.Put(ctx, object.Object{
		Key:         SessionKey(documentID, sessionID),
		Body:        body,
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("store chat history: %w", err)
	}
	return nil
}

// History returns the session's messages, or an empty slice when the session
// has never been written.
func (h *ObjectHistory) History(ctx context.Context, documentID, sessionID string) ([]Message, error) {
	obj, err := h.Store.Get(ctx, SessionKey(documentID, sessionID))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	var history []Message
	if err := json.Unmarshal(obj.Body, &history); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return history, nil
}

// DeleteDocument removes every session stored for the document.
func (h *ObjectHistory) DeleteDocument(ctx context.Context, documentID string) error {
	keys, err := h.Store.List(ctx, documentPrefix(documentID))
	if err != nil {
		return fmt.Errorf("list chat sessions: %w", err)
	}
	for _, key := range keys {
		if err := h.Store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete chat session %s: %w", key, err)
		}
	}
	return nil
}

var (
	_ HistoryStore      = (*ObjectHistory)(nil)
	_ documents.Cleaner = (*ObjectHistory)(nil)
)
