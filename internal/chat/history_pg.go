package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGHistory stores one row per message in chat_messages. Appends for a
// session are serialized with a transaction-scoped advisory lock, so
// concurrent senders never lose entries.
type PGHistory struct {
	DB *sql.DB
}

func (h *PGHistory) Append(ctx context.Context, documentID, sessionID string, msgs ...Message) (err error) {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || '/' || $2))`, documentID, sessionID); err != nil {
		return fmt.Errorf("lock chat session: %w", err)
	}
	var seq int
	if err = tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(seq), 0) FROM chat_messages WHERE document_id = $1 AND session_id = $2`,
		documentID, sessionID).Scan(&seq); err != nil {
		return fmt.Errorf("read chat sequence: %w", err)
	}
	for _, m := range msgs {
		seq++
		if _, err = tx.ExecContext(ctx, `
INSERT INTO chat_messages (document_id, session_id, seq, role, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			documentID, sessionID, seq, string(m.Role), m.Content, m.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit chat append: %w", err)
	}
	return nil
}

func (h *PGHistory) History(ctx context.Context, documentID, sessionID string) ([]Message, error) {
	rows, err := h.DB.QueryContext(ctx, `
SELECT role, content, created_at FROM chat_messages
WHERE document_id = $1 AND session_id = $2
ORDER BY seq`, documentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	history := []Message{}
	for rows.Next() {
		var (
			role string
			m    Message
			ts   time.Time
		)
		if err := rows.Scan(&role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = Role(role)
		m.Timestamp = ts.UTC()
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}
	return history, nil
}

func (h *PGHistory) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := h.DB.ExecContext(ctx, `DELETE FROM chat_messages WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}

var _ HistoryStore = (*PGHistory)(nil)
