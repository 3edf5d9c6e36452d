package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is the current ingestion message layout.
const MessageVersion = 1

// ErrMissingObjectKey is returned for messages that name no object.
var ErrMissingObjectKey = errors.New("missing object key")

// Message asks a consumer to ingest one uploaded original.
type Message struct {
	Version    int    `json:"version"`
	DocumentID string `json:"documentId,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
	ObjectKey  string `json:"objectKey"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(msg.ObjectKey) == "" {
		return msg, ErrMissingObjectKey
	}
	return msg, nil
}
