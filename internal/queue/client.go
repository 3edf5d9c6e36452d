package queue

import (
	"context"
	"time"

	"docbot-backend/internal/documents"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Publisher enqueues an ingestion message for each upload.
type Publisher struct {
	Client Client
	// Bucket is recorded on the message so consumers can reject foreign events.
	Bucket string

	now func() time.Time
}

// NewPublisher returns a Publisher sending through client.
func NewPublisher(client Client, bucket string) *Publisher {
	return &Publisher{Client: client, Bucket: bucket}
}

// DocumentUploaded sends a message pointing at the stored original.
func (p *Publisher) DocumentUploaded(ctx context.Context, doc documents.Document) error {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	return p.Client.Send(ctx, Message{
		Version:    MessageVersion,
		DocumentID: doc.ID,
		Bucket:     p.Bucket,
		ObjectKey:  doc.StorageKey,
		EnqueuedAt: now().UTC().Format(time.RFC3339),
	})
}

var _ documents.Trigger = (*Publisher)(nil)
