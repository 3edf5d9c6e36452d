package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/queue"
)

type fakeProcessor struct {
	failKey string
	calls   [][]ingestion.ObjectRef
}

func (f *fakeProcessor) HandleBatch(ctx context.Context, refs []ingestion.ObjectRef) error {
	f.calls = append(f.calls, refs)
	for _, r := range refs {
		if r.Key == f.failKey {
			return errors.New("extract failed")
		}
	}
	return nil
}

func queueBody(t *testing.T, key string) string {
	t.Helper()
	b, err := queue.EncodeMessage(queue.Message{Version: 1, ObjectKey: key})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestHandleSQSReportsOnlyProcessingFailures(t *testing.T) {
	proc := &fakeProcessor{failKey: "documents/d2/b.png"}
	evt := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", Body: queueBody(t, "documents/d1/a.txt")},
		{MessageId: "m2", Body: queueBody(t, "documents/d2/b.png")},
		{MessageId: "m3", Body: "{not json"},
	}}

	resp := handleSQS(context.Background(), proc, evt)

	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "m2" {
		t.Fatalf("unexpected failures %+v", resp.BatchItemFailures)
	}
	if len(proc.calls) != 2 {
		t.Fatalf("expected 2 processor calls, got %d", len(proc.calls))
	}
}

func TestHandleS3DecodesKeys(t *testing.T) {
	proc := &fakeProcessor{}
	evt := events.S3Event{Records: []events.S3EventRecord{{
		EventName: "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "docs"},
			Object: events.S3Object{Key: "documents/d1/my+file.txt"},
		},
	}}}

	if err := handleS3(context.Background(), proc, evt); err != nil {
		t.Fatalf("handleS3: %v", err)
	}
	if len(proc.calls) != 1 || proc.calls[0][0].Key != "documents/d1/my file.txt" {
		t.Fatalf("unexpected calls %+v", proc.calls)
	}
}

func TestFailAllMarksEveryRecord(t *testing.T) {
	resp := failAll(events.SQSEvent{Records: []events.SQSMessage{{MessageId: "a"}, {MessageId: "b"}}})
	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("unexpected failures %+v", resp.BatchItemFailures)
	}
}
