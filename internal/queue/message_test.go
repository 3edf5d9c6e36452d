package queue

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docbot-backend/internal/documents"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Version:    MessageVersion,
		DocumentID: "doc-1",
		Bucket:     "docs",
		ObjectKey:  "documents/doc-1/policy.txt",
		EnqueuedAt: "2026-01-30T22:00:00Z",
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestDecodeMessageRequiresObjectKey(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"version":1,"documentId":"doc-1"}`))
	if !errors.Is(err, ErrMissingObjectKey) {
		t.Fatalf("expected ErrMissingObjectKey, got %v", err)
	}
}

type fakeSQS struct {
	sent     []string
	deleted  []string
	received *sqs.ReceiveMessageOutput
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if f.received == nil {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	return f.received, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestPublisherSendsObjectRef(t *testing.T) {
	fake := &fakeSQS{}
	pub := NewPublisher(NewSQSClientWithAPI(fake, "https://sqs.example/queue"), "docs")
	pub.now = func() time.Time { return time.Date(2026, 1, 30, 22, 0, 0, 0, time.UTC) }

	err := pub.DocumentUploaded(context.Background(), documents.Document{ID: "doc-1", StorageKey: "documents/doc-1/policy.txt"})
	if err != nil {
		t.Fatalf("DocumentUploaded: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.sent))
	}
	got, err := DecodeMessage([]byte(fake.sent[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Message{Version: 1, DocumentID: "doc-1", Bucket: "docs", ObjectKey: "documents/doc-1/policy.txt", EnqueuedAt: "2026-01-30T22:00:00Z"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestReceiveAndAck(t *testing.T) {
	fake := &fakeSQS{received: &sqs.ReceiveMessageOutput{Messages: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String("{}"),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
	}}}}
	client := NewSQSClientWithAPI(fake, "q")

	got, err := client.Receive(context.Background(), ReceiveOptions{MaxMessages: 10, WaitSeconds: 1})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" || got[0].ReceiveCount != 3 {
		t.Fatalf("unexpected deliveries %+v", got)
	}
	if err := client.Ack(context.Background(), got[0]); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "r1" {
		t.Fatalf("unexpected deletes %v", fake.deleted)
	}
	if err := client.Ack(context.Background(), Delivery{ID: "m2"}); err == nil {
		t.Fatal("expected error for missing receipt handle")
	}
}
