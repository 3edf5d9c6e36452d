package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"

	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/queue"
)

type fakeConsumer struct {
	mu      sync.Mutex
	batches [][]queue.Delivery
	acked   []string
	cancel  context.CancelFunc
}

func (f *fakeConsumer) Receive(ctx context.Context, opts queue.ReceiveOptions) ([]queue.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		f.cancel()
		return nil, context.Canceled
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func (f *fakeConsumer) Ack(ctx context.Context, d queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, d.ReceiptHandle)
	return nil
}

type fakeProcessor struct {
	err error
}

func (f fakeProcessor) HandleBatch(ctx context.Context, refs []ingestion.ObjectRef) error {
	return f.err
}

func body(t *testing.T, key string) string {
	t.Helper()
	b, err := queue.EncodeMessage(queue.Message{Version: 1, ObjectKey: key})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeConsumer{}
	handleDelivery(context.Background(), client, fakeProcessor{}, queue.Delivery{ID: "m1", ReceiptHandle: "r1", Body: body(t, "documents/d1/a.txt")})

	if len(client.acked) != 1 {
		t.Fatalf("expected delete, got %d", len(client.acked))
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeConsumer{}
	handleDelivery(context.Background(), client, fakeProcessor{err: errors.New("boom")}, queue.Delivery{ID: "m2", ReceiptHandle: "r2", Body: body(t, "documents/d2/a.txt")})

	if len(client.acked) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.acked))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeConsumer{}
	handleDelivery(context.Background(), client, fakeProcessor{}, queue.Delivery{ID: "m3", ReceiptHandle: "r3", Body: "{bad-json"})

	if len(client.acked) != 1 {
		t.Fatalf("expected delete, got %d", len(client.acked))
	}
}

func TestPollProcessesBatchOnPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &fakeConsumer{cancel: cancel, batches: [][]queue.Delivery{{
		{ID: "a", ReceiptHandle: "ra", Body: body(t, "documents/a/x.txt")},
		{ID: "b", ReceiptHandle: "rb", Body: body(t, "documents/b/x.txt")},
		{ID: "c", ReceiptHandle: "rc", Body: body(t, "documents/c/x.txt")},
	}}}

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	poll(ctx, client, pool, &wg, fakeProcessor{}, 30)
	wg.Wait()

	if len(client.acked) != 3 {
		t.Fatalf("expected 3 acks, got %v", client.acked)
	}
}

func TestOrDefault(t *testing.T) {
	if got := orDefault(0, 900); got != 900 {
		t.Fatalf("expected default for zero, got %d", got)
	}
	if got := orDefault(-1, 30); got != 30 {
		t.Fatalf("expected default for negative, got %d", got)
	}
	if got := orDefault(120, 900); got != 120 {
		t.Fatalf("expected configured value, got %d", got)
	}
}
