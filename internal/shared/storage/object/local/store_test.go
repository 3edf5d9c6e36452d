package local

import (
	"context"
	"errors"
	"testing"

	"docbot-backend/internal/shared/storage/object"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	err := store.Put(ctx, object.Object{
		Key:         "documents/doc-1/policy.txt",
		Body:        []byte("Vacation: 20 days."),
		ContentType: "text/plain",
		Metadata:    map[string]string{"document-id": "doc-1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "documents/doc-1/policy.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Body) != "Vacation: 20 days." {
		t.Fatalf("unexpected body %q", got.Body)
	}
	if got.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", got.ContentType)
	}
	if got.Metadata["document-id"] != "doc-1" {
		t.Fatalf("expected document-id metadata, got %v", got.Metadata)
	}
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Get(context.Background(), "metadata/missing.json")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSniffsContentTypeWhenAbsent(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	if err := store.Put(ctx, object.Object{Key: "a/b.pdf", Body: []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "a/b.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContentType != "application/pdf" {
		t.Fatalf("expected sniffed application/pdf, got %q", got.ContentType)
	}
}

func TestStoreListAndDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"chats/doc-1/s1.json", "chats/doc-1/s2.json", "chats/doc-2/s1.json"} {
		if err := store.Put(ctx, object.Object{Key: key, Body: []byte("[]"), ContentType: "application/json"}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "chats/doc-1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "chats/doc-1/s1.json" || keys[1] != "chats/doc-1/s2.json" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := store.Delete(ctx, "chats/doc-1/s1.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "chats/doc-1/s1.json"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "chats/doc-1/s1.json"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	err := store.Put(context.Background(), object.Object{Key: "../escape.txt", Body: []byte("x")})
	if err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}
