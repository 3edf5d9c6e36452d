package documents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/storage/object/badgerstore"
)

type countingStore struct {
	object.Store
	mu      sync.Mutex
	puts    int
	deletes int
}

func (s *countingStore) Put(ctx context.Context, obj object.Object) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.Store.Put(ctx, obj)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.Store.Delete(ctx, key)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts + s.deletes
}

var errPutFailed = errors.New("transient put failure")

// prefixFailStore fails every Put whose key starts with prefix.
type prefixFailStore struct {
	object.Store
	prefix string
}

func (s *prefixFailStore) Put(ctx context.Context, obj object.Object) error {
	if strings.HasPrefix(obj.Key, s.prefix) {
		return errPutFailed
	}
	return s.Store.Put(ctx, obj)
}

func openMemStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	mem, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })
	return mem
}

func newTestService(t *testing.T) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{Store: openMemStore(t)}
	return NewService(store), store
}

type recordingTrigger struct {
	docs []Document
	err  error
}

func (r *recordingTrigger) DocumentUploaded(ctx context.Context, doc Document) error {
	r.docs = append(r.docs, doc)
	return r.err
}

type recordingCleaner struct {
	ids []string
}

func (r *recordingCleaner) DeleteDocument(ctx context.Context, id string) error {
	r.ids = append(r.ids, id)
	return nil
}
