package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docbot-backend/internal/shared/storage/object"
)

// Repo persists document records.
type Repo interface {
	Get(ctx context.Context, id string) (Document, error)
	Put(ctx context.Context, doc Document) error
	List(ctx context.Context) ([]Document, error)
	Delete(ctx context.Context, id string) error
}

// ObjectRepo stores each record as JSON in the object store. Updates are
// read-modify-write without conditional puts.
type ObjectRepo struct {
	Store object.Store
}

// NewObjectRepo constructs an ObjectRepo.
func NewObjectRepo(store object.Store) *ObjectRepo {
	return &ObjectRepo{Store: store}
}

func (r *ObjectRepo) Get(ctx context.Context, id string) (Document, error) {
	obj, err := r.Store.Get(ctx, MetadataKey(id))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	var doc Document
	if err := json.Unmarshal(obj.Body, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

func (r *ObjectRepo) Put(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := r.Store.Put(ctx, object.Object{
		Key:         MetadataKey(doc.ID),
		Body:        body,
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("put document %s: %w", doc.ID, err)
	}
	return nil
}

// List returns every record in key order. Unreadable records are skipped.
func (r *ObjectRepo) List(ctx context.Context) ([]Document, error) {
	keys, err := r.Store.List(ctx, MetadataPrefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, MetadataPrefix), ".json")
		doc, err := r.Get(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *ObjectRepo) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, MetadataKey(id)); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

var _ Repo = (*ObjectRepo)(nil)
