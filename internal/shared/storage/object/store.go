package object

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object is a stored payload with its content type and free-form metadata.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Store defines the contract for saving and retrieving binary objects by key.
// Writes are last-write-wins; there is no conditional put.
type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
