package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"docbot-backend/internal/shared/storage/object"
)

// Store implements object.Store on an embedded Badger database. Each key holds
// a JSON envelope with the payload, content type and metadata.
type Store struct {
	db *badger.DB
}

type envelope struct {
	ContentType string            `json:"contentType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Body        []byte            `json:"body"`
}

// Open opens (or creates) a Badger database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger dir=%s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a non-persistent database, used by tests and local runs.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads the envelope stored under key.
func (s *Store) Get(ctx context.Context, key string) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}
	var env envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &env)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return object.Object{}, object.ErrNotFound
		}
		return object.Object{}, fmt.Errorf("badger get key=%s: %w", key, err)
	}
	return object.Object{
		Key:         key,
		Body:        env.Body,
		ContentType: env.ContentType,
		Metadata:    env.Metadata,
	}, nil
}

// Put writes the envelope for obj.Key.
func (s *Store) Put(ctx context.Context, obj object.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj.Key == "" {
		return errors.New("badger put: empty key")
	}
	raw, err := json.Marshal(envelope{ContentType: obj.ContentType, Metadata: obj.Metadata, Body: obj.Body})
	if err != nil {
		return fmt.Errorf("badger encode key=%s: %w", obj.Key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(obj.Key), raw)
	}); err != nil {
		return fmt.Errorf("badger put key=%s: %w", obj.Key, err)
	}
	return nil
}

// Delete removes key; missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("badger delete key=%s: %w", key, err)
	}
	return nil
}

// List returns keys with the given prefix in byte order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list prefix=%s: %w", prefix, err)
	}
	return keys, nil
}

var _ object.Store = (*Store)(nil)
