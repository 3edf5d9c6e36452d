package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"docbot-backend/internal/shared/storage/object"
)

const (
	objectsDir = "objects"
	metaDir    = "meta"
)

// Store implements object.Store on the local filesystem. Payloads live under
// <baseDir>/objects/<key>; content type and metadata live in a JSON sidecar
// under <baseDir>/meta/<key>.json.
type Store struct {
	baseDir string
}

type sidecar struct {
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Get reads an object and its sidecar.
func (s *Store) Get(ctx context.Context, key string) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return object.Object{}, err
	}

	body, err := os.ReadFile(s.objectPath(clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.Object{}, object.ErrNotFound
		}
		return object.Object{}, fmt.Errorf("read object key=%s: %w", key, err)
	}

	obj := object.Object{Key: clean, Body: body}
	raw, err := os.ReadFile(s.metaPath(clean))
	switch {
	case err == nil:
		var meta sidecar
		if err := json.Unmarshal(raw, &meta); err != nil {
			return object.Object{}, fmt.Errorf("decode sidecar key=%s: %w", key, err)
		}
		obj.ContentType = meta.ContentType
		obj.Metadata = meta.Metadata
	case errors.Is(err, fs.ErrNotExist):
		obj.ContentType = mimetype.Detect(body).String()
	default:
		return object.Object{}, fmt.Errorf("read sidecar key=%s: %w", key, err)
	}
	return obj, nil
}

// Put writes the payload and its sidecar, replacing any previous version.
func (s *Store) Put(ctx context.Context, obj object.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(obj.Key)
	if err != nil {
		return err
	}

	contentType := strings.TrimSpace(obj.ContentType)
	if contentType == "" {
		contentType = mimetype.Detect(obj.Body).String()
	}
	meta, err := json.Marshal(sidecar{ContentType: contentType, Metadata: obj.Metadata})
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}

	if err := writeFile(s.objectPath(clean), obj.Body); err != nil {
		return fmt.Errorf("write object key=%s: %w", obj.Key, err)
	}
	if err := writeFile(s.metaPath(clean), meta); err != nil {
		return fmt.Errorf("write sidecar key=%s: %w", obj.Key, err)
	}
	return nil
}

// Delete removes the payload and its sidecar. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	for _, p := range []string{s.objectPath(clean), s.metaPath(clean)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete key=%s: %w", key, err)
		}
	}
	return nil
}

// List returns all keys beginning with prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := filepath.Join(s.baseDir, objectsDir)
	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list prefix=%s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) objectPath(key string) string {
	return filepath.Join(s.baseDir, objectsDir, filepath.FromSlash(key))
}

func (s *Store) metaPath(key string) string {
	return filepath.Join(s.baseDir, metaDir, filepath.FromSlash(key)+".json")
}

func cleanKey(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimLeft(key, "/")))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return clean, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

var _ object.Store = (*Store)(nil)
