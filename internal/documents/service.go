package documents

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docbot-backend/internal/insights"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/telemetry"
	"docbot-backend/internal/shared/util"
)

// DefaultMaxUploadBytes caps decoded uploads when the service has no limit set.
const DefaultMaxUploadBytes = 10 << 20

const fallbackFileName = "upload"

// Trigger starts ingestion for a freshly uploaded document.
type Trigger interface {
	DocumentUploaded(ctx context.Context, doc Document) error
}

// Cleaner removes data another component keeps per document.
type Cleaner interface {
	DeleteDocument(ctx context.Context, documentID string) error
}

// UploadInput is the decoded upload request.
type UploadInput struct {
	FileName string
	FileType string
	Content  string // base64
}

// Service contains business logic for documents.
type Service struct {
	Store          object.Store
	Repo           Repo
	Trigger        Trigger
	Cleaners       []Cleaner
	MaxUploadBytes int64

	now func() time.Time
}

// NewService builds a Service with an object-store backed repo.
func NewService(store object.Store) *Service {
	return &Service{
		Store:          store,
		Repo:           NewObjectRepo(store),
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Upload validates the request, writes an uploaded record and stores the
// original bytes. Nothing is written when validation fails, and the record is
// removed again when the bytes cannot be stored.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	fileName := strings.TrimSpace(in.FileName)
	fileType := strings.TrimSpace(in.FileType)
	if fileName == "" || fileType == "" || strings.TrimSpace(in.Content) == "" {
		return Document{}, fmt.Errorf("%w: Missing required fields: fileName, fileType, content", ErrInvalidInput)
	}
	data, err := decodeBase64(in.Content)
	if err != nil {
		return Document{}, fmt.Errorf("%w: content is not valid base64", ErrInvalidInput)
	}
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if int64(len(data)) > limit {
		return Document{}, fmt.Errorf("%w: content exceeds %d bytes", ErrInvalidInput, limit)
	}

	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		safeName = fallbackFileName
	}
	now := s.clock()
	doc := Document{
		ID:         uuid.NewString(),
		FileName:   fileName,
		FileType:   fileType,
		Size:       int64(len(data)),
		Status:     StatusUploaded,
		UploadedAt: now,
	}
	doc.StorageKey = OriginalKey(doc.ID, safeName)

	// The record goes first: an event for the original must always find it.
	if err := s.Repo.Put(ctx, doc); err != nil {
		return Document{}, err
	}
	if err := s.Store.Put(ctx, object.Object{
		Key:         doc.StorageKey,
		Body:        data,
		ContentType: fileType,
		Metadata: map[string]string{
			MetaOriginalName: fileName,
			MetaDocumentID:   doc.ID,
			MetaUploadedAt:   now.Format(time.RFC3339),
		},
	}); err != nil {
		if delErr := s.Repo.Delete(ctx, doc.ID); delErr != nil {
			telemetry.Error("document.rollback_failed", map[string]any{
				"document_id": doc.ID,
				"error":       delErr,
			})
		}
		return Document{}, fmt.Errorf("store original: %w", err)
	}
	metrics.IncDocumentsUploaded()
	telemetry.Info("document.uploaded", map[string]any{
		"document_id": doc.ID,
		"file_type":   fileType,
		"size":        doc.Size,
	})

	if s.Trigger != nil {
		if err := s.Trigger.DocumentUploaded(ctx, doc); err != nil {
			telemetry.Error("document.trigger_failed", map[string]any{
				"document_id": doc.ID,
				"error":       err,
			})
		}
	}
	return doc, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if !ValidID(id) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Repo.Get(ctx, id)
}

// List returns every record, newest upload first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// Delete removes the original, the processed text, data held by cleaners and
// finally the record itself.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			return fmt.Errorf("delete original %s: %w", id, err)
		}
	}
	if err := s.Store.Delete(ctx, ProcessedKey(id)); err != nil {
		return fmt.Errorf("delete processed text %s: %w", id, err)
	}
	for _, c := range s.Cleaners {
		if err := c.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("delete document data %s: %w", id, err)
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncDocumentsDeleted()
	telemetry.Info("document.deleted", map[string]any{"document_id": id})
	return nil
}

// MarkProcessed moves an uploaded document to processed. textLength is the
// character count of the extracted text.
func (s *Service) MarkProcessed(ctx context.Context, id string, textLength int, in insights.Insight) (Document, error) {
	return s.transition(ctx, id, func(doc *Document, now time.Time) {
		doc.Status = StatusProcessed
		doc.ProcessedAt = &now
		doc.TextLength = &textLength
		doc.Insights = &in
	})
}

// MarkError moves an uploaded document to error with the cause's message.
func (s *Service) MarkError(ctx context.Context, id string, cause error) (Document, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return s.transition(ctx, id, func(doc *Document, now time.Time) {
		doc.Status = StatusError
		doc.Error = msg
		doc.ErrorAt = &now
	})
}

func (s *Service) transition(ctx context.Context, id string, apply func(*Document, time.Time)) (Document, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Status.Final() {
		return doc, fmt.Errorf("%w: %s is %s", ErrAlreadyFinal, id, doc.Status)
	}
	apply(&doc, s.clock())
	if err := s.Repo.Put(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// TextLength counts characters the way the record reports them.
func TextLength(text string) int {
	return utf8.RuneCountInString(text)
}

func decodeBase64(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if _, rest, ok := strings.Cut(content, ";base64,"); ok && strings.HasPrefix(content, "data:") {
		content = rest
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(content); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
