package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docbot-backend/internal/documents"
	"docbot-backend/internal/extract"
	"docbot-backend/internal/insights"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/telemetry"
)

// ErrUnknownDocument is returned when neither the key nor the object metadata
// names a document id.
var ErrUnknownDocument = errors.New("cannot determine document id")

// ObjectRef points at an uploaded original.
type ObjectRef struct {
	Bucket string
	Key    string
}

// ExtractFunc converts a payload to plain text.
type ExtractFunc func(ctx context.Context, data []byte, contentType, fileName string) (string, error)

// Pipeline turns uploaded originals into processed documents.
type Pipeline struct {
	Store    object.Store
	Docs     *documents.Service
	Insights *insights.Generator
	Extract  ExtractFunc
	// Bucket, when set, rejects refs that name a different bucket.
	Bucket string
	// KeyPrefix is the store's key prefix as it appears in bucket events.
	KeyPrefix string
}

// New builds a Pipeline using the default extractor.
func New(store object.Store, docs *documents.Service, gen *insights.Generator) *Pipeline {
	return &Pipeline{Store: store, Docs: docs, Insights: gen, Extract: extract.Text}
}

// HandleBatch processes refs in order. Derived keys are skipped. Every ref is
// attempted; the returned error joins the failures of individual documents.
func (p *Pipeline) HandleBatch(ctx context.Context, refs []ObjectRef) error {
	var errs []error
	for _, ref := range refs {
		if documents.IsDerivedKey(p.storeKey(ref.Key)) {
			continue
		}
		if err := p.ProcessObject(ctx, ref); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessObject runs get, extract, store text, insights and the processed
// transition for one original. On failure the document is marked as error
// and the failure is returned. Documents already processed or failed are
// left alone.
func (p *Pipeline) ProcessObject(ctx context.Context, ref ObjectRef) error {
	ref.Key = p.storeKey(ref.Key)
	if documents.IsDerivedKey(ref.Key) {
		return nil
	}
	if p.Bucket != "" && ref.Bucket != "" && ref.Bucket != p.Bucket {
		return fmt.Errorf("ingest %s: bucket %q is not the configured bucket %q", ref.Key, ref.Bucket, p.Bucket)
	}

	start := time.Now()
	docID, _ := documents.IDFromOriginalKey(ref.Key)

	obj, err := p.Store.Get(ctx, ref.Key)
	if err != nil {
		err = fmt.Errorf("get object: %w", err)
		if docID == "" {
			return fmt.Errorf("ingest %s: %w", ref.Key, err)
		}
		return p.fail(ctx, docID, ref.Key, err, start)
	}
	if docID == "" {
		docID = strings.TrimSpace(obj.Metadata[documents.MetaDocumentID])
	}
	if !documents.ValidID(docID) {
		return fmt.Errorf("ingest %s: %w", ref.Key, ErrUnknownDocument)
	}

	doc, err := p.Docs.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", ref.Key, err)
	}
	if doc.Status.Final() {
		telemetry.Info("ingestion.skipped", map[string]any{
			"document_id": docID,
			"object_key":  ref.Key,
			"status":      string(doc.Status),
		})
		return nil
	}
	metrics.IncIngestionStarted()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = doc.FileType
	}
	text, err := p.Extract(ctx, obj.Body, contentType, doc.FileName)
	if err != nil {
		return p.fail(ctx, docID, ref.Key, err, start)
	}

	if err := p.Store.Put(ctx, object.Object{
		Key:         documents.ProcessedKey(docID),
		Body:        []byte(text),
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		return p.fail(ctx, docID, ref.Key, fmt.Errorf("store processed text: %w", err), start)
	}

	insight := p.Insights.Generate(ctx, text)
	textLength := documents.TextLength(text)

	if _, err := p.Docs.MarkProcessed(ctx, docID, textLength, insight); err != nil {
		if errors.Is(err, documents.ErrAlreadyFinal) {
			return nil
		}
		return p.fail(ctx, docID, ref.Key, err, start)
	}

	elapsed := time.Since(start)
	metrics.IncIngestionCompleted()
	metrics.ObserveIngestionDurationMs(float64(elapsed.Milliseconds()))
	telemetry.Info("ingestion.status", map[string]any{
		"document_id":       docID,
		"object_key":        ref.Key,
		"status_transition": "uploaded->processed",
		"text_length":       textLength,
		"duration_ms":       elapsed.Milliseconds(),
	})
	return nil
}

func (p *Pipeline) storeKey(key string) string {
	key = strings.TrimLeft(key, "/")
	prefix := strings.Trim(p.KeyPrefix, "/")
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix+"/")
}

func (p *Pipeline) fail(ctx context.Context, docID, key string, cause error, start time.Time) error {
	elapsed := time.Since(start)
	metrics.IncIngestionFailed()
	metrics.ObserveIngestionDurationMs(float64(elapsed.Milliseconds()))

	fields := map[string]any{
		"document_id":       docID,
		"object_key":        key,
		"status_transition": "uploaded->error",
		"error":             cause,
		"duration_ms":       elapsed.Milliseconds(),
	}
	if _, err := p.Docs.MarkError(ctx, docID, cause); err != nil && !errors.Is(err, documents.ErrAlreadyFinal) {
		fields["mark_error"] = err
		telemetry.Error("ingestion.status", fields)
		return fmt.Errorf("ingest %s: %w", key, errors.Join(cause, err))
	}
	telemetry.Error("ingestion.status", fields)
	return fmt.Errorf("ingest %s: %w", key, cause)
}

// InlineTrigger runs ingestion synchronously after upload.
type InlineTrigger struct {
	Pipeline *Pipeline
}

// DocumentUploaded processes the new original. The request context's
// cancellation is detached so a client disconnect does not abort ingestion.
func (t InlineTrigger) DocumentUploaded(ctx context.Context, doc documents.Document) error {
	return t.Pipeline.ProcessObject(context.WithoutCancel(ctx), ObjectRef{Key: doc.StorageKey})
}

var _ documents.Trigger = InlineTrigger{}
