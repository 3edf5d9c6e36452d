package documents

import (
	"strings"
	"time"

	"docbot-backend/internal/insights"
	"docbot-backend/internal/shared/util"
)

// Status is the lifecycle state of a document.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// Final reports whether no further transition is allowed.
func (s Status) Final() bool {
	return s == StatusProcessed || s == StatusError
}

// Document is the metadata record stored at metadata/{documentId}.json.
// Insights, ProcessedAt and TextLength are set only when processed; Error and
// ErrorAt only when failed.
type Document struct {
	ID          string            `json:"documentId"`
	FileName    string            `json:"fileName"`
	FileType    string            `json:"fileType"`
	Size        int64             `json:"size"`
	StorageKey  string            `json:"s3Key"`
	Status      Status            `json:"status"`
	UploadedAt  time.Time         `json:"uploadedAt"`
	ProcessedAt *time.Time        `json:"processedAt,omitempty"`
	TextLength  *int              `json:"textLength,omitempty"`
	Insights    *insights.Insight `json:"insights,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorAt     *time.Time        `json:"errorAt,omitempty"`
}

// Object key layout shared by upload, ingestion and chat.
const (
	DocumentsPrefix = "documents/"
	MetadataPrefix  = "metadata/"
	ProcessedPrefix = "processed/"
	ChatsPrefix     = "chats/"
)

// MetadataKey returns the key of a document's record.
func MetadataKey(id string) string { return MetadataPrefix + id + ".json" }

// ProcessedKey returns the key of a document's extracted text.
func ProcessedKey(id string) string { return ProcessedPrefix + id + ".txt" }

// OriginalKey returns the key of the uploaded bytes.
func OriginalKey(id, safeFileName string) string {
	return DocumentsPrefix + id + "/" + safeFileName
}

// ValidID reports whether id is usable as a key segment. Generated ids are
// UUIDs; anything else is never stored.
func ValidID(id string) bool { return util.IsSafeKeySegment(id) }

// IDFromOriginalKey extracts the document id from documents/{id}/{file}.
func IDFromOriginalKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, DocumentsPrefix)
	if !ok {
		return "", false
	}
	id, _, found := strings.Cut(rest, "/")
	if !found || !ValidID(id) {
		return "", false
	}
	return id, true
}

// IsDerivedKey reports whether key holds data written by the service itself
// rather than an uploaded original.
func IsDerivedKey(key string) bool {
	return strings.HasPrefix(key, MetadataPrefix) ||
		strings.HasPrefix(key, ProcessedPrefix) ||
		strings.HasPrefix(key, ChatsPrefix)
}

// Metadata keys attached to the uploaded object.
const (
	MetaOriginalName = "original-name"
	MetaDocumentID   = "document-id"
	MetaUploadedAt   = "uploaded-at"
)
