package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/queue"
)

// Processor ingests a batch of uploaded originals.
type Processor interface {
	HandleBatch(ctx context.Context, refs []ingestion.ObjectRef) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a payload that is neither a queue message nor an S3
// notification.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrProcess indicates ingestion failed after successful parsing.
type ErrProcess struct {
	Keys []string
	Err  error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process message"
	}
	return "process message: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// envelope is used to tell the accepted payload shapes apart.
type envelope struct {
	Records json.RawMessage `json:"Records"`
	Event   string          `json:"Event"`
}

// ParseMessage decodes a queue body into object refs. Accepted bodies are
// ingestion messages published on upload and S3 event notifications delivered
// to the queue. The S3 test event yields no refs.
func ParseMessage(body string) ([]ingestion.ObjectRef, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return nil, meta, ErrEmptyBody{Meta: meta}
	}

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch {
	case len(env.Records) > 0:
		var evt events.S3Event
		if err := json.Unmarshal([]byte(body), &evt); err != nil {
			return nil, meta, ErrDecode{Meta: meta, Err: err}
		}
		return RefsFromS3Event(evt), meta, nil
	case env.Event == "s3:TestEvent":
		return nil, meta, nil
	default:
		msg, err := queue.DecodeMessage([]byte(body))
		if err != nil {
			return nil, meta, ErrDecode{Meta: meta, Err: err}
		}
		return []ingestion.ObjectRef{{Bucket: msg.Bucket, Key: msg.ObjectKey}}, meta, nil
	}
}

// RefsFromS3Event converts S3 notification records to object refs. Keys in
// notifications are URL-encoded with '+' for spaces.
func RefsFromS3Event(evt events.S3Event) []ingestion.ObjectRef {
	refs := make([]ingestion.ObjectRef, 0, len(evt.Records))
	for _, rec := range evt.Records {
		if rec.EventName != "" && !strings.HasPrefix(rec.EventName, "ObjectCreated:") {
			continue
		}
		key := rec.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if key == "" {
			continue
		}
		refs = append(refs, ingestion.ObjectRef{Bucket: rec.S3.Bucket.Name, Key: key})
	}
	return refs
}

type parsedRefsKey struct{}

// WithParsedRefs stores decoded refs in the context for reuse.
func WithParsedRefs(ctx context.Context, refs []ingestion.ObjectRef) context.Context {
	return context.WithValue(ctx, parsedRefsKey{}, refs)
}

func parsedRefsFromContext(ctx context.Context) ([]ingestion.ObjectRef, bool) {
	if ctx == nil {
		return nil, false
	}
	refs, ok := ctx.Value(parsedRefsKey{}).([]ingestion.ObjectRef)
	return refs, ok
}

// HandleMessage parses a queue body and ingests the objects it names.
func HandleMessage(ctx context.Context, p Processor, body string) error {
	if p == nil {
		return errors.New("ingestion pipeline not configured")
	}

	refs, ok := parsedRefsFromContext(ctx)
	if !ok {
		var err error
		refs, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if len(refs) == 0 {
		return nil
	}

	if err := p.HandleBatch(ctx, refs); err != nil {
		keys := make([]string, 0, len(refs))
		for _, r := range refs {
			keys = append(keys, r.Key)
		}
		return ErrProcess{Keys: keys, Err: err}
	}
	return nil
}
