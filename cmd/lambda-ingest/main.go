package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-ingest
//
// The function accepts either S3 ObjectCreated notifications for the
// documents/ prefix or SQS batches carrying ingestion messages or S3
// notifications.

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"docbot-backend/internal/bootstrap"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/storage/db"
	"docbot-backend/internal/shared/telemetry"
	"docbot-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.BuildWithOptions(context.Background(), cfg, bootstrap.Options{
		Profile:    db.ProfileLambda,
		SkipRouter: true,
	})
	if err != nil {
		initErr = err
		return
	}
	app = built
}

type probe struct {
	Records []struct {
		EventSource string `json:"eventSource"`
	} `json:"Records"`
}

func handler(ctx context.Context, raw json.RawMessage) (any, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if len(p.Records) > 0 && p.Records[0].EventSource == "aws:sqs" {
		var evt events.SQSEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, err
		}
		initOnce.Do(initApp)
		if initErr != nil {
			log.Printf("bootstrap error: %v", initErr)
			return failAll(evt), initErr
		}
		return handleSQS(ctx, app.Pipeline, evt), nil
	}
	var evt events.S3Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, err
	}
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return nil, initErr
	}
	return nil, handleS3(ctx, app.Pipeline, evt)
}

func handleS3(ctx context.Context, p workerproc.Processor, event events.S3Event) error {
	refs := workerproc.RefsFromS3Event(event)
	if err := p.HandleBatch(ctx, refs); err != nil {
		telemetry.Error("ingest.batch_failed", map[string]any{
			"records": len(event.Records),
			"error":   err,
		})
		return err
	}
	return nil
}

func failAll(event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
	for _, record := range event.Records {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func handleSQS(ctx context.Context, p workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		err := workerproc.HandleMessage(ctx, p, record.Body)
		if err == nil {
			continue
		}
		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err}
		var procErr workerproc.ErrProcess
		if !errors.As(err, &procErr) {
			// Unparseable bodies never succeed on retry.
			meta := workerproc.ComputeMeta(record.Body)
			fields["body_len"] = meta.BodyLen
			fields["body_sha256"] = meta.BodySHA
			telemetry.Error("ingest.message_dropped", fields)
			continue
		}
		fields["object_keys"] = procErr.Keys
		telemetry.Error("ingest.message_failed", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
