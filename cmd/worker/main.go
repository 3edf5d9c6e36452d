package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

	"docbot-backend/internal/bootstrap"
	"docbot-backend/internal/queue"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/storage/db"
	"docbot-backend/internal/shared/telemetry"
	"docbot-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 900
	defaultShutdownTimeoutSec = 30
)

type consumer interface {
	Receive(ctx context.Context, opts queue.ReceiveOptions) ([]queue.Delivery, error)
	Ack(ctx context.Context, d queue.Delivery) error
}

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.IngestQueueURL) == "" {
		log.Fatal("INGEST_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := orDefault(cfg.IngestVisibilitySec, defaultVisibilitySeconds)
	shutdownTimeout := time.Duration(orDefault(cfg.ShutdownTimeoutSec, defaultShutdownTimeoutSec)) * time.Second
	concurrency := cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.IngestQueueURL)
	if err != nil {
		log.Fatalf("sqs client: %v", err)
	}

	// The worker consumes the queue; it never publishes to it.
	cfg.IngestMode = "event"
	app, err := bootstrap.BuildWithOptions(ctx, cfg, bootstrap.Options{Profile: db.ProfileServer, SkipRouter: true})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		log.Fatalf("worker pool: %v", err)
	}
	defer pool.Release()

	if cfg.WorkerMetricsAddr != "" {
		srv := serveMetrics(cfg.WorkerMetricsAddr)
		defer srv.Close()
	}

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", cfg.IngestQueueURL, concurrency, visibilitySeconds)

	var wg sync.WaitGroup
	poll(ctx, client, pool, &wg, app.Pipeline, int32(visibilitySeconds))

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

// serveMetrics exposes /metrics for scraping the worker.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()
	return srv
}

func poll(ctx context.Context, client consumer, pool *ants.Pool, wg *sync.WaitGroup, p workerproc.Processor, visibility int32) {
	for ctx.Err() == nil {
		deliveries, err := client.Receive(ctx, queue.ReceiveOptions{
			MaxMessages:       10,
			WaitSeconds:       20,
			VisibilitySeconds: visibility,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, d := range deliveries {
			d := d
			wg.Add(1)
			// Submit blocks while every worker is busy.
			if err := pool.Submit(func() {
				defer wg.Done()
				handleDelivery(ctx, client, p, d)
			}); err != nil {
				wg.Done()
				log.Printf("submit message %s: %v", d.ID, err)
			}
		}
	}
}

func handleDelivery(ctx context.Context, client consumer, p workerproc.Processor, d queue.Delivery) {
	refs, meta, err := workerproc.ParseMessage(d.Body)
	if err != nil {
		fields := baseFields(d)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.decode_failed", fields)
		ack(ctx, client, d)
		return
	}

	telemetry.Info("worker.ingest.received", baseFields(d))

	if err := workerproc.HandleMessage(workerproc.WithParsedRefs(ctx, refs), p, d.Body); err != nil {
		fields := baseFields(d)
		fields["error"] = err.Error()
		var procErr workerproc.ErrProcess
		if errors.As(err, &procErr) {
			fields["object_keys"] = procErr.Keys
		}
		telemetry.Error("worker.ingest.failed", fields)
		return
	}

	if ack(ctx, client, d) {
		telemetry.Info("worker.ingest.completed", baseFields(d))
	}
}

func ack(ctx context.Context, client consumer, d queue.Delivery) bool {
	if err := client.Ack(ctx, d); err != nil {
		fields := baseFields(d)
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(d queue.Delivery) map[string]any {
	return map[string]any{
		"sqs_message_id": d.ID,
		"receive_count":  d.ReceiveCount,
	}
}

// orDefault returns v, or def when v is not positive.
func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
