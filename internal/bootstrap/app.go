package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docbot-backend/internal/chat"
	"docbot-backend/internal/documents"
	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/insights"
	"docbot-backend/internal/llm"
	"docbot-backend/internal/llm/bedrock"
	openai "docbot-backend/internal/llm/openai"
	"docbot-backend/internal/queue"
	"docbot-backend/internal/services/health"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/server"
	"docbot-backend/internal/shared/server/middleware"
	"docbot-backend/internal/shared/storage/db"
	"docbot-backend/internal/shared/storage/object"
	"docbot-backend/internal/shared/storage/object/badgerstore"
	localstore "docbot-backend/internal/shared/storage/object/local"
	s3store "docbot-backend/internal/shared/storage/object/s3"
)

const defaultOpenAIModel = "gpt-4o-mini"

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.Store
	LLM       llm.Completer
	Queue     *queue.SQSClient
	Documents *documents.Service
	Pipeline  *ingestion.Pipeline
	Chat      *chat.Service
	Health    *health.Service

	closers []io.Closer
}

// Options tune Build for a particular entry point.
type Options struct {
	// Profile selects database pool defaults.
	Profile db.Profile
	// SkipRouter leaves Router nil for processes that serve no HTTP.
	SkipRouter bool
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(context.Background(), cfg, Options{Profile: db.ProfileServer})
}

// BuildWithOptions is Build with an explicit context and options.
func BuildWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg, Health: health.NewService()}

	store, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.Health.Register("object_store", health.IgnoreNotFound(func(ctx context.Context) error {
		_, err := store.Get(ctx, documents.MetadataKey("healthcheck"))
		return err
	}, object.ErrNotFound))

	completer, err := buildLLM(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = completer

	if err := app.buildDB(ctx, opts.Profile); err != nil {
		app.Close()
		return nil, err
	}

	app.Documents = documents.NewService(store)
	if cfg.MaxUploadBytes > 0 {
		app.Documents.MaxUploadBytes = cfg.MaxUploadBytes
	}
	app.Pipeline = ingestion.New(store, app.Documents, insights.NewGenerator(completer))
	app.Pipeline.Bucket = cfg.DocumentsBucket
	if cfg.ObjectStoreType == "s3" {
		app.Pipeline.KeyPrefix = cfg.S3Prefix
	}

	app.Chat = chat.NewService(store, app.Documents.Repo, completer)
	if app.DB != nil {
		app.Chat.History = &chat.PGHistory{DB: app.DB}
	}
	app.Documents.Cleaners = []documents.Cleaner{app.Chat.History}

	if err := app.buildTrigger(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if !opts.SkipRouter {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:    cfg,
			Documents: documents.NewHandler(app.Documents),
			Chat:      chat.NewHandler(app.Chat),
			Health:    app.Health,
			Limiter:   middleware.NewRateLimiter(nil),
		})
	}
	return app, nil
}

// Close releases embedded stores. Database handles are left open because the
// Lambda profile shares a process-wide pool.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	a.closers = nil
}

func (a *App) buildStore(ctx context.Context) (object.Store, error) {
	cfg := a.Config
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.DocumentsBucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires DOCUMENTS_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.DocumentsBucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "badger":
		store, err := badgerstore.Open(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "openai":
		model := cfg.LLMModel
		if model == "" || strings.HasPrefix(model, "anthropic.") {
			model = defaultOpenAIModel
		}
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.NewClient(cfg.OpenAIAPIKey, model, time.Duration(cfg.OpenAITimeoutSec)*time.Second, opts...)
	case "none":
		log.Printf("bootstrap: LLM_PROVIDER=none; insights fall back and chat fails")
		return llm.PlaceholderClient{}, nil
	default:
		return bedrock.New(ctx, cfg.BedrockRegion, cfg.LLMModel)
	}
}

func (a *App) buildDB(ctx context.Context, fallback db.Profile) error {
	cfg := a.Config
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}

	profile := db.DetectProfile(fallback)
	opts := db.OptionsFromEnv(db.DefaultOptions(profile))
	var (
		sqlDB *sql.DB
		err   error
	)
	if profile == db.ProfileLambda {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using object-store chat history: %v", err)
			return nil
		}
		return err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	a.DB = sqlDB
	a.Health.Register("database", sqlDB.PingContext)
	return nil
}

func (a *App) buildTrigger(ctx context.Context) error {
	cfg := a.Config
	switch cfg.IngestMode {
	case "inline":
		a.Documents.Trigger = ingestion.InlineTrigger{Pipeline: a.Pipeline}
	case "queue":
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.IngestQueueURL)
		if err != nil {
			return err
		}
		a.Queue = client
		a.Documents.Trigger = queue.NewPublisher(client, cfg.DocumentsBucket)
	case "event":
		// Bucket notifications start ingestion.
	default:
		return errors.New("unknown INGEST_MODE " + cfg.IngestMode)
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
