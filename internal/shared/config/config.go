package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	ObjectStoreType   string
	LocalStoreDir     string
	BadgerDir         string
	AWSRegion         string
	DocumentsBucket   string
	S3Prefix          string
	SSEKMSKeyID       string
	LLMProvider       string
	LLMModel          string
	BedrockRegion     string
	OpenAIAPIKey      string
	OpenAITimeoutSec  int
	OpenAIBaseURL     string
	DatabaseURL       string
	IngestMode        string
	IngestQueueURL    string
	MaxUploadBytes    int64
	ChatRateRPS       float64
	ChatRateBurst     int
	WorkerConcurrency int

	// Queue worker only.
	IngestVisibilitySec int
	ShutdownTimeoutSec  int
	WorkerMetricsAddr   string
}

// Load reads configuration from the environment, with an optional .env file
// for local development. Unknown values fall back to defaults.
func Load() Config {
	return load(viper.New(), ".env", "cmd/.env")
}

func load(v *viper.Viper, envFiles ...string) Config {
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, path := range envFiles {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("config: ignoring %s: %v", path, err)
			}
		}
	}

	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:              v.GetString("PORT"),
		Env:               env,
		CORSAllowOrigin:   splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		ObjectStoreType:   normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:     v.GetString("LOCAL_STORE_DIR"),
		BadgerDir:         v.GetString("BADGER_DIR"),
		AWSRegion:         v.GetString("AWS_REGION"),
		DocumentsBucket:   v.GetString("DOCUMENTS_BUCKET"),
		S3Prefix:          v.GetString("S3_PREFIX"),
		SSEKMSKeyID:       v.GetString("SSE_KMS_KEY_ID"),
		LLMProvider:       normalizeLLMProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:          v.GetString("LLM_MODEL"),
		BedrockRegion:     v.GetString("BEDROCK_REGION"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAITimeoutSec:  v.GetInt("OPENAI_TIMEOUT_SECONDS"),
		OpenAIBaseURL:     strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		IngestMode:        normalizeIngestMode(v.GetString("INGEST_MODE")),
		IngestQueueURL:    v.GetString("INGEST_QUEUE_URL"),
		MaxUploadBytes:    v.GetInt64("MAX_UPLOAD_BYTES"),
		ChatRateRPS:       v.GetFloat64("RATE_LIMIT_CHAT_RPS"),
		ChatRateBurst:     v.GetInt("RATE_LIMIT_CHAT_BURST"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),

		IngestVisibilitySec: v.GetInt("INGEST_VISIBILITY_TIMEOUT_SECONDS"),
		ShutdownTimeoutSec:  v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"),
		WorkerMetricsAddr:   strings.TrimSpace(v.GetString("WORKER_METRICS_ADDR")),
	}
	if cfg.BedrockRegion == "" {
		cfg.BedrockRegion = cfg.AWSRegion
	}
	if cfg.ObjectStoreType == "s3" && cfg.DocumentsBucket == "" {
		log.Printf("DOCUMENTS_BUCKET is required when OBJECT_STORE=s3")
	}
	if cfg.IngestMode == "queue" && cfg.IngestQueueURL == "" {
		log.Printf("INGEST_QUEUE_URL is required when INGEST_MODE=queue")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("BADGER_DIR", "./data/badger")
	v.SetDefault("LLM_PROVIDER", "bedrock")
	v.SetDefault("LLM_MODEL", "anthropic.claude-3-sonnet-20240229-v1:0")
	v.SetDefault("OPENAI_TIMEOUT_SECONDS", 60)
	v.SetDefault("INGEST_MODE", "inline")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("RATE_LIMIT_CHAT_RPS", 2)
	v.SetDefault("RATE_LIMIT_CHAT_BURST", 5)
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("INGEST_VISIBILITY_TIMEOUT_SECONDS", 900)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 30)
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "badger":
		return "badger"
	default:
		return "local"
	}
}

func normalizeLLMProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "placeholder":
		return "none"
	default:
		return "bedrock"
	}
}

func normalizeIngestMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "event":
		return "event"
	case "queue":
		return "queue"
	default:
		return "inline"
	}
}
