package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
	DatabaseURL     string   `env:"DATABASE_URL"`

	ObjectStoreType string `env:"OBJECT_STORE" envDefault:"local"`
	LocalStoreDir   string `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	AWSRegion       string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX"`
	SSEKMSKeyID     string `env:"SSE_KMS_KEY_ID"`

	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAITimeout    time.Duration `env:"OPENAI_TIMEOUT" envDefault:"120s"`
	AssistantID      string        `env:"OPENAI_ASSISTANT_ID"`
	AssistantModel   string        `env:"OPENAI_ASSISTANT_MODEL" envDefault:"gpt-4o"`
	DeckFetchTimeout time.Duration `env:"DECK_FETCH_TIMEOUT" envDefault:"60s"`

	AnalysisPollAttempts int           `env:"ANALYSIS_POLL_ATTEMPTS" envDefault:"60"`
	AnalysisPollInterval time.Duration `env:"ANALYSIS_POLL_INTERVAL" envDefault:"5s"`
	ChatPollAttempts     int           `env:"CHAT_POLL_ATTEMPTS" envDefault:"24"`
	ChatPollInterval     time.Duration `env:"CHAT_POLL_INTERVAL" envDefault:"5s"`

	QueueURL                string        `env:"ANALYSIS_QUEUE_URL"`
	WorkerConcurrency       int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	WorkerVisibilityTimeout time.Duration `env:"WORKER_VISIBILITY_TIMEOUT" envDefault:"20m"`
	WorkerShutdownTimeout   time.Duration `env:"WORKER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	RateLimitAnalysisPerMinute float64 `env:"RATE_LIMIT_ANALYSIS_PER_MINUTE" envDefault:"6"`
	RateLimitAnalysisBurst     int     `env:"RATE_LIMIT_ANALYSIS_BURST" envDefault:"3"`
	RateLimitChatPerMinute     float64 `env:"RATE_LIMIT_CHAT_PER_MINUTE" envDefault:"30"`
	RateLimitChatBurst         int     `env:"RATE_LIMIT_CHAT_BURST" envDefault:"10"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)

	if cfg.Env == "production" && strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required in production")
	}
	return cfg, nil
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
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
	default:
		return "local"
	}
}
