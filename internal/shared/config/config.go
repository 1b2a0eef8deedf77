package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	DatabaseURL     string   `env:"DATABASE_URL"`
	JWTSecret       string   `env:"JWT_SECRET"`

	ObjectStoreType string        `env:"OBJECT_STORE" envDefault:"local"`
	LocalStoreDir   string        `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	AWSRegion       string        `env:"AWS_REGION"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Prefix        string        `env:"S3_PREFIX"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3UsePathStyle  bool          `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	S3AccessKeyID   string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string        `env:"S3_SECRET_ACCESS_KEY"`
	S3URLTTL        time.Duration `env:"S3_URL_TTL" envDefault:"15m"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"120s"`
	ClaudeModel     string        `env:"CLAUDE_MODEL" envDefault:"claude-3-5-sonnet-latest"`
	ClaudeBaseURL   string        `env:"CLAUDE_BASE_URL" envDefault:"https://api.anthropic.com/v1"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro-latest"`
	MistralModel    string        `env:"MISTRAL_MODEL" envDefault:"mistral-large-latest"`
	MistralBaseURL  string        `env:"MISTRAL_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Printf("config parse failed, using defaults where possible: %v", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = trimAll(cfg.CORSAllowOrigin)

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
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
	case "s3", "minio":
		return "s3"
	default:
		return "local"
	}
}
