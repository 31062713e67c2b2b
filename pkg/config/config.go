// Package config loads warden's runtime configuration from the
// environment, following the teacher's Load()-returns-struct idiom
// (core/pkg/config/config.go) with fail-fast checks for required
// vendor credentials (apps/helm-node/main.go's DATABASE_URL check).
package config

import (
	"fmt"
	"os"
	"time"
)

// StoreBackend selects which Store implementation main wires up.
type StoreBackend string

const (
	StoreBackendFile     StoreBackend = "file"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendS3       StoreBackend = "s3"
)

// Config holds all of warden's environment-derived configuration
// (spec.md §6's Environment section).
type Config struct {
	Port string

	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string

	DaytonaAPIKey              string
	DaytonaURL                 string
	DaytonaPreserveSandboxes   bool

	PythonBin string

	StoreBackend StoreBackend
	RulesDir     string
	DatabaseURL  string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string
	Environment  string

	RateLimitRPS   float64
	RateLimitBurst int

	MaxRefinementAttempts int
}

// Load reads environment variables, applying the same defaults the
// spec documents, and fails fast on missing required vendor
// credentials.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getenvDefault("PORT", "3000"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getenvDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicURL:    getenvDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		DaytonaAPIKey:            os.Getenv("DAYTONA_API_KEY"),
		DaytonaURL:               getenvDefault("DAYTONA_API_URL", "https://app.daytona.io/api"),
		DaytonaPreserveSandboxes: os.Getenv("DAYTONA_PRESERVE_SANDBOXES") == "true",

		PythonBin: os.Getenv("PYTHON_BIN"),

		StoreBackend: StoreBackend(getenvDefault("STORE_BACKEND", "file")),
		RulesDir:     getenvDefault("RULES_DIR", "./data/rules"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		S3Bucket:     os.Getenv("RULES_S3_BUCKET"),
		S3Region:     getenvDefault("RULES_S3_REGION", "us-east-1"),
		S3Endpoint:   os.Getenv("RULES_S3_ENDPOINT"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       0,

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Environment:  getenvDefault("ENVIRONMENT", "development"),

		RateLimitRPS:   10,
		RateLimitBurst: 20,

		MaxRefinementAttempts: 5,
	}

	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.DaytonaAPIKey == "" {
		return nil, fmt.Errorf("DAYTONA_API_KEY is required")
	}

	switch cfg.StoreBackend {
	case StoreBackendFile:
		// RulesDir has a default; nothing else required.
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("RULES_S3_BUCKET is required when STORE_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LocalRunnerTimeout is the evaluation-time per-rule timeout, fixed by
// spec.md §5 rather than configurable. The sandbox phase timeouts are
// implementation constants too, and Load sets MaxRefinementAttempts,
// RateLimitRPS and RateLimitBurst to fixed defaults without reading the
// environment for them.
const LocalRunnerTimeout = 10 * time.Second
