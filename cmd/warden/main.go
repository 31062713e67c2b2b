// Command warden runs the compliance rule synthesis and evaluation
// service: it turns firm policy text into sandbox-validated executable
// rules and answers trade-compliance questions against them.
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"warden/pkg/api"
	"warden/pkg/auditlog"
	"warden/pkg/config"
	"warden/pkg/domain"
	"warden/pkg/evaluator"
	"warden/pkg/generator"
	"warden/pkg/nlquery"
	"warden/pkg/rules"
	"warden/pkg/runner"
	"warden/pkg/sandbox"
	"warden/pkg/store"
	"warden/pkg/telemetry"
)

func main() {
	os.Exit(run())
}

// run wires every capability explicitly at startup and passes them
// down to request handlers — no package-level singletons, mirroring
// the teacher's main.go discipline of constructing dependencies once
// and injecting them (spec.md §9's "module-level singletons in the
// source" note).
func run() int {
	ctx := context.Background()
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("[warden] config: %v", err)
		return 1
	}

	tel, err := telemetry.New(ctx, telemetry.Config{
		ServiceName:    "warden",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       cfg.Environment != "production",
	}, logger)
	if err != nil {
		log.Printf("[warden] telemetry: %v", err)
		return 1
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	rulesStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Printf("[warden] store: %v", err)
		return 1
	}

	genCapability := generator.NewAnthropicGenerator(generator.AnthropicConfig{
		BaseURL: cfg.AnthropicURL,
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AnthropicModel,
	}, generator.NewSchemaValidator())

	sandboxCapability := sandbox.NewDaytonaExecutor(sandbox.DaytonaConfig{
		BaseURL:            cfg.DaytonaURL,
		APIKey:             cfg.DaytonaAPIKey,
		PreserveSandboxes:  cfg.DaytonaPreserveSandboxes,
	})

	validator := rules.NewRuleValidator(rules.NewStaticScreener(rules.DefaultDenylist), sandboxCapability)
	refinementLoop := rules.NewRefinementLoop(validator, genCapability, cfg.MaxRefinementAttempts)
	ingestion := rules.NewIngestionPipeline(genCapability, refinementLoop, rulesStore, logger)

	localRunner := runner.NewLocalRunner(cfg.PythonBin, config.LocalRunnerTimeout)
	complianceEvaluator := evaluator.NewComplianceEvaluator(rulesStore, localRunner)

	employees, err := domain.NewDemoEmployeeDirectory()
	if err != nil {
		log.Printf("[warden] employee directory: %v", err)
		return 1
	}

	auditLogger := auditlog.NewLogger()
	extractor := nlquery.NewHeuristicExtractor()

	handlers := api.NewHandlers(ingestion, complianceEvaluator, employees, extractor, auditLogger)

	httpHandler := api.NewServer(handlers, api.ServerConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		IdempotencyTTL: 10 * time.Minute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("warden: listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("warden: server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("warden: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("warden: graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}

func buildStore(ctx context.Context, cfg *config.Config) (*store.CachedStore, error) {
	var backend store.Store
	var err error

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, dbErr := sql.Open("postgres", cfg.DatabaseURL)
		if dbErr != nil {
			return nil, dbErr
		}
		if pingErr := db.PingContext(ctx); pingErr != nil {
			return nil, pingErr
		}
		backend = store.NewPostgresStore(db)
	case config.StoreBackendS3:
		backend, err = store.NewS3Store(ctx, store.S3StoreConfig{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
	default:
		backend, err = store.NewFileStore(cfg.RulesDir)
		if err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	return store.NewCachedStore(backend, rdb, 30*time.Second), nil
}
