package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/documents"
	"compliance-backend/internal/ingest"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/llm/claude"
	"compliance-backend/internal/llm/gemini"
	"compliance-backend/internal/llm/mistral"
	"compliance-backend/internal/media"
	"compliance-backend/internal/params"
	"compliance-backend/internal/services/health"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/server"
	"compliance-backend/internal/shared/storage/db"
	"compliance-backend/internal/shared/storage/object"
	localstore "compliance-backend/internal/shared/storage/object/local"
	s3store "compliance-backend/internal/shared/storage/object/s3"
	"compliance-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Gateway          *object.Gateway
	Providers        *llm.Registry
	ParamsService    *params.Service
	DocumentsService *documents.Service
	Orchestrator     *ingest.Orchestrator
}

// Build connects storage, seeds parameters and wires every handler.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.Configure(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Gateway: object.NewGateway(store),
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			URLTTL:          cfg.S3URLTTL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	var (
		docRepo    documents.Repo
		mediaRepo  media.Repo
		paramsRepo params.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		mediaRepo = &media.PGRepo{DB: app.DB}
		paramsRepo = &params.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		mediaRepo = media.NewMemoryRepo()
		paramsRepo = params.NewMemoryRepo()
	}

	paramsSvc := params.NewService(paramsRepo)
	if _, err := paramsSvc.Seed(ctx); err != nil {
		return fmt.Errorf("seed parameters: %w", err)
	}

	cfg := app.Config
	registry := llm.NewRegistry()
	registry.Register(llm.ProviderClaude, claude.New(claude.Options{
		BaseURL: cfg.ClaudeBaseURL,
		Model:   cfg.ClaudeModel,
		Timeout: cfg.ProviderTimeout,
		Key:     apiKey(paramsSvc, params.KeyClaudeAPIKey),
	}))
	registry.Register(llm.ProviderGemini, gemini.New(gemini.Options{
		Model:   cfg.GeminiModel,
		Timeout: cfg.ProviderTimeout,
		Key:     apiKey(paramsSvc, params.KeyGeminiAPIKey),
	}))
	registry.Register(llm.ProviderMistral, mistral.New(mistral.Options{
		BaseURL: cfg.MistralBaseURL,
		Model:   cfg.MistralModel,
		Timeout: cfg.ProviderTimeout,
		Key:     apiKey(paramsSvc, params.KeyMistralAPIKey),
	}))

	docSvc := documents.NewService(docRepo, mediaRepo, app.Gateway)
	orch := ingest.NewOrchestrator(app.Gateway, mediaRepo, docRepo, ingest.NewRegistrySource(registry, paramsSvc))
	orch.ProviderTimeout = cfg.ProviderTimeout

	var files *media.FileHandler
	if cfg.ObjectStoreType == "local" {
		files = media.NewFileHandler(app.Store)
	}

	app.Providers = registry
	app.ParamsService = paramsSvc
	app.DocumentsService = docSvc
	app.Orchestrator = orch
	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Health:    health.NewService(app.DB, cfg.ObjectStoreType),
		Files:     files,
		Documents: documents.NewHandler(docSvc),
		Ingest:    ingest.NewHandler(orch, cfg.MaxUploadBytes),
		Params:    params.NewHandler(paramsSvc),
	})
	return nil
}

func apiKey(svc *params.Service, key params.Key) llm.KeyFunc {
	return func(ctx context.Context) (string, error) {
		return svc.APIKey(ctx, key)
	}
}
