package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/generator"
	"actionplan-backend/internal/guide"
	"actionplan-backend/internal/llm"
	openai "actionplan-backend/internal/llm/openai"
	"actionplan-backend/internal/plans"
	"actionplan-backend/internal/sessions"
	"actionplan-backend/internal/shared/config"
	"actionplan-backend/internal/shared/server"
	"actionplan-backend/internal/shared/server/middleware"
	"actionplan-backend/internal/shared/storage/db"
	"actionplan-backend/internal/shared/storage/object"
	localstore "actionplan-backend/internal/shared/storage/object/local"
	s3store "actionplan-backend/internal/shared/storage/object/s3"
	"actionplan-backend/internal/shared/telemetry"
)

const generateRateGroup = "GENERATE"

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Guide           guide.Source
	LLM             llm.Client
	Generator       *generator.Generator
	PlansRepo       plans.Repo
	PlansService    *plans.Service
	SessionsService *sessions.Service
	SessionsHandler *sessions.Handler
}

// Build prepares dependencies and mounts routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Guide:  buildGuideSource(cfg),
		LLM:    client,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DB:              app.DB,
		SessionsHandler: app.SessionsHandler,
		SessionCount:    app.SessionsService.Registry.Len,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
		"provider":     cfg.LLMProvider,
		"model":        cfg.LLMModel,
		"locale":       cfg.PromptLocale,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.memory_plans", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_plans", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildGuideSource(cfg config.Config) guide.Source {
	if path := strings.TrimSpace(cfg.GuidePath); path != "" {
		return guide.FileSource{Path: path}
	}
	return guide.NewHTTPSource(cfg.GuideURL)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "placeholder" {
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(openai.Config{
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
}

func buildServices(app *App) {
	cfg := app.Config
	if app.DB != nil {
		app.PlansRepo = &plans.PGRepo{DB: app.DB}
	} else {
		app.PlansRepo = plans.NewMemoryRepo()
	}

	app.Generator = generator.New(app.LLM, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTimeout)
	app.PlansService = &plans.Service{
		Store:   app.Store,
		Repo:    app.PlansRepo,
		Options: findings.Options{HeaderRow: cfg.FindingsHeaderRow},
	}
	app.SessionsService = &sessions.Service{
		Guide:         app.Guide,
		Plans:         app.PlansService,
		Generator:     app.Generator,
		Registry:      sessions.NewRegistry(),
		Locale:        cfg.PromptLocale,
		DefaultAPIKey: cfg.LLMAPIKey,
	}

	var limit gin.HandlerFunc
	if cfg.GenerateRatePerMinute > 0 {
		limit = middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: generateRateGroup,
			KeyFor:       middleware.SessionKey,
			Rules: map[string]middleware.RateLimitRule{
				generateRateGroup: middleware.PerMinute(cfg.GenerateRatePerMinute),
			},
		})
	}
	app.SessionsHandler = sessions.NewHandler(app.SessionsService, limit)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
