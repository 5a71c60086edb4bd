package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/chat"
	"vetted-backend/internal/extract"
	"vetted-backend/internal/llm"
	"vetted-backend/internal/llm/openai"
	"vetted-backend/internal/queue"
	"vetted-backend/internal/services/health"
	"vetted-backend/internal/shared/config"
	"vetted-backend/internal/shared/server"
	"vetted-backend/internal/shared/storage/db"
	"vetted-backend/internal/shared/storage/object"
	localstore "vetted-backend/internal/shared/storage/object/local"
	s3store "vetted-backend/internal/shared/storage/object/s3"
	"vetted-backend/internal/shared/telemetry"
)

// App holds shared dependencies for every entrypoint.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Queue           queue.Client
	Assistant       llm.Assistant
	AnalysesRepo    analyses.Repo
	AnalysesService *analyses.Service
	ChatService     *chat.Service
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	Health          *health.Service
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	assistant, err := buildAssistant(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Queue:     queueClient,
		Assistant: assistant,
		Health:    health.NewService(pinger(sqlDB)),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		ChatHandler:     app.ChatHandler,
		Health:          app.Health,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
}

func buildAssistant(cfg config.Config) (llm.Assistant, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.assistant.placeholder", map[string]any{"reason": "OPENAI_API_KEY empty"})
		return llm.PlaceholderAssistant{}, nil
	}
	return openai.NewClient(OpenAIConfig(cfg))
}

// OpenAIConfig maps application config onto the assistant client config.
func OpenAIConfig(cfg config.Config) openai.Config {
	return openai.Config{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Timeout:      cfg.OpenAITimeout,
		AssistantID:  cfg.AssistantID,
		Model:        cfg.AssistantModel,
		FetchTimeout: cfg.DeckFetchTimeout,
	}
}

func buildServices(app *App) {
	var repo analyses.Repo
	if app.DB != nil {
		repo = &analyses.PGRepo{DB: app.DB}
	} else {
		repo = analyses.NewMemoryRepo()
	}

	cfg := app.Config
	driver := &llm.Driver{API: app.Assistant}
	analysisSvc := &analyses.Service{
		Assistant: app.Assistant,
		Driver:    driver,
		Repo:      repo,
		Poll:      llm.PollPolicy{MaxAttempts: cfg.AnalysisPollAttempts, Interval: cfg.AnalysisPollInterval},
		Archive:   app.Store,
		Deck:      extract.New(cfg.DeckFetchTimeout),
	}
	chatSvc := &chat.Service{
		Assistant: app.Assistant,
		Driver:    driver,
		Repo:      repo,
		PersonaID: strings.TrimSpace(cfg.AssistantID),
		Poll:      llm.PollPolicy{MaxAttempts: cfg.ChatPollAttempts, Interval: cfg.ChatPollInterval},
	}

	app.AnalysesRepo = repo
	app.AnalysesService = analysisSvc
	app.ChatService = chatSvc
	app.AnalysisHandler = analyses.NewHandler(analysisSvc, repo, app.Queue)
	app.ChatHandler = chat.NewHandler(chatSvc)
}

// pinger avoids storing a typed nil *sql.DB in the interface.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
