package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/llm"
	"vetted-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	return config.Config{
		Env:                  "dev",
		ObjectStoreType:      "local",
		LocalStoreDir:        t.TempDir(),
		AnalysisPollAttempts: 60,
		AnalysisPollInterval: 5 * time.Second,
		ChatPollAttempts:     24,
		ChatPollInterval:     5 * time.Second,
		AssistantID:          " asst_1 ",
	}
}

func TestBuildDevFallbacks(t *testing.T) {
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil || app.Queue != nil {
		t.Fatalf("expected no database or queue, got %v %v", app.DB, app.Queue)
	}
	if _, ok := app.AnalysesRepo.(*analyses.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.AnalysesRepo)
	}
	if _, ok := app.Assistant.(llm.PlaceholderAssistant); !ok {
		t.Fatalf("expected placeholder assistant, got %T", app.Assistant)
	}
	if app.AnalysesService.Poll.MaxAttempts != 60 || app.ChatService.Poll.MaxAttempts != 24 {
		t.Fatalf("unexpected poll bounds %+v %+v", app.AnalysesService.Poll, app.ChatService.Poll)
	}
	if app.ChatService.PersonaID != "asst_1" {
		t.Fatalf("unexpected persona %q", app.ChatService.PersonaID)
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestBuildS3RequiresBucket(t *testing.T) {
	cfg := devConfig(t)
	cfg.ObjectStoreType = "s3"
	if _, err := Build(cfg); err == nil {
		t.Fatal("expected error without S3_BUCKET")
	}
}

func TestBuildWithAPIKeyUsesOpenAIClient(t *testing.T) {
	cfg := devConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	cfg.AssistantModel = "gpt-4o"
	cfg.OpenAIBaseURL = "http://127.0.0.1:1"

	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := app.Assistant.(llm.PlaceholderAssistant); ok {
		t.Fatal("expected a real assistant client")
	}
}
