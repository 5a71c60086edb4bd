package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/chat"
	"vetted-backend/internal/services/health"
	"vetted-backend/internal/shared/config"
	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/server/middleware"
	"vetted-backend/internal/shared/server/respond"
)

const (
	rateGroupAnalysis = "ANALYSIS"
	rateGroupChat     = "CHAT"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	Health          *health.Service
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	)
	r.GET("/metrics", metrics.Handler())

	cfg := deps.Config
	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rateGroupAnalysis: middleware.PerMinute(cfg.RateLimitAnalysisPerMinute, cfg.RateLimitAnalysisBurst),
			rateGroupChat:     middleware.PerMinute(cfg.RateLimitChatPerMinute, cfg.RateLimitChatBurst),
		},
		GroupFor: rateGroupFor,
		Limiter:  deps.RateLimiter,
	})

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	if deps.AnalysisHandler != nil {
		analysesGroup := api.Group("", middleware.CORS(cfg.CORSAllowOrigin), limiter)
		deps.AnalysisHandler.RegisterRoutes(analysesGroup)
	}
	if deps.ChatHandler != nil {
		// The chat endpoint is called cross-origin by the review UI.
		chatGroup := api.Group("", middleware.CORS([]string{"*"}), limiter)
		deps.ChatHandler.RegisterRoutes(chatGroup)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasSuffix(path, "/chat"):
		return rateGroupChat
	case c.Request.Method == http.MethodPost:
		return rateGroupAnalysis
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
