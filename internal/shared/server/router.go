package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docbot-backend/internal/chat"
	"docbot-backend/internal/documents"
	"docbot-backend/internal/services/health"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/metrics"
	"docbot-backend/internal/shared/server/middleware"
	"docbot-backend/internal/shared/server/respond"
)

// RouterDeps are the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config    config.Config
	Documents *documents.Handler
	Chat      *chat.Handler
	Health    *health.Service
	Limiter   *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.ChatRateLimitGroup: {Rate: deps.Config.ChatRateRPS, Burst: deps.Config.ChatRateBurst},
			},
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())

	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(r)
	}
	if deps.Chat != nil {
		deps.Chat.RegisterRoutes(r)
		deps.Chat.RegisterHistoryRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "Not found", nil)
	})
	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.Request.URL.Path == "/chat" {
		return middleware.ChatRateLimitGroup
	}
	return ""
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
