package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/account"
	googleauth "colorbook-backend/internal/auth"
	"colorbook-backend/internal/batches"
	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/references"
	"colorbook-backend/internal/services/health"
	"colorbook-backend/internal/shared/config"
	"colorbook-backend/internal/shared/metrics"
	"colorbook-backend/internal/shared/server/middleware"
	"colorbook-backend/internal/shared/server/respond"
	"colorbook-backend/internal/usage"
	"colorbook-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up. Nil handlers are
// skipped so tests can wire a subset.
type RouterDeps struct {
	Config           config.Config
	Health           *health.Service
	PageHandler      *pages.Handler
	BatchHandler     *batches.Handler
	ReferenceHandler *references.Handler
	AccountHandler   *account.Handler
	UsageHandler     *usage.Handler
	UserHandler      *users.Handler
	GoogleAuth       *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"GENERATE": {Rate: 0.5, Burst: 5},
				"UPLOAD":   {Rate: 1, Burst: 10},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	} else {
		registerMeRoutes(api)
	}
	if deps.PageHandler != nil {
		deps.PageHandler.RegisterRoutes(api)
	}
	if deps.BatchHandler != nil {
		deps.BatchHandler.RegisterRoutes(api)
	}
	if deps.ReferenceHandler != nil {
		deps.ReferenceHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			dev := api.Group("/dev")
			deps.UsageHandler.RegisterDevRoutes(dev)
		}
	}
	return r
}

// rateLimitGroup buckets the endpoints that consume generation credits or
// object storage; everything else is unlimited.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/pages"), strings.HasPrefix(path, "/api/v1/batches"):
		return "GENERATE"
	case strings.HasPrefix(path, "/api/v1/references"):
		return "UPLOAD"
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
