package server

import (
	"github.com/gin-gonic/gin"

	"compliance-backend/internal/documents"
	"compliance-backend/internal/ingest"
	"compliance-backend/internal/media"
	"compliance-backend/internal/params"
	"compliance-backend/internal/services/health"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/server/middleware"
)

// RouterDeps are the handlers mounted by NewRouter. Files is nil when the
// object store serves its own URLs.
type RouterDeps struct {
	Config    config.Config
	Health    *health.Service
	Files     *media.FileHandler
	Documents *documents.Handler
	Ingest    *ingest.Handler
	Params    *params.Handler
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
		middleware.Auth(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", deps.Health.Handle)
	if deps.Files != nil {
		deps.Files.RegisterRoutes(api)
	}
	deps.Ingest.RegisterRoutes(api)
	deps.Documents.RegisterRoutes(api)
	deps.Params.RegisterRoutes(api)

	return r
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
