package server

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"actionplan-backend/internal/sessions"
	"actionplan-backend/internal/shared/config"
	"actionplan-backend/internal/shared/metrics"
	"actionplan-backend/internal/shared/server/middleware"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	DB              *sql.DB
	SessionsHandler *sessions.Handler
	SessionCount    func() int
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
	)

	api := r.Group("/api/v1")
	registerHealthRoutes(api, deps)
	api.GET("/metrics", metrics.Handler())
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}

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
