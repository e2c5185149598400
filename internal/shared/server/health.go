package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"actionplan-backend/internal/shared/server/respond"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Sessions int    `json:"sessions"`
	Provider string `json:"provider"`
}

func registerHealthRoutes(rg *gin.RouterGroup, deps RouterDeps) {
	rg.GET("/health", func(c *gin.Context) {
		resp := healthResponse{
			OK:       true,
			Database: databaseStatus(c.Request.Context(), deps.DB),
			Provider: deps.Config.LLMProvider,
		}
		if deps.SessionCount != nil {
			resp.Sessions = deps.SessionCount()
		}
		status := http.StatusOK
		if resp.Database == "down" {
			resp.OK = false
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, resp)
	})
}

// databaseStatus is "memory" when plans are not persisted.
func databaseStatus(ctx context.Context, db *sql.DB) string {
	if db == nil {
		return "memory"
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return "down"
	}
	return "up"
}
