package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"harvestly/internal/database"
	"harvestly/internal/middleware"
	"harvestly/internal/models"
	"harvestly/internal/navigation"
	"harvestly/internal/storefront"
)

type anonymousView struct{}

func (anonymousView) IsAuthenticated() bool { return false }
func (anonymousView) Role() models.Role     { return "" }

// Navigate answers which page the caller may open for ?path=.
func Navigate() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /navigation"
		defer handlePanic(c, route)

		path := c.DefaultQuery("path", navigation.RootPath)

		var view navigation.View = anonymousView{}
		if ws, ok := middleware.Workspace(c); ok {
			view = ws.Session
		}
		respondWithData(c, http.StatusOK, gin.H{"decision": navigation.Decide(view, path)})
	}
}

// Health reports liveness. db may be nil when orders are kept in memory.
func Health(reg *storefront.Registry, db *mongo.Database) gin.HandlerFunc {
	started := time.Now()
	return func(c *gin.Context) {
		body := gin.H{
			"status":     "ok",
			"workspaces": reg.Len(),
			"uptime":     time.Since(started).Round(time.Second).String(),
		}
		if db != nil {
			if err := database.Ping(c.Request.Context(), db); err != nil {
				body["status"] = "degraded"
				body["mongo"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["mongo"] = "ok"
		}
		c.JSON(http.StatusOK, body)
	}
}
