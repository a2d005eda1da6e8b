package router

import (
	"net/http"

	"vr-eyetracking/internal/handlers"
	"vr-eyetracking/internal/services"
	"vr-eyetracking/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const workspaceSessionKey = "workspace_id"

// WorkspaceMiddleware loads the caller's workspace from the id in its session,
// creating a fresh one when the id is missing or has been evicted.
func WorkspaceMiddleware(log *zap.Logger, registry *services.WorkspaceRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, _ := session.Get(workspaceSessionKey).(string)

		w := registry.GetOrCreate(id)
		if w.ID != id {
			session.Set(workspaceSessionKey, w.ID)
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		c.Set(handlers.WorkspaceKey, w)
		c.Next()
	}
}

// ValidatePathParams rejects requests whose path parameters are not plain
// identifiers before they reach storage or the filesystem.
func ValidatePathParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			if !utils.IsValidIdentifier(p.Value) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + p.Key})
				return
			}
		}
		c.Next()
	}
}
