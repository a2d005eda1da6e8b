package router

import (
	"net/http"

	"vr-eyetracking/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Define keys for storing the token in the session and context.
const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// CSRFProtection guards the cookie-bound workspace routes. Every response
// carries the session's token in the X-CSRF-Token header and unsafe methods
// must send it back in the same header.
func CSRFProtection(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		// Get or create the CSRF token for the session.
		token, _ := session.Get(csrfTokenSessionKey).(string)
		if token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				log.Error("Failed to generate CSRF token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			// A freshly minted token cannot have been sent yet.
			if isUnsafeMethod(c.Request.Method) {
				c.Header(csrfTokenHeaderKey, token)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
				return
			}
		}

		c.Set(csrfTokenContextKey, token)
		c.Header(csrfTokenHeaderKey, token)

		if isUnsafeMethod(c.Request.Method) && c.GetHeader(csrfTokenHeaderKey) != token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
			return
		}
		c.Next()
	}
}
