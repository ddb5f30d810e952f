package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

// SessionChecker reports whether the process holds an authenticated session.
type SessionChecker interface {
	Status() service.SessionStatus
}

// RequireSession rejects requests with 401 until a Telegram session exists.
func RequireSession(sessions SessionChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.Status().Authenticated {
			logger.Debug("Rejected unauthenticated request", zap.String("path", c.FullPath()))
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Not authenticated. Please login first.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
