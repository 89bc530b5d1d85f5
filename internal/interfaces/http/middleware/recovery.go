package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadhub.backend/pkg/logger"
)

// RecoveryMiddleware turns panics into a 500 response. Outside production
// the response carries the stack trace to ease debugging.
func RecoveryMiddleware(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error(c.Request.Context(), "panic recovered",
					zap.Any("panic", r),
					zap.String("stack", stack),
				)

				body := gin.H{"message": "Internal server error"}
				if env != "production" {
					body["stack"] = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": body})
			}
		}()
		c.Next()
	}
}
