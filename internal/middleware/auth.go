package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

const internalKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware validates service-to-service authentication using
// the X-Internal-API-Key header against the INTERNAL_API_KEY env var.
func InternalAuthMiddleware() gin.HandlerFunc {
	expected := []byte(os.Getenv("INTERNAL_API_KEY"))
	if len(expected) == 0 {
		// Fail every request rather than run an unauthenticated internal API
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: INTERNAL_API_KEY not set",
			})
		}
	}

	return func(c *gin.Context) {
		key := []byte(c.GetHeader(internalKeyHeader))
		// Constant-time compare to prevent timing attacks
		if subtle.ConstantTimeCompare(key, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
