package httpmw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerAuth returns a Gin middleware that validates a static bearer
// token against the Authorization header using a constant-time
// comparison. An empty token disables auth entirely, which callers
// should only do in local/dev configurations.
func BearerAuth(token string, log *zap.Logger) gin.HandlerFunc {
	if token == "" {
		log.Warn("bearer auth disabled: no token configured")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid Authorization header format"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CallerToken checks a caller-identity header against a configured
// shared secret, for server-to-server calls where a plain bearer token
// would be ambiguous with end-user auth. An empty token lets every
// request through. No router in this repository installs it, and
// scramble.Registry.Consume makes no caller check of its own.
func CallerToken(header, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid caller token"})
			c.Abort()
			return
		}
		c.Next()
	}
}
