// Package middleware holds the gin middlewares shared across the HTTP
// surface: bearer auth, per-user rate limiting, and request ID stamping.
package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthConfig holds configuration for Bearer token authentication.
type AuthConfig struct {
	Enabled bool
	Token   string
}

var unauthenticatedPaths = map[string]bool{
	"/health":          true,
	"/ready":           true,
	"/health/detailed": true,
	"/metrics":         true,
}

// BearerAuth returns a gin middleware enforcing Bearer token auth, using a
// constant-time comparison and a loopback bypass for local tooling.
func BearerAuth(cfg *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cfg.Token == "" {
			c.Next()
			return
		}
		if unauthenticatedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		if isLocalRequest(c.Request) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			abortUnauthorized(c, "missing or malformed Authorization header")
			return
		}

		provided := authHeader[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Token)) != 1 {
			abortUnauthorized(c, "invalid bearer token")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "Authentication",
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"statusCode": http.StatusUnauthorized,
	})
}

func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
