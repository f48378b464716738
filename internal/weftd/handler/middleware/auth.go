package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthConfig holds configuration for Bearer token authentication on the
// client-facing surface.
type AuthConfig struct {
	// Enabled controls whether authentication is enforced.
	Enabled bool `json:"enabled"`

	// Token is the expected Bearer token value.
	// Can also be set via WEFT_GATEWAY_TOKEN environment variable.
	Token string `json:"token"`

	// SkipPaths are request paths that bypass the check, matched exactly.
	SkipPaths []string `json:"skip-paths"`
}

// ResolveToken returns the effective token, checking env vars as fallback.
func (c *AuthConfig) ResolveToken() string {
	if c.Token != "" {
		return c.Token
	}
	return os.Getenv("WEFT_GATEWAY_TOKEN")
}

// BearerAuth enforces a static Bearer token on the client-facing surface,
/// compared in constant time. The gateway is a local single-user proxy first:
// loopback clients and the configured skip paths pass without credentials.
// When the config is disabled or resolves no token, the middleware is a
// no-op pass-through.
func BearerAuth(cfg *AuthConfig) gin.HandlerFunc {
	token := cfg.ResolveToken()
	if !cfg.Enabled || token == "" {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] || isLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}

		provided, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			unauthorized(c, "missing or malformed Authorization header, expected 'Bearer <token>'")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			unauthorized(c, "invalid bearer token")
			return
		}

		c.Next()
	}
}

// unauthorized aborts with the error envelope both dialects' clients parse.
func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": msg,
			"type":    "authentication_error",
		},
	})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
