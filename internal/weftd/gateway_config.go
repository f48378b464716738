package weftd

import (
	"github.com/weft-sh/weft/internal/weftd/handler/middleware"
)

// GatewayConfig holds the gateway-level configuration for the client-facing
// HTTP surface.
type GatewayConfig struct {
	// Auth holds the authentication configuration for the gateway.
	Auth middleware.AuthConfig `json:"auth"`
}

// DefaultGatewayConfig enforces auth only when a token is present, so a
// local single-user proxy works with zero configuration.
func DefaultGatewayConfig() *GatewayConfig {
	cfg := &GatewayConfig{
		Auth: middleware.AuthConfig{
			SkipPaths: []string{"/healthz", "/version"},
		},
	}
	cfg.Auth.Enabled = cfg.Auth.ResolveToken() != ""

	return cfg
}
