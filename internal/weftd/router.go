package weftd

import (
	"github.com/gin-gonic/gin"

	genericoptions "github.com/weft-sh/weft/internal/pkg/options"
	"github.com/weft-sh/weft/internal/weftd/handler/middleware"
	v1 "github.com/weft-sh/weft/internal/weftd/handler/v1"
	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/intent"
	"github.com/weft-sh/weft/internal/weftd/service/splice/rewrite"
	"github.com/weft-sh/weft/internal/weftd/service/splice/search"
	"github.com/weft-sh/weft/internal/weftd/service/splice/upstream"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	adapter       dialect.Adapter
	upstream      *upstream.Client
	executor      search.Executor
	intentOptions *genericoptions.IntentOptions
	authConfig    *middleware.AuthConfig
	// dialectPath is the chat endpoint path the configured dialect uses.
	dialectPath string
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.CORS())

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	chatHandler := v1.NewChatCompletionsHandler(
		deps.adapter,
		deps.upstream,
		deps.executor,
		intent.Config{
			Mode:            deps.intentOptions.Mode,
			ToolName:        rewrite.ToolName,
			MinReasoningLen: deps.intentOptions.MinReasoningLen,
		},
		deps.intentOptions.ProgressNotice,
	)

	// The chat route mirrors the configured dialect's own endpoint, so a
	// client can point at weftd without changing its base path.
	g.POST(deps.dialectPath, chatHandler.Handle)
}
