package v1

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/weft-sh/weft/internal/pkg/core"
	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/intent"
	"github.com/weft-sh/weft/internal/weftd/service/splice/rewrite"
	"github.com/weft-sh/weft/internal/weftd/service/splice/search"
	"github.com/weft-sh/weft/internal/weftd/service/splice/splicer"
	"github.com/weft-sh/weft/internal/weftd/service/splice/upstream"
	"github.com/weft-sh/weft/pkg/errorx"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// ChatCompletionsHandler handles the chat endpoint of the configured
// dialect (POST /v1/chat/completions or /v1/messages).
//
//   - stream=false: one upstream round trip, proxied verbatim as JSON.
//   - stream=true: request rewritten to declare the capability, then the
//     splicing pipeline streams the (possibly spliced) response.
type ChatCompletionsHandler struct {
	adapter  dialect.Adapter
	upstream *upstream.Client
	executor search.Executor
	rewriter *rewrite.Rewriter

	intentCfg      intent.Config
	progressNotice bool
}

// NewChatCompletionsHandler creates a new ChatCompletionsHandler.
func NewChatCompletionsHandler(
	adapter dialect.Adapter,
	up *upstream.Client,
	executor search.Executor,
	intentCfg intent.Config,
	progressNotice bool,
) *ChatCompletionsHandler {
	return &ChatCompletionsHandler{
		adapter:        adapter,
		upstream:       up,
		executor:       executor,
		rewriter:       rewrite.New(adapter),
		intentCfg:      intentCfg,
		progressNotice: progressNotice,
	}
}

// Handle is the main entry point for the chat endpoint.
func (h *ChatCompletionsHandler) Handle(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "read chat request body"), nil)
		return
	}

	// The request is kept as a raw object so fields this proxy does not
	// know about survive the round trip untouched.
	var req entity.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind chat request"), nil)
		return
	}

	if len(req.Messages()) == 0 {
		core.WriteResponse(c, errorx.WithCode(ErrMessagesEmpty, "messages array is required and must not be empty"), nil)
		return
	}

	if !req.Stream() {
		h.handleNonStream(c, raw)
		return
	}

	h.handleStream(c, req)
}

// handleNonStream proxies the request body verbatim and relays the upstream
// status and body unchanged. No capability is offered, no splicing happens.
func (h *ChatCompletionsHandler) handleNonStream(c *gin.Context, raw []byte) {
	status, body, err := h.upstream.Chat(c.Request.Context(), raw)
	if err != nil {
		core.WriteResponse(c, err, nil)
		return
	}

	contentType := "application/json"
	c.Data(status, contentType, body)
}

// handleStream runs the splicing pipeline. The splicer opens the first
// upstream round trip before any client byte is written, so a connect
// failure there still degrades to a plain HTTP error response.
func (h *ChatCompletionsHandler) handleStream(c *gin.Context, req entity.ChatRequest) {
	h.rewriter.Rewrite(req)

	sp := splicer.New(splicer.Config{
		Adapter:        h.adapter,
		Upstream:       h.upstream,
		Executor:       h.executor,
		Intent:         h.intentCfg,
		ProgressNotice: h.progressNotice,
	})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if err := sp.Run(c.Request.Context(), req, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
			core.WriteResponse(c, err, nil)
			return
		}
		code := ErrStreamSplice
		if errorx.IsCode(err, upstream.ErrUpstreamConnect) {
			code = upstream.ErrUpstreamConnect
		}
		logger.Error("[ChatCompletions] splice aborted mid-stream (code=%d): %v", code, err)
	}
}
