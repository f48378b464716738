// Package rewrite adjusts inbound requests so the capability is declared
// exactly once: the web_search schema is injected when missing, and tools
// that compete with it are removed. Pure request transform, no stream
// interaction.
package rewrite

import (
	"strings"

	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/pkg/logger"
)

// ToolName is the capability the proxy intercepts.
const ToolName = "web_search"

const toolDescription = "Search the web for current information. " +
	"Use this when the user asks about recent events, live data, or anything not in your training data."

// competingTools are declarations that offer the model an equivalent
// capability; offering two confuses tool choice, so they are stripped.
var competingTools = map[string]bool{
	"web_search":         true,
	"search_web":         true,
	"web-search":         true,
	"websearch":          true,
	"browser_search":     true,
	"google_search":      true,
	"web_search_preview": true,
}

// Rewriter ensures the capability schema is present in a request's declared
// tool list, idempotently, in the shape of the configured dialect.
type Rewriter struct {
	adapter dialect.Adapter
}

// New creates a Rewriter for the given dialect.
func New(adapter dialect.Adapter) *Rewriter {
	return &Rewriter{adapter: adapter}
}

// schema is the capability parameter schema, shared by both dialects.
func schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []interface{}{"query"},
	}
}

// Rewrite strips competing tool declarations and injects the capability.
// Already-present declarations are kept as-is (idempotent).
func (r *Rewriter) Rewrite(req entity.ChatRequest) {
	kept := make([]interface{}, 0, len(req.Tools())+1)
	present := false

	for _, decl := range req.Tools() {
		name := r.adapter.ToolDeclName(decl)
		switch {
		case name == ToolName:
			present = true
			kept = append(kept, decl)
		case isCompeting(name):
			logger.Debug("[Rewrite] stripping competing tool %q", name)
		default:
			kept = append(kept, decl)
		}
	}

	if !present {
		kept = append(kept, r.adapter.ToolSchema(ToolName, toolDescription, schema()))
	}
	req.SetTools(kept)
}

func isCompeting(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	if competingTools[lower] {
		return true
	}
	// Versioned server tools, e.g. web_search_20250305.
	return strings.HasPrefix(lower, "web_search_")
}
