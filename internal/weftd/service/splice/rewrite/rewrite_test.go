package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
)

func openaiAdapter(t *testing.T) dialect.Adapter {
	t.Helper()
	a, err := dialect.Get("openai")
	require.NoError(t, err)
	return a
}

func TestRewriteInjectsCapability(t *testing.T) {
	r := New(openaiAdapter(t))
	req := entity.ChatRequest{"model": "gpt-4o", "messages": []interface{}{}}

	r.Rewrite(req)

	tools := req.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, ToolName, r.adapter.ToolDeclName(tools[0]))
}

func TestRewriteIdempotent(t *testing.T) {
	r := New(openaiAdapter(t))
	req := entity.ChatRequest{"model": "gpt-4o"}

	r.Rewrite(req)
	first := req.Tools()
	r.Rewrite(req)
	second := req.Tools()

	require.Len(t, second, 1)
	assert.Equal(t, first, second)
}

func TestRewriteKeepsUnrelatedTools(t *testing.T) {
	r := New(openaiAdapter(t))
	req := entity.ChatRequest{
		"tools": []interface{}{
			map[string]interface{}{
				"type":     "function",
				"function": map[string]interface{}{"name": "get_weather"},
			},
		},
	}

	r.Rewrite(req)

	tools := req.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "get_weather", r.adapter.ToolDeclName(tools[0]))
	assert.Equal(t, ToolName, r.adapter.ToolDeclName(tools[1]))
}

func TestRewriteStripsCompetingTools(t *testing.T) {
	r := New(openaiAdapter(t))
	req := entity.ChatRequest{
		"tools": []interface{}{
			map[string]interface{}{
				"type":     "function",
				"function": map[string]interface{}{"name": "google_search"},
			},
			map[string]interface{}{
				"type":     "function",
				"function": map[string]interface{}{"name": "web_search_20250305"},
			},
			map[string]interface{}{
				"type":     "function",
				"function": map[string]interface{}{"name": "calculator"},
			},
		},
	}

	r.Rewrite(req)

	tools := req.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "calculator", r.adapter.ToolDeclName(tools[0]))
	assert.Equal(t, ToolName, r.adapter.ToolDeclName(tools[1]))
}

func TestRewriteAnthropicShape(t *testing.T) {
	a, err := dialect.Get("anthropic")
	require.NoError(t, err)
	r := New(a)
	req := entity.ChatRequest{"model": "claude-sonnet-4"}

	r.Rewrite(req)

	tools := req.Tools()
	require.Len(t, tools, 1)
	decl, ok := tools[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, ToolName, decl["name"])
	assert.Contains(t, decl, "input_schema")
}
