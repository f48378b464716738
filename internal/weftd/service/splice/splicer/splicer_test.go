package splicer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
	"github.com/weft-sh/weft/internal/weftd/service/splice/intent"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// fakeUpstream replays canned stream payloads, recording what was posted.
type fakeUpstream struct {
	streams []string
	errs    []error
	bodies  [][]byte
}

func (f *fakeUpstream) StreamChat(_ context.Context, body []byte) (io.ReadCloser, error) {
	i := len(f.bodies)
	f.bodies = append(f.bodies, body)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.streams) {
		return nil, errors.New("unexpected extra round trip")
	}
	return io.NopCloser(strings.NewReader(f.streams[i])), nil
}

type fakeExecutor struct {
	queries []string
	result  *entity.ActionResult
}

func (f *fakeExecutor) Execute(_ context.Context, query string) *entity.ActionResult {
	f.queries = append(f.queries, query)
	if f.result != nil {
		return f.result
	}
	return &entity.ActionResult{
		Query:          query,
		Items:          []entity.SearchItem{{Title: "Result", URL: "https://example.com", Snippet: "snippet"}},
		ElapsedSeconds: 0.1,
	}
}

type sinkWriter struct{ bytes.Buffer }

func (s *sinkWriter) Flush() {}

func newSplicer(t *testing.T, up Upstream, exec *fakeExecutor) *Splicer {
	t.Helper()
	return newSplicerFor(t, "openai", up, exec)
}

func newSplicerFor(t *testing.T, name string, up Upstream, exec *fakeExecutor) *Splicer {
	t.Helper()
	adapter, err := dialect.Get(name)
	require.NoError(t, err)
	return New(Config{
		Adapter:  adapter,
		Upstream: up,
		Executor: exec,
		Intent: intent.Config{
			Mode:            "hybrid",
			ToolName:        "web_search",
			MinReasoningLen: 24,
		},
		ProgressNotice: true,
	})
}

func sseLines(lines ...string) string {
	return "data: " + strings.Join(lines, "\n\ndata: ") + "\n\n"
}

const (
	toolCallStart = `{"id":"u","choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"web_search"}}]},"finish_reason":null}]}`
	toolCallArgs  = `{"id":"u","choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":\"golang news\"}"}}]},"finish_reason":null}]}`
	toolCallStop  = `{"id":"u","choices":[{"delta":{},"finish_reason":"tool_calls"}]}`
	contentHello  = `{"id":"u","choices":[{"delta":{"content":"Hello there."},"finish_reason":null}]}`
	contentAnswer = `{"id":"u","choices":[{"delta":{"content":"Here is the latest."},"finish_reason":null}]}`
	finishStop    = `{"id":"u","choices":[{"delta":{},"finish_reason":"stop"}]}`
)

func chatReq() entity.ChatRequest {
	return entity.ChatRequest{
		"model":  "gpt-4o",
		"stream": true,
		"messages": []interface{}{
			map[string]interface{}{"role": "user", "content": "latest news about golang"},
		},
	}
}

func TestSpliceExplicitToolCall(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]"),
		sseLines(contentAnswer, finishStop, "[DONE]"),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	out := w.String()
	// The intercepted call never reaches the client.
	assert.NotContains(t, out, "web_search")
	assert.Contains(t, out, `Searching the web for \"golang news\"`)
	assert.Contains(t, out, "Here is the latest.")
	assert.Equal(t, 1, strings.Count(out, "data: [DONE]"))

	require.Equal(t, []string{"golang news"}, exec.queries)
	require.Len(t, up.bodies, 2)

	var cont entity.ChatRequest
	require.NoError(t, json.Unmarshal(up.bodies[1], &cont))
	msgs := cont.Messages()
	require.Len(t, msgs, 3)
	toolTurn := msgs[2].(map[string]interface{})
	assert.Equal(t, "tool", toolTurn["role"])
	assert.Contains(t, toolTurn["content"], "Web search results for \"golang news\"")
}

func TestPassThroughNoSignal(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(contentHello, finishStop, "[DONE]"),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	out := w.String()
	assert.Contains(t, out, "Hello there.")
	assert.Contains(t, out, `"finish_reason":"stop"`)
	assert.Equal(t, 1, strings.Count(out, "data: [DONE]"))
	assert.Empty(t, exec.queries)
	assert.Len(t, up.bodies, 1)
}

func TestHeuristicSplice(t *testing.T) {
	reasoning := `{"id":"u","choices":[{"delta":{"reasoning_content":"I should search for \"latest golang release\" before answering."},"finish_reason":null}]}`
	up := &fakeUpstream{streams: []string{
		sseLines(reasoning, contentHello, finishStop, "[DONE]"),
		sseLines(contentAnswer, finishStop, "[DONE]"),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	require.Equal(t, []string{"latest golang release"}, exec.queries)
	out := w.String()
	// The original stream is abandoned at the signal: the content that
	// followed the reasoning never reaches the client.
	assert.NotContains(t, out, "Hello there.")
	assert.Contains(t, out, "Here is the latest.")
	assert.Equal(t, 1, strings.Count(out, "data: [DONE]"))
}

func TestNoRecursionInContinuation(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]"),
		// The continuation asks for another search; it must pass through
		// as ordinary content instead of executing.
		sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]"),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	assert.Len(t, exec.queries, 1)
	assert.Len(t, up.bodies, 2)
	// The continuation's tool call is forwarded to the client verbatim.
	out := w.String()
	assert.Contains(t, out, "web_search")
	assert.Contains(t, out, `"finish_reason":"tool_calls"`)
	assert.Equal(t, 1, strings.Count(out, "data: [DONE]"))
}

func TestActionErrorInjectsFailureTurn(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]"),
		sseLines(contentAnswer, finishStop, "[DONE]"),
	}}
	exec := &fakeExecutor{result: &entity.ActionResult{Query: "golang news", Err: "timeout"}}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	require.Len(t, up.bodies, 2)
	var cont entity.ChatRequest
	require.NoError(t, json.Unmarshal(up.bodies[1], &cont))
	toolTurn := cont.Messages()[2].(map[string]interface{})
	assert.Contains(t, toolTurn["content"], "failed: timeout")

	assert.Equal(t, 1, strings.Count(w.String(), "data: [DONE]"))
}

func TestContinuationConnectFailureIsTerminal(t *testing.T) {
	up := &fakeUpstream{
		streams: []string{sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]")},
		errs:    []error{nil, errors.New("dial tcp: connection refused")},
	}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.Error(t, err)

	out := w.String()
	assert.Contains(t, out, `"error"`)
	assert.NotContains(t, out, "data: [DONE]")
}

func TestAbandonedInvocationForwardedToClient(t *testing.T) {
	// Arguments carry no query: the classifier abandons the invocation and
	// the buffered tool-call frames are flushed to the client as-is.
	noQueryArgs := `{"id":"u","choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"q\":\"oops\"}"}}]},"finish_reason":null}]}`
	up := &fakeUpstream{streams: []string{
		sseLines(toolCallStart, noQueryArgs, toolCallStop, "[DONE]"),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicer(t, up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	assert.Empty(t, exec.queries)
	out := w.String()
	assert.Contains(t, out, "web_search")
	assert.Contains(t, out, `"finish_reason":"tool_calls"`)
	assert.Equal(t, 1, strings.Count(out, "data: [DONE]"))
}

const (
	anthMsgStart  = `{"type":"message_start","message":{"id":"msg_u","type":"message","role":"assistant"}}`
	anthTextStart = `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`
	anthTextPre   = `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Let me check."}}`
	anthTextStop  = `{"type":"content_block_stop","index":0}`
	anthToolStart = `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"web_search"}}`
	anthToolArgs  = `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"query\":\"golang news\"}"}}`
	anthToolStop  = `{"type":"content_block_stop","index":1}`
	anthAnswer    = `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Here is the latest."}}`
	anthMsgStop   = `{"type":"message_stop"}`
)

// assertBlockStructure re-frames the client stream and checks that every
// content_block_stop closes a block the client saw start, and that no block
// is left open.
func assertBlockStructure(t *testing.T, raw string) {
	t.Helper()
	frames, err := framer.New(framer.ModeSSE).Push([]byte(raw))
	require.NoError(t, err)

	open := map[int]bool{}
	for _, fr := range frames {
		if fr.Done {
			continue
		}
		var ev struct {
			Type  string `json:"type"`
			Index int    `json:"index"`
		}
		require.NoError(t, json.Unmarshal(fr.Data, &ev))
		switch ev.Type {
		case "content_block_start":
			require.False(t, open[ev.Index], "block %d started twice", ev.Index)
			open[ev.Index] = true
		case "content_block_stop":
			require.True(t, open[ev.Index], "stop for block %d without a start", ev.Index)
			open[ev.Index] = false
		}
	}
	for idx, o := range open {
		assert.False(t, o, "block %d never stopped", idx)
	}
}

func TestAnthropicSpliceKeepsBlockStructure(t *testing.T) {
	// The interception fires while a text block is open on the client side:
	// dropping the buffered tool_use block must not disturb it.
	up := &fakeUpstream{streams: []string{
		sseLines(anthMsgStart, anthTextStart, anthTextPre, anthToolStart, anthToolArgs, anthToolStop),
		sseLines(anthMsgStart, anthTextStart, anthAnswer, anthTextStop, anthMsgStop),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicerFor(t, "anthropic", up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	out := w.String()
	assertBlockStructure(t, out)
	assert.NotContains(t, out, "tool_use")
	assert.Contains(t, out, "Let me check.")
	assert.Contains(t, out, `Searching the web for \"golang news\"`)
	assert.Contains(t, out, "Here is the latest.")
	assert.Equal(t, 1, strings.Count(out, "event:message_stop"))

	require.Equal(t, []string{"golang news"}, exec.queries)
	require.Len(t, up.bodies, 2)

	var cont entity.ChatRequest
	require.NoError(t, json.Unmarshal(up.bodies[1], &cont))
	msgs := cont.Messages()
	require.Len(t, msgs, 3)
	resultTurn := msgs[2].(map[string]interface{})
	assert.Equal(t, "user", resultTurn["role"])
	block := resultTurn["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "toolu_1", block["tool_use_id"])
}

func TestAnthropicAbandonedInvocationFlush(t *testing.T) {
	// No query in the arguments: the buffered tool_use block is encoded at
	// flush time, after the open text block is closed.
	noQueryArgs := `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"q\":\"oops\"}"}}`
	up := &fakeUpstream{streams: []string{
		sseLines(anthMsgStart, anthTextStart, anthTextPre, anthToolStart, noQueryArgs, anthToolStop, anthMsgStop),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicerFor(t, "anthropic", up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	assert.Empty(t, exec.queries)
	out := w.String()
	assertBlockStructure(t, out)
	assert.Contains(t, out, `"tool_use"`)
	assert.Contains(t, out, `"stop_reason":"tool_use"`)
	assert.Len(t, up.bodies, 1)
}

func TestAnthropicNoRecursionInContinuation(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(anthMsgStart, anthTextStart, anthTextPre, anthToolStart, anthToolArgs, anthToolStop),
		// The continuation asks for another search; it is forwarded to the
		// client as a tool_use block instead of executing.
		sseLines(anthMsgStart, anthToolStart, anthToolArgs, anthToolStop, anthMsgStop),
	}}
	exec := &fakeExecutor{}
	w := &sinkWriter{}

	err := newSplicerFor(t, "anthropic", up, exec).Run(context.Background(), chatReq(), w)
	require.NoError(t, err)

	assert.Len(t, exec.queries, 1)
	assert.Len(t, up.bodies, 2)
	out := w.String()
	assertBlockStructure(t, out)
	assert.Contains(t, out, `"tool_use"`)
	assert.Contains(t, out, `"stop_reason":"tool_use"`)
	assert.Equal(t, 1, strings.Count(out, "event:message_stop"))
}

func TestOriginalRequestNotMutated(t *testing.T) {
	up := &fakeUpstream{streams: []string{
		sseLines(toolCallStart, toolCallArgs, toolCallStop, "[DONE]"),
		sseLines(contentAnswer, finishStop, "[DONE]"),
	}}
	req := chatReq()
	w := &sinkWriter{}

	err := newSplicer(t, up, &fakeExecutor{}).Run(context.Background(), req, w)
	require.NoError(t, err)

	assert.Len(t, req.Messages(), 1)
}
