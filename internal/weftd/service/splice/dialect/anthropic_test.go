package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
)

func TestAnthropicDecodeBlocks(t *testing.T) {
	a, err := Get("anthropic")
	require.NoError(t, err)

	events := decodeAll(t, a.NewDecoder(),
		dataFrame(`{"type":"message_start","message":{"id":"msg_1"}}`),
		dataFrame(`{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}`),
		dataFrame(`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"I should search"}}`),
		dataFrame(`{"type":"content_block_stop","index":0}`),
		dataFrame(`{"type":"content_block_start","index":1,"content_block":{"type":"text"}}`),
		dataFrame(`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Hello"}}`),
		dataFrame(`{"type":"ping"}`),
		dataFrame(`{"type":"message_stop"}`),
	)

	require.Len(t, events, 3)
	assert.Equal(t, entity.StreamEvent{Type: entity.EventReasoningDelta, Text: "I should search"}, events[0])
	assert.Equal(t, entity.StreamEvent{Type: entity.EventTextDelta, Text: "Hello"}, events[1])
	assert.Equal(t, entity.EventDone, events[2].Type)
}

func TestAnthropicDecodeToolUse(t *testing.T) {
	a, err := Get("anthropic")
	require.NoError(t, err)

	// Explicit start/delta/stop triplet, fragments correlated by index.
	events := decodeAll(t, a.NewDecoder(),
		dataFrame(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"web_search"}}`),
		dataFrame(`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}`),
		dataFrame(`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"golang\"}"}}`),
		dataFrame(`{"type":"content_block_stop","index":0}`),
	)

	require.Len(t, events, 4)
	assert.Equal(t, entity.EventToolCallStart, events[0].Type)
	assert.Equal(t, "toolu_1", events[0].ToolCallID)
	assert.Equal(t, "web_search", events[0].ToolName)
	assert.Equal(t, `{"query":`, events[1].ArgFragment)
	assert.Equal(t, entity.EventToolCallEnd, events[3].Type)
	assert.Equal(t, "toolu_1", events[3].ToolCallID)
}

func TestAnthropicDecodeMalformed(t *testing.T) {
	a, err := Get("anthropic")
	require.NoError(t, err)

	events := a.NewDecoder().Decode(dataFrame(`not json at all`))
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventUnknown, events[0].Type)
}

func TestAnthropicEncodeDecodeRoundTrip(t *testing.T) {
	a, err := Get("anthropic")
	require.NoError(t, err)

	want := []entity.StreamEvent{
		{Type: entity.EventReasoningDelta, Text: "hmm"},
		{Type: entity.EventTextDelta, Text: "Sure, "},
		{Type: entity.EventTextDelta, Text: "here you go."},
		{Type: entity.EventToolCallStart, ToolCallID: "toolu_5", ToolName: "web_search"},
		{Type: entity.EventToolCallArgDelta, ToolCallID: "toolu_5", ArgFragment: `{"query":"x"}`},
		{Type: entity.EventToolCallEnd, ToolCallID: "toolu_5"},
	}

	enc := a.NewEncoder("msg_test", "m")
	var wire []byte
	wire = append(wire, enc.Head()...)
	for _, ev := range want {
		wire = append(wire, enc.Encode(ev)...)
	}
	wire = append(wire, enc.Trailer("")...)

	f := framer.New(a.Framing())
	frames, err := f.Push(wire)
	require.NoError(t, err)
	closing, err := f.Close()
	require.NoError(t, err)
	frames = append(frames, closing...)

	got := decodeAll(t, a.NewDecoder(), frames...)

	// message_stop carries Done; the transport-close Done is suppressed by
	// the framer sentinel state, so exactly one Done follows the events.
	require.Len(t, got, len(want)+1)
	assert.Equal(t, want, got[:len(want)])
	assert.Equal(t, entity.EventDone, got[len(want)].Type)
}

func TestAnthropicEncodeError(t *testing.T) {
	a, err := Get("anthropic")
	require.NoError(t, err)

	// An error emitted mid-block must close the open block first so the
	// client's block stack stays balanced.
	enc := a.NewEncoder("msg_test", "m")
	_ = enc.Head()
	_ = enc.Encode(entity.StreamEvent{Type: entity.EventTextDelta, Text: "par"})
	frame := string(enc.Error("upstream connection lost"))

	assert.Contains(t, frame, "content_block_stop")
	assert.Contains(t, frame, "event:error")
	assert.Contains(t, frame, `"api_error"`)
	assert.Contains(t, frame, "upstream connection lost")
	assert.NotContains(t, frame, "message_stop")
}

func TestAnthropicAppendToolExchange(t *testing.T) {
	a, _ := Get("anthropic")

	inv := &entity.ToolInvocation{
		ID:              "toolu_9",
		Name:            "web_search",
		RawArguments:    `{"query":"x"}`,
		ParsedArguments: map[string]interface{}{"query": "x"},
	}
	msgs := a.AppendToolExchange([]interface{}{
		map[string]interface{}{"role": "user", "content": "hi"},
	}, inv, "1. result")

	require.Len(t, msgs, 3)
	assistant := msgs[1].(map[string]interface{})
	blocks := assistant["content"].([]interface{})
	block := blocks[0].(map[string]interface{})
	assert.Equal(t, "tool_use", block["type"])
	assert.Equal(t, map[string]interface{}{"query": "x"}, block["input"])

	user := msgs[2].(map[string]interface{})
	resultBlocks := user["content"].([]interface{})
	resultBlock := resultBlocks[0].(map[string]interface{})
	assert.Equal(t, "tool_result", resultBlock["type"])
	assert.Equal(t, "toolu_9", resultBlock["tool_use_id"])
}
