package dialect

import (
	"fmt"

	"github.com/bytedance/gg/gptr"
	"github.com/google/uuid"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// openaiName is the delta-merge dialect: tool calls arrive as tool_calls
// entries inside generic delta records, correlated by index, completed by
// finish_reason.
const openaiName = "openai"

func init() {
	Register(&openaiAdapter{})
}

type openaiAdapter struct{}

func (a *openaiAdapter) Name() string         { return openaiName }
func (a *openaiAdapter) Framing() framer.Mode { return framer.ModeSSE }
func (a *openaiAdapter) Path() string         { return "/v1/chat/completions" }

// --- wire shapes ---

type openaiToolCall struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openaiToolFunction `json:"function"`
}

type openaiToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type openaiDelta struct {
	Role             string           `json:"role,omitempty"`
	Content          string           `json:"content,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
	ToolCalls        []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiChunkChoice struct {
	Index        int          `json:"index"`
	Delta        *openaiDelta `json:"delta"`
	FinishReason *string      `json:"finish_reason"`
}

type openaiChunk struct {
	ID      string              `json:"id"`
	Object  string              `json:"object"`
	Created int64               `json:"created"`
	Model   string              `json:"model"`
	Choices []openaiChunkChoice `json:"choices"`
}

// --- decoder ---

type openaiDecoder struct {
	// idByIndex correlates argument fragments with the call they belong to.
	idByIndex map[int]string
	// started tracks which calls have had their start event emitted.
	started map[string]bool
	// order preserves call start order for finish_reason completion.
	order []string
	ended map[string]bool
}

func (a *openaiAdapter) NewDecoder() Decoder {
	return &openaiDecoder{
		idByIndex: map[int]string{},
		started:   map[string]bool{},
		ended:     map[string]bool{},
	}
}

func (d *openaiDecoder) Decode(fr framer.Frame) []entity.StreamEvent {
	if fr.Done {
		return []entity.StreamEvent{{Type: entity.EventDone}}
	}

	var chunk openaiChunk
	if err := json.Unmarshal(fr.Data, &chunk); err != nil {
		logger.Debug("[Dialect] openai: malformed frame downgraded to unknown: %v", err)
		return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}
	}
	if len(chunk.Choices) == 0 {
		// Usage-only or keepalive records pass through untouched.
		return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}
	}

	var events []entity.StreamEvent
	choice := chunk.Choices[0]
	if delta := choice.Delta; delta != nil {
		if delta.Content != "" {
			events = append(events, entity.StreamEvent{Type: entity.EventTextDelta, Text: delta.Content})
		}
		if reasoning := delta.ReasoningContent + delta.Reasoning; reasoning != "" {
			events = append(events, entity.StreamEvent{Type: entity.EventReasoningDelta, Text: reasoning})
		}
		for _, tc := range delta.ToolCalls {
			events = append(events, d.decodeToolCall(tc)...)
		}
	}

	if choice.FinishReason != nil && *choice.FinishReason == "tool_calls" {
		// The delta-merge dialect has no explicit stop record; completion
		// is signaled by finish_reason.
		for _, id := range d.order {
			if !d.ended[id] {
				d.ended[id] = true
				events = append(events, entity.StreamEvent{Type: entity.EventToolCallEnd, ToolCallID: id})
			}
		}
	}

	if len(events) == 0 {
		if delta := choice.Delta; delta != nil && delta.Role != "" {
			// Role announcement; the encoder emits its own head.
			return nil
		}
		return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}
	}
	return events
}

func (d *openaiDecoder) decodeToolCall(tc openaiToolCall) []entity.StreamEvent {
	id, known := d.idByIndex[tc.Index]
	if !known {
		id = tc.ID
		if id == "" {
			id = "call_" + uuid.New().String()[:8]
		}
		d.idByIndex[tc.Index] = id
	}

	var events []entity.StreamEvent
	if !d.started[id] && tc.Function.Name != "" {
		d.started[id] = true
		d.order = append(d.order, id)
		events = append(events, entity.StreamEvent{
			Type:       entity.EventToolCallStart,
			ToolCallID: id,
			ToolName:   tc.Function.Name,
		})
	}
	if tc.Function.Arguments != "" {
		events = append(events, entity.StreamEvent{
			Type:        entity.EventToolCallArgDelta,
			ToolCallID:  id,
			ArgFragment: tc.Function.Arguments,
		})
	}
	return events
}

// --- encoder ---

type openaiEncoder struct {
	id      string
	model   string
	created int64

	toolIndex map[string]int
}

func (a *openaiAdapter) NewEncoder(id, model string) Encoder {
	return &openaiEncoder{
		id:        id,
		model:     model,
		created:   nowUnix(),
		toolIndex: map[string]int{},
	}
}

func (e *openaiEncoder) frame(delta *openaiDelta, finishReason *string) []byte {
	chunk := openaiChunk{
		ID:      e.id,
		Object:  "chat.completion.chunk",
		Created: e.created,
		Model:   e.model,
		Choices: []openaiChunkChoice{{Delta: delta, FinishReason: finishReason}},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		logger.Warn("[Dialect] openai: marshal chunk error: %v", err)
		return nil
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data))
}

func (e *openaiEncoder) Head() []byte {
	return e.frame(&openaiDelta{Role: "assistant"}, nil)
}

func (e *openaiEncoder) Encode(ev entity.StreamEvent) []byte {
	switch ev.Type {
	case entity.EventTextDelta:
		return e.frame(&openaiDelta{Content: ev.Text}, nil)
	case entity.EventReasoningDelta:
		return e.frame(&openaiDelta{ReasoningContent: ev.Text}, nil)
	case entity.EventToolCallStart:
		idx := len(e.toolIndex)
		e.toolIndex[ev.ToolCallID] = idx
		return e.frame(&openaiDelta{ToolCalls: []openaiToolCall{{
			Index:    idx,
			ID:       ev.ToolCallID,
			Type:     "function",
			Function: openaiToolFunction{Name: ev.ToolName},
		}}}, nil)
	case entity.EventToolCallArgDelta:
		return e.frame(&openaiDelta{ToolCalls: []openaiToolCall{{
			Index:    e.toolIndex[ev.ToolCallID],
			Function: openaiToolFunction{Arguments: ev.ArgFragment},
		}}}, nil)
	case entity.EventUnknown:
		if len(ev.Raw) == 0 {
			return nil
		}
		return []byte(fmt.Sprintf("data: %s\n\n", ev.Raw))
	default:
		// ToolCallEnd and Done have no delta record; completion is carried
		// by the trailer's finish_reason.
		return nil
	}
}

func (e *openaiEncoder) Error(message string) []byte {
	data, err := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "upstream_error",
		},
	})
	if err != nil {
		return nil
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data))
}

func (e *openaiEncoder) Trailer(finishReason string) []byte {
	if finishReason == "" {
		finishReason = "stop"
	}
	out := e.frame(&openaiDelta{}, gptr.Of(finishReason))
	return append(out, []byte("data: [DONE]\n\n")...)
}

// --- request shapes ---

func (a *openaiAdapter) ToolSchema(name, description string, parameters map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        name,
			"description": description,
			"parameters":  parameters,
		},
	}
}

func (a *openaiAdapter) ToolDeclName(decl interface{}) string {
	m, ok := decl.(map[string]interface{})
	if !ok {
		return ""
	}
	if fn, ok := m["function"].(map[string]interface{}); ok {
		if name, ok := fn["name"].(string); ok {
			return name
		}
	}
	if name, ok := m["name"].(string); ok {
		return name
	}
	// Built-in tool declarations carry only a type.
	if typ, ok := m["type"].(string); ok {
		return typ
	}
	return ""
}

func (a *openaiAdapter) AppendToolExchange(msgs []interface{}, inv *entity.ToolInvocation, result string) []interface{} {
	args := inv.RawArguments
	if args == "" {
		args = "{}"
	}
	assistant := map[string]interface{}{
		"role":    "assistant",
		"content": nil,
		"tool_calls": []interface{}{map[string]interface{}{
			"id":   inv.ID,
			"type": "function",
			"function": map[string]interface{}{
				"name":      inv.Name,
				"arguments": args,
			},
		}},
	}
	tool := map[string]interface{}{
		"role":         "tool",
		"tool_call_id": inv.ID,
		"content":      result,
	}
	return append(msgs, assistant, tool)
}
