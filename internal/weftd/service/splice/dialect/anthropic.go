package dialect

import (
	"bytes"

	"github.com/gin-contrib/sse"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// anthropicName is the block-structured dialect: a tool call is announced by
// an explicit content_block_start naming the tool, argument JSON arrives as
// input_json_delta fragments, and content_block_stop closes the call.
const anthropicName = "anthropic"

func init() {
	Register(&anthropicAdapter{})
}

type anthropicAdapter struct{}

func (a *anthropicAdapter) Name() string         { return anthropicName }
func (a *anthropicAdapter) Framing() framer.Mode { return framer.ModeSSE }
func (a *anthropicAdapter) Path() string         { return "/v1/messages" }

// --- wire shapes ---

type anthropicEvent struct {
	Type         string                 `json:"type"`
	Index        int                    `json:"index"`
	ContentBlock *anthropicContentBlock `json:"content_block,omitempty"`
	Delta        *anthropicDelta        `json:"delta,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type anthropicDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// --- decoder ---

type anthropicDecoder struct {
	blockKind   map[int]string
	blockToolID map[int]string
	done        bool
}

func (a *anthropicAdapter) NewDecoder() Decoder {
	return &anthropicDecoder{
		blockKind:   map[int]string{},
		blockToolID: map[int]string{},
	}
}

func (d *anthropicDecoder) Decode(fr framer.Frame) []entity.StreamEvent {
	// Done is produced exactly once, whether it came from message_stop or
	// from transport close.
	if d.done {
		return nil
	}
	if fr.Done {
		d.done = true
		return []entity.StreamEvent{{Type: entity.EventDone}}
	}

	var ev anthropicEvent
	if err := json.Unmarshal(fr.Data, &ev); err != nil || ev.Type == "" {
		logger.Debug("[Dialect] anthropic: malformed frame downgraded to unknown: %v", err)
		return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}
	}

	switch ev.Type {
	case "message_start", "ping", "message_delta":
		// Structural records; the encoder synthesizes its own.
		return nil

	case "content_block_start":
		if ev.ContentBlock == nil {
			return nil
		}
		d.blockKind[ev.Index] = ev.ContentBlock.Type
		if ev.ContentBlock.Type == "tool_use" {
			d.blockToolID[ev.Index] = ev.ContentBlock.ID
			return []entity.StreamEvent{{
				Type:       entity.EventToolCallStart,
				ToolCallID: ev.ContentBlock.ID,
				ToolName:   ev.ContentBlock.Name,
			}}
		}
		return nil

	case "content_block_delta":
		if ev.Delta == nil {
			return nil
		}
		switch ev.Delta.Type {
		case "text_delta":
			return []entity.StreamEvent{{Type: entity.EventTextDelta, Text: ev.Delta.Text}}
		case "thinking_delta":
			return []entity.StreamEvent{{Type: entity.EventReasoningDelta, Text: ev.Delta.Thinking}}
		case "input_json_delta":
			return []entity.StreamEvent{{
				Type:        entity.EventToolCallArgDelta,
				ToolCallID:  d.blockToolID[ev.Index],
				ArgFragment: ev.Delta.PartialJSON,
			}}
		}
		return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}

	case "content_block_stop":
		if d.blockKind[ev.Index] == "tool_use" {
			return []entity.StreamEvent{{
				Type:       entity.EventToolCallEnd,
				ToolCallID: d.blockToolID[ev.Index],
			}}
		}
		return nil

	case "message_stop":
		d.done = true
		return []entity.StreamEvent{{Type: entity.EventDone}}
	}

	return []entity.StreamEvent{{Type: entity.EventUnknown, Raw: fr.Data}}
}

// --- encoder ---

type anthropicEncoder struct {
	id    string
	model string

	nextIndex int
	openKind  string
	openIndex int
}

func (a *anthropicAdapter) NewEncoder(id, model string) Encoder {
	return &anthropicEncoder{id: id, model: model}
}

func (e *anthropicEncoder) frame(event string, data interface{}) []byte {
	var buf bytes.Buffer
	if err := sse.Encode(&buf, sse.Event{Event: event, Data: data}); err != nil {
		logger.Warn("[Dialect] anthropic: encode frame error: %v", err)
		return nil
	}
	return buf.Bytes()
}

func (e *anthropicEncoder) Head() []byte {
	return e.frame("message_start", map[string]interface{}{
		"type": "message_start",
		"message": map[string]interface{}{
			"id":            e.id,
			"type":          "message",
			"role":          "assistant",
			"model":         e.model,
			"content":       []interface{}{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]interface{}{"input_tokens": 0, "output_tokens": 0},
		},
	})
}

// ensureBlock opens a content block of the wanted kind, closing the current
// one when it differs. Returns the frames that transition required.
func (e *anthropicEncoder) ensureBlock(kind string, block map[string]interface{}) []byte {
	if e.openKind == kind {
		return nil
	}
	out := e.closeBlock()
	e.openKind = kind
	e.openIndex = e.nextIndex
	e.nextIndex++
	out = append(out, e.frame("content_block_start", map[string]interface{}{
		"type":          "content_block_start",
		"index":         e.openIndex,
		"content_block": block,
	})...)
	return out
}

func (e *anthropicEncoder) closeBlock() []byte {
	if e.openKind == "" {
		return nil
	}
	idx := e.openIndex
	e.openKind = ""
	return e.frame("content_block_stop", map[string]interface{}{
		"type":  "content_block_stop",
		"index": idx,
	})
}

func (e *anthropicEncoder) delta(delta map[string]interface{}) []byte {
	return e.frame("content_block_delta", map[string]interface{}{
		"type":  "content_block_delta",
		"index": e.openIndex,
		"delta": delta,
	})
}

func (e *anthropicEncoder) Encode(ev entity.StreamEvent) []byte {
	switch ev.Type {
	case entity.EventTextDelta:
		out := e.ensureBlock("text", map[string]interface{}{"type": "text", "text": ""})
		return append(out, e.delta(map[string]interface{}{"type": "text_delta", "text": ev.Text})...)

	case entity.EventReasoningDelta:
		out := e.ensureBlock("thinking", map[string]interface{}{"type": "thinking", "thinking": ""})
		return append(out, e.delta(map[string]interface{}{"type": "thinking_delta", "thinking": ev.Text})...)

	case entity.EventToolCallStart:
		out := e.closeBlock()
		e.openKind = "tool_use"
		e.openIndex = e.nextIndex
		e.nextIndex++
		return append(out, e.frame("content_block_start", map[string]interface{}{
			"type":  "content_block_start",
			"index": e.openIndex,
			"content_block": map[string]interface{}{
				"type":  "tool_use",
				"id":    ev.ToolCallID,
				"name":  ev.ToolName,
				"input": map[string]interface{}{},
			},
		})...)

	case entity.EventToolCallArgDelta:
		return e.delta(map[string]interface{}{"type": "input_json_delta", "partial_json": ev.ArgFragment})

	case entity.EventToolCallEnd:
		return e.closeBlock()

	default:
		// Unknown frames from a foreign record stream cannot be spliced
		// into a synthesized block structure; they are dropped.
		return nil
	}
}

func (e *anthropicEncoder) Error(message string) []byte {
	out := e.closeBlock()
	return append(out, e.frame("error", map[string]interface{}{
		"type": "error",
		"error": map[string]interface{}{
			"type":    "api_error",
			"message": message,
		},
	})...)
}

func (e *anthropicEncoder) Trailer(finishReason string) []byte {
	stopReason := "end_turn"
	if finishReason == "tool_calls" {
		stopReason = "tool_use"
	}
	out := e.closeBlock()
	out = append(out, e.frame("message_delta", map[string]interface{}{
		"type":  "message_delta",
		"delta": map[string]interface{}{"stop_reason": stopReason, "stop_sequence": nil},
		"usage": map[string]interface{}{"output_tokens": 0},
	})...)
	out = append(out, e.frame("message_stop", map[string]interface{}{
		"type": "message_stop",
	})...)
	return out
}

// --- request shapes ---

func (a *anthropicAdapter) ToolSchema(name, description string, parameters map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"description":  description,
		"input_schema": parameters,
	}
}

func (a *anthropicAdapter) ToolDeclName(decl interface{}) string {
	m, ok := decl.(map[string]interface{})
	if !ok {
		return ""
	}
	if name, ok := m["name"].(string); ok && name != "" {
		return name
	}
	// Server tools are declared by type, e.g. web_search_20250305.
	if typ, ok := m["type"].(string); ok {
		return typ
	}
	return ""
}

func (a *anthropicAdapter) AppendToolExchange(msgs []interface{}, inv *entity.ToolInvocation, result string) []interface{} {
	input := interface{}(map[string]interface{}{})
	if inv.ParsedArguments != nil {
		input = inv.ParsedArguments
	}
	assistant := map[string]interface{}{
		"role": "assistant",
		"content": []interface{}{map[string]interface{}{
			"type":  "tool_use",
			"id":    inv.ID,
			"name":  inv.Name,
			"input": input,
		}},
	}
	user := map[string]interface{}{
		"role": "user",
		"content": []interface{}{map[string]interface{}{
			"type":        "tool_result",
			"tool_use_id": inv.ID,
			"content":     result,
		}},
	}
	return append(msgs, assistant, user)
}
