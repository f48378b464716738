package entity

// EventType identifies the type of a canonical stream event.
//
// Canonical events are the dialect-independent representation of one frame's
// meaning; both the openai and anthropic adapters normalize their native
// records onto this vocabulary.
type EventType string

const (
	// EventTextDelta is a chunk of assistant text being streamed.
	EventTextDelta EventType = "text_delta"

	// EventReasoningDelta is a chunk of model reasoning ("thinking") text.
	EventReasoningDelta EventType = "reasoning_delta"

	// EventToolCallStart announces a tool call with its id and name.
	EventToolCallStart EventType = "tool_call_start"

	// EventToolCallArgDelta carries a partial-argument-JSON fragment.
	EventToolCallArgDelta EventType = "tool_call_arg_delta"

	// EventToolCallEnd marks a tool call's argument stream as complete.
	EventToolCallEnd EventType = "tool_call_end"

	// EventDone indicates the stream has ended.
	EventDone EventType = "done"

	// EventUnknown wraps a frame the adapter could not classify. The raw
	// bytes are preserved so forwarding can stay lossless.
	EventUnknown EventType = "unknown"
)

// StreamEvent is one canonical event decoded from an upstream frame.
// Events are immutable once emitted and must be consumed in arrival order.
type StreamEvent struct {
	// Type identifies which kind of event this is.
	Type EventType

	// Text carries the delta for EventTextDelta and EventReasoningDelta.
	Text string

	// ToolCallID correlates tool events belonging to one invocation.
	ToolCallID string

	// ToolName is set on EventToolCallStart.
	ToolName string

	// ArgFragment is the partial argument JSON for EventToolCallArgDelta.
	ArgFragment string

	// Raw holds the original frame bytes for EventUnknown.
	Raw []byte
}
