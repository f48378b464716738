// Package dialect maps each streaming wire dialect's native record shape
// onto canonical events, and re-encodes canonical events back to the wire.
// Dialect-specific branching lives behind the Adapter interface so the
// splicer never inspects native frames.
package dialect

import (
	"fmt"
	"sync"
	"time"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
)

// Decoder turns frames of one stream into canonical events. One Decoder is
// created per upstream stream; it owns the correlation state (block indexes,
// tool-call indexes) for that stream.
type Decoder interface {
	// Decode maps one frame onto zero or more canonical events. A frame
	// recognized as malformed JSON is surfaced as EventUnknown, never as
	// an error.
	Decode(fr framer.Frame) []entity.StreamEvent
}

// Encoder renders canonical events back into the dialect's wire frames for
// one client response. It persists across the original stream and the
// spliced continuation so the client sees one uninterrupted response.
type Encoder interface {
	// Head returns the frames that open a response (role chunk,
	// message_start). Emitted exactly once, before any event.
	Head() []byte
	// Encode renders one canonical event. May return nil when the event
	// produces no client-visible frame.
	Encode(ev entity.StreamEvent) []byte
	// Trailer returns the frames that close the response, including the
	// dialect's stream-end sentinel. Emitted exactly once.
	Trailer(finishReason string) []byte
	// Error returns the dialect's terminal error frame. A stream ending in
	// an error frame carries no end sentinel.
	Error(message string) []byte
}

// Adapter is one wire dialect: framing mode, decode/encode, request path
// and the shape of tool declarations and tool-exchange turns.
type Adapter interface {
	// Name returns the dialect name ("openai", "anthropic").
	Name() string
	// Framing returns the transport framing the dialect uses.
	Framing() framer.Mode
	// Path is the upstream chat endpoint path.
	Path() string
	// NewDecoder creates decode state for one upstream stream.
	NewDecoder() Decoder
	// NewEncoder creates encode state for one client response.
	NewEncoder(id, model string) Encoder
	// ToolSchema returns the dialect-shaped declaration for the capability.
	ToolSchema(name, description string, parameters map[string]interface{}) map[string]interface{}
	// ToolDeclName extracts the tool name from one entry of the request's
	// tools array, empty when unrecognizable.
	ToolDeclName(decl interface{}) string
	// AppendToolExchange extends msgs with the two synthetic turns of a
	// continuation: the assistant tool-call turn and the tool-result turn.
	AppendToolExchange(msgs []interface{}, inv *entity.ToolInvocation, result string) []interface{}
}

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]Adapter{}
)

// Register adds a dialect adapter. Panics on duplicate names; dialects are
// registered from init functions only.
func Register(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	if _, ok := adapters[a.Name()]; ok {
		panic(fmt.Sprintf("dialect %s is already registered", a.Name()))
	}
	adapters[a.Name()] = a
}

// Get returns the adapter for the given dialect name.
func Get(name string) (Adapter, error) {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	a, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("dialect %s is not registered", name)
	}
	return a, nil
}

func nowUnix() int64 { return time.Now().Unix() }

// List returns all registered dialect names.
func List() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	return names
}
