package entity

import (
	"github.com/jinzhu/copier"
)

// ChatRequest is the decoded inbound request body. The proxy must preserve
// every field the client sent, including ones it does not know about, so the
// body is kept as a generic object and edited surgically.
type ChatRequest map[string]interface{}

// Clone returns a deep copy of the request. The original transcript is never
// mutated in place; continuations are built on a copy.
func (r ChatRequest) Clone() (ChatRequest, error) {
	out := ChatRequest{}
	if err := copier.CopyWithOption(&out, r, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// Model returns the model field, if any.
func (r ChatRequest) Model() string {
	if m, ok := r["model"].(string); ok {
		return m
	}
	return ""
}

// Stream reports whether the client asked for a streamed response.
func (r ChatRequest) Stream() bool {
	b, ok := r["stream"].(bool)
	return ok && b
}

// SetStream forces the stream flag, used when reissuing continuations.
func (r ChatRequest) SetStream(v bool) { r["stream"] = v }

// Messages returns the ordered conversation turns.
func (r ChatRequest) Messages() []interface{} {
	m, _ := r["messages"].([]interface{})
	return m
}

// SetMessages replaces the conversation turns.
func (r ChatRequest) SetMessages(msgs []interface{}) { r["messages"] = msgs }

// Tools returns the declared tool list, if any.
func (r ChatRequest) Tools() []interface{} {
	t, _ := r["tools"].([]interface{})
	return t
}

// SetTools replaces the declared tool list. An empty list removes the field
// so upstreams that reject empty arrays stay happy.
func (r ChatRequest) SetTools(tools []interface{}) {
	if len(tools) == 0 {
		delete(r, "tools")
		return
	}
	r["tools"] = tools
}
