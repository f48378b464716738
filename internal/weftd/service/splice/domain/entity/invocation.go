package entity

// ToolInvocation accumulates a tool call as its argument fragments arrive.
// It is finalized (arguments parsed) at EventToolCallEnd, or at stream Done
// when no explicit end record arrived.
type ToolInvocation struct {
	// ID is the upstream-assigned (or synthesized) tool call identifier.
	ID string
	// Name is the tool the model asked for.
	Name string
	// RawArguments is the concatenation of all argument fragments.
	RawArguments string
	// ParsedArguments is the decoded argument object, nil until finalized
	// and nil when the raw text never parsed.
	ParsedArguments map[string]interface{}
}

// SignalSource says how an intent signal was derived.
type SignalSource string

const (
	// SignalExplicit means a completed tool call named the capability.
	SignalExplicit SignalSource = "explicit"
	// SignalHeuristic means a pattern matched over reasoning text.
	SignalHeuristic SignalSource = "heuristic"
)

// IntentSignal is the decision that a tool invocation should fire.
// At most one signal is acted upon per client request.
type IntentSignal struct {
	// Source is how the signal was derived.
	Source SignalSource
	// Query is the extracted search query.
	Query string
	// ConfidenceSpan is the text span the decision was based on.
	ConfidenceSpan string
	// Invocation is the originating tool call for explicit signals, or a
	// synthesized one for heuristic signals.
	Invocation *ToolInvocation
}
