// Package intent decides, per canonical event, whether a tool invocation
// should fire. Detection strategies hide behind the Classifier interface so
// the splicer never knows how a signal was derived.
package intent

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// Classifier observes the canonical event stream of one client request and
// returns a signal when a tool invocation should fire. Implementations are
// per-request state machines; they return at most one signal, ever.
type Classifier interface {
	Observe(ev entity.StreamEvent) *entity.IntentSignal
}

// Config selects and tunes the classifier built by New.
type Config struct {
	// Mode is explicit, heuristic, or hybrid.
	Mode string
	// ToolName is the capability name explicit calls must carry.
	ToolName string
	// MinReasoningLen gates heuristic evaluation; patterns are not tried
	// until this much reasoning text has accumulated in the open block.
	MinReasoningLen int
}

// New builds a fresh per-request classifier.
func New(cfg Config) Classifier {
	c := &classifier{cfg: cfg, invocations: map[string]*entity.ToolInvocation{}}
	if cfg.Mode == "explicit" {
		c.heuristicOff = true
	}
	if cfg.Mode == "heuristic" {
		c.explicitOff = true
	}
	return c
}

// queryPattern tolerantly extracts the query field from argument JSON the
// upstream may have truncated mid-stream.
var queryPattern = regexp.MustCompile(`"query"\s*:\s*"((?:[^"\\]|\\.)*)`)

// reasoningPatterns are tried in order against the cumulative text of the
// open reasoning block; the first match supplies the query candidate.
var reasoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi(?: should| need to| will|'ll| must)? search(?: the web| online)? for[:\s]+"([^"\n]+)"`),
	regexp.MustCompile(`(?i)\bi(?: should| need to| will|'ll| must)? search(?: the web| online)? for[:\s]+([^"\n.]+)`),
	regexp.MustCompile(`(?i)\blet me (?:search|look up|google)(?: for)?[:\s]+"?([^"\n.]+?)"?(?:\.|\n|$)`),
	regexp.MustCompile(`(?i)\bsearch(?:ing)?(?: the web| online)? for[:\s]+"([^"\n]+)"`),
	regexp.MustCompile(`(?i)\bweb search[:\s]+"?([^"\n.]+?)"?(?:\.|\n|$)`),
}

type classifier struct {
	cfg          Config
	explicitOff  bool
	heuristicOff bool

	fired bool

	// explicit path state
	invocations map[string]*entity.ToolInvocation
	openOrder   []string

	// heuristic path state: cumulative text of the open reasoning block
	reasoning strings.Builder
	blockDead bool
}

func (c *classifier) Observe(ev entity.StreamEvent) *entity.IntentSignal {
	if c.fired {
		return nil
	}

	switch ev.Type {
	case entity.EventToolCallStart:
		// Explicit tool structure exists; heuristic scanning is disabled
		// for the rest of this request.
		c.heuristicOff = true
		c.closeReasoningBlock()
		if c.explicitOff {
			return nil
		}
		c.invocations[ev.ToolCallID] = &entity.ToolInvocation{ID: ev.ToolCallID, Name: ev.ToolName}
		c.openOrder = append(c.openOrder, ev.ToolCallID)
		return nil

	case entity.EventToolCallArgDelta:
		if inv, ok := c.invocations[ev.ToolCallID]; ok {
			inv.RawArguments += ev.ArgFragment
		}
		return nil

	case entity.EventToolCallEnd:
		return c.finalize(ev.ToolCallID)

	case entity.EventDone:
		// An invocation left open at end-of-stream is finalized as if an
		// explicit end record had arrived.
		for _, id := range c.openOrder {
			if sig := c.finalize(id); sig != nil {
				return sig
			}
		}
		return nil

	case entity.EventReasoningDelta:
		return c.observeReasoning(ev.Text)

	case entity.EventTextDelta:
		// Plain text ends the open reasoning block.
		c.closeReasoningBlock()
		return nil
	}

	return nil
}

// finalize parses a completed invocation and converts it into a signal when
// the capability name matches and a usable query is recoverable.
func (c *classifier) finalize(id string) *entity.IntentSignal {
	inv, ok := c.invocations[id]
	if !ok {
		return nil
	}
	delete(c.invocations, id)

	if inv.Name != c.cfg.ToolName {
		return nil
	}

	var query string
	var parsed map[string]interface{}
	if err := json.UnmarshalString(inv.RawArguments, &parsed); err == nil {
		inv.ParsedArguments = parsed
		if q, ok := parsed["query"].(string); ok {
			query = q
		}
	} else if m := queryPattern.FindStringSubmatch(inv.RawArguments); m != nil {
		// The upstream may emit syntactically incomplete JSON at
		// end-of-stream; recover the query field from the raw text.
		query = unescape(m[1])
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Warn("[Intent] tool call %s carried no recoverable query, abandoning invocation", id)
		return nil
	}

	c.fired = true
	return &entity.IntentSignal{
		Source:         entity.SignalExplicit,
		Query:          query,
		ConfidenceSpan: inv.RawArguments,
		Invocation:     inv,
	}
}

func (c *classifier) observeReasoning(text string) *entity.IntentSignal {
	if c.heuristicOff || c.blockDead {
		return nil
	}
	c.reasoning.WriteString(text)
	if c.reasoning.Len() < c.cfg.MinReasoningLen {
		return nil
	}

	accumulated := c.reasoning.String()
	for _, pat := range reasoningPatterns {
		m := pat.FindStringSubmatch(accumulated)
		if m == nil {
			continue
		}
		query := strings.TrimSpace(strings.Trim(m[1], `"'`))
		if query == "" {
			// Matched but nothing extractable; this block stays open for
			// further deltas.
			continue
		}

		c.fired = true
		c.blockDead = true
		return &entity.IntentSignal{
			Source:         entity.SignalHeuristic,
			Query:          query,
			ConfidenceSpan: m[0],
			Invocation: &entity.ToolInvocation{
				ID:              "call_" + uuid.New().String()[:8],
				Name:            c.cfg.ToolName,
				RawArguments:    mustArgs(query),
				ParsedArguments: map[string]interface{}{"query": query},
			},
		}
	}
	return nil
}

func (c *classifier) closeReasoningBlock() {
	c.reasoning.Reset()
	c.blockDead = false
}

func mustArgs(query string) string {
	s, err := json.MarshalString(map[string]string{"query": query})
	if err != nil {
		return `{}`
	}
	return s
}

func unescape(s string) string {
	var decoded string
	if err := json.UnmarshalString(`"`+s+`"`, &decoded); err != nil {
		return s
	}
	return decoded
}
