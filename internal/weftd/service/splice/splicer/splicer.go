// Package splicer drives one client request end to end: it forwards the
// upstream stream to the client, and when an intent signal fires it executes
// the action and splices a continuation stream into the same client response.
//
// States: Forwarding -> Executing -> Continuing -> Forwarding(continuation)
// -> Terminal. A request with no signal never leaves Forwarding. One Splicer
// handles exactly one client request; there is no cross-request state.
package splicer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/weft-sh/weft/internal/weftd/service/splice/dialect"
	"github.com/weft-sh/weft/internal/weftd/service/splice/domain/entity"
	"github.com/weft-sh/weft/internal/weftd/service/splice/framer"
	"github.com/weft-sh/weft/internal/weftd/service/splice/intent"
	"github.com/weft-sh/weft/internal/weftd/service/splice/search"
	"github.com/weft-sh/weft/pkg/errorx"
	"github.com/weft-sh/weft/pkg/logger"
	"github.com/weft-sh/weft/pkg/utils/json"
)

// StreamWriter is the client-facing half of the splice. Written frames must
// reach the client immediately, so every write is followed by a flush.
type StreamWriter interface {
	io.Writer
	Flush()
}

// Upstream opens streaming chat round trips. Satisfied by *upstream.Client.
type Upstream interface {
	StreamChat(ctx context.Context, body []byte) (io.ReadCloser, error)
}

// Config wires one Splicer. All fields are required except ProgressNotice.
type Config struct {
	Adapter  dialect.Adapter
	Upstream Upstream
	Executor search.Executor
	// Intent configures the per-request classifier.
	Intent intent.Config
	// ProgressNotice, when set, sends a short human-readable text delta on
	// the original response before the action blocks the stream.
	ProgressNotice bool
}

// Splicer is the per-request state machine. Not safe for concurrent use;
// create one per client request.
type Splicer struct {
	cfg Config
	enc dialect.Encoder

	trailerSent bool

	// pending buffers canonical events of capability tool calls the
	// classifier may still intercept: dropped when a signal fires, encoded
	// and flushed when the invocation is abandoned. Events are held ahead
	// of the encoder so a drop never disturbs its block state.
	pending    []entity.StreamEvent
	pendingIDs map[string]bool

	// forwardedToolCall notes that tool-call frames reached the client, so
	// the trailer carries the matching finish reason.
	forwardedToolCall bool
}

// New creates a Splicer for one client request.
func New(cfg Config) *Splicer {
	return &Splicer{cfg: cfg, pendingIDs: map[string]bool{}}
}

// Run posts req upstream and streams the (possibly spliced) response to w.
//
// The first upstream round trip is opened before any client byte is written;
// a failure there is returned as-is so the caller can answer with a plain
// HTTP error. Every failure after the first byte is surfaced inside the
// stream and also returned for logging.
func (s *Splicer) Run(ctx context.Context, req entity.ChatRequest, w StreamWriter) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	rc, err := s.cfg.Upstream.StreamChat(ctx, body)
	if err != nil {
		return err
	}
	defer rc.Close()

	s.enc = s.cfg.Adapter.NewEncoder(completionID(s.cfg.Adapter.Name()), req.Model())
	if err := s.emit(w, s.enc.Head()); err != nil {
		return err
	}

	classifier := intent.New(s.cfg.Intent)
	signal, err := s.forward(ctx, rc, w, classifier)
	if err != nil {
		return s.abort(w, err)
	}
	if signal == nil {
		// Terminal: the original stream completed with no interception.
		return nil
	}
	rc.Close()

	logger.Info("[Splicer] intercepted %s signal, query=%q", signal.Source, signal.Query)

	if s.cfg.ProgressNotice {
		notice := fmt.Sprintf("\n\nSearching the web for %q...\n\n", signal.Query)
		if err := s.emit(w, s.enc.Encode(entity.StreamEvent{Type: entity.EventTextDelta, Text: notice})); err != nil {
			return err
		}
	}

	// Executing: the one bounded blocking call. A failed action still
	// continues, carrying the failure text, so the model can acknowledge
	// it instead of the proxy failing the request.
	res := s.cfg.Executor.Execute(ctx, signal.Query)
	if !res.OK() {
		logger.Warn("[Splicer] action failed, continuing with error turn: %s", res.Err)
	}

	// Continuing: reissue the transcript extended with the tool exchange.
	contBody, err := s.continuationBody(req, signal.Invocation, search.FormatResult(res))
	if err != nil {
		return s.abort(w, err)
	}
	cont, err := s.cfg.Upstream.StreamChat(ctx, contBody)
	if err != nil {
		// The only fatal path: the client already holds a half-delivered
		// response, so the failure is surfaced as a terminal error frame.
		return s.abort(w, err)
	}
	defer cont.Close()

	// Forwarding(continuation): no classifier, so any tool signal in the
	// sub-stream passes through as ordinary content.
	if _, err := s.forward(ctx, cont, w, nil); err != nil {
		return s.abort(w, err)
	}
	return nil
}

// continuationBody deep-copies the request and appends the synthetic
// assistant tool-call turn and tool-result turn. The original request is
// never mutated.
func (s *Splicer) continuationBody(req entity.ChatRequest, inv *entity.ToolInvocation, result string) ([]byte, error) {
	cont, err := req.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone request: %w", err)
	}
	cont.SetMessages(s.cfg.Adapter.AppendToolExchange(cont.Messages(), inv, result))
	cont.SetStream(true)

	return json.Marshal(cont)
}

// forward pumps one upstream stream to the client. With a classifier it
// returns as soon as a signal fires, leaving the rest of the stream to the
// caller to abandon. With a nil classifier it forwards everything. The
// trailer is written when the stream reaches Done without a signal.
func (s *Splicer) forward(ctx context.Context, rc io.ReadCloser, w StreamWriter, classifier intent.Classifier) (*entity.IntentSignal, error) {
	fr := framer.New(s.cfg.Adapter.Framing())
	dec := s.cfg.Adapter.NewDecoder()
	buf := make([]byte, 32*1024)

	for {
		n, readErr := rc.Read(buf)
		if n > 0 {
			frames, err := fr.Push(buf[:n])
			if err != nil {
				return nil, err
			}
			sig, err := s.dispatch(frames, dec, w, classifier)
			if sig != nil || err != nil {
				return sig, err
			}
			if fr.Done() {
				return nil, nil
			}
		}
		if readErr != nil {
			if readErr != io.EOF && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if readErr != io.EOF {
				logger.Warn("[Splicer] upstream read error, closing stream: %v", readErr)
			}
			frames, err := fr.Close()
			if err != nil {
				// Unrecoverable tail bytes are logged and dropped; the
				// terminal frame still closes the client stream.
				logger.Warn("[Splicer] discarding unparseable stream tail: %v", err)
			}
			return s.dispatch(frames, dec, w, classifier)
		}
	}
}

// dispatch decodes frames into events, consults the classifier, and
// forwards what the client should see.
func (s *Splicer) dispatch(frames []framer.Frame, dec dialect.Decoder, w StreamWriter, classifier intent.Classifier) (*entity.IntentSignal, error) {
	for _, frame := range frames {
		for _, ev := range dec.Decode(frame) {
			if classifier != nil {
				if sig := classifier.Observe(ev); sig != nil {
					// Intercepted: the buffered tool-call frames must not
					// reach the client.
					s.dropPending()
					return sig, nil
				}
			}
			if err := s.forwardEvent(ev, w, classifier != nil); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// forwardEvent writes one event to the client, buffering capability
// tool-call events while the classifier could still intercept them.
// Buffered events stay canonical until flush: encoding is deferred so
// dropping them leaves the encoder exactly where the client last saw it.
func (s *Splicer) forwardEvent(ev entity.StreamEvent, w StreamWriter, detecting bool) error {
	switch ev.Type {
	case entity.EventDone:
		if err := s.flushPending(w); err != nil {
			return err
		}
		return s.trailer(w)

	case entity.EventToolCallStart:
		if detecting && ev.ToolName == s.cfg.Intent.ToolName {
			s.pendingIDs[ev.ToolCallID] = true
			s.pending = append(s.pending, ev)
			return nil
		}

	case entity.EventToolCallArgDelta, entity.EventToolCallEnd:
		if detecting && s.pendingIDs[ev.ToolCallID] {
			s.pending = append(s.pending, ev)
			if ev.Type == entity.EventToolCallEnd {
				// The classifier saw this end and produced no signal: the
				// invocation is abandoned, the client gets the call as-is.
				return s.flushPending(w)
			}
			return nil
		}
	}

	if ev.Type == entity.EventToolCallStart {
		s.forwardedToolCall = true
	}
	return s.emit(w, s.enc.Encode(ev))
}

func (s *Splicer) trailer(w StreamWriter) error {
	if s.trailerSent {
		return nil
	}
	s.trailerSent = true

	reason := "stop"
	if s.forwardedToolCall {
		reason = "tool_calls"
	}
	return s.emit(w, s.enc.Trailer(reason))
}

// abort surfaces err inside the stream as a terminal error frame, unless
// the stream is already closed, and returns err for logging.
func (s *Splicer) abort(w StreamWriter, err error) error {
	if !s.trailerSent {
		s.trailerSent = true
		msg := "upstream connection failed"
		if coder := errorx.ParseCoder(err); coder != nil {
			msg = coder.String()
		}
		if werr := s.emit(w, s.enc.Error(msg)); werr != nil {
			logger.Warn("[Splicer] write terminal error frame: %v", werr)
		}
	}
	return err
}

func (s *Splicer) flushPending(w StreamWriter) error {
	if len(s.pending) == 0 {
		return nil
	}
	var out []byte
	for _, ev := range s.pending {
		out = append(out, s.enc.Encode(ev)...)
	}
	s.dropPending()
	s.forwardedToolCall = true

	return s.emit(w, out)
}

func (s *Splicer) dropPending() {
	s.pending = nil
	s.pendingIDs = map[string]bool{}
}

func (s *Splicer) emit(w StreamWriter, frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write client stream: %w", err)
	}
	w.Flush()

	return nil
}

func completionID(dialectName string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if dialectName == "anthropic" {
		return "msg_" + id
	}
	return "chatcmpl-" + id
}
