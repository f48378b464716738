// Package framer reassembles logical frames from an arbitrarily-fragmented
// byte stream. One Framer owns one connection's accumulator for the lifetime
// of that stream.
package framer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/weft-sh/weft/pkg/logger"
)

// Mode selects the upstream record framing.
type Mode int

const (
	// ModeSSE frames "event:"/"data:" line records, with a "data: [DONE]"
	// terminal sentinel. Each data line is one record; an event line names
	// the record that follows it.
	ModeSSE Mode = iota
	// ModeNDJSON frames bare newline-delimited JSON records.
	ModeNDJSON
)

// ErrFraming reports tail bytes that cannot be interpreted as any number of
// complete frames after end-of-stream.
var ErrFraming = errors.New("unparseable frame tail")

// doneSentinel terminates an SSE stream.
const doneSentinel = "[DONE]"

// maxBufSize bounds the accumulator; a stream that produces this much data
// without a frame boundary is not speaking the framing protocol.
const maxBufSize = 4 << 20

// Frame is one complete logical record extracted from the transport stream.
type Frame struct {
	// Event is the SSE event name, empty for bare data records and NDJSON.
	Event string
	// Data is the record payload.
	Data []byte
	// Done marks the stream-end sentinel. Emitted exactly once.
	Done bool
}

// Framer converts raw byte chunks into complete frames, retaining
// unconsumed trailing bytes across calls.
type Framer struct {
	mode Mode
	buf  []byte
	done bool

	// eventName is the pending SSE event field for the next data record.
	eventName string
}

// New creates a Framer for the given mode.
func New(mode Mode) *Framer {
	return &Framer{mode: mode}
}

// Push appends a raw chunk and returns the frames it completes. It never
// waits for more bytes than necessary to complete one frame.
func (f *Framer) Push(chunk []byte) ([]Frame, error) {
	if f.done {
		return nil, nil
	}
	f.buf = append(f.buf, chunk...)
	if len(f.buf) > maxBufSize {
		return nil, fmt.Errorf("%w: %d buffered bytes without a frame boundary", ErrFraming, len(f.buf))
	}

	var frames []Frame
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(f.buf[:idx], []byte("\r"))
		f.buf = f.buf[idx+1:]

		fr, ok := f.consumeLine(line)
		if ok {
			frames = append(frames, fr)
			if fr.Done {
				f.done = true
				break
			}
		}
	}
	return frames, nil
}

// consumeLine feeds one complete line into the record state machine.
func (f *Framer) consumeLine(line []byte) (Frame, bool) {
	if f.mode == ModeNDJSON {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			return Frame{}, false
		}
		if string(trimmed) == doneSentinel {
			return Frame{Done: true}, true
		}
		return Frame{Data: append([]byte(nil), trimmed...)}, true
	}

	switch {
	case len(line) == 0:
		// Record separator; the event name does not survive it.
		f.eventName = ""
	case bytes.HasPrefix(line, []byte("event:")):
		f.eventName = string(bytes.TrimSpace(line[len("event:"):]))
	case bytes.HasPrefix(line, []byte("data:")):
		data := append([]byte(nil), bytes.TrimSpace(line[len("data:"):])...)
		event := f.eventName
		f.eventName = ""
		if string(data) == doneSentinel {
			return Frame{Done: true}, true
		}
		return Frame{Event: event, Data: data}, true
	default:
		// Comments and unknown SSE fields (":", "id:", "retry:") are
		// ignored for framing.
	}
	return Frame{}, false
}

// Close signals end-of-stream. A pending tail line is completed as if a
// final newline had arrived; a tail that still cannot form a frame is
// discarded, logged, and reported as ErrFraming. Transport close also
// yields the terminal Done frame when the sentinel never arrived.
func (f *Framer) Close() ([]Frame, error) {
	if f.done {
		return nil, nil
	}
	f.done = true

	var frames []Frame
	var err error
	tail := bytes.TrimSpace(f.buf)
	f.buf = nil

	if len(tail) > 0 {
		if f.mode == ModeSSE && !isSSEField(tail) {
			logger.Debug("[Framer] discarding unparseable tail (%d bytes)", len(tail))
			err = fmt.Errorf("%w: %d tail bytes", ErrFraming, len(tail))
		} else if fr, ok := f.consumeLine(tail); ok && !fr.Done {
			frames = append(frames, fr)
		}
	}

	frames = append(frames, Frame{Done: true})
	return frames, err
}

func isSSEField(line []byte) bool {
	return bytes.HasPrefix(line, []byte("data:")) ||
		bytes.HasPrefix(line, []byte("event:")) ||
		bytes.HasPrefix(line, []byte(":")) ||
		bytes.HasPrefix(line, []byte("id:")) ||
		bytes.HasPrefix(line, []byte("retry:"))
}

// Done reports whether the terminal frame has been produced.
func (f *Framer) Done() bool { return f.done }
