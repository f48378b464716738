package framer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, mode Mode, chunks ...[]byte) []Frame {
	t.Helper()
	f := New(mode)
	var out []Frame
	for _, c := range chunks {
		frames, err := f.Push(c)
		require.NoError(t, err)
		out = append(out, frames...)
	}
	frames, err := f.Close()
	require.NoError(t, err)
	return append(out, frames...)
}

func TestFramerSSE(t *testing.T) {
	stream := []byte("" +
		"event: content_block_delta\n" +
		"data: {\"type\":\"content_block_delta\",\"index\":0}\n" +
		"\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n" +
		"\n" +
		"data: [DONE]\n" +
		"\n")

	frames := collect(t, ModeSSE, stream)
	require.Len(t, frames, 3)

	assert.Equal(t, "content_block_delta", frames[0].Event)
	assert.JSONEq(t, `{"type":"content_block_delta","index":0}`, string(frames[0].Data))
	assert.Empty(t, frames[1].Event)
	assert.False(t, frames[1].Done)
	assert.True(t, frames[2].Done)
}

func TestFramerNDJSON(t *testing.T) {
	stream := []byte("{\"a\":1}\n{\"b\":2}\n")

	frames := collect(t, ModeNDJSON, stream)
	require.Len(t, frames, 3)
	assert.Equal(t, `{"a":1}`, string(frames[0].Data))
	assert.Equal(t, `{"b":2}`, string(frames[1].Data))
	assert.True(t, frames[2].Done)
}

// Splitting a valid stream at any byte boundary must reconstruct the
// identical ordered frame list as delivering it in one chunk.
func TestFramerArbitrarySplits(t *testing.T) {
	stream := []byte("" +
		"event: message_start\n" +
		"data: {\"type\":\"message_start\"}\n" +
		"\n" +
		"data: {\"delta\":{\"text\":\"a \\\"quoted\\\" literal\"}}\n" +
		"\n" +
		"data: [DONE]\n" +
		"\n")

	want := collect(t, ModeSSE, stream)

	for split := 1; split < len(stream); split++ {
		got := collect(t, ModeSSE, stream[:split], stream[split:])
		require.Equal(t, want, got, "split at byte %d", split)
	}
}

func TestFramerDoneExactlyOnce(t *testing.T) {
	f := New(ModeSSE)
	frames, err := f.Push([]byte("data: [DONE]\n\ndata: {\"after\":true}\n\n"))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Done)

	// Bytes after the sentinel are ignored, and Close adds nothing.
	frames, err = f.Push([]byte("data: {\"more\":true}\n\n"))
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = f.Close()
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestFramerTransportCloseYieldsDone(t *testing.T) {
	f := New(ModeSSE)
	frames, err := f.Push([]byte("data: {\"x\":1}\n\n"))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	frames, err = f.Close()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Done)
}

func TestFramerCompletesPendingTailAtClose(t *testing.T) {
	f := New(ModeSSE)
	frames, err := f.Push([]byte("data: {\"x\":1}"))
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = f.Close()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, `{"x":1}`, string(frames[0].Data))
	assert.True(t, frames[1].Done)
}

func TestFramerUnparseableTail(t *testing.T) {
	f := New(ModeSSE)
	_, err := f.Push([]byte("garbage without any field prefix"))
	require.NoError(t, err)

	frames, err := f.Close()
	assert.ErrorIs(t, err, ErrFraming)
	// The terminal frame still arrives; the tail itself is discarded.
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Done)
}

func TestFramerCRLF(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
	}{
		{"lf", "data: {\"x\":1}\n\n"},
		{"crlf", "data: {\"x\":1}\r\n\r\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := New(ModeSSE)
			frames, err := f.Push([]byte(tc.in))
			require.NoError(t, err)
			require.Len(t, frames, 1)
			assert.Equal(t, `{"x":1}`, string(frames[0].Data))
		})
	}
}

func TestFramerOverflow(t *testing.T) {
	f := New(ModeSSE)
	junk := make([]byte, maxBufSize+1)
	for i := range junk {
		junk[i] = 'x'
	}
	_, err := f.Push(junk)
	require.ErrorIs(t, err, ErrFraming)
}

func ExampleFramer() {
	f := New(ModeSSE)
	frames, _ := f.Push([]byte("data: {\"hello\":\"world\"}\n\ndata: [DONE]\n\n"))
	for _, fr := range frames {
		fmt.Println(fr.Done, string(fr.Data))
	}
	// Output:
	// false {"hello":"world"}
	// true
}
