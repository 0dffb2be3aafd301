package anthropic_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseResponse is a helper to build SSE responses for tests.
type sseResponse struct {
	events []sseEvent
}

type sseEvent struct {
	event string
	data  string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, evt := range s.events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.event, evt.data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// textStreamResponse returns a simple text streaming SSE response.
func textStreamResponse() sseResponse {
	return sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1,"cache_creation_input_tokens":7,"cache_read_input_tokens":40}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}
}

func streamFromSSE(t *testing.T, resp sseResponse) drover.Stream {
	t.Helper()
	srv := httptest.NewServer(resp.handler())
	t.Cleanup(srv.Close)
	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	stream, err := client.Stream(context.Background(), drover.Request{
		Session: &drover.ChatSession{Messages: []drover.ChatMessage{
			{Role: drover.RoleUser, Text: "Hi"},
		}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func collectEvents(t *testing.T, s drover.Stream) []drover.Event {
	t.Helper()
	var events []drover.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextResponse(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())

	events := collectEvents(t, s)

	require.Len(t, events, 7)
	assert.Equal(t, drover.EventStreamStart{Usage: drover.Usage{
		InputTokens:      10,
		CacheWriteTokens: 7,
		CacheReadTokens:  40,
	}}, events[0])
	assert.Equal(t, drover.EventTextStart{}, events[1])
	assert.Equal(t, drover.EventTextDelta{Delta: "Hello"}, events[2])
	assert.Equal(t, drover.EventTextDelta{Delta: " world."}, events[3])
	assert.Equal(t, drover.EventBlockStop{}, events[4])
	assert.Equal(t, drover.EventTurnDelta{
		StopReason:   drover.StopEndTurn,
		Raw:          "end_turn",
		OutputTokens: 5,
	}, events[5])
	assert.Equal(t, drover.EventStreamStop{}, events[6])

	// Next after completion keeps returning EOF.
	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_ToolUse(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":100,"output_tokens":1,"cache_creation_input_tokens":null,"cache_read_input_tokens":null}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"read","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"path\":"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":" \"foo.go\"}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":42}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}
	s := streamFromSSE(t, resp)

	events := collectEvents(t, s)

	require.Len(t, events, 7)
	assert.Equal(t, drover.EventToolCallBegin{ID: "toolu_1", Name: "read"}, events[1])
	// Argument fragments carry the call ID even though the wire event only
	// has the block index.
	assert.Equal(t, drover.EventToolCallDelta{ID: "toolu_1", Fragment: `{"path":`}, events[2])
	assert.Equal(t, drover.EventToolCallDelta{ID: "toolu_1", Fragment: ` "foo.go"}`}, events[3])
	assert.Equal(t, drover.EventTurnDelta{
		StopReason:   drover.StopToolUse,
		Raw:          "tool_use",
		OutputTokens: 42,
	}, events[5])
}

func TestStream_ErrorEvent(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"usage":{"input_tokens":1,"output_tokens":0}}}`},
		{"error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`},
	}}
	s := streamFromSSE(t, resp)

	_, err := s.Next() // message_start
	require.NoError(t, err)
	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded_error")
}

func TestStream_UnexpectedEOF(t *testing.T) {
	t.Parallel()
	// Stream ends without message_stop.
	resp := sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"usage":{"input_tokens":1,"output_tokens":0}}}`},
	}}
	s := streamFromSSE(t, resp)

	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "unexpected end of stream")
}

func TestStream_DeltaForUnknownBlock(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"content_block_delta", `{"type":"content_block_delta","index":3,"delta":{"type":"text_delta","text":"x"}}`},
	}}
	s := streamFromSSE(t, resp)

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block index")
}

func TestStream_CloseAborts(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())

	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "double close is safe")

	_, err = s.Next()
	assert.ErrorIs(t, err, drover.ErrStreamClosed)
}

func TestStream_UnknownEventKindsIgnored(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", `{"type":"message_start","message":{"usage":{"input_tokens":1,"output_tokens":0}}}`},
		{"some_future_event", `{"type":"some_future_event"}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}
	s := streamFromSSE(t, resp)

	events := collectEvents(t, s)
	require.Len(t, events, 2)
	assert.IsType(t, drover.EventStreamStart{}, events[0])
	assert.IsType(t, drover.EventStreamStop{}, events[1])
}
