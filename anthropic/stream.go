package anthropic

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/droverhq/drover"
)

// stream decodes SSE events from an HTTP response body into the semantic
// taxonomy. It performs no assembly beyond attributing argument fragments
// to their tool call ID; the interpreter owns all accumulation.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	blocks  map[int]blockInfo
	done    bool // EventStreamStop emitted
	closed  bool
}

// blockInfo remembers an open block's kind and, for tool_use, its call ID
// so input_json_delta events (which only carry the block index) can be
// attributed.
type blockInfo struct {
	kind   string
	toolID string
}

// Interface compliance check.
var _ drover.Stream = (*stream)(nil)

func newStream(body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		blocks:  make(map[int]blockInfo),
	}
}

// Next reads the next semantic event. It returns io.EOF after the stream
// completes normally and [drover.ErrStreamClosed] after Close.
func (s *stream) Next() (drover.Event, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.closed {
		return nil, fmt.Errorf("anthropic: %w", drover.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err == io.EOF {
			// Raw EOF without message_stop: the stream ended unexpectedly.
			return nil, fmt.Errorf("anthropic: unexpected end of stream")
		}
		if err != nil {
			return nil, err
		}

		evt, err := s.decode(eventType, data)
		if err != nil {
			return nil, err
		}
		if evt != nil {
			return evt, nil
		}
		// Non-semantic event (ping, unknown) - keep reading.
	}
}

// Close aborts the stream and releases the underlying connection. Safe to
// call more than once and after Next has returned a terminal result.
func (s *stream) Close() error {
	s.closed = true
	return s.body.Close()
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			// Empty event, keep reading.
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}

	// Scanner exhausted without error = EOF.
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// decode maps one SSE event to a semantic drover.Event. It returns a nil
// event for non-semantic events (ping, unknown kinds).
func (s *stream) decode(eventType, data string) (drover.Event, error) {
	switch eventType {
	case "message_start":
		return s.decodeMessageStart(data)
	case "content_block_start":
		return s.decodeBlockStart(data)
	case "content_block_delta":
		return s.decodeBlockDelta(data)
	case "content_block_stop":
		return s.decodeBlockStop(data)
	case "message_delta":
		return s.decodeMessageDelta(data)
	case "message_stop":
		s.done = true
		return drover.EventStreamStop{}, nil
	case "ping":
		return nil, nil
	case "error":
		return nil, s.decodeError(data)
	default:
		// Unknown event types are ignored per the API spec.
		return nil, nil
	}
}

func (s *stream) decodeMessageStart(data string) (drover.Event, error) {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse message_start: %w", err)
	}
	u := drover.Usage{InputTokens: evt.Message.Usage.InputTokens}
	if n := evt.Message.Usage.CacheCreationInputTokens; n != nil {
		u.CacheWriteTokens = *n
	}
	if n := evt.Message.Usage.CacheReadInputTokens; n != nil {
		u.CacheReadTokens = *n
	}
	return drover.EventStreamStart{Usage: u}, nil
}

func (s *stream) decodeBlockStart(data string) (drover.Event, error) {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse content_block_start: %w", err)
	}

	switch evt.ContentBlock.Type {
	case "tool_use":
		s.blocks[evt.Index] = blockInfo{kind: "tool_use", toolID: evt.ContentBlock.ID}
		return drover.EventToolCallBegin{ID: evt.ContentBlock.ID, Name: evt.ContentBlock.Name}, nil
	case "text":
		s.blocks[evt.Index] = blockInfo{kind: "text"}
		return drover.EventTextStart{Text: evt.ContentBlock.Text}, nil
	default:
		s.blocks[evt.Index] = blockInfo{kind: evt.ContentBlock.Type}
		return nil, nil
	}
}

func (s *stream) decodeBlockDelta(data string) (drover.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
	}

	bi, ok := s.blocks[evt.Index]
	if !ok {
		return nil, fmt.Errorf("anthropic: delta for unknown block index %d", evt.Index)
	}

	switch evt.Delta.Type {
	case "text_delta":
		return drover.EventTextDelta{Delta: evt.Delta.Text}, nil
	case "input_json_delta":
		return drover.EventToolCallDelta{ID: bi.toolID, Fragment: evt.Delta.PartialJSON}, nil
	default:
		return nil, nil
	}
}

func (s *stream) decodeBlockStop(data string) (drover.Event, error) {
	var evt sseContentBlockStop
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse content_block_stop: %w", err)
	}
	if _, ok := s.blocks[evt.Index]; !ok {
		return nil, fmt.Errorf("anthropic: stop for unknown block index %d", evt.Index)
	}
	return drover.EventBlockStop{}, nil
}

func (s *stream) decodeMessageDelta(data string) (drover.Event, error) {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse message_delta: %w", err)
	}
	out := drover.EventTurnDelta{OutputTokens: evt.Usage.OutputTokens}
	if evt.Delta.StopReason != nil {
		out.Raw = *evt.Delta.StopReason
		out.StopReason = mapStopReason(*evt.Delta.StopReason)
	}
	return out, nil
}

func (s *stream) decodeError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}

func mapStopReason(raw string) drover.StopReason {
	switch raw {
	case "end_turn":
		return drover.StopEndTurn
	case "max_tokens":
		return drover.StopLength
	case "stop_sequence":
		return drover.StopSequence
	case "tool_use":
		return drover.StopToolUse
	default:
		return drover.StopUnknown
	}
}
