package drover

import (
	"encoding/json"
	"strings"
	"time"
)

// beginToolCall allocates tracking for a tool-use block. It is a no-op when
// the call ID is already known, which tolerates duplicate begin events.
func (st *inferenceState) beginToolCall(id, name string, ts time.Time) {
	if _, ok := st.toolCalls[id]; !ok {
		st.toolCalls[id] = &ToolCall{CallID: id, Name: name, Timestamp: ts}
		st.callOrder = append(st.callOrder, id)
	}
	if _, ok := st.toolCallArgs[id]; !ok {
		st.toolCallArgs[id] = &strings.Builder{}
	}
}

// appendArgs concatenates a raw argument fragment onto the call's buffer in
// arrival order. Fragments for an ID that has not begun yet are buffered
// anyway; beginToolCall picks them up when the block opens.
func (st *inferenceState) appendArgs(id, fragment string) {
	b, ok := st.toolCallArgs[id]
	if !ok {
		b = &strings.Builder{}
		st.toolCallArgs[id] = b
	}
	b.WriteString(fragment)
}

// rawArgs returns the argument text accumulated so far for id.
func (st *inferenceState) rawArgs(id string) string {
	if b, ok := st.toolCallArgs[id]; ok {
		return b.String()
	}
	return ""
}

// normalizeArgs rewrites an empty or whitespace-only argument buffer to
// "{}" when the block closes. Closed calls must hold parseable text.
func (st *inferenceState) normalizeArgs(id string) {
	b, ok := st.toolCallArgs[id]
	if !ok {
		return
	}
	if strings.TrimSpace(b.String()) == "" {
		b.Reset()
		b.WriteString("{}")
	}
}

// finalizeArgs parses the accumulated argument text for id. Malformed JSON
// degrades to an empty object and reports malformed true; it never fails
// the call. A missing buffer is an interpreter bug (every begun call has
// one), so it panics loudly.
func (st *inferenceState) finalizeArgs(id string) (args json.RawMessage, malformed bool) {
	b, ok := st.toolCallArgs[id]
	if !ok {
		panic("drover: finalizeArgs for unknown tool call " + id)
	}
	raw := strings.TrimSpace(b.String())
	switch {
	case raw == "":
		raw = "{}"
	case !json.Valid([]byte(raw)):
		raw = "{}"
		malformed = true
	}
	return json.RawMessage(raw), malformed
}

// completion-marker key variants, with and without the space the provider
// usually emits after the colon.
const (
	excerptMarker      = `"message": "`
	excerptMarkerTight = `"message":"`
)

// extractMessageExcerpt scans a partially accumulated argument string for the
// completion marker's "message" field and returns the prose streamed for it
// so far. This is deliberately a heuristic over an incomplete JSON document,
// not a parser: the surfaced text runs from just after the key marker to one
// character before the string end, optimistically trimming the trailing
// structural character. Exact content is not valid until the block closes.
// The second return is false when the marker has not appeared yet.
func extractMessageExcerpt(raw string) (string, bool) {
	idx := strings.Index(raw, excerptMarker)
	markerLen := len(excerptMarker)
	if idx < 0 {
		idx = strings.Index(raw, excerptMarkerTight)
		markerLen = len(excerptMarkerTight)
	}
	if idx < 0 {
		return "", false
	}
	start := idx + markerLen
	end := len(raw) - 1
	if end <= start {
		return "", true
	}
	return raw[start:end], true
}
