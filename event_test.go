package drover_test

import (
	"testing"

	"github.com/droverhq/drover"
	"github.com/stretchr/testify/assert"
)

func TestEventTaxonomy_IsClosed(t *testing.T) {
	t.Parallel()
	events := []drover.Event{
		drover.EventStreamStart{Usage: drover.Usage{InputTokens: 1}},
		drover.EventTextStart{Text: "hi"},
		drover.EventToolCallBegin{ID: "tc_1", Name: "search"},
		drover.EventTextDelta{Delta: "hello"},
		drover.EventToolCallDelta{ID: "tc_1", Fragment: `{"q":`},
		drover.EventBlockStop{},
		drover.EventTurnDelta{StopReason: drover.StopEndTurn, Raw: "end_turn", OutputTokens: 3},
		drover.EventStreamStop{},
	}
	for _, e := range events {
		assert.NotNil(t, e)
	}
}

func TestStopReason_Values(t *testing.T) {
	t.Parallel()
	assert.Equal(t, drover.StopReason("end_turn"), drover.StopEndTurn)
	assert.Equal(t, drover.StopReason("max_tokens"), drover.StopLength)
	assert.Equal(t, drover.StopReason("stop_sequence"), drover.StopSequence)
	assert.Equal(t, drover.StopReason("tool_use"), drover.StopToolUse)
	assert.Equal(t, drover.StopReason("unknown"), drover.StopUnknown)
}

func TestToolSchema_IsCompletionMarker(t *testing.T) {
	t.Parallel()
	assert.True(t, drover.ToolSchema{
		Name:       "task_complete",
		Parameters: []byte(`{"type":"object","properties":{"message":{"type":"string"}}}`),
	}.IsCompletionMarker())

	assert.False(t, drover.ToolSchema{
		Name:       "search",
		Parameters: []byte(`{"type":"object","properties":{"query":{"type":"string"}}}`),
	}.IsCompletionMarker())

	assert.False(t, drover.ToolSchema{
		Name:       "count",
		Parameters: []byte(`{"type":"object","properties":{"message":{"type":"integer"}}}`),
	}.IsCompletionMarker())

	assert.False(t, drover.ToolSchema{Name: "no_schema"}.IsCompletionMarker())
	assert.False(t, drover.ToolSchema{Name: "bad", Parameters: []byte(`{`)}.IsCompletionMarker())
}
