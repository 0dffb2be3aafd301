package drover

import "strings"

// phase is the interpreter's position in the event state machine.
type phase int

const (
	phaseAwaitStart phase = iota
	phaseStreaming
	phaseTextOpen
	phaseToolOpen
	phaseFinishing
	phaseDone
)

// inferenceState is the accumulator for one inference call. It is created
// fresh per call, mutated only by the interpreter, and discarded once the
// terminal message is produced. It must never be shared across calls.
type inferenceState struct {
	phase phase
	role  Role
	seg   *segmenter

	currentToolCallID string
	toolCalls         map[string]*ToolCall
	toolCallArgs      map[string]*strings.Builder
	callOrder         []string

	// completion-marker prose tracking for the open tool call
	isCompletionFn bool
	proseStarted   bool
	excerptLen     int

	usage      Usage
	stop       StopReason
	finalCalls []ToolCall
	cancelled  bool
}

func newInferenceState() *inferenceState {
	return &inferenceState{
		seg:          newSegmenter(),
		toolCalls:    make(map[string]*ToolCall),
		toolCallArgs: make(map[string]*strings.Builder),
	}
}
