package drover

// Event is a sealed interface over the wire event taxonomy of a streaming
// completion endpoint. Events are purely semantic; transport and protocol
// errors come from Next()'s error return, not from events. The unexported
// marker method keeps the variant set closed so the interpreter can match
// it exhaustively.
type Event interface {
	event()
}

// EventStreamStart opens a response turn and carries prompt-side usage.
// OutputTokens is not known yet and is always zero here.
type EventStreamStart struct {
	Usage Usage
}

func (EventStreamStart) event() {}

// EventTextStart opens a text block. Text carries the block's initial
// content, usually empty.
type EventTextStart struct {
	Text string
}

func (EventTextStart) event() {}

// EventToolCallBegin opens a tool-use block.
type EventToolCallBegin struct {
	ID   string
	Name string
}

func (EventToolCallBegin) event() {}

// EventTextDelta appends text to the open text block.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventToolCallDelta appends a raw fragment of argument JSON to the open
// tool-use block. Fragments are concatenated in arrival order; the result
// is not valid JSON until the block closes.
type EventToolCallDelta struct {
	ID       string
	Fragment string
}

func (EventToolCallDelta) event() {}

// EventBlockStop closes the open block. No further deltas may target it.
type EventBlockStop struct{}

func (EventBlockStop) event() {}

// EventTurnDelta carries the stop reason and output-side usage.
// Raw preserves the provider's reason string; an empty Raw means the
// provider sent a usage-only update.
type EventTurnDelta struct {
	StopReason   StopReason
	Raw          string
	OutputTokens int
}

func (EventTurnDelta) event() {}

// EventStreamStop closes the response turn.
type EventStreamStop struct{}

func (EventStreamStop) event() {}

// Interface compliance checks.
var (
	_ Event = EventStreamStart{}
	_ Event = EventTextStart{}
	_ Event = EventToolCallBegin{}
	_ Event = EventTextDelta{}
	_ Event = EventToolCallDelta{}
	_ Event = EventBlockStop{}
	_ Event = EventTurnDelta{}
	_ Event = EventStreamStop{}
)
