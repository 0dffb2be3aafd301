// Package drover assembles a streaming completion endpoint's wire events
// into well-formed chat messages: one terminal message per inference call,
// an ordered series of incremental partial deliveries, and a running cost
// estimate. The assembler is cancellable mid-stream and tolerant of
// malformed or out-of-order argument fragments.
package drover

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// cancelNotice is appended to the terminal message whenever a call is
// cancelled, times out, or loses its transport mid-stream.
const cancelNotice = "I'm sorry, I wasn't able to finish this response."

// InferenceArgs configures one inference call.
type InferenceArgs struct {
	// Session is the conversation history to complete. Required. The call
	// only reads it.
	Session *ChatSession

	// Functions is the tool catalog offered to the model. It is also used
	// to detect the completion-marker function (see ToolSchema.IsCompletionMarker).
	Functions []ToolSchema

	// SingleMessage suppresses intermediate partial deliveries; only the
	// terminal message is produced.
	SingleMessage bool

	// OnPartial receives transient partial messages (Done unset) as the
	// response streams. Its errors are logged and otherwise ignored; they
	// never affect stream processing. May be nil.
	OnPartial func(ctx context.Context, partial ChatMessage) error

	// ModelOverride selects a model for this call only.
	ModelOverride string

	// Cancel aborts the call when it becomes readable (typically by
	// closing it). Firing it twice, or after completion, is a no-op.
	Cancel <-chan struct{}

	// ChannelMessageID is carried through to every produced message.
	ChannelMessageID string

	// ExplainFunctions asks the history compiler to append a tool-catalog
	// summary to the system prompt.
	ExplainFunctions bool

	// Timeout bounds the total call duration. Exceeding it behaves exactly
	// like cancellation. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Engine runs inference calls against a Transport. It is safe for
// concurrent use: every call owns an independent accumulator and stream.
type Engine struct {
	transport Transport
	prices    PriceTable
	model     string
	maxTokens int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPrices sets the price table used for cost accounting.
func WithPrices(t PriceTable) EngineOption {
	return func(e *Engine) { e.prices = t }
}

// WithModel sets the default model ID. Empty string means the transport's
// default.
func WithModel(model string) EngineOption {
	return func(e *Engine) { e.model = model }
}

// WithMaxTokens sets the per-call output token ceiling passed to the
// transport. Zero means the transport's default.
func WithMaxTokens(n int) EngineOption {
	return func(e *Engine) { e.maxTokens = n }
}

// WithLogger sets the logger for callback failures and local recoveries.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithClock injects the timestamp source. Tests use this for determinism.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithIDSource injects the message ID generator. Tests use this for
// determinism.
func WithIDSource(newID func() string) EngineOption {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an Engine streaming through transport.
func NewEngine(transport Transport, opts ...EngineOption) *Engine {
	e := &Engine{
		transport: transport,
		prices:    DefaultPrices,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Inference streams one completion and assembles it into a terminal
// ChatMessage. The returned error is non-nil only for invalid arguments;
// transport failures, timeouts and cancellation all surface as a
// well-formed message with Cancelled set, so callers have one success path.
func (e *Engine) Inference(ctx context.Context, args InferenceArgs) (ChatMessage, error) {
	model := e.model
	if args.ModelOverride != "" {
		model = args.ModelOverride
	}
	req := Request{
		Session:      args.Session,
		Tools:        args.Functions,
		Model:        model,
		MaxTokens:    e.maxTokens,
		ExplainTools: args.ExplainFunctions,
	}
	if err := req.Validate(); err != nil {
		return ChatMessage{}, err
	}

	if args.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, args.Timeout)
		defer cancel()
	}

	r := &run{eng: e, st: newInferenceState(), args: args, model: model}

	stream, err := e.transport.Stream(ctx, req)
	if err != nil {
		e.logger.Error("inference: opening stream failed", "session", args.Session.ID, "error", err)
		r.st.cancelled = true
		return r.terminal(), nil
	}
	defer stream.Close()

	r.gate = newCancelGate(ctx, args.Cancel, stream.Close)
	defer r.gate.release()

	r.consume(ctx, stream)

	if r.gate.Cancelled() {
		r.st.cancelled = true
	}
	return r.terminal(), nil
}

// run holds everything one inference call needs while consuming its stream.
type run struct {
	eng   *Engine
	st    *inferenceState
	args  InferenceArgs
	model string
	gate  *cancelGate
}

// consume drives the state machine over the event stream. Cancellation is
// cooperative: it is observed at event boundaries, so at most one in-flight
// event is still processed after the gate fires.
func (r *run) consume(ctx context.Context, stream Stream) {
	for {
		if r.gate.Cancelled() {
			r.st.cancelled = true
			return
		}
		evt, err := stream.Next()
		if err == io.EOF {
			r.st.phase = phaseDone
			return
		}
		if err != nil {
			if !r.gate.Cancelled() {
				r.eng.logger.Error("inference: stream failed", "session", r.args.Session.ID, "error", err)
			}
			r.st.cancelled = true
			return
		}
		r.apply(ctx, evt)
		if r.st.phase == phaseDone {
			return
		}
	}
}

// apply executes one state-machine transition. The Event variant set is
// closed, so the switch covers every kind the transport can produce.
func (r *run) apply(ctx context.Context, evt Event) {
	st := r.st
	switch ev := evt.(type) {
	case EventStreamStart:
		st.role = RoleWorker
		st.usage.InputTokens = ev.Usage.InputTokens
		st.usage.CacheWriteTokens = ev.Usage.CacheWriteTokens
		st.usage.CacheReadTokens = ev.Usage.CacheReadTokens
		st.phase = phaseStreaming

	case EventTextStart:
		st.phase = phaseTextOpen
		if ev.Text != "" {
			r.appendText(ctx, ev.Text)
		}

	case EventToolCallBegin:
		st.phase = phaseToolOpen
		st.beginToolCall(ev.ID, ev.Name, r.eng.now())
		st.currentToolCallID = ev.ID
		st.isCompletionFn = r.isCompletionMarker(ev.Name)
		st.proseStarted = false
		st.excerptLen = 0
		// Fragments may have streamed in before the block opened; surface
		// any prose they already carry.
		if st.isCompletionFn && st.rawArgs(ev.ID) != "" {
			r.surfaceExcerpt(ctx)
		}

	case EventTextDelta:
		r.appendText(ctx, ev.Delta)

	case EventToolCallDelta:
		id := ev.ID
		if id == "" {
			id = st.currentToolCallID
		}
		if id == "" {
			r.eng.logger.Warn("inference: argument fragment with no open tool call", "session", r.args.Session.ID)
			return
		}
		st.appendArgs(id, ev.Fragment)
		if st.isCompletionFn && id == st.currentToolCallID {
			r.surfaceExcerpt(ctx)
		}

	case EventBlockStop:
		st.seg.advance()
		if st.currentToolCallID != "" {
			st.normalizeArgs(st.currentToolCallID)
			st.currentToolCallID = ""
			st.isCompletionFn = false
			st.proseStarted = false
			st.excerptLen = 0
		}
		st.phase = phaseStreaming

	case EventTurnDelta:
		st.usage.OutputTokens = ev.OutputTokens
		if ev.Raw == "" {
			return // usage-only update
		}
		st.stop = ev.StopReason
		if ev.StopReason == StopToolUse {
			// Finalize every accumulated call and terminate immediately;
			// no further events are consumed for this call.
			r.finalizeToolCalls()
			st.phase = phaseDone
			return
		}
		// max_tokens, end_turn, stop_sequence and anything unrecognized
		// all count as normal completion.
		st.phase = phaseFinishing

	case EventStreamStop:
		if st.phase != phaseDone {
			st.phase = phaseFinishing
		}
	}
}

// appendText adds delta text to the open slot and flushes the slot as a
// partial delivery once it reads as a complete sentence.
func (r *run) appendText(ctx context.Context, text string) {
	r.st.seg.append(text)
	if sentenceComplete(r.st.seg.current()) {
		r.deliverPartial(ctx)
		r.st.seg.advance()
	}
}

// surfaceExcerpt re-extracts the completion marker's "message" prose from
// the partially accumulated argument JSON and appends the newly streamed
// portion to the open slot, delivering a partial each time it grows. This
// keeps the UI perceiving continuous prose even though the text lives
// inside a function-call payload, so no sentence gate applies here.
func (r *run) surfaceExcerpt(ctx context.Context) {
	st := r.st
	excerpt, ok := extractMessageExcerpt(st.rawArgs(st.currentToolCallID))
	if !ok {
		return
	}
	first := !st.proseStarted
	st.proseStarted = true
	if len(excerpt) > st.excerptLen {
		st.seg.append(excerpt[st.excerptLen:])
		st.excerptLen = len(excerpt)
	} else if !first {
		return
	}
	r.deliverPartial(ctx)
}

// deliverPartial invokes the caller's callback with a transient message
// carrying the open slot's text and the running cost. Callback failures are
// logged and never abort the stream.
func (r *run) deliverPartial(ctx context.Context) {
	if r.args.OnPartial == nil || r.args.SingleMessage {
		return
	}
	if r.gate != nil && r.gate.Cancelled() {
		return
	}
	partial := ChatMessage{
		ID:               r.eng.newID(),
		SessionID:        r.args.Session.ID,
		ChannelMessageID: r.args.ChannelMessageID,
		Role:             RoleWorker,
		Text:             r.st.seg.current(),
		Timestamp:        r.eng.now(),
		Done:             false,
		Cost:             r.eng.prices.Cost(r.model, r.st.usage),
		Tokens:           r.st.usage.Total(),
	}
	if err := r.args.OnPartial(ctx, partial); err != nil {
		r.eng.logger.Warn("inference: partial delivery failed", "session", r.args.Session.ID, "error", err)
	}
}

// finalizeToolCalls parses every accumulated argument string in block-start
// order. Malformed JSON degrades to an empty object and is logged.
func (r *run) finalizeToolCalls() {
	st := r.st
	for _, id := range st.callOrder {
		tc := st.toolCalls[id]
		args, malformed := st.finalizeArgs(id)
		if malformed {
			r.eng.logger.Warn("inference: malformed tool arguments, using empty object",
				"session", r.args.Session.ID, "tool", tc.Name, "call_id", id)
		}
		st.finalCalls = append(st.finalCalls, ToolCall{
			CallID:    id,
			Name:      tc.Name,
			Arguments: args,
			SessionID: r.args.Session.ID,
			Timestamp: tc.Timestamp,
		})
	}
}

// terminal builds the single terminal ChatMessage for this call. The cost
// accountant runs here, once, over the final counters — on the cancelled
// path too.
func (r *run) terminal() ChatMessage {
	st := r.st
	text := st.seg.text()
	if len(st.finalCalls) > 0 {
		// Tool-use path: the structured calls are the payload; streamed
		// prose was already delivered through partials.
		text = ""
	}
	if st.cancelled {
		if text != "" {
			text += "\n\n"
		}
		text += cancelNotice
	}
	return ChatMessage{
		ID:               r.eng.newID(),
		SessionID:        r.args.Session.ID,
		ChannelMessageID: r.args.ChannelMessageID,
		Role:             RoleWorker,
		Text:             text,
		ToolCalls:        st.finalCalls,
		Timestamp:        r.eng.now(),
		Done:             true,
		Cancelled:        st.cancelled,
		Cost:             r.eng.prices.Cost(r.model, st.usage),
		Tokens:           st.usage.Total(),
	}
}

// isCompletionMarker looks the call's function up in the catalog and reports
// whether it is the distinguished task-complete function. The decision is
// made once per tool-use block.
func (r *run) isCompletionMarker(name string) bool {
	for _, f := range r.args.Functions {
		if f.Name == name {
			return f.IsCompletionMarker()
		}
	}
	return false
}
