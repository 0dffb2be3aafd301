package drover

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn  StopReason = "end_turn"
	StopLength   StopReason = "max_tokens"
	StopSequence StopReason = "stop_sequence"
	StopToolUse  StopReason = "tool_use"
	StopUnknown  StopReason = "unknown"
)
