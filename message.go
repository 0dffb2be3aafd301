package drover

import (
	"encoding/json"
	"time"
)

// ChatMessage is one entry in a chat session. Exactly one ChatMessage with
// Done set is the terminal output of an inference call; zero or more partial
// messages (Done unset) are delivered through the caller's callback while the
// response streams. Partial messages are transient and never persisted here.
type ChatMessage struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"sessionId"`
	ChannelMessageID string     `json:"channelMessageId,omitempty"`
	Role             Role       `json:"role"`
	Text             string     `json:"text,omitempty"`
	ToolCalls        []ToolCall `json:"toolCalls,omitempty"`
	Image            *Image     `json:"image,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
	Done             bool       `json:"done"`
	Cancelled        bool       `json:"cancelled,omitempty"`
	Cost             float64    `json:"cost,omitempty"`
	Tokens           int        `json:"tokens,omitempty"`
}

// ToolCall is one tool invocation requested by the worker. Arguments stays
// empty until the provider closes the block and the accumulated argument
// text is finalized. Result is filled by the tool-execution sandbox, never
// by the assembler.
type ToolCall struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Result    string          `json:"result,omitempty"`
	Image     *Image          `json:"image,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Image is inline image content attached to a message or tool result.
type Image struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}
