package drover

import "time"

// ChatSession is an ordered conversation history. The caller owns it; an
// inference call only reads it for its duration.
type ChatSession struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
