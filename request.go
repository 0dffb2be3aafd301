package drover

import "fmt"

// Request carries one inference call's history and generation parameters
// to the transport. The transport uses its own defaults when fields are
// zero/nil.
type Request struct {
	Session      *ChatSession
	Tools        []ToolSchema
	Model        string   // model ID, provider-specific; empty = transport default
	MaxTokens    int      // 0 = transport default
	Temperature  *float64 // nil = transport default
	ExplainTools bool     // append a tool-catalog summary to the system prompt
}

// Validate checks universal constraints on Request.
// Transport implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Session == nil {
		return fmt.Errorf("request has no session: %w", ErrValidation)
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	return nil
}
