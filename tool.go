package drover

import (
	"context"
	"encoding/json"
)

// ToolSchema describes one callable function offered to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// IsCompletionMarker reports whether the schema describes the distinguished
// task-complete function: one whose parameters expose a human-readable
// string "message" property. The interpreter streams that field's value as
// prose while it is still embedded in the function-call argument payload.
func (t ToolSchema) IsCompletionMarker() bool {
	if len(t.Parameters) == 0 {
		return false
	}
	var schema struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(t.Parameters, &schema); err != nil {
		return false
	}
	p, ok := schema.Properties["message"]
	return ok && p.Type == "string"
}

// ToolExecutor runs tools requested by the worker. It is an external
// collaborator: the assembler produces ToolCalls but never executes them.
// Execute returns error for infrastructure failures; domain failures are
// reported in the result text sent back to the model.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (string, error)
}
