package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/droverhq/drover"
)

// compileRequest converts a chat session plus tool catalog into the wire
// request body. It is total: absent or odd data degrades gracefully and
// never errors.
func compileRequest(req drover.Request, model string, maxTokens int) apiRequest {
	system, turns := compileHistory(req.Session)
	if req.ExplainTools && len(req.Tools) > 0 {
		system = append(system, apiContentBlock{Type: "text", Text: explainTools(req.Tools)})
	}
	// The system prompt is long-lived relative to the turn window, so it
	// gets the 1h breakpoint.
	if n := len(system); n > 0 {
		system[n-1].CacheControl = &apiCacheControl{Type: "ephemeral", TTL: "1h"}
	}
	markUserCacheBoundaries(turns)
	return apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      system,
		Messages:    turns,
		Tools:       compileTools(req.Tools),
		Temperature: req.Temperature,
	}
}

// compileHistory walks the session in order. System messages are extracted
// into the distinguished system field, tool-role messages are exploded into
// tool_result parts re-labeled as user turns (the wire protocol models tool
// results as user turns), and messages contributing no content are dropped.
func compileHistory(s *drover.ChatSession) (system []apiContentBlock, turns []apiMessage) {
	for _, m := range s.Messages {
		switch m.Role {
		case drover.RoleSystem:
			if m.Text != "" {
				system = append(system, apiContentBlock{Type: "text", Text: m.Text})
			}

		case drover.RoleUser:
			content := contentParts(m.Text, m.Image)
			if len(content) == 0 {
				continue
			}
			turns = append(turns, apiMessage{Role: "user", Content: content})

		case drover.RoleWorker:
			content := contentParts(m.Text, m.Image)
			for _, tc := range m.ToolCalls {
				input := tc.Arguments
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				content = append(content, apiContentBlock{
					Type:  "tool_use",
					ID:    tc.CallID,
					Name:  tc.Name,
					Input: input,
				})
			}
			if len(content) == 0 {
				continue
			}
			turns = append(turns, apiMessage{Role: "assistant", Content: content})

		case drover.RoleTool:
			var results []apiContentBlock
			for _, tc := range m.ToolCalls {
				results = append(results, apiContentBlock{
					Type:      "tool_result",
					ToolUseID: tc.CallID,
					Content:   contentParts(tc.Result, tc.Image),
				})
			}
			if len(results) == 0 {
				continue
			}
			turns = append(turns, apiMessage{Role: "user", Content: results})
		}
	}
	return system, turns
}

// contentParts builds the {text?, image?} content list, in that order.
// Either part may be absent; an empty list means the turn is dropped.
func contentParts(text string, img *drover.Image) []apiContentBlock {
	var parts []apiContentBlock
	if text != "" {
		parts = append(parts, apiContentBlock{Type: "text", Text: text})
	}
	if img != nil {
		parts = append(parts, apiContentBlock{
			Type: "image",
			Source: &apiImageSource{
				Type:      "base64",
				MediaType: img.MimeType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	return parts
}

// markUserCacheBoundaries sets the ephemeral breakpoint on the final
// content part of the 2nd- and 3rd-to-last user turns. The freshest user
// turn is not yet stable, and turns older than 3-back gain nothing, so the
// window slides without re-marking either. Fewer than two user turns means
// no marking at all.
func markUserCacheBoundaries(turns []apiMessage) {
	var users int
	for _, t := range turns {
		if t.Role == "user" {
			users++
		}
	}
	if users < 2 {
		return
	}
	cc := &apiCacheControl{Type: "ephemeral"}
	seen := 0
	for i := len(turns) - 1; i >= 0 && seen < 3; i-- {
		if turns[i].Role != "user" {
			continue
		}
		seen++
		if seen < 2 {
			continue
		}
		if n := len(turns[i].Content); n > 0 {
			turns[i].Content[n-1].CacheControl = cc
		}
	}
}

// compileTools converts the catalog, marking the last definition as a
// cache boundary since tool schemas are stable across turns.
func compileTools(tools []drover.ToolSchema) []apiTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]apiTool, len(tools))
	for i, t := range tools {
		result[i] = apiTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		}
	}
	result[len(result)-1].CacheControl = &apiCacheControl{Type: "ephemeral"}
	return result
}

func explainTools(tools []drover.ToolSchema) string {
	var sb strings.Builder
	sb.WriteString("You can call the following functions:\n")
	for _, t := range tools {
		sb.WriteString("- ")
		sb.WriteString(t.Name)
		if t.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(t.Description)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
