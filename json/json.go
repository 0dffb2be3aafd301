// Package json persists chat sessions as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/droverhq/drover"
)

// envelope is the v1 file format for a persisted session. The version field
// lets a future format change load old files instead of corrupting them.
type envelope struct {
	Version int                `json:"version"`
	Session drover.ChatSession `json:"session"`
}

// MarshalSession serializes a session in v1 envelope format.
func MarshalSession(s *drover.ChatSession) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("json: nil session")
	}
	return json.MarshalIndent(envelope{Version: 1, Session: *s}, "", "  ")
}

// UnmarshalSession deserializes a session from v1 envelope format.
func UnmarshalSession(data []byte) (*drover.ChatSession, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("json: unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("json: unsupported envelope version: %d", env.Version)
	}
	s := env.Session
	return &s, nil
}

// Save writes a session to path atomically, creating parent directories as
// needed. A crash mid-write leaves the previous file intact.
func Save(path string, s *drover.ChatSession) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("json: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("json: create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("json: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("json: rename temp file: %w", err)
	}
	return nil
}

// Load reads a session from a JSON file written by Save.
func Load(path string) (*drover.ChatSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json: read file: %w", err)
	}
	return UnmarshalSession(data)
}
