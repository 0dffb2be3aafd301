package json_test

import (
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/json"
)

func sampleSession() *drover.ChatSession {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &drover.ChatSession{
		ID:        "sess-json",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Messages: []drover.ChatMessage{
			{
				ID:        "msg-1",
				SessionID: "sess-json",
				Role:      drover.RoleUser,
				Text:      "What's the weather?",
				Timestamp: created,
				Done:      true,
			},
			{
				ID:        "msg-2",
				SessionID: "sess-json",
				Role:      drover.RoleWorker,
				Timestamp: created.Add(30 * time.Second),
				Done:      true,
				Cost:      0.00042,
				Tokens:    120,
				ToolCalls: []drover.ToolCall{{
					CallID:    "call_1",
					Name:      "get_weather",
					Arguments: stdjson.RawMessage(`{"city":"Warsaw"}`),
					SessionID: "sess-json",
					Result:    "sunny",
					Timestamp: created.Add(30 * time.Second),
				}},
			},
		},
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleSession()
	data, err := json.MarshalSession(want)
	require.NoError(t, err)

	got, err := json.UnmarshalSession(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarshalNilSession(t *testing.T) {
	t.Parallel()

	_, err := json.MarshalSession(nil)
	assert.Error(t, err)
}

func TestUnmarshalRejectsUnknownVersion(t *testing.T) {
	t.Parallel()

	_, err := json.UnmarshalSession([]byte(`{"version":2,"session":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported envelope version")
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := json.UnmarshalSession([]byte("not json"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions", "sess-json.json")
	want := sampleSession()

	require.NoError(t, json.Save(path, want))

	got, err := json.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveOverwritesAtomically(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sess.json")
	first := sampleSession()
	require.NoError(t, json.Save(path, first))

	second := sampleSession()
	second.Messages = second.Messages[:1]
	require.NoError(t, json.Save(path, second))

	got, err := json.Load(path)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := json.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
