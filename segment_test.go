package drover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmenter_AppendAndAdvance(t *testing.T) {
	t.Parallel()
	s := newSegmenter()

	s.append("Hello")
	s.append(" world.")
	assert.Equal(t, "Hello world.", s.current())

	s.advance()
	s.append(" More text")
	assert.Equal(t, " More text", s.current())
	assert.Equal(t, "Hello world. More text", s.text())
}

func TestSegmenter_IndexNeverOutrunsSlots(t *testing.T) {
	t.Parallel()
	s := newSegmenter()
	for i := 0; i < 10; i++ {
		s.advance()
		require.LessOrEqual(t, s.index, len(s.slots)-1)
		s.append("x")
		require.LessOrEqual(t, s.index, len(s.slots)-1)
	}
}

func TestSegmenter_SlotsAreAppendOnly(t *testing.T) {
	t.Parallel()
	s := newSegmenter()
	prev := len(s.slots)
	for i := 0; i < 5; i++ {
		s.append("a.")
		s.advance()
		require.GreaterOrEqual(t, len(s.slots), prev)
		prev = len(s.slots)
	}
}

func TestSegmenter_AppendPadsWhenIndexOutruns(t *testing.T) {
	t.Parallel()
	// Defensive path: index pushed past the slice without advance.
	s := newSegmenter()
	s.index = 3
	s.append("late")
	assert.Equal(t, "late", s.current())
	assert.Len(t, s.slots, 4)
}

func TestSentenceComplete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"mid sentence", "Hello wor", false},
		{"period", "Hello world.", true},
		{"period then space", "Hello world. ", true},
		{"question", "Is it done?", true},
		{"exclamation", "Done!", true},
		{"ellipsis rune", "Well…", true},
		{"newline", "A paragraph\n", true},
		{"closing quote after period", `He said "done."`, true},
		{"trailing comma", "first,", false},
		{"cjk full stop", "完成了。", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sentenceComplete(tt.text))
		})
	}
}
