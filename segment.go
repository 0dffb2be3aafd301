package drover

import (
	"strings"
	"unicode/utf8"
)

// segmenter buffers incremental text per delivery slot. Slots are append-only:
// no slot is ever removed once created, and the open-slot index never shrinks,
// which keeps replay and debugging straightforward.
type segmenter struct {
	slots []string
	index int
}

func newSegmenter() *segmenter {
	return &segmenter{slots: []string{""}}
}

// append concatenates text onto the open slot. If the index has outrun the
// slice it pads with empty slots first; the two normally stay in lockstep.
func (s *segmenter) append(text string) {
	for s.index >= len(s.slots) {
		s.slots = append(s.slots, "")
	}
	s.slots[s.index] += text
}

// advance closes the open slot and opens a fresh one.
func (s *segmenter) advance() {
	s.index++
	s.slots = append(s.slots, "")
}

// current returns the open slot's accumulated text.
func (s *segmenter) current() string {
	if s.index < len(s.slots) {
		return s.slots[s.index]
	}
	return ""
}

// text returns all slots concatenated in order. Slots split the original
// delta sequence without altering it, so plain concatenation reconstructs
// the full response text.
func (s *segmenter) text() string {
	return strings.Join(s.slots, "")
}

// sentenceComplete reports whether buffered slot text ends at a sentence
// boundary: a hard newline, or terminal punctuation optionally followed by
// closing quotes or brackets. The exact rule is a tunable delivery detail,
// not a contract; callers should rely on flush-eventually, not cut points.
func sentenceComplete(s string) bool {
	t := strings.TrimRight(s, " \t")
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "\n") {
		return true
	}
	t = strings.TrimRight(t, "\"')]*_")
	r, _ := utf8.DecodeLastRuneInString(t)
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}
