package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dbehnke/m17link/internal/m17"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		controls []byte
	}{
		{name: "empty", text: "", controls: nil},
		{name: "blank", text: "     ", controls: nil},
		{name: "single block", text: "hello", controls: []byte{0x11}},
		{name: "exact block", text: "0123456789abc", controls: []byte{0x11}},
		{name: "two blocks", text: "0123456789abcd", controls: []byte{0x31, 0x32}},
		{name: "full", text: strings.Repeat("x", 52), controls: []byte{0xF1, 0xF2, 0xF4, 0xF8}},
		{name: "truncated", text: strings.Repeat("y", 80), controls: []byte{0xF1, 0xF2, 0xF4, 0xF8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := SplitText(tt.text)
			require.Len(t, blocks, len(tt.controls))
			for i, b := range blocks {
				assert.Equal(t, tt.controls[i], b.Control, "block %d", i)
			}
		})
	}
}

func TestSplitTextReplacesNonPrintable(t *testing.T) {
	blocks := SplitText("a\tbéc")
	require.Len(t, blocks, 1)
	assert.Equal(t, "a b c", strings.TrimRight(string(blocks[0].Text[:]), " "))
}

func TestReassembleInOrder(t *testing.T) {
	var r TextReassembler
	blocks := SplitText("M17 is an open digital radio protocol")
	require.Len(t, blocks, 3)

	for _, b := range blocks[:2] {
		_, done := r.Push(b)
		assert.False(t, done)
	}
	text, done := r.Push(blocks[2])
	assert.True(t, done)
	assert.Equal(t, "M17 is an open digital radio protocol", text)
}

func TestReassembleRequiresFirstBlock(t *testing.T) {
	var r TextReassembler
	blocks := SplitText(strings.Repeat("z", 30))
	require.Len(t, blocks, 3)

	// Late entry: blocks 2 and 3 alone never complete a message
	_, done := r.Push(blocks[1])
	assert.False(t, done)
	_, done = r.Push(blocks[2])
	assert.False(t, done)

	for _, b := range blocks {
		_, done = r.Push(b)
	}
	assert.True(t, done)
}

func TestReassembleIgnoresMalformed(t *testing.T) {
	var r TextReassembler
	cases := []m17.TextBlock{
		{Control: 0x00},
		{Control: 0x13}, // id not one-hot
		{Control: 0x12}, // id outside total mask
	}
	for _, b := range cases {
		_, done := r.Push(b)
		assert.False(t, done)
	}
}

func TestReassembleRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,51}[!-~]`).Draw(t, "text")

		var r TextReassembler
		var got string
		var done bool
		for _, b := range SplitText(text) {
			got, done = r.Push(b)
		}
		if !done {
			t.Fatalf("message %q never completed", text)
		}
		if got != text {
			t.Fatalf("got %q, want %q", got, text)
		}
	})
}

// Blocks are space padded on the air, so trailing spaces cannot survive
// the trip and an all-blank message is not sent at all.
func TestReassembleDropsTrailingSpacesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,48} {0,4}`).Draw(t, "text")
		want := strings.TrimRight(text, " ")

		blocks := SplitText(text)
		if want == "" {
			if len(blocks) != 0 {
				t.Fatalf("blank message %q produced %d blocks", text, len(blocks))
			}
			return
		}

		var r TextReassembler
		var got string
		var done bool
		for _, b := range blocks {
			got, done = r.Push(b)
		}
		if !done {
			t.Fatalf("message %q never completed", text)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})
}

func TestReassembleOutOfOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[!-~]{14,52}`).Draw(t, "text")
		blocks := SplitText(text)

		// Every block except the first, in any order, yields nothing
		rest := blocks[1:]
		perm := rapid.Permutation(rest).Draw(t, "order")
		var r TextReassembler
		for _, b := range perm {
			if _, done := r.Push(b); done {
				t.Fatalf("completed without first block")
			}
		}
	})
}
