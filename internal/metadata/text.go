package metadata

import (
	"math/bits"
	"strings"

	"github.com/dbehnke/m17link/internal/m17"
)

// SplitText cuts a free-text message into metadata blocks. Characters
// outside printable ASCII become spaces and the text is capped at 52 bytes.
// An empty or all-blank message yields no blocks.
func SplitText(text string) []m17.TextBlock {
	clean := make([]byte, 0, m17.MAX_TEXT_LENGTH)
	for _, r := range text {
		if len(clean) == m17.MAX_TEXT_LENGTH {
			break
		}
		if r < 0x20 || r > 0x7E {
			r = ' '
		}
		clean = append(clean, byte(r))
	}
	trimmed := strings.TrimRight(string(clean), " ")
	if trimmed == "" {
		return nil
	}

	total := (len(trimmed) + m17.TEXT_BLOCK_LENGTH - 1) / m17.TEXT_BLOCK_LENGTH
	blocks := make([]m17.TextBlock, 0, total)
	for i := 0; i < total; i++ {
		start := i * m17.TEXT_BLOCK_LENGTH
		end := min(start+m17.TEXT_BLOCK_LENGTH, len(trimmed))
		blocks = append(blocks, m17.NewTextBlock(i, total, []byte(trimmed[start:end])))
	}
	return blocks
}

// TextReassembler collects text blocks received in successive LSFs.
// Collection starts at block 1; blocks seen before it are dropped.
type TextReassembler struct {
	buf      [m17.MAX_TEXT_LENGTH]byte
	total    uint8
	received uint8
	started  bool
}

// Reset drops any partial message
func (r *TextReassembler) Reset() {
	*r = TextReassembler{}
}

// Push adds a block and returns the complete message once every block
// named by the total mask has arrived.
func (r *TextReassembler) Push(b m17.TextBlock) (string, bool) {
	idx := b.Index()
	total := b.TotalMask()
	if idx < 0 || total == 0 || b.ID()&total == 0 {
		return "", false
	}

	if idx == 0 {
		r.Reset()
		r.started = true
		r.total = total
		for i := range r.buf {
			r.buf[i] = ' '
		}
	}
	if !r.started || total != r.total {
		return "", false
	}

	copy(r.buf[idx*m17.TEXT_BLOCK_LENGTH:], b.Text[:])
	r.received |= b.ID()
	if r.received != r.total {
		return "", false
	}

	n := bits.Len8(r.total) * m17.TEXT_BLOCK_LENGTH
	text := strings.TrimRight(string(r.buf[:n]), " \x00")
	r.Reset()
	return text, true
}
