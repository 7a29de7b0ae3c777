package sms

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/dbehnke/m17link/internal/m17"
)

// Result is the outcome of feeding one packet frame to the Reassembler
type Result uint8

const (
	ResultIgnored          Result = iota // No message in progress and no start marker
	ResultPending                        // Frame appended, more expected
	ResultGap                            // Out of sequence frame dropped
	ResultAccepted                       // Message complete and new
	ResultDuplicate                      // Message complete but same as the previous one
	ResultChecksumMismatch               // Message complete but corrupt
)

func (r Result) String() string {
	switch r {
	case ResultPending:
		return "pending"
	case ResultGap:
		return "gap"
	case ResultAccepted:
		return "accepted"
	case ResultDuplicate:
		return "duplicate"
	case ResultChecksumMismatch:
		return "checksum mismatch"
	}
	return "ignored"
}

// Message is a received short message
type Message struct {
	Sender     string
	Body       string
	Checksum   uint16
	ReceivedAt time.Time
}

// Reassembler rebuilds short messages from packet frames. Sequence gaps are
// not recovered: out of order frames are dropped and the message will later
// fail its checksum.
type Reassembler struct {
	buf      [MAX_DATA_LENGTH]byte
	length   int
	expected uint8
	sender   string
	active   bool

	lastChecksum uint16
	haveLast     bool

	now func() time.Time
}

// NewReassembler creates an idle reassembler
func NewReassembler() *Reassembler {
	return &Reassembler{now: time.Now}
}

// Active reports whether a message is being collected
func (r *Reassembler) Active() bool {
	return r.active
}

// Abort drops the message in progress. The duplicate window is kept.
func (r *Reassembler) Abort() {
	r.active = false
	r.length = 0
	r.expected = 0
	r.sender = ""
}

// Push feeds one packet frame received from sender. On ResultAccepted the
// decoded message is returned.
func (r *Reassembler) Push(sender string, f m17.PacketFrame) (Result, Message) {
	if !r.active {
		if f.Data[0] != START_MARKER {
			return ResultIgnored, Message{}
		}
		r.Abort()
		r.active = true
		r.sender = sender
	}

	if !f.Last() {
		if f.Sequence() != r.expected || r.length+m17.PACKET_DATA_LENGTH > len(r.buf) {
			return ResultGap, Message{}
		}
		copy(r.buf[r.length:], f.Data[:])
		r.length += m17.PACKET_DATA_LENGTH
		r.expected++
		return ResultPending, Message{}
	}

	n := min(int(f.Sequence()), m17.PACKET_DATA_LENGTH, len(r.buf)-r.length)
	copy(r.buf[r.length:], f.Data[:n])
	r.length += n

	defer r.Abort()
	return r.finish()
}

func (r *Reassembler) finish() (Result, Message) {
	if r.length < 1+CHECKSUM_LENGTH {
		return ResultChecksumMismatch, Message{}
	}

	data := r.buf[:r.length-CHECKSUM_LENGTH]
	carried := binary.LittleEndian.Uint16(r.buf[r.length-CHECKSUM_LENGTH:])
	if m17.CRC(data) != carried {
		return ResultChecksumMismatch, Message{}
	}
	if r.haveLast && carried == r.lastChecksum {
		return ResultDuplicate, Message{}
	}

	r.lastChecksum = carried
	r.haveLast = true

	return ResultAccepted, Message{
		Sender:     r.sender,
		Body:       strings.TrimSuffix(string(data[1:]), "\x00"),
		Checksum:   carried,
		ReceivedAt: r.now(),
	}
}
