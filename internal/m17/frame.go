package m17

import (
	"encoding/binary"
	"fmt"
)

// Frame sync words
const (
	SYNC_LSF    uint16 = 0x55F7
	SYNC_STREAM uint16 = 0xFF5D
	SYNC_PACKET uint16 = 0x75FF
	SYNC_EOT    uint16 = 0x555D
)

// Frame layout constants
const (
	SYNC_LENGTH           = 2
	LICH_LENGTH           = 6  // 5 LSF bytes + counter byte
	LICH_CHUNK_LENGTH     = 5  // LSF bytes carried per stream frame
	LICH_CHUNKS           = 6  // Stream frames needed to carry a whole LSF
	STREAM_PAYLOAD_LENGTH = 16 // Two 8-byte codec frames
	STREAM_BODY_LENGTH    = LICH_LENGTH + 2 + STREAM_PAYLOAD_LENGTH
	PACKET_DATA_LENGTH    = 25
	PACKET_BODY_LENGTH    = PACKET_DATA_LENGTH + 1
	MAX_PACKET_SEQUENCE   = 31

	LSF_FRAME_LENGTH    = SYNC_LENGTH + LSF_LENGTH
	STREAM_FRAME_LENGTH = SYNC_LENGTH + STREAM_BODY_LENGTH
	PACKET_FRAME_LENGTH = SYNC_LENGTH + PACKET_BODY_LENGTH
	EOT_FRAME_LENGTH    = STREAM_FRAME_LENGTH

	frameNumberLast = 0x8000
	frameNumberMask = 0x7FFF
	lichFullMask    = 0x3F
)

// FrameType classifies a decoded frame
type FrameType uint8

const (
	FRAME_UNKNOWN FrameType = iota
	FRAME_LSF
	FRAME_STREAM
	FRAME_PACKET
	FRAME_EOT
)

func (t FrameType) String() string {
	switch t {
	case FRAME_LSF:
		return "LSF"
	case FRAME_STREAM:
		return "STREAM"
	case FRAME_PACKET:
		return "PACKET"
	case FRAME_EOT:
		return "EOT"
	}
	return "UNKNOWN"
}

// StreamFrame is one 40 ms slice of a voice stream
type StreamFrame struct {
	FrameNumber uint16 // 15-bit counter, filled in by the encoder
	Last        bool   // End of transmission flag
	Payload     [STREAM_PAYLOAD_LENGTH]byte
}

// PacketFrame is one 25-byte slice of a packet-mode datagram
type PacketFrame struct {
	Data    [PACKET_DATA_LENGTH]byte
	Control byte // bit 7: last frame, bits 6-2: sequence number or byte count
}

// NewPacketFrame builds a packet frame. For the last frame seq is the
// number of valid bytes in data.
func NewPacketFrame(data []byte, seq uint8, last bool) PacketFrame {
	var p PacketFrame
	copy(p.Data[:], data)
	p.Control = (seq & 0x1F) << 2
	if last {
		p.Control |= 0x80
	}
	return p
}

// Sequence returns the 5-bit sequence field
func (p PacketFrame) Sequence() uint8 { return (p.Control >> 2) & 0x1F }

// Last reports whether this is the final frame of the datagram
func (p PacketFrame) Last() bool { return p.Control&0x80 != 0 }

func withSync(sync uint16, body []byte) []byte {
	frame := make([]byte, SYNC_LENGTH, SYNC_LENGTH+len(body))
	binary.BigEndian.PutUint16(frame, sync)
	return append(frame, body...)
}

// Encoder builds on-air frames. The LSF carried in the stream LICH can be
// replaced with UpdateLSF; the change takes effect at the next super-frame.
type Encoder struct {
	current     LinkSetupFrame
	pending     LinkSetupFrame
	havePending bool
	lichCounter uint8
	frameNumber uint16
}

// NewEncoder creates a new frame encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Reset clears all encoder state
func (e *Encoder) Reset() {
	*e = Encoder{}
}

// EncodeLSF recomputes the LSF checksum and returns the LSF frame.
// The LSF becomes the one carried by subsequent stream frames.
func (e *Encoder) EncodeLSF(lsf LinkSetupFrame) []byte {
	lsf.UpdateCRC()

	e.current = lsf
	e.havePending = false
	e.lichCounter = 0
	e.frameNumber = 0

	return withSync(SYNC_LSF, lsf.Bytes())
}

// UpdateLSF stages a new LSF for the LICH, applied at the next counter wrap
func (e *Encoder) UpdateLSF(lsf LinkSetupFrame) {
	lsf.UpdateCRC()
	e.pending = lsf
	e.havePending = true
}

// CurrentLSF returns the LSF currently being carried in the LICH
func (e *Encoder) CurrentLSF() LinkSetupFrame {
	return e.current
}

// EncodeStream returns one stream frame
func (e *Encoder) EncodeStream(sf StreamFrame) []byte {
	if e.lichCounter == 0 && e.havePending {
		e.current = e.pending
		e.havePending = false
	}

	body := make([]byte, STREAM_BODY_LENGTH)

	raw := e.current.Bytes()
	offset := int(e.lichCounter) * LICH_CHUNK_LENGTH
	copy(body[0:5], raw[offset:offset+LICH_CHUNK_LENGTH])
	body[5] = e.lichCounter << 5

	fn := e.frameNumber
	if sf.Last {
		fn |= frameNumberLast
	}
	binary.BigEndian.PutUint16(body[6:8], fn)
	copy(body[8:], sf.Payload[:])

	e.frameNumber = (e.frameNumber + 1) & frameNumberMask
	e.lichCounter = (e.lichCounter + 1) % LICH_CHUNKS

	return withSync(SYNC_STREAM, body)
}

// EncodePacket returns one packet frame
func (e *Encoder) EncodePacket(pf PacketFrame) []byte {
	body := make([]byte, PACKET_BODY_LENGTH)
	copy(body, pf.Data[:])
	body[PACKET_DATA_LENGTH] = pf.Control
	return withSync(SYNC_PACKET, body)
}

// EncodeEOT returns the end of transmission frame
func (e *Encoder) EncodeEOT() []byte {
	frame := make([]byte, EOT_FRAME_LENGTH)
	for i := 0; i < len(frame); i += 2 {
		binary.BigEndian.PutUint16(frame[i:], SYNC_EOT)
	}
	return frame
}

// Decoder classifies received frames and keeps the most recent LSF,
// either received whole or rebuilt from six LICH chunks.
type Decoder struct {
	lsf      LinkSetupFrame
	lich     [LSF_LENGTH]byte
	lichMask uint8
	fresh    bool
	stream   StreamFrame
	packet   PacketFrame
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset drops all partial state
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Decode processes one received frame
func (d *Decoder) Decode(frame []byte) (FrameType, error) {
	if len(frame) < SYNC_LENGTH {
		return FRAME_UNKNOWN, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(frame))
	}

	body := frame[SYNC_LENGTH:]
	d.fresh = false

	switch binary.BigEndian.Uint16(frame) {
	case SYNC_LSF:
		lsf, err := ParseLSF(body)
		if err != nil {
			return FRAME_UNKNOWN, err
		}
		if !lsf.Valid() {
			return FRAME_LSF, ErrBadCRC
		}
		d.lsf = lsf
		d.fresh = true
		d.lichMask = 0
		return FRAME_LSF, nil

	case SYNC_STREAM:
		if len(body) < STREAM_BODY_LENGTH {
			return FRAME_UNKNOWN, fmt.Errorf("%w: stream frame got %d bytes, need %d", ErrShortFrame, len(body), STREAM_BODY_LENGTH)
		}
		d.collectLICH(body[0:LICH_LENGTH])

		fn := binary.BigEndian.Uint16(body[6:8])
		d.stream.FrameNumber = fn & frameNumberMask
		d.stream.Last = fn&frameNumberLast != 0
		copy(d.stream.Payload[:], body[8:STREAM_BODY_LENGTH])
		return FRAME_STREAM, nil

	case SYNC_PACKET:
		if len(body) < PACKET_BODY_LENGTH {
			return FRAME_UNKNOWN, fmt.Errorf("%w: packet frame got %d bytes, need %d", ErrShortFrame, len(body), PACKET_BODY_LENGTH)
		}
		copy(d.packet.Data[:], body[:PACKET_DATA_LENGTH])
		d.packet.Control = body[PACKET_DATA_LENGTH]
		return FRAME_PACKET, nil

	case SYNC_EOT:
		return FRAME_EOT, nil
	}

	return FRAME_UNKNOWN, nil
}

func (d *Decoder) collectLICH(lich []byte) {
	counter := lich[5] >> 5
	if counter >= LICH_CHUNKS {
		return
	}

	offset := int(counter) * LICH_CHUNK_LENGTH
	copy(d.lich[offset:offset+LICH_CHUNK_LENGTH], lich[0:LICH_CHUNK_LENGTH])
	d.lichMask |= 1 << counter

	if d.lichMask != lichFullMask {
		return
	}
	d.lichMask = 0

	lsf, err := ParseLSF(d.lich[:])
	if err == nil && lsf.Valid() {
		d.lsf = lsf
		d.fresh = true
	}
}

// LSF returns the most recently received link setup frame
func (d *Decoder) LSF() LinkSetupFrame { return d.lsf }

// FreshLSF reports whether the last decoded frame completed a new LSF,
// either an LSF frame or the sixth LICH chunk of a super-frame
func (d *Decoder) FreshLSF() bool { return d.fresh }

// StreamFrame returns the payload of the last decoded stream frame
func (d *Decoder) StreamFrame() StreamFrame { return d.stream }

// PacketFrame returns the payload of the last decoded packet frame
func (d *Decoder) PacketFrame() PacketFrame { return d.packet }
