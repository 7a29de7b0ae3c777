// Package sms carries short text messages over M17 packet mode: fragmenting
// outgoing messages, reassembling incoming ones and keeping the last few.
package sms

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dbehnke/m17link/internal/m17"
)

// Short message framing constants
const (
	START_MARKER    byte = 0x05 // Packet protocol id for text messages
	CHECKSUM_LENGTH      = 2
	MAX_FRAMES           = m17.MAX_PACKET_SEQUENCE + 2 // seq 0..31 plus the last frame
	MAX_DATA_LENGTH      = MAX_FRAMES * m17.PACKET_DATA_LENGTH
	MAX_BODY_LENGTH      = MAX_DATA_LENGTH - 1 - CHECKSUM_LENGTH
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
)

// Encode wraps a message body as marker + body + checksum
func Encode(body string) ([]byte, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > MAX_BODY_LENGTH {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrMessageTooLong, len(body), MAX_BODY_LENGTH)
	}

	data := make([]byte, 0, len(body)+1+CHECKSUM_LENGTH)
	data = append(data, START_MARKER)
	data = append(data, body...)
	data = binary.LittleEndian.AppendUint16(data, m17.CRC(data))
	return data, nil
}

// Fragment splits a message into packet frames. All frames but the last
// carry a sequence number; the last carries its byte count.
func Fragment(body string) ([]m17.PacketFrame, error) {
	data, err := Encode(body)
	if err != nil {
		return nil, err
	}

	count := (len(data) + m17.PACKET_DATA_LENGTH - 1) / m17.PACKET_DATA_LENGTH
	frames := make([]m17.PacketFrame, 0, count)
	for i := 0; i < count; i++ {
		start := i * m17.PACKET_DATA_LENGTH
		end := min(start+m17.PACKET_DATA_LENGTH, len(data))
		if i == count-1 {
			frames = append(frames, m17.NewPacketFrame(data[start:end], uint8(end-start), true))
		} else {
			frames = append(frames, m17.NewPacketFrame(data[start:end], uint8(i), false))
		}
	}
	return frames, nil
}
