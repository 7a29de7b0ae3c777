package m17

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// LSF layout constants
const (
	LSF_LENGTH      = 30 // Complete link setup frame including CRC
	LSF_BODY_LENGTH = 28 // Bytes covered by the CRC
	META_LENGTH     = 14 // Metadata field length
)

// Data mode (type bit 0)
type DataMode uint8

const (
	DATA_MODE_PACKET DataMode = 0
	DATA_MODE_STREAM DataMode = 1
)

// Data type (type bits 1-2)
type DataType uint8

const (
	DATA_TYPE_RESERVED   DataType = 0
	DATA_TYPE_DATA       DataType = 1
	DATA_TYPE_VOICE      DataType = 2
	DATA_TYPE_VOICE_DATA DataType = 3
)

// Encryption type (type bits 3-4)
type EncryptionType uint8

const (
	ENCRYPTION_NONE      EncryptionType = 0
	ENCRYPTION_SCRAMBLER EncryptionType = 1
	ENCRYPTION_AES       EncryptionType = 2
)

// MetaType selects the metadata layout when encryption is none (type bits 5-6)
type MetaType uint8

const (
	META_TEXT          MetaType = 0
	META_GNSS          MetaType = 1
	META_EXTD_CALLSIGN MetaType = 2
)

// ErrShortFrame is returned when a buffer is too short for the frame it should hold
var ErrShortFrame = errors.New("frame too short")

// ErrBadCRC is returned when a received LSF fails its checksum
var ErrBadCRC = errors.New("lsf checksum mismatch")

// StreamType is the 16-bit LSF type field
type StreamType uint16

func (t StreamType) DataMode() DataMode             { return DataMode(t & 0x01) }
func (t StreamType) DataType() DataType             { return DataType((t >> 1) & 0x03) }
func (t StreamType) EncryptionType() EncryptionType { return EncryptionType((t >> 3) & 0x03) }
func (t StreamType) MetaType() MetaType             { return MetaType((t >> 5) & 0x03) }
func (t StreamType) CAN() uint8                     { return uint8((t >> 7) & 0x0F) }

// WithDataMode returns a copy of t with the data mode replaced
func (t StreamType) WithDataMode(m DataMode) StreamType {
	return (t &^ 0x0001) | StreamType(m&0x01)
}

// WithDataType returns a copy of t with the data type replaced
func (t StreamType) WithDataType(d DataType) StreamType {
	return (t &^ 0x0006) | StreamType(d&0x03)<<1
}

// WithEncryption returns a copy of t with encryption type and sub-type replaced
func (t StreamType) WithEncryption(e EncryptionType, sub MetaType) StreamType {
	return (t &^ 0x0078) | StreamType(e&0x03)<<3 | StreamType(sub&0x03)<<5
}

// WithCAN returns a copy of t with the channel access number replaced
func (t StreamType) WithCAN(can uint8) StreamType {
	return (t &^ 0x0780) | StreamType(can&0x0F)<<7
}

// Meta is the 14-byte LSF metadata field
type Meta [META_LENGTH]byte

// LinkSetupFrame holds a decoded or to-be-transmitted LSF.
// Addresses are kept in their encoded form so that a frame always
// re-encodes to the exact bytes it was parsed from.
type LinkSetupFrame struct {
	dst  [ADDRESS_LENGTH]byte
	src  [ADDRESS_LENGTH]byte
	typ  StreamType
	meta Meta
	crc  uint16
}

// NewLSF creates a voice stream LSF for the given callsigns and CAN.
// The CRC is not computed until UpdateCRC is called.
func NewLSF(source, destination string, can uint8) (LinkSetupFrame, error) {
	var lsf LinkSetupFrame

	if err := lsf.SetSource(source); err != nil {
		return lsf, err
	}
	if destination == "" {
		destination = BROADCAST_CALLSIGN
	}
	if err := lsf.SetDestination(destination); err != nil {
		return lsf, err
	}

	lsf.typ = StreamType(0).
		WithDataMode(DATA_MODE_STREAM).
		WithDataType(DATA_TYPE_VOICE).
		WithEncryption(ENCRYPTION_NONE, META_TEXT).
		WithCAN(can)

	return lsf, nil
}

// ParseLSF decodes a 30-byte LSF. The CRC is not checked; use Valid.
func ParseLSF(data []byte) (LinkSetupFrame, error) {
	var lsf LinkSetupFrame

	if len(data) < LSF_LENGTH {
		return lsf, fmt.Errorf("%w: LSF got %d bytes, need %d", ErrShortFrame, len(data), LSF_LENGTH)
	}

	copy(lsf.dst[:], data[0:6])
	copy(lsf.src[:], data[6:12])
	lsf.typ = StreamType(binary.BigEndian.Uint16(data[12:14]))
	copy(lsf.meta[:], data[14:28])
	lsf.crc = binary.BigEndian.Uint16(data[28:30])

	return lsf, nil
}

// Bytes returns the 30-byte wire representation
func (l *LinkSetupFrame) Bytes() []byte {
	data := l.body()
	return binary.BigEndian.AppendUint16(data, l.crc)
}

func (l *LinkSetupFrame) body() []byte {
	data := make([]byte, LSF_BODY_LENGTH, LSF_LENGTH)
	copy(data[0:6], l.dst[:])
	copy(data[6:12], l.src[:])
	binary.BigEndian.PutUint16(data[12:14], uint16(l.typ))
	copy(data[14:28], l.meta[:])
	return data
}

// UpdateCRC recomputes the checksum over the current contents
func (l *LinkSetupFrame) UpdateCRC() {
	l.crc = CRC(l.body())
}

// Valid reports whether the stored checksum matches the contents
func (l *LinkSetupFrame) Valid() bool {
	return l.crc == CRC(l.body())
}

// CRC returns the stored checksum
func (l *LinkSetupFrame) CRC() uint16 { return l.crc }

// Source returns the decoded source callsign
func (l *LinkSetupFrame) Source() string { return DecodeCallsign(l.src) }

// Destination returns the decoded destination callsign
func (l *LinkSetupFrame) Destination() string { return DecodeCallsign(l.dst) }

// SetSource encodes and stores the source callsign
func (l *LinkSetupFrame) SetSource(callsign string) error {
	enc, err := EncodeCallsign(callsign)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	l.src = enc
	return nil
}

// SetDestination encodes and stores the destination callsign
func (l *LinkSetupFrame) SetDestination(callsign string) error {
	enc, err := EncodeCallsign(callsign)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	l.dst = enc
	return nil
}

// Type returns the type field
func (l *LinkSetupFrame) Type() StreamType { return l.typ }

// SetType replaces the type field
func (l *LinkSetupFrame) SetType(t StreamType) { l.typ = t }

// Meta returns the metadata field
func (l *LinkSetupFrame) Meta() Meta { return l.meta }

// SetMeta replaces the metadata field and the metadata sub-type
func (l *LinkSetupFrame) SetMeta(kind MetaType, meta Meta) {
	l.typ = l.typ.WithEncryption(ENCRYPTION_NONE, kind)
	l.meta = meta
}

// ClearMeta zeroes the metadata field and marks it as (empty) free text
func (l *LinkSetupFrame) ClearMeta() {
	l.SetMeta(META_TEXT, Meta{})
}
