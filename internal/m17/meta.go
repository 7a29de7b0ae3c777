package m17

import (
	"encoding/binary"
	"math"
)

// Free text metadata constants
const (
	TEXT_BLOCK_LENGTH = 13 // Text bytes carried per LSF
	MAX_TEXT_BLOCKS   = 4
	MAX_TEXT_LENGTH   = TEXT_BLOCK_LENGTH * MAX_TEXT_BLOCKS
)

// TextBlock is one free-text metadata block
type TextBlock struct {
	Control byte                    // High nibble: blocks-in-message mask, low nibble: one-hot block id
	Text    [TEXT_BLOCK_LENGTH]byte // Space padded
}

// NewTextBlock builds block number index (0-based) of a message with total blocks
func NewTextBlock(index, total int, text []byte) TextBlock {
	var b TextBlock
	b.Control = byte((1<<total)-1)<<4 | byte(1<<index)
	for i := range b.Text {
		b.Text[i] = ' '
	}
	copy(b.Text[:], text)
	return b
}

// ParseTextBlock extracts a text block from LSF metadata
func ParseTextBlock(m Meta) TextBlock {
	var b TextBlock
	b.Control = m[0]
	copy(b.Text[:], m[1:])
	return b
}

// TotalMask returns the bitmask of blocks making up the message
func (b TextBlock) TotalMask() uint8 { return b.Control >> 4 }

// ID returns the one-hot block identifier
func (b TextBlock) ID() uint8 { return b.Control & 0x0F }

// Index converts the one-hot block id into a 0-based index, -1 if malformed
func (b TextBlock) Index() int {
	switch b.ID() {
	case 0x1:
		return 0
	case 0x2:
		return 1
	case 0x4:
		return 2
	case 0x8:
		return 3
	}
	return -1
}

// Meta encodes the block into LSF metadata
func (b TextBlock) Meta() Meta {
	var m Meta
	m[0] = b.Control
	copy(m[1:], b.Text[:])
	return m
}

// ExtendedCallsign carries a relay chain in LSF metadata
type ExtendedCallsign struct {
	Originator string // Ultimate source of the transmission
	Reflector  string // Last relay (reflector) the transmission went through
}

// Meta encodes the callsign pair into LSF metadata
func (e ExtendedCallsign) Meta() (Meta, error) {
	var m Meta

	orig, err := EncodeCallsign(e.Originator)
	if err != nil {
		return m, err
	}
	refl, err := EncodeCallsign(e.Reflector)
	if err != nil {
		return m, err
	}

	copy(m[0:6], orig[:])
	copy(m[6:12], refl[:])
	return m, nil
}

// ParseExtendedCallsign decodes the callsign pair from LSF metadata
func ParseExtendedCallsign(m Meta) ExtendedCallsign {
	var orig, refl [ADDRESS_LENGTH]byte
	copy(orig[:], m[0:6])
	copy(refl[:], m[6:12])

	return ExtendedCallsign{
		Originator: DecodeCallsign(orig),
		Reflector:  DecodeCallsign(refl),
	}
}

// GNSS validity bits
const (
	GNSS_VALID_LATLON   uint8 = 0x8
	GNSS_VALID_ALTITUDE uint8 = 0x4
	GNSS_VALID_BEARING  uint8 = 0x2
	GNSS_VALID_SPEED    uint8 = 0x1
)

// GNSS data sources
const (
	GNSS_SOURCE_M17_CLIENT uint8 = 0
	GNSS_SOURCE_OPENRTX    uint8 = 1
	GNSS_SOURCE_OTHER      uint8 = 15
)

// GNSS station types
const (
	GNSS_STATION_FIXED    uint8 = 0
	GNSS_STATION_MOBILE   uint8 = 1
	GNSS_STATION_HANDHELD uint8 = 2
)

const (
	altitudeOffset = 500.0  // Metres added before encoding
	maxSpeedRaw    = 0x0FFF // 12 bits, 0.5 km/h units
	maxBearing     = 0x01FF // 9 bits
)

// GNSS is a position beacon carried in LSF metadata
type GNSS struct {
	DataSource  uint8
	StationType uint8
	Validity    uint8   // GNSS_VALID_* bits
	Radius      uint8   // 3-bit position uncertainty exponent
	Bearing     uint16  // Degrees, 0-359
	Latitude    int32   // Micro-degrees
	Longitude   int32   // Micro-degrees
	Altitude    float32 // Metres above sea level
	Speed       float32 // km/h
}

// Has reports whether the given validity bit is set
func (g GNSS) Has(bit uint8) bool {
	return g.Validity&bit != 0
}

// Meta encodes the beacon into LSF metadata
func (g GNSS) Meta() Meta {
	var m Meta

	m[0] = (g.DataSource&0x0F)<<4 | g.StationType&0x0F

	bearing := g.Bearing
	if bearing > maxBearing {
		bearing = maxBearing
	}
	m[1] = (g.Validity&0x0F)<<4 | (g.Radius&0x07)<<1 | byte(bearing>>8)&0x01
	m[2] = byte(bearing)

	putInt24(m[3:6], EncodeLatitude(g.Latitude))
	putInt24(m[6:9], EncodeLongitude(g.Longitude))

	alt := math.Round((float64(g.Altitude) + altitudeOffset) * 2)
	alt = math.Max(0, math.Min(alt, math.MaxUint16))
	binary.BigEndian.PutUint16(m[9:11], uint16(alt))

	speed := math.Round(float64(g.Speed) * 2)
	speed = math.Max(0, math.Min(speed, maxSpeedRaw))
	binary.BigEndian.PutUint16(m[11:13], uint16(speed)<<4)

	return m
}

// ParseGNSS decodes a position beacon from LSF metadata.
// Fields whose validity bit is clear are left at their zero value.
func ParseGNSS(m Meta) GNSS {
	g := GNSS{
		DataSource:  m[0] >> 4,
		StationType: m[0] & 0x0F,
		Validity:    m[1] >> 4,
		Radius:      (m[1] >> 1) & 0x07,
	}

	if g.Has(GNSS_VALID_LATLON) {
		g.Latitude = DecodeLatitude(int24(m[3:6]))
		g.Longitude = DecodeLongitude(int24(m[6:9]))
	}
	if g.Has(GNSS_VALID_ALTITUDE) {
		g.Altitude = float32(binary.BigEndian.Uint16(m[9:11]))/2 - altitudeOffset
	}
	if g.Has(GNSS_VALID_BEARING) {
		g.Bearing = uint16(m[1]&0x01)<<8 | uint16(m[2])
	}
	if g.Has(GNSS_VALID_SPEED) {
		g.Speed = float32(binary.BigEndian.Uint16(m[11:13])>>4) / 2
	}

	return g
}
