package m17

import (
	"github.com/sigurn/crc16"
)

// CRC-16 parameters used by every M17 checksum (LSF, packet data)
var crcParams = crc16.Params{
	Poly:   0x5935,
	Init:   0xFFFF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x0000,
	Check:  0x772B,
	Name:   "CRC-16/M17",
}

var crcTable = crc16.MakeTable(crcParams)

// CRC computes the M17 CRC-16 of data
func CRC(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
