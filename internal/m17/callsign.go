package m17

import (
	"errors"
	"fmt"
	"strings"
)

// Callsign address constants
const (
	ADDRESS_LENGTH     = 6     // Encoded address length in bytes
	MAX_CALLSIGN_CHARS = 9     // Longest callsign representable in base-40
	BROADCAST_CALLSIGN = "ALL" // Callsign mapped to the broadcast address
)

const base40Chars = " ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-/."

const (
	addressBroadcast uint64 = 0xFFFFFFFFFFFF
	addressReserved  uint64 = 262144000000000 // 40^9
)

// ErrInvalidCallsign is returned when a callsign cannot be base-40 encoded
var ErrInvalidCallsign = errors.New("invalid callsign")

// EncodeCallsign converts a callsign into its 6-byte base-40 address.
// Lower case letters are folded to upper case and trailing spaces dropped.
func EncodeCallsign(callsign string) ([ADDRESS_LENGTH]byte, error) {
	var out [ADDRESS_LENGTH]byte

	callsign = strings.ToUpper(strings.TrimRight(callsign, " "))
	if callsign == BROADCAST_CALLSIGN {
		putAddress(out[:], addressBroadcast)
		return out, nil
	}

	if len(callsign) > MAX_CALLSIGN_CHARS {
		return out, fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidCallsign, callsign, MAX_CALLSIGN_CHARS)
	}

	var address uint64
	for i := len(callsign) - 1; i >= 0; i-- {
		idx := strings.IndexByte(base40Chars, callsign[i])
		if idx < 0 {
			return out, fmt.Errorf("%w: unsupported character %q in %q", ErrInvalidCallsign, callsign[i], callsign)
		}
		address = address*40 + uint64(idx)
	}

	putAddress(out[:], address)
	return out, nil
}

// DecodeCallsign converts a 6-byte base-40 address back into a callsign.
// Reserved addresses decode to the empty string.
func DecodeCallsign(encoded [ADDRESS_LENGTH]byte) string {
	address := getAddress(encoded[:])

	if address == addressBroadcast {
		return BROADCAST_CALLSIGN
	}
	if address >= addressReserved {
		return ""
	}

	var sb strings.Builder
	for address > 0 {
		sb.WriteByte(base40Chars[address%40])
		address /= 40
	}

	return sb.String()
}

// ValidCallsign reports whether the callsign can be encoded
func ValidCallsign(callsign string) bool {
	_, err := EncodeCallsign(callsign)
	return err == nil
}

func putAddress(b []byte, address uint64) {
	for i := ADDRESS_LENGTH - 1; i >= 0; i-- {
		b[i] = byte(address & 0xFF)
		address >>= 8
	}
}

func getAddress(b []byte) uint64 {
	var address uint64
	for i := 0; i < ADDRESS_LENGTH; i++ {
		address = address<<8 | uint64(b[i])
	}
	return address
}
