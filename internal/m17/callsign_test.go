package m17

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeCallsign(t *testing.T) {
	tests := []struct {
		name     string
		callsign string
		expected [ADDRESS_LENGTH]byte
		wantErr  bool
	}{
		{
			name:     "empty callsign",
			callsign: "",
			expected: [ADDRESS_LENGTH]byte{},
		},
		{
			name:     "single character",
			callsign: "A",
			expected: [ADDRESS_LENGTH]byte{0, 0, 0, 0, 0, 1},
		},
		{
			name:     "broadcast",
			callsign: "ALL",
			expected: [ADDRESS_LENGTH]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name:     "lower case folded",
			callsign: "ab",
			expected: [ADDRESS_LENGTH]byte{0, 0, 0, 0, 0, 81}, // 1 + 2*40
		},
		{
			name:     "too long",
			callsign: "ABCDEFGHIJ",
			wantErr:  true,
		},
		{
			name:     "unsupported character",
			callsign: "N0CALL#",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCallsign(tt.callsign)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCallsign)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodeReservedAddress(t *testing.T) {
	// 40^9 is the first address outside the callsign space
	reserved := [ADDRESS_LENGTH]byte{0xEE, 0x6B, 0x28, 0x00, 0x00, 0x00}
	assert.Equal(t, "", DecodeCallsign(reserved))
}

func TestCallsignRoundTrip(t *testing.T) {
	alphabet := []rune(base40Chars[1:]) // no leading space

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, MAX_CALLSIGN_CHARS).Draw(t, "len")
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = rapid.SampledFrom(alphabet).Draw(t, "char")
		}
		callsign := string(runes)

		enc, err := EncodeCallsign(callsign)
		require.NoError(t, err)

		if callsign == BROADCAST_CALLSIGN {
			assert.Equal(t, BROADCAST_CALLSIGN, DecodeCallsign(enc))
			return
		}
		assert.Equal(t, callsign, DecodeCallsign(enc))
	})
}
