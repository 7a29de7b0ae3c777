package m17

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRCKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected uint16
	}{
		{name: "empty", input: []byte{}, expected: 0xFFFF},
		{name: "single A", input: []byte("A"), expected: 0x206E},
		{name: "check string", input: []byte("123456789"), expected: 0x772B},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CRC(tt.input))
		})
	}
}
