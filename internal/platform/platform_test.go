package platform

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestManualPlatform(t *testing.T) {
	m := NewManual(true, log.New(io.Discard))
	assert.True(t, m.TxPhaseInverted())
	assert.False(t, m.PTT())

	m.SetPTT(true)
	assert.True(t, m.PTT())

	m.SetIndicator(INDICATOR_TX, true)
	m.SetIndicator(INDICATOR_TX, true)
	assert.True(t, m.Indicator(INDICATOR_TX))
	assert.False(t, m.Indicator(INDICATOR_RX))
	assert.Equal(t, 1, m.Changes(), "repeated writes are not changes")

	m.SetIndicator(INDICATOR_TX, false)
	assert.Equal(t, 2, m.Changes())
	assert.Equal(t, "tx", INDICATOR_TX.String())
}
