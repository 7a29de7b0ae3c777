package opmode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/platform"
)

func TestNewRequiresDevices(t *testing.T) {
	_, err := New(Devices{}, nil)
	assert.ErrorIs(t, err, errMissingDevice)
}

func TestEnableArmsReceive(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.demod.inits)
	assert.Equal(t, 1, h.mod.inits)
	assert.Equal(t, STATE_OFF, h.engine.State())

	h.update()
	assert.Equal(t, STATE_RX, h.engine.State())
	assert.Equal(t, OPSTATUS_RX, h.status.OpStatus)
	assert.True(t, h.demod.sampling)

	// A second enable is a no-op
	require.NoError(t, h.engine.Enable())
	assert.Equal(t, 1, h.demod.inits)
}

func (h *harness) toTxStream(t *testing.T) {
	t.Helper()
	h.toIdleOff(t)
	h.platform.ptt = true
	h.update()
	require.Equal(t, STATE_TX_STREAM, h.engine.State())
}

func (h *harness) toTxPacket(t *testing.T) {
	t.Helper()
	h.toIdleOff(t)
	h.status.PendingSMS = true
	h.status.SMSMessage = "hello"
	h.update()
	require.Equal(t, STATE_TX_PACKET, h.engine.State())
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness, t *testing.T)
		ptt       bool
		pending   bool
		txDisable bool
		want      State
		sleeps    int
	}{
		{name: "enable arms receive", setup: func(*harness, *testing.T) {}, want: STATE_RX},
		{name: "rx stays without input", setup: (*harness).toRX, want: STATE_RX},
		{name: "rx to off on ptt", setup: (*harness).toRX, ptt: true, want: STATE_OFF},
		{name: "rx to off on pending message", setup: (*harness).toRX, pending: true, want: STATE_OFF},
		{name: "rx keeps listening when tx disabled", setup: (*harness).toRX, pending: true, txDisable: true, want: STATE_RX},
		{name: "off to tx stream on ptt", setup: (*harness).toIdleOff, ptt: true, want: STATE_TX_STREAM},
		{name: "off waits while tx disabled", setup: (*harness).toIdleOff, ptt: true, txDisable: true, want: STATE_OFF, sleeps: 1},
		{name: "off to tx packet on pending message", setup: (*harness).toIdleOff, pending: true, want: STATE_TX_PACKET},
		{name: "pending message waits while tx disabled", setup: (*harness).toIdleOff, pending: true, txDisable: true, want: STATE_OFF, sleeps: 1},
		{name: "tx stream continues while ptt held", setup: (*harness).toTxStream, ptt: true, want: STATE_TX_STREAM},
		{name: "tx stream ends on release", setup: (*harness).toTxStream, want: STATE_OFF},
		{name: "tx packet always ends", setup: (*harness).toTxPacket, pending: true, want: STATE_OFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h, t)

			h.platform.ptt = tt.ptt
			h.status.PendingSMS = tt.pending
			h.status.SMSMessage = "hello"
			h.status.TxDisable = tt.txDisable
			sleeps := h.sleeps

			h.update()
			assert.Equal(t, tt.want, h.engine.State())
			assert.Equal(t, tt.want.opStatus(), h.status.OpStatus)
			assert.Equal(t, tt.sleeps, h.sleeps-sleeps)
		})
	}
}

func TestIdleOffRearmsReceive(t *testing.T) {
	h := newHarness(t)
	h.toIdleOff(t)

	h.update()
	assert.Equal(t, STATE_OFF, h.engine.State())
	h.update()
	assert.Equal(t, STATE_RX, h.engine.State())
	assert.Equal(t, 2, h.demod.startSampling)
	assert.Equal(t, 1, h.demod.stopSampling)
}

func TestStreamTransmission(t *testing.T) {
	h := newHarness(t)
	h.platform.invert = true
	h.toTxStream(t)

	assert.True(t, h.mod.invert)
	assert.Equal(t, 1, h.mod.starts)
	assert.Equal(t, 1, h.mod.preambles)
	assert.Equal(t, 1, h.codec.encodes)
	assert.True(t, h.platform.leds[platform.INDICATOR_TX])

	h.codec.mic = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := 0; i < 5; i++ {
		h.update()
	}
	h.platform.ptt = false
	h.update()

	assert.Equal(t, STATE_OFF, h.engine.State())
	assert.Equal(t, 1, h.mod.stops)
	assert.Equal(t, 1, h.codec.stops)
	assert.Equal(t, 1, h.codec.releases)

	want := []uint16{m17.SYNC_LSF}
	for i := 0; i < 6; i++ {
		want = append(want, m17.SYNC_STREAM)
	}
	want = append(want, m17.SYNC_EOT)
	assert.Equal(t, want, h.mod.syncs())

	dec := m17.NewDecoder()
	for i, frame := range h.mod.sent[1:7] {
		typ, err := dec.Decode(frame)
		require.NoError(t, err)
		require.Equal(t, m17.FRAME_STREAM, typ)
		assert.Equal(t, i == 5, dec.StreamFrame().Last, "frame %d", i)
		assert.Equal(t, byte(1), dec.StreamFrame().Payload[0])
		assert.Equal(t, byte(1), dec.StreamFrame().Payload[8])
	}

	// The transmit light went on and off exactly once
	assert.Equal(t, []ledChange{{platform.INDICATOR_TX, true}, {platform.INDICATOR_TX, false}}, h.platform.changes)

	h.update()
	assert.Equal(t, STATE_RX, h.engine.State())
}

func TestStreamEndsWhenMicrophoneStops(t *testing.T) {
	h := newHarness(t)
	h.toTxStream(t)

	h.codec.micClosed = true
	h.update()
	assert.Equal(t, STATE_OFF, h.engine.State())
	assert.Equal(t, m17.SYNC_EOT, h.mod.syncs()[len(h.mod.sent)-1])
}

func TestStreamRefusedWhenMicrophoneBusy(t *testing.T) {
	h := newHarness(t)
	h.toIdleOff(t)
	h.codec.refuse = true
	h.platform.ptt = true
	sleeps := h.sleeps

	h.update()
	assert.Equal(t, STATE_OFF, h.engine.State())
	assert.Equal(t, 0, h.mod.starts)
	assert.Equal(t, 1, h.sleeps-sleeps)
}

func TestPacketTransmission(t *testing.T) {
	h := newHarness(t)
	h.status.SMSDestination = "AB1CD"
	h.toTxPacket(t)

	h.update()
	assert.Equal(t, STATE_OFF, h.engine.State())
	assert.False(t, h.status.PendingSMS)
	assert.Equal(t, []uint16{m17.SYNC_LSF, m17.SYNC_PACKET, m17.SYNC_EOT}, h.mod.syncs())
	assert.Equal(t, 1, h.mod.stops)

	dec := m17.NewDecoder()
	_, err := dec.Decode(h.mod.sent[0])
	require.NoError(t, err)
	lsf := dec.LSF()
	assert.Equal(t, m17.DATA_MODE_PACKET, lsf.Type().DataMode())
	assert.Equal(t, "AB1CD", lsf.Destination())
	assert.Equal(t, "N0CALL", lsf.Source())

	assert.Equal(t, []ledChange{{platform.INDICATOR_TX, true}, {platform.INDICATOR_TX, false}}, h.platform.changes)

	h.update()
	assert.Equal(t, STATE_RX, h.engine.State())
}

func TestEmptyPendingMessageAborts(t *testing.T) {
	h := newHarness(t)
	h.toTxPacket(t)
	h.status.SMSMessage = ""

	h.update()
	assert.Equal(t, STATE_OFF, h.engine.State())
	assert.False(t, h.status.PendingSMS)
	assert.Empty(t, h.mod.sent)
	assert.Equal(t, 0, h.mod.starts)

	h.update()
	assert.Equal(t, STATE_RX, h.engine.State())
}

func TestDisableDuringStream(t *testing.T) {
	h := newHarness(t)
	h.toTxStream(t)

	h.engine.Disable()
	assert.False(t, h.engine.Enabled())
	assert.Equal(t, STATE_OFF, h.engine.State())
	syncs := h.mod.syncs()
	require.GreaterOrEqual(t, len(syncs), 3)
	assert.Equal(t, []uint16{m17.SYNC_STREAM, m17.SYNC_EOT}, syncs[len(syncs)-2:])

	// The stream is closed the same way as a released PTT
	dec := m17.NewDecoder()
	typ, err := dec.Decode(h.mod.sent[len(h.mod.sent)-2])
	require.NoError(t, err)
	require.Equal(t, m17.FRAME_STREAM, typ)
	assert.True(t, dec.StreamFrame().Last)
	assert.Equal(t, 1, h.mod.stops)
	assert.Equal(t, 1, h.codec.stops)
	assert.Equal(t, 1, h.codec.releases)
	assert.Equal(t, 1, h.demod.terms)
	assert.Equal(t, 1, h.mod.terms)
	assert.False(t, h.platform.leds[platform.INDICATOR_TX])

	// Updates are ignored while disabled
	sent := len(h.mod.sent)
	h.platform.ptt = true
	h.update()
	assert.Len(t, h.mod.sent, sent)
}

func TestDisableDuringReceive(t *testing.T) {
	h := newHarness(t)
	h.toRX(t)

	h.engine.Disable()
	assert.False(t, h.demod.sampling)
	assert.Equal(t, 1, h.demod.stopSampling)
}
