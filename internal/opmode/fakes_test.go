package opmode

import (
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/m17link/internal/audio"
	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/platform"
	"github.com/dbehnke/m17link/internal/sms"
)

type fakeDemod struct {
	inits, terms  int
	startSampling int
	stopSampling  int
	sampling      bool
	locked        bool
	queue         [][]byte
	frame         []byte
}

func (d *fakeDemod) Init() error          { d.inits++; return nil }
func (d *fakeDemod) Terminate()           { d.terms++ }
func (d *fakeDemod) StartSampling() error { d.startSampling++; d.sampling = true; return nil }
func (d *fakeDemod) StopSampling()        { d.stopSampling++; d.sampling = false; d.locked = false }
func (d *fakeDemod) Locked() bool         { return d.locked }
func (d *fakeDemod) Frame() []byte        { return d.frame }

func (d *fakeDemod) FrameReady() bool {
	if len(d.queue) == 0 {
		return false
	}
	d.frame, d.queue = d.queue[0], d.queue[1:]
	return true
}

type fakeMod struct {
	inits, terms int
	keyed        bool
	starts       int
	stops        int
	preambles    int
	invert       bool
	sent         [][]byte
}

func (m *fakeMod) Init() error                   { m.inits++; return nil }
func (m *fakeMod) Terminate()                    { m.terms++ }
func (m *fakeMod) SetPhaseInversion(invert bool) { m.invert = invert }
func (m *fakeMod) Start() error                  { m.starts++; m.keyed = true; return nil }
func (m *fakeMod) SendPreamble() error           { m.preambles++; return nil }
func (m *fakeMod) Stop() error                   { m.stops++; m.keyed = false; return nil }

func (m *fakeMod) SendFrame(frame []byte) error {
	m.sent = append(m.sent, append([]byte(nil), frame...))
	return nil
}

// syncs returns the sync word of every sent frame
func (m *fakeMod) syncs() []uint16 {
	out := make([]uint16, 0, len(m.sent))
	for _, f := range m.sent {
		out = append(out, binary.BigEndian.Uint16(f))
	}
	return out
}

type fakeCodec struct {
	refuse    bool
	open      bool
	requests  int
	releases  int
	encodes   int
	decodes   int
	stops     int
	pushed    []audio.Frame
	mic       audio.Frame
	micClosed bool
}

func (c *fakeCodec) RequestPath(dir audio.Direction) bool {
	c.requests++
	if c.refuse {
		return false
	}
	c.open = true
	return true
}

func (c *fakeCodec) PathOpen() bool                { return c.open }
func (c *fakeCodec) ReleasePath()                  { c.releases++; c.open = false }
func (c *fakeCodec) StartEncode()                  { c.encodes++ }
func (c *fakeCodec) StartDecode()                  { c.decodes++ }
func (c *fakeCodec) Stop()                         { c.stops++ }
func (c *fakeCodec) PushFrame(f audio.Frame) bool  { c.pushed = append(c.pushed, f); return true }
func (c *fakeCodec) PopFrame() (audio.Frame, bool) { return c.mic, !c.micClosed }

type ledChange struct {
	led platform.Indicator
	on  bool
}

type fakePlatform struct {
	ptt     bool
	invert  bool
	leds    [2]bool
	changes []ledChange
}

func (p *fakePlatform) PTT() bool             { return p.ptt }
func (p *fakePlatform) TxPhaseInverted() bool { return p.invert }

func (p *fakePlatform) SetIndicator(i platform.Indicator, on bool) {
	p.leds[i] = on
	p.changes = append(p.changes, ledChange{led: i, on: on})
}

type recorder struct {
	heard    []HeardEvent
	messages []sms.Message
}

func (r *recorder) StationHeard(ev HeardEvent)      { r.heard = append(r.heard, ev) }
func (r *recorder) MessageReceived(msg sms.Message) { r.messages = append(r.messages, msg) }

type harness struct {
	engine   *Engine
	demod    *fakeDemod
	mod      *fakeMod
	codec    *fakeCodec
	platform *fakePlatform
	observer *recorder
	sleeps   int
	status   *Status
}

func newHarness(t *testing.T, opts ...func(*Devices)) *harness {
	t.Helper()

	h := &harness{
		demod:    &fakeDemod{},
		mod:      &fakeMod{},
		codec:    &fakeCodec{},
		platform: &fakePlatform{},
		observer: &recorder{},
		status: &Status{
			Source:      "N0CALL",
			Destination: "ALL",
		},
	}

	dev := Devices{
		Demodulator:    h.demod,
		Modulator:      h.mod,
		Codec:          h.codec,
		Platform:       h.platform,
		Observer:       h.observer,
		BeaconInterval: 5 * time.Second,
		Sleep:          func(time.Duration) { h.sleeps++ },
	}
	for _, opt := range opts {
		opt(&dev)
	}

	e, err := New(dev, log.New(io.Discard))
	require.NoError(t, err)
	h.engine = e

	require.NoError(t, e.Enable())
	return h
}

func (h *harness) update() {
	h.engine.Update(h.status, false)
}

// toRX enables reception
func (h *harness) toRX(t *testing.T) {
	t.Helper()
	h.update()
	require.Equal(t, STATE_RX, h.engine.State())
}

// toIdleOff leaves RX through PTT and releases it again, ending in OFF
// with no pending receive latch
func (h *harness) toIdleOff(t *testing.T) {
	t.Helper()
	h.toRX(t)
	h.platform.ptt = true
	h.status.TxDisable = true
	h.update()
	require.Equal(t, STATE_OFF, h.engine.State())
	h.platform.ptt = false
	h.status.TxDisable = false
}

// receive queues frames on the demodulator as if just heard
func (h *harness) receive(frames ...[]byte) {
	h.demod.locked = true
	h.demod.queue = append(h.demod.queue, frames...)
}

// drain runs updates until the demodulator queue is empty
func (h *harness) drain() {
	for len(h.demod.queue) > 0 {
		h.update()
	}
}

func lsfFrame(t *testing.T, enc *m17.Encoder, src, dst string, can uint8, mutate func(*m17.LinkSetupFrame)) []byte {
	t.Helper()
	lsf, err := m17.NewLSF(src, dst, can)
	require.NoError(t, err)
	if mutate != nil {
		mutate(&lsf)
	}
	return enc.EncodeLSF(lsf)
}

func packetFrames(t *testing.T, src, dst string, can uint8, body string) [][]byte {
	t.Helper()
	enc := m17.NewEncoder()
	frames := [][]byte{lsfFrame(t, enc, src, dst, can, func(l *m17.LinkSetupFrame) {
		l.SetType(l.Type().WithDataMode(m17.DATA_MODE_PACKET).WithDataType(m17.DATA_TYPE_DATA))
	})}

	pfs, err := sms.Fragment(body)
	require.NoError(t, err)
	for _, pf := range pfs {
		frames = append(frames, enc.EncodePacket(pf))
	}
	return append(frames, enc.EncodeEOT())
}

// spyDecoder counts decoder resets
type spyDecoder struct {
	*m17.Decoder
	resets int
}

func (d *spyDecoder) Reset() {
	d.resets++
	d.Decoder.Reset()
}
