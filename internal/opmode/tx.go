package opmode

import (
	"github.com/dbehnke/m17link/internal/audio"
	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/metadata"
	"github.com/dbehnke/m17link/internal/sms"
)

// send transmits one frame. Modulator errors are logged and otherwise ignored.
func (e *Engine) send(frame []byte) {
	if err := e.dev.Modulator.SendFrame(frame); err != nil {
		e.log.Warn("send frame failed", "err", err)
	}
}

func (e *Engine) keyUp() bool {
	e.dev.Modulator.SetPhaseInversion(e.dev.Platform.TxPhaseInverted())
	if err := e.dev.Modulator.Start(); err != nil {
		e.log.Error("cannot key transmitter", "err", err)
		return false
	}
	if err := e.dev.Modulator.SendPreamble(); err != nil {
		e.log.Warn("send preamble failed", "err", err)
	}
	return true
}

func (e *Engine) keyDown() {
	if err := e.dev.Modulator.Stop(); err != nil {
		e.log.Warn("modulator stop failed", "err", err)
	}
}

func (e *Engine) enterTxStream(status *Status) {
	lsf, err := m17.NewLSF(status.Source, status.Destination, status.CAN)
	if err != nil {
		e.log.Error("cannot build LSF", "source", status.Source, "destination", status.Destination, "err", err)
		e.dev.Sleep(e.dev.IdleSleep)
		return
	}

	if !e.dev.Codec.RequestPath(audio.DIR_TX) {
		e.log.Warn("microphone path busy, not transmitting")
		e.dev.Sleep(e.dev.IdleSleep)
		return
	}

	if !e.keyUp() {
		e.dev.Codec.ReleasePath()
		e.dev.Sleep(e.dev.IdleSleep)
		return
	}
	e.dev.Codec.StartEncode()

	if first, ok := e.rotator.Start(status.Metatext, status.GNSSBeacon); ok {
		lsf.SetMeta(m17.META_TEXT, first.Meta())
	}
	e.txLSF = lsf

	e.dev.Encoder.Reset()
	e.send(e.dev.Encoder.EncodeLSF(lsf))

	e.log.Info("transmitting", "source", status.Source, "destination", lsf.Destination(), "can", status.CAN)
	e.setState(STATE_TX_STREAM)
}

// stageMetadata prepares the LSF carried from the next super-frame on
func (e *Engine) stageMetadata(slot metadata.Slot) {
	lsf := e.txLSF

	switch slot.Claim {
	case metadata.ClaimText:
		lsf.SetMeta(m17.META_TEXT, slot.Text.Meta())

	case metadata.ClaimGNSS:
		if e.dev.Position == nil {
			return
		}
		fix := e.dev.Position.Position()
		if !fix.Valid() {
			return
		}
		lsf.SetMeta(m17.META_GNSS, fix.Beacon(e.dev.StationType).Meta())

	default:
		lsf.ClearMeta()
	}

	e.dev.Encoder.UpdateLSF(lsf)
}

func (e *Engine) txStreamState(status *Status, ptt bool) {
	if slot := e.rotator.Tick(); slot.Update {
		e.stageMetadata(slot)
	}

	// Blocks until the microphone has produced 40 ms of audio
	var sf m17.StreamFrame
	for half := 0; half < 2; half++ {
		f, ok := e.dev.Codec.PopFrame()
		if !ok {
			ptt = false
		}
		copy(sf.Payload[half*audio.FRAME_LENGTH:], f[:])
	}

	if ptt {
		e.send(e.dev.Encoder.EncodeStream(sf))
		return
	}

	e.releaseStream(sf)
	e.log.Info("transmission ended")
	e.startRx = true
	e.setState(STATE_OFF)
}

// releaseStream closes a transmission: sf goes out flagged as the last
// stream frame, then EOT, then the transmitter and microphone are released.
func (e *Engine) releaseStream(sf m17.StreamFrame) {
	sf.Last = true
	e.send(e.dev.Encoder.EncodeStream(sf))
	e.send(e.dev.Encoder.EncodeEOT())
	e.keyDown()
	e.dev.Codec.Stop()
	e.dev.Codec.ReleasePath()
	e.rotator.Rewind()
}

// abortStream ends a stream when the engine is disabled mid-transmission.
// The closing frame carries silence.
func (e *Engine) abortStream() {
	e.releaseStream(m17.StreamFrame{})
}

func (e *Engine) txPacketState(status *Status) {
	defer func() {
		status.PendingSMS = false
		e.startRx = true
		e.setState(STATE_OFF)
	}()

	frames, err := sms.Fragment(status.SMSMessage)
	if err != nil {
		e.log.Warn("message not sent", "err", err)
		return
	}

	destination := status.SMSDestination
	if destination == "" {
		destination = status.Destination
	}
	lsf, err := m17.NewLSF(status.Source, destination, status.CAN)
	if err != nil {
		e.log.Error("cannot build LSF", "source", status.Source, "destination", destination, "err", err)
		return
	}
	lsf.SetType(lsf.Type().WithDataMode(m17.DATA_MODE_PACKET).WithDataType(m17.DATA_TYPE_DATA))

	if !e.keyUp() {
		return
	}

	e.dev.Encoder.Reset()
	e.send(e.dev.Encoder.EncodeLSF(lsf))
	for _, f := range frames {
		e.send(e.dev.Encoder.EncodePacket(f))
	}
	e.send(e.dev.Encoder.EncodeEOT())
	e.keyDown()

	e.log.Info("message sent", "to", lsf.Destination(), "frames", len(frames))
}
