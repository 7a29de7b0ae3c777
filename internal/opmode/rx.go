package opmode

import (
	"errors"
	"time"

	"github.com/dbehnke/m17link/internal/audio"
	"github.com/dbehnke/m17link/internal/gnss"
	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/metadata"
	"github.com/dbehnke/m17link/internal/sms"
)

func (e *Engine) enterRX() {
	e.dev.Decoder.Reset()
	if err := e.dev.Demodulator.StartSampling(); err != nil {
		e.log.Error("cannot start receiver", "err", err)
		e.dev.Sleep(e.dev.IdleSleep)
		e.startRx = true
		return
	}
	e.locked = false
	e.setState(STATE_RX)
}

// exitRX stops the receiver. status is nil when disabling.
func (e *Engine) exitRX(status *Status) {
	e.dev.Demodulator.StopSampling()
	e.locked = false
	e.invalidate(status)
}

// resetReceive drops all receive side state
func (e *Engine) resetReceive() {
	e.locked = false
	e.relayActive = false
	e.lastHeard = ""
	e.text.Reset()
	e.reassembler.Abort()
	e.stopAudio()
}

// invalidate is applied whenever lock is lost, whatever the reason
func (e *Engine) invalidate(status *Status) {
	e.resetReceive()
	if status != nil {
		status.LSFValid = false
	}
}

func (e *Engine) stopAudio() {
	if !e.audioValid {
		return
	}
	e.dev.Codec.Stop()
	e.dev.Codec.ReleasePath()
	e.audioValid = false
}

func (e *Engine) rxState(status *Status, ptt bool) {
	if ptt || (status.PendingSMS && !status.TxDisable) {
		e.exitRX(status)
		e.setState(STATE_OFF)
		return
	}

	ready := e.dev.Demodulator.FrameReady()
	locked := e.dev.Demodulator.Locked()

	switch {
	case locked && !e.locked:
		// Stale partial state must not leak into the next LSF
		e.dev.Decoder.Reset()
	case !locked && e.locked:
		e.log.Debug("lock lost")
		e.invalidate(status)
	}
	e.locked = locked

	if ready && locked {
		e.processFrame(status, e.dev.Demodulator.Frame())
	}
}

func (e *Engine) processFrame(status *Status, frame []byte) {
	typ, err := e.dev.Decoder.Decode(frame)
	if err != nil {
		if errors.Is(err, m17.ErrBadCRC) {
			status.LSFValid = false
		}
		e.log.Debug("frame dropped", "type", typ, "err", err)
		return
	}

	if typ == m17.FRAME_EOT {
		e.stopAudio()
		return
	}

	lsf := e.dev.Decoder.LSF()
	if !lsf.Valid() {
		// Joined mid-stream and the LICH has not delivered a full LSF yet
		status.LSFValid = false
		return
	}
	status.LSFValid = true

	if e.dev.Decoder.FreshLSF() {
		e.processMetadata(status, lsf)
	}

	status.LastDestination = lsf.Destination()
	if e.relayActive {
		status.LastRelay = lsf.Source()
	} else {
		status.LastSource = lsf.Source()
		status.LastRelay = ""
		status.LastReflector = ""
	}
	e.notifyHeard(status, lsf)

	canMatch := !status.CANRxCheck || lsf.Type().CAN() == status.CAN
	callMatch := m17.MatchCallsign(status.Source, lsf.Destination())

	switch {
	case typ == m17.FRAME_STREAM && canMatch && callMatch:
		e.playStream(e.dev.Decoder.StreamFrame())

	case typ == m17.FRAME_PACKET && status.SMSEnabled && canMatch && (callMatch || !status.SMSMatchCall):
		e.receivePacket(status, e.dev.Decoder.PacketFrame())
	}
}

// processMetadata handles the metadata of a newly completed LSF. Each LSF
// carries one claim, so relay, text and GNSS never interleave.
func (e *Engine) processMetadata(status *Status, lsf m17.LinkSetupFrame) {
	switch metadata.ClaimOf(lsf) {
	case metadata.ClaimRelay:
		ext := m17.ParseExtendedCallsign(lsf.Meta())
		if !e.relayActive {
			e.log.Debug("extended callsign", "originator", ext.Originator, "reflector", ext.Reflector)
		}
		e.relayActive = true
		status.LastSource = ext.Originator
		status.LastReflector = ext.Reflector
		status.LastText = ""
		e.text.Reset()

	case metadata.ClaimText:
		if text, ok := e.text.Push(m17.ParseTextBlock(lsf.Meta())); ok {
			e.log.Info("text received", "source", lsf.Source(), "text", text)
			status.LastText = text
		}

	case metadata.ClaimGNSS:
		fix := gnss.FromBeacon(m17.ParseGNSS(lsf.Meta()), time.Now())
		if fix.Valid() {
			e.log.Debug("position received", "source", lsf.Source(), "lat", fix.Latitude, "lon", fix.Longitude)
			status.LastPosition = fix
		}
	}
}

func (e *Engine) notifyHeard(status *Status, lsf m17.LinkSetupFrame) {
	if status.LastSource == "" || status.LastSource == e.lastHeard {
		return
	}
	e.lastHeard = status.LastSource

	ev := HeardEvent{
		Source:      status.LastSource,
		Destination: status.LastDestination,
		Relay:       status.LastRelay,
		Reflector:   status.LastReflector,
		CAN:         lsf.Type().CAN(),
		Packet:      lsf.Type().DataMode() == m17.DATA_MODE_PACKET,
		At:          time.Now(),
	}
	e.log.Info("station heard", "source", ev.Source, "destination", ev.Destination, "can", ev.CAN)
	if e.dev.Observer != nil {
		e.dev.Observer.StationHeard(ev)
	}
}

func (e *Engine) playStream(sf m17.StreamFrame) {
	if e.audioValid && !e.dev.Codec.PathOpen() {
		// Preempted by a higher priority user
		e.log.Debug("audio path lost")
		e.stopAudio()
	}

	if !e.audioValid {
		if !e.dev.Codec.RequestPath(audio.DIR_RX) {
			return
		}
		e.dev.Codec.StartDecode()
		e.audioValid = true
	}

	var half audio.Frame
	copy(half[:], sf.Payload[:audio.FRAME_LENGTH])
	e.dev.Codec.PushFrame(half)
	copy(half[:], sf.Payload[audio.FRAME_LENGTH:])
	e.dev.Codec.PushFrame(half)
}

func (e *Engine) receivePacket(status *Status, pf m17.PacketFrame) {
	res, msg := e.reassembler.Push(status.LastSource, pf)

	switch res {
	case sms.ResultAccepted:
		if e.store.Add(msg) {
			e.log.Debug("message store full, oldest message dropped")
		}
		e.log.Info("message received", "from", msg.Sender, "length", len(msg.Body))
		if e.dev.Observer != nil {
			e.dev.Observer.MessageReceived(msg)
		}
	case sms.ResultDuplicate:
		e.log.Info("duplicate message ignored", "from", status.LastSource)
	case sms.ResultChecksumMismatch:
		e.log.Warn("message checksum mismatch", "from", status.LastSource)
	case sms.ResultGap:
		e.log.Debug("message frame out of sequence", "seq", pf.Sequence())
	}
}
