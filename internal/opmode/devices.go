package opmode

import (
	"time"

	"github.com/dbehnke/m17link/internal/audio"
	"github.com/dbehnke/m17link/internal/gnss"
	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/platform"
	"github.com/dbehnke/m17link/internal/sms"
)

// Demodulator delivers received baseband frames
type Demodulator interface {
	Init() error
	Terminate()
	StartSampling() error
	StopSampling()
	Locked() bool
	FrameReady() bool
	Frame() []byte
}

// Modulator transmits baseband frames
type Modulator interface {
	Init() error
	Terminate()
	SetPhaseInversion(invert bool)
	Start() error
	SendPreamble() error
	SendFrame(frame []byte) error
	Stop() error
}

// FrameDecoder classifies received frames
type FrameDecoder interface {
	Reset()
	Decode(frame []byte) (m17.FrameType, error)
	LSF() m17.LinkSetupFrame
	FreshLSF() bool
	StreamFrame() m17.StreamFrame
	PacketFrame() m17.PacketFrame
}

// FrameEncoder builds frames for transmission
type FrameEncoder interface {
	Reset()
	EncodeLSF(lsf m17.LinkSetupFrame) []byte
	UpdateLSF(lsf m17.LinkSetupFrame)
	EncodeStream(sf m17.StreamFrame) []byte
	EncodePacket(pf m17.PacketFrame) []byte
	EncodeEOT() []byte
}

// Codec is the voice path between the radio and the local audio endpoints.
// PopFrame blocks until a microphone frame is available.
type Codec interface {
	RequestPath(dir audio.Direction) bool
	PathOpen() bool
	ReleasePath()
	StartEncode()
	StartDecode()
	Stop()
	PushFrame(f audio.Frame) bool
	PopFrame() (audio.Frame, bool)
}

// Platform provides push-to-talk, calibration and indicators
type Platform interface {
	PTT() bool
	TxPhaseInverted() bool
	SetIndicator(i platform.Indicator, on bool)
}

// HeardEvent describes a newly heard transmission
type HeardEvent struct {
	Source      string
	Destination string
	Relay       string
	Reflector   string
	CAN         uint8
	Packet      bool
	At          time.Time
}

// Observer is told about stations heard and messages received. Calls are
// made from the engine goroutine and must not block.
type Observer interface {
	StationHeard(ev HeardEvent)
	MessageReceived(msg sms.Message)
}

// DEFAULT_IDLE_SLEEP is the pause taken in OFF when there is nothing to do
const DEFAULT_IDLE_SLEEP = 30 * time.Millisecond

// Devices are the collaborators the engine drives. Decoder and Encoder
// default to the M17 codec; Position and Observer are optional.
type Devices struct {
	Demodulator Demodulator
	Modulator   Modulator
	Decoder     FrameDecoder
	Encoder     FrameEncoder
	Codec       Codec
	Platform    Platform
	Position    gnss.Source
	Observer    Observer

	BeaconInterval time.Duration
	StationType    uint8 // m17.GNSS_STATION_*
	IdleSleep      time.Duration
	Sleep          func(time.Duration)
}

func (d *Devices) setDefaults() {
	if d.Decoder == nil {
		d.Decoder = m17.NewDecoder()
	}
	if d.Encoder == nil {
		d.Encoder = m17.NewEncoder()
	}
	if d.IdleSleep == 0 {
		d.IdleSleep = DEFAULT_IDLE_SLEEP
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
}
