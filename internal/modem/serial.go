package modem

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"
)

// SerialConfig configures a KISS serial baseband link
type SerialConfig struct {
	Port        string
	Baud        int
	LockTimeout time.Duration
	RxInvert    bool
}

// Serial exchanges KISS framed frames with a modem on a serial port
type Serial struct {
	config SerialConfig
	log    *log.Logger

	port   serial.Port
	frames chan []byte
	done   chan struct{}
	wg     sync.WaitGroup

	rx       receiver
	txInvert bool
	keyed    bool
}

// NewSerial creates an unopened serial modem
func NewSerial(config SerialConfig, logger *log.Logger) *Serial {
	if logger == nil {
		logger = log.Default()
	}
	if config.Baud == 0 {
		config.Baud = 115200
	}
	return &Serial{
		config: config,
		log:    logger,
		rx: receiver{
			lock:   newLockTracker(config.LockTimeout),
			invert: config.RxInvert,
		},
	}
}

// Init opens the serial port and starts the reader
func (s *Serial) Init() error {
	mode := &serial.Mode{
		BaudRate: s.config.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.config.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.config.Port, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return fmt.Errorf("serial read timeout: %w", err)
	}

	s.port = port
	s.frames = make(chan []byte, 64)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.readLoop()

	s.log.Info("Serial modem ready", "port", s.config.Port, "baud", s.config.Baud)
	return nil
}

func (s *Serial) readLoop() {
	defer s.wg.Done()

	var dec kissDecoder
	buf := make([]byte, 512)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil {
			var portErr *serial.PortError
			if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
				return
			}
			s.log.Warn("serial read failed", "err", err)
			return
		}

		for _, b := range buf[:n] {
			frame, ok := dec.Feed(b)
			if !ok {
				continue
			}
			select {
			case s.frames <- frame:
			default:
				s.log.Debug("serial frame queue full, dropping frame")
			}
		}
	}
}

// Terminate stops the reader and closes the port
func (s *Serial) Terminate() {
	s.rx.stop()
	if s.port == nil {
		return
	}
	close(s.done)
	s.port.Close()
	s.wg.Wait()
	s.port = nil
}

// StartSampling starts accepting received frames
func (s *Serial) StartSampling() error {
	// Drop anything buffered while not listening
drain:
	for {
		select {
		case <-s.frames:
		default:
			break drain
		}
	}
	s.rx.start()
	return nil
}

// StopSampling stops accepting frames and drops lock
func (s *Serial) StopSampling() {
	s.rx.stop()
}

// Locked reports whether frames are arriving
func (s *Serial) Locked() bool {
	return s.rx.lock.locked()
}

// FrameReady reports whether a new frame has been received
func (s *Serial) FrameReady() bool {
	for {
		select {
		case frame := <-s.frames:
			if s.rx.accept(frame) {
				return true
			}
		default:
			return false
		}
	}
}

// Frame returns the last received frame
func (s *Serial) Frame() []byte {
	return s.rx.frame
}

// SetPhaseInversion selects transmit phase inversion
func (s *Serial) SetPhaseInversion(invert bool) {
	s.txInvert = invert
}

// Start keys the transmitter
func (s *Serial) Start() error {
	s.keyed = true
	return nil
}

// SendPreamble sends the transmission preamble
func (s *Serial) SendPreamble() error {
	return s.SendFrame(Preamble())
}

// SendFrame writes one KISS framed frame
func (s *Serial) SendFrame(frame []byte) error {
	if !s.keyed {
		return fmt.Errorf("send frame: transmitter not keyed")
	}
	if s.port == nil {
		return fmt.Errorf("send frame: port not open")
	}
	if s.txInvert {
		frame = invert(frame)
	}
	if _, err := s.port.Write(KissEncapsulate(frame)); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Stop unkeys the transmitter
func (s *Serial) Stop() error {
	s.keyed = false
	if s.port != nil {
		return s.port.Drain()
	}
	return nil
}
