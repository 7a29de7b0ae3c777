package modem

import (
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// UDPConfig configures a UDP baseband link
type UDPConfig struct {
	LocalAddress  string
	LocalPort     int
	RemoteAddress string
	RemotePort    int
	LockTimeout   time.Duration
	RxInvert      bool
}

// UDP carries frames as datagrams to a peer. It acts as both demodulator
// and modulator for the engine.
type UDP struct {
	config UDPConfig
	socket *UDPSocket
	remote *net.UDPAddr
	log    *log.Logger

	rx       receiver
	txInvert bool
	keyed    bool
	buf      [maxFrameLength]byte
}

// NewUDP creates an unopened UDP modem
func NewUDP(config UDPConfig, logger *log.Logger) *UDP {
	if logger == nil {
		logger = log.Default()
	}
	return &UDP{
		config: config,
		log:    logger,
		socket: NewUDPSocket(config.LocalAddress, config.LocalPort, logger),
		rx: receiver{
			lock:   newLockTracker(config.LockTimeout),
			invert: config.RxInvert,
		},
	}
}

// Init opens the socket and resolves the peer
func (u *UDP) Init() error {
	remote, err := ParseUDPAddr(u.config.RemoteAddress, u.config.RemotePort)
	if err != nil {
		return fmt.Errorf("resolve modem peer: %w", err)
	}
	u.remote = remote

	if err := u.socket.Open(); err != nil {
		return err
	}
	u.log.Info("UDP modem ready", "local", u.socket.LocalAddr(), "remote", u.remote)
	return nil
}

// Terminate closes the socket
func (u *UDP) Terminate() {
	u.rx.stop()
	u.socket.Close()
}

// LocalAddr returns the bound socket address
func (u *UDP) LocalAddr() *net.UDPAddr {
	return u.socket.LocalAddr()
}

// StartSampling starts accepting received frames
func (u *UDP) StartSampling() error {
	u.rx.start()
	return nil
}

// StopSampling stops accepting frames and drops lock
func (u *UDP) StopSampling() {
	u.rx.stop()
}

// Locked reports whether frames are arriving
func (u *UDP) Locked() bool {
	return u.rx.lock.locked()
}

// FrameReady polls the socket and reports whether a new frame is available
func (u *UDP) FrameReady() bool {
	for {
		n, _, err := u.socket.Read(u.buf[:])
		if err != nil {
			u.log.Warn("modem receive failed", "err", err)
			return false
		}
		if n == 0 {
			return false
		}
		if u.rx.accept(u.buf[:n]) {
			return true
		}
	}
}

// Frame returns the last received frame
func (u *UDP) Frame() []byte {
	return u.rx.frame
}

// SetPhaseInversion selects transmit phase inversion
func (u *UDP) SetPhaseInversion(invert bool) {
	u.txInvert = invert
}

// Start keys the transmitter
func (u *UDP) Start() error {
	u.keyed = true
	return nil
}

// SendPreamble sends the transmission preamble
func (u *UDP) SendPreamble() error {
	return u.SendFrame(Preamble())
}

// SendFrame sends one frame to the peer
func (u *UDP) SendFrame(frame []byte) error {
	if !u.keyed {
		return fmt.Errorf("send frame: transmitter not keyed")
	}
	if u.txInvert {
		frame = invert(frame)
	}
	return u.socket.Write(frame, u.remote)
}

// Stop unkeys the transmitter
func (u *UDP) Stop() error {
	u.keyed = false
	return nil
}
