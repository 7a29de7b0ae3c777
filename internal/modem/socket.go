package modem

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// READ_POLL_TIMEOUT bounds how long Read waits for a queued datagram
const READ_POLL_TIMEOUT = time.Millisecond

// UDPSocket provides non-blocking UDP I/O
type UDPSocket struct {
	conn      *net.UDPConn
	address   string
	port      int
	localAddr *net.UDPAddr
	log       *log.Logger
}

// NewUDPSocket creates a UDP socket bound to address and port. An empty
// address binds to all interfaces and port 0 picks an ephemeral port.
func NewUDPSocket(address string, port int, logger *log.Logger) *UDPSocket {
	return &UDPSocket{
		address: address,
		port:    port,
		log:     logger,
	}
}

// Open creates and binds the socket
func (s *UDPSocket) Open() error {
	var err error

	s.localAddr = &net.UDPAddr{IP: net.IPv4zero, Port: s.port}
	if s.address != "" {
		s.localAddr.IP = net.ParseIP(s.address)
		if s.localAddr.IP == nil {
			return fmt.Errorf("invalid address: %s", s.address)
		}
	}

	s.conn, err = net.ListenUDP("udp4", s.localAddr)
	if err != nil {
		return fmt.Errorf("open udp socket: %w", err)
	}

	s.log.Debug("UDP socket bound", "addr", s.conn.LocalAddr().String())
	return nil
}

// LocalAddr returns the bound address
func (s *UDPSocket) LocalAddr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Read polls for one datagram, waiting at most READ_POLL_TIMEOUT. It
// returns 0 bytes and no error when nothing is waiting.
func (s *UDPSocket) Read(buffer []byte) (int, *net.UDPAddr, error) {
	if s.conn == nil {
		return 0, nil, errors.New("socket not open")
	}

	// A deadline already in the past fails before the socket is read
	s.conn.SetReadDeadline(time.Now().Add(READ_POLL_TIMEOUT))

	n, addr, err := s.conn.ReadFromUDP(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("udp read: %w", err)
	}

	return n, addr, nil
}

// Write sends a datagram to addr
func (s *UDPSocket) Write(buffer []byte, addr *net.UDPAddr) error {
	if s.conn == nil {
		return errors.New("socket not open")
	}

	if _, err := s.conn.WriteToUDP(buffer, addr); err != nil {
		return fmt.Errorf("udp write: %w", err)
	}
	return nil
}

// Close closes the socket
func (s *UDPSocket) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.log.Debug("UDP socket closed")
	}
}

// Lookup resolves hostname to an IPv4 address
func Lookup(hostname string) (net.IP, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip, nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("no IPv4 address found for %s", hostname)
}

// ParseUDPAddr resolves address and port into a UDP address
func ParseUDPAddr(address string, port int) (*net.UDPAddr, error) {
	ip, err := Lookup(address)
	if err != nil {
		return nil, err
	}

	return &net.UDPAddr{
		IP:   ip,
		Port: port,
	}, nil
}
