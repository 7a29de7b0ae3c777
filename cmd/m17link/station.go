package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/m17link/internal/audio"
	"github.com/dbehnke/m17link/internal/config"
	"github.com/dbehnke/m17link/internal/database"
	"github.com/dbehnke/m17link/internal/gnss"
	"github.com/dbehnke/m17link/internal/logbook"
	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/modem"
	"github.com/dbehnke/m17link/internal/opmode"
	"github.com/dbehnke/m17link/internal/platform"
)

const (
	RX_POLL_INTERVAL = 5 * time.Millisecond
	STATUS_INTERVAL  = 30 * time.Second
)

// radio is a modem acting as both demodulator and modulator
type radio interface {
	opmode.Demodulator
	opmode.Modulator
}

// request changes the engine status between two steps. It reports
// whether the configuration changed.
type request func(st *opmode.Status) bool

// Station wires the operating mode engine to its devices and runs it
type Station struct {
	config   *config.Config
	log      *log.Logger
	engine   *opmode.Engine
	status   *opmode.Status
	manual   *platform.Manual // nil when PTT comes from GPIO
	logbook  *logbook.Logbook
	pipeline *audio.Pipeline
	closers  []func()

	requests chan request

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewStation builds every component named in the configuration
func NewStation(cfg *config.Config, logger *log.Logger) (*Station, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Station{
		config:   cfg,
		log:      logger,
		status:   &opmode.Status{},
		requests: make(chan request, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	applyConfig(cfg, s.status)

	rf, err := s.newRadio()
	if err != nil {
		s.close()
		return nil, err
	}

	plat, err := s.newPlatform()
	if err != nil {
		s.close()
		return nil, err
	}

	source, sink, err := s.newAudio()
	if err != nil {
		s.close()
		return nil, err
	}
	s.pipeline = audio.NewPipeline(audio.NewRouter(), source, sink, logger.WithPrefix("audio"))
	s.closers = append(s.closers, s.pipeline.Stop)

	var heard logbook.HeardStore
	var archive logbook.MessageArchive
	if cfg.GetDatabaseEnabled() {
		db, err := database.NewDB(database.Config{
			Path:  cfg.GetDatabasePath(),
			Debug: cfg.GetDatabaseDebug(),
		}, logger.WithPrefix("database"))
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.closers = append(s.closers, func() { db.Close() })
		heard, archive = db.Heard(), db.Messages()
	}
	s.logbook = logbook.New(heard, archive, logbook.Config{CacheSize: int(cfg.GetDatabaseCacheSize())}, logger.WithPrefix("logbook"))

	dev := opmode.Devices{
		Demodulator:    rf,
		Modulator:      rf,
		Codec:          s.pipeline,
		Platform:       plat,
		Observer:       s.logbook,
		BeaconInterval: time.Duration(cfg.GetBeaconSeconds()) * time.Second,
		StationType:    cfg.GetStationType(),
	}
	if cfg.GetPositionEnabled() {
		dev.Position = gnss.NewStatic(cfg.GetLatitude(), cfg.GetLongitude(), cfg.GetAltitude())
	}

	s.engine, err = opmode.New(dev, logger.WithPrefix("opmode"))
	if err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

func (s *Station) newRadio() (radio, error) {
	cfg := s.config
	lockTimeout := time.Duration(cfg.GetLockTimeoutMs()) * time.Millisecond

	switch cfg.GetModemType() {
	case config.MODEM_SERIAL:
		return modem.NewSerial(modem.SerialConfig{
			Port:        cfg.GetSerialPort(),
			Baud:        int(cfg.GetSerialBaud()),
			LockTimeout: lockTimeout,
			RxInvert:    cfg.GetRxPhaseInvert(),
		}, s.log.WithPrefix("serial")), nil

	case config.MODEM_LOOPBACK:
		local, remote := modem.NewLoopbackPair(lockTimeout)
		p := newParrot(remote, s.log.WithPrefix("parrot"))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			p.Run(s.ctx)
		}()
		return local, nil
	}

	return modem.NewUDP(modem.UDPConfig{
		LocalAddress:  cfg.GetLocalAddress(),
		LocalPort:     int(cfg.GetLocalPort()),
		RemoteAddress: cfg.GetRemoteAddress(),
		RemotePort:    int(cfg.GetRemotePort()),
		LockTimeout:   lockTimeout,
		RxInvert:      cfg.GetRxPhaseInvert(),
	}, s.log.WithPrefix("udp")), nil
}

func (s *Station) newPlatform() (opmode.Platform, error) {
	cfg := s.config
	if !cfg.GetGPIOEnabled() {
		s.manual = platform.NewManual(cfg.GetTxPhaseInvert(), s.log.WithPrefix("platform"))
		return s.manual, nil
	}

	g, err := platform.NewGPIO(platform.GPIOConfig{
		Chip:      cfg.GetGPIOChip(),
		PTTLine:   cfg.GetPTTLine(),
		RxLEDLine: cfg.GetRxLEDLine(),
		TxLEDLine: cfg.GetTxLEDLine(),
		PTTActive: cfg.GetPTTActiveHigh(),
		TxInvert:  cfg.GetTxPhaseInvert(),
	}, s.log.WithPrefix("gpio"))
	if err != nil {
		return nil, fmt.Errorf("failed to set up GPIO: %w", err)
	}
	s.closers = append(s.closers, g.Close)
	return g, nil
}

func (s *Station) newAudio() (audio.Source, audio.Sink, error) {
	var in io.Reader = bytes.NewReader(nil)
	if path := s.config.GetAudioInput(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audio input: %w", err)
		}
		s.closers = append(s.closers, func() { f.Close() })
		in = f
	}
	source := audio.NewReaderSource(in, audio.FRAME_INTERVAL)
	s.closers = append(s.closers, source.Stop)

	sink := audio.Discard
	if path := s.config.GetAudioOutput(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create audio output: %w", err)
		}
		s.closers = append(s.closers, func() { f.Close() })
		sink = audio.NewWriterSink(f)
	}
	return source, sink, nil
}

// applyConfig copies the configured intent into the engine status
func applyConfig(cfg *config.Config, st *opmode.Status) {
	st.Source = cfg.GetCallsign()
	st.Destination = cfg.GetDestination()
	st.CAN = cfg.GetCAN()
	st.Metatext = cfg.GetMetatext()
	st.Settings = opmode.Settings{
		CANRxCheck:   cfg.GetCANRxCheck(),
		SMSEnabled:   cfg.GetSMSEnabled(),
		SMSMatchCall: cfg.GetSMSMatchCall(),
		GNSSBeacon:   cfg.GetGNSSBeacon() && cfg.GetPositionEnabled(),
	}
}

// Run enables the engine and steps it until Stop is called
func (s *Station) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("station already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.engine.Enable(); err != nil {
		s.close()
		return fmt.Errorf("failed to enable operating mode: %w", err)
	}
	s.logbook.Start()

	s.log.Info("m17link starting", "version", VERSION, "callsign", s.status.Source, "modem", s.config.GetModemType())

	s.wg.Add(2)
	go s.engineLoop()
	go s.statusReporter()

	<-s.ctx.Done()
	s.wg.Wait()
	s.logbook.Stop()
	s.close()
	s.log.Info("Stopped")
	return nil
}

// engineLoop is the only goroutine that touches the engine and its status
func (s *Station) engineLoop() {
	defer s.wg.Done()
	defer s.engine.Disable()

	changed := false
	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.requests:
			if req(s.status) {
				changed = true
			}
			continue
		default:
		}

		s.engine.Update(s.status, changed)
		changed = false

		if s.engine.State() == opmode.STATE_RX {
			time.Sleep(RX_POLL_INTERVAL)
		}
	}
}

// statusReporter provides periodic status updates
func (s *Station) statusReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(STATUS_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.submit(func(st *opmode.Status) bool {
				stations, received, dropped, failures := s.logbook.Stats()
				s.log.Info("status",
					"state", s.engine.State(),
					"last", st.LastSource,
					"messages", s.engine.MessageCount(),
					"heard", stations,
					"received", received,
					"dropped", dropped,
					"failures", failures)
				return false
			})
		}
	}
}

// submit queues a status change for the engine loop
func (s *Station) submit(req request) {
	select {
	case s.requests <- req:
	case <-s.ctx.Done():
	}
}

// SendMessage queues a short message for transmission
func (s *Station) SendMessage(destination, body string) error {
	if destination != "" && !m17.ValidCallsign(destination) {
		return fmt.Errorf("invalid destination %q", destination)
	}
	s.submit(func(st *opmode.Status) bool {
		st.SMSDestination = destination
		st.SMSMessage = body
		st.PendingSMS = true
		return false
	})
	return nil
}

// TogglePTT flips the software push-to-talk
func (s *Station) TogglePTT() {
	if s.manual == nil {
		s.log.Warn("PTT is driven by GPIO")
		return
	}
	on := !s.manual.PTT()
	s.manual.SetPTT(on)
	s.log.Info("PTT", "pressed", on)
}

// Reload re-reads the configuration file and applies the operating settings
func (s *Station) Reload() {
	cfg := config.NewConfig(s.config.GetFilename())
	if err := cfg.Load(); err != nil {
		s.log.Error("reload failed", "err", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		s.log.Error("reload rejected", "err", err)
		return
	}
	s.submit(func(st *opmode.Status) bool {
		applyConfig(cfg, st)
		return true
	})
	s.log.Info("configuration reloaded", "callsign", cfg.GetCallsign())
}

// Stop asks Run to shut the station down and release every device
func (s *Station) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("Shutting down")
	s.cancel()
}

func (s *Station) close() {
	s.cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
