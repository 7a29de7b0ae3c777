package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbehnke/m17link/internal/m17"
)

// Modem transports
const (
	MODEM_UDP      = "udp"
	MODEM_SERIAL   = "serial"
	MODEM_LOOPBACK = "loopback"
)

// Config represents the m17link configuration
type Config struct {
	filename string

	// General section
	callsign    string
	destination string
	can         uint8
	metatext    string

	// M17 section
	canRxCheck    bool
	smsEnabled    bool
	smsMatchCall  bool
	gnssBeacon    bool
	beaconSeconds uint32
	stationType   uint8
	txPhaseInvert bool
	rxPhaseInvert bool

	// Modem section
	modemType     string
	localAddress  string
	localPort     uint32
	remoteAddress string
	remotePort    uint32
	serialPort    string
	serialBaud    uint32
	lockTimeoutMs uint32

	// Audio section
	audioInput  string
	audioOutput string

	// GPIO section
	gpioEnabled bool
	gpioChip    string
	pttLine     int
	rxLEDLine   int
	txLEDLine   int
	pttActive   bool

	// Position section
	positionEnabled bool
	latitude        float64
	longitude       float64
	altitude        float64

	// Database section
	databaseEnabled   bool
	databasePath      string
	databaseCacheSize uint32
	databaseDebug     bool

	// Log section
	logLevel string
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,
		// Set reasonable defaults
		destination:   "ALL",
		smsEnabled:    true,
		smsMatchCall:  true,
		beaconSeconds: 60,
		modemType:     MODEM_UDP,
		localAddress:  "127.0.0.1",
		localPort:     17010,
		remoteAddress: "127.0.0.1",
		remotePort:    17011,
		serialBaud:    115200,
		lockTimeoutMs: 200,
		gpioChip:      "gpiochip0",
		pttLine:       -1,
		rxLEDLine:     -1,
		txLEDLine:     -1,

		databaseEnabled:   false,
		databasePath:      "data/m17link.db",
		databaseCacheSize: 500,

		logLevel: "info",
	}
}

// Load loads configuration from the file, INI or YAML by extension
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(c.filename)) {
	case ".yaml", ".yml":
		return c.parseYAML(file)
	}
	return c.parseINIScanner(bufio.NewScanner(file))
}

// LoadFromString loads INI configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parseINIScanner(bufio.NewScanner(strings.NewReader(data)))
}

// LoadYAMLFromString loads YAML configuration from a string
func (c *Config) LoadYAMLFromString(data string) error {
	return c.parseYAML(strings.NewReader(data))
}

func (c *Config) parseINIScanner(scanner *bufio.Scanner) error {
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		c.set(currentSection, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	return scanner.Err()
}

// parseYAML reads the same sections and keys as the INI format, one
// mapping per section
func (c *Config) parseYAML(r io.Reader) error {
	var doc map[string]map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to parse yaml: %w", err)
	}

	for section, keys := range doc {
		for key, value := range keys {
			if value == nil {
				continue
			}
			c.set(section, key, fmt.Sprint(value))
		}
	}
	return nil
}

func (c *Config) set(section, key, value string) {
	switch section {
	case "General":
		c.parseGeneralSection(key, value)
	case "M17":
		c.parseM17Section(key, value)
	case "Modem":
		c.parseModemSection(key, value)
	case "Audio":
		c.parseAudioSection(key, value)
	case "GPIO":
		c.parseGPIOSection(key, value)
	case "Position":
		c.parsePositionSection(key, value)
	case "Database":
		c.parseDatabaseSection(key, value)
	case "Log":
		c.parseLogSection(key, value)
	}
}

func (c *Config) parseGeneralSection(key, value string) {
	switch key {
	case "Callsign":
		c.callsign = strings.ToUpper(value)
	case "Destination":
		c.destination = strings.ToUpper(value)
	case "CAN":
		if v, err := strconv.ParseUint(value, 10, 8); err == nil {
			c.can = uint8(v)
		}
	case "Metatext":
		c.metatext = value
	}
}

func (c *Config) parseM17Section(key, value string) {
	switch key {
	case "CANRxCheck":
		c.canRxCheck = c.parseBool(value)
	case "SMSEnable":
		c.smsEnabled = c.parseBool(value)
	case "SMSMatchCall":
		c.smsMatchCall = c.parseBool(value)
	case "GNSSBeacon":
		c.gnssBeacon = c.parseBool(value)
	case "BeaconInterval":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.beaconSeconds = uint32(v)
		}
	case "StationType":
		if v, err := strconv.ParseUint(value, 10, 8); err == nil {
			c.stationType = uint8(v)
		}
	case "TxPhaseInvert":
		c.txPhaseInvert = c.parseBool(value)
	case "RxPhaseInvert":
		c.rxPhaseInvert = c.parseBool(value)
	}
}

func (c *Config) parseModemSection(key, value string) {
	switch key {
	case "Type":
		c.modemType = strings.ToLower(value)
	case "LocalAddress":
		c.localAddress = value
	case "LocalPort":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.localPort = uint32(v)
		}
	case "RemoteAddress":
		c.remoteAddress = value
	case "RemotePort":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.remotePort = uint32(v)
		}
	case "SerialPort":
		c.serialPort = value
	case "SerialBaud":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.serialBaud = uint32(v)
		}
	case "LockTimeout":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.lockTimeoutMs = uint32(v)
		}
	}
}

func (c *Config) parseAudioSection(key, value string) {
	switch key {
	case "Input":
		c.audioInput = value
	case "Output":
		c.audioOutput = value
	}
}

func (c *Config) parseGPIOSection(key, value string) {
	switch key {
	case "Enable":
		c.gpioEnabled = c.parseBool(value)
	case "Chip":
		c.gpioChip = value
	case "PTTLine":
		if v, err := strconv.Atoi(value); err == nil {
			c.pttLine = v
		}
	case "RxLEDLine":
		if v, err := strconv.Atoi(value); err == nil {
			c.rxLEDLine = v
		}
	case "TxLEDLine":
		if v, err := strconv.Atoi(value); err == nil {
			c.txLEDLine = v
		}
	case "PTTActiveHigh":
		c.pttActive = c.parseBool(value)
	}
}

func (c *Config) parsePositionSection(key, value string) {
	switch key {
	case "Enable":
		c.positionEnabled = c.parseBool(value)
	case "Latitude":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			c.latitude = v
		}
	case "Longitude":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			c.longitude = v
		}
	case "Altitude":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			c.altitude = v
		}
	}
}

func (c *Config) parseDatabaseSection(key, value string) {
	switch key {
	case "Enable", "Enabled":
		c.databaseEnabled = c.parseBool(value)
	case "Path":
		c.databasePath = value
	case "CacheSize":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.databaseCacheSize = uint32(v)
		}
	case "Debug":
		c.databaseDebug = c.parseBool(value)
	}
}

func (c *Config) parseLogSection(key, value string) {
	switch key {
	case "Level":
		c.logLevel = strings.ToLower(value)
	}
}

func (c *Config) parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "1" || value == "true" || value == "yes"
}

// Validate checks the values the operating mode cannot run without
func (c *Config) Validate() error {
	if c.callsign == "" || !m17.ValidCallsign(c.callsign) {
		return fmt.Errorf("invalid callsign %q", c.callsign)
	}
	if !m17.ValidCallsign(c.destination) {
		return fmt.Errorf("invalid destination %q", c.destination)
	}
	if c.can > 15 {
		return fmt.Errorf("CAN %d out of range 0-15", c.can)
	}

	switch c.modemType {
	case MODEM_UDP, MODEM_LOOPBACK:
	case MODEM_SERIAL:
		if c.serialPort == "" {
			return fmt.Errorf("serial modem requires SerialPort")
		}
	default:
		return fmt.Errorf("unknown modem type %q", c.modemType)
	}

	if c.positionEnabled && (c.latitude < -90 || c.latitude > 90 || c.longitude < -180 || c.longitude > 180) {
		return fmt.Errorf("position %f,%f out of range", c.latitude, c.longitude)
	}
	return nil
}

// SetCallsign overrides the configured callsign
func (c *Config) SetCallsign(callsign string) { c.callsign = strings.ToUpper(callsign) }

// SetModemType overrides the configured modem transport
func (c *Config) SetModemType(modemType string) { c.modemType = strings.ToLower(modemType) }

// Getter methods for General section
func (c *Config) GetFilename() string    { return c.filename }
func (c *Config) GetCallsign() string    { return c.callsign }
func (c *Config) GetDestination() string { return c.destination }
func (c *Config) GetCAN() uint8          { return c.can }
func (c *Config) GetMetatext() string    { return c.metatext }

// Getter methods for M17 section
func (c *Config) GetCANRxCheck() bool      { return c.canRxCheck }
func (c *Config) GetSMSEnabled() bool      { return c.smsEnabled }
func (c *Config) GetSMSMatchCall() bool    { return c.smsMatchCall }
func (c *Config) GetGNSSBeacon() bool      { return c.gnssBeacon }
func (c *Config) GetBeaconSeconds() uint32 { return c.beaconSeconds }
func (c *Config) GetStationType() uint8    { return c.stationType }
func (c *Config) GetTxPhaseInvert() bool   { return c.txPhaseInvert }
func (c *Config) GetRxPhaseInvert() bool   { return c.rxPhaseInvert }

// Getter methods for Modem section
func (c *Config) GetModemType() string     { return c.modemType }
func (c *Config) GetLocalAddress() string  { return c.localAddress }
func (c *Config) GetLocalPort() uint32     { return c.localPort }
func (c *Config) GetRemoteAddress() string { return c.remoteAddress }
func (c *Config) GetRemotePort() uint32    { return c.remotePort }
func (c *Config) GetSerialPort() string    { return c.serialPort }
func (c *Config) GetSerialBaud() uint32    { return c.serialBaud }
func (c *Config) GetLockTimeoutMs() uint32 { return c.lockTimeoutMs }

// Getter methods for Audio section
func (c *Config) GetAudioInput() string  { return c.audioInput }
func (c *Config) GetAudioOutput() string { return c.audioOutput }

// Getter methods for GPIO section
func (c *Config) GetGPIOEnabled() bool   { return c.gpioEnabled }
func (c *Config) GetGPIOChip() string    { return c.gpioChip }
func (c *Config) GetPTTLine() int        { return c.pttLine }
func (c *Config) GetRxLEDLine() int      { return c.rxLEDLine }
func (c *Config) GetTxLEDLine() int      { return c.txLEDLine }
func (c *Config) GetPTTActiveHigh() bool { return c.pttActive }

// Getter methods for Position section
func (c *Config) GetPositionEnabled() bool { return c.positionEnabled }
func (c *Config) GetLatitude() float64     { return c.latitude }
func (c *Config) GetLongitude() float64    { return c.longitude }
func (c *Config) GetAltitude() float64     { return c.altitude }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool     { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string      { return c.databasePath }
func (c *Config) GetDatabaseCacheSize() uint32 { return c.databaseCacheSize }
func (c *Config) GetDatabaseDebug() bool       { return c.databaseDebug }

// Getter methods for Log section
func (c *Config) GetLogLevel() string { return c.logLevel }
