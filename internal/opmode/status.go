package opmode

import "github.com/dbehnke/m17link/internal/gnss"

// OpStatus is the high level radio state shown to the rest of the system
type OpStatus uint8

const (
	OPSTATUS_OFF OpStatus = iota
	OPSTATUS_RX
	OPSTATUS_TX
)

func (s OpStatus) String() string {
	switch s {
	case OPSTATUS_RX:
		return "RX"
	case OPSTATUS_TX:
		return "TX"
	}
	return "OFF"
}

// Settings are the user options that shape receive and transmit behaviour
type Settings struct {
	CANRxCheck   bool // Only accept transmissions on our CAN
	SMSEnabled   bool // Reassemble incoming short messages
	SMSMatchCall bool // Only accept short messages addressed to us
	GNSSBeacon   bool // Send position beacons in the LSF metadata
}

// Status is shared between the engine and the layer that drives it. The
// caller owns the intent fields (callsigns, CAN, pending message, transmit
// disable); the engine owns OpStatus, LSFValid and the Last* outputs.
type Status struct {
	OpStatus OpStatus

	Source         string
	Destination    string
	CAN            uint8
	Metatext       string
	PendingSMS     bool
	SMSDestination string
	SMSMessage     string
	TxDisable      bool

	LSFValid        bool
	LastSource      string
	LastDestination string
	LastRelay       string
	LastReflector   string
	LastText        string
	LastPosition    gnss.Fix

	Settings
}
