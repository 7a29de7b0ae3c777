// Package metadata schedules and decodes the LSF metadata field carried in
// the LICH of a voice stream: free text, GNSS position and relay callsigns.
package metadata

import "github.com/dbehnke/m17link/internal/m17"

// SlotClaim names which kind of metadata owns the LSF meta field
type SlotClaim uint8

const (
	ClaimNone SlotClaim = iota
	ClaimRelay
	ClaimText
	ClaimGNSS
)

func (c SlotClaim) String() string {
	switch c {
	case ClaimRelay:
		return "relay"
	case ClaimText:
		return "text"
	case ClaimGNSS:
		return "gnss"
	}
	return "none"
}

// ClaimOf returns the claim an LSF carries. An empty text field claims nothing.
func ClaimOf(lsf m17.LinkSetupFrame) SlotClaim {
	if lsf.Type().EncryptionType() != m17.ENCRYPTION_NONE {
		return ClaimNone
	}
	switch lsf.Type().MetaType() {
	case m17.META_EXTD_CALLSIGN:
		return ClaimRelay
	case m17.META_GNSS:
		return ClaimGNSS
	case m17.META_TEXT:
		if lsf.Meta()[0] != 0 {
			return ClaimText
		}
	}
	return ClaimNone
}
