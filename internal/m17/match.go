package m17

import "strings"

// Group destinations every station listens to
var reservedDestinations = []string{"ALL", "INFO", "ECHO"}

// Maximum index of a '/' that still marks a prefix tag ("EA/", "RPT/")
const maxPrefixSlash = 3

// Minimum index of a space that marks an appended qualifier
const minQualifierSpace = 4

// MatchCallsign reports whether an incoming destination addresses the
// local station. Prefix tags and trailing qualifiers are ignored.
func MatchCallsign(local, incoming string) bool {
	for _, r := range reservedDestinations {
		if local == r || incoming == r {
			return true
		}
	}

	local = stripPrefix(local)
	incoming = stripPrefix(incoming)
	if local == incoming {
		return true
	}

	return stripQualifier(local) == stripQualifier(incoming)
}

func stripPrefix(cs string) string {
	if slash := strings.IndexByte(cs, '/'); slash >= 0 && slash <= maxPrefixSlash {
		return cs[slash+1:]
	}
	return cs
}

func stripQualifier(cs string) string {
	if space := strings.IndexByte(cs, ' '); space >= minQualifierSpace {
		return cs[:space]
	}
	return cs
}
