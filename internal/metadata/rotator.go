package metadata

import (
	"time"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/timer"
)

const (
	// SUPER_FRAME_LENGTH is the number of stream frames needed to carry one LSF in the LICH
	SUPER_FRAME_LENGTH = 6
	// FRAMES_PER_SECOND is the stream frame rate (40 ms frames)
	FRAMES_PER_SECOND = 25
	// MIN_BEACON_INTERVAL is the shortest allowed time between GNSS beacons
	MIN_BEACON_INTERVAL = 5 * time.Second

	noText = -1
)

// Slot is what the rotator wants done at a frame tick
type Slot struct {
	Claim  SlotClaim     // Metadata to place in the next LSF
	Update bool          // A refreshed LSF must be staged
	Text   m17.TextBlock // Block to send when Claim is ClaimText
}

// Rotator decides, once per super-frame, which metadata the outgoing LSF
// carries. Free text is sent once per transmission; GNSS beacons follow
// at the beacon interval once no text block is mid-sequence.
type Rotator struct {
	counter  int
	blocks   []m17.TextBlock
	next     int
	gnss     bool
	beacon   *timer.Timer
	interval time.Duration
}

// NewRotator creates a rotator. Intervals under five seconds are raised.
func NewRotator(beaconInterval time.Duration) *Rotator {
	if beaconInterval < MIN_BEACON_INTERVAL {
		beaconInterval = MIN_BEACON_INTERVAL
	}
	return &Rotator{
		next:     noText,
		beacon:   timer.NewTimer(FRAMES_PER_SECOND, beaconInterval),
		interval: beaconInterval,
	}
}

// BeaconInterval returns the effective beacon interval
func (r *Rotator) BeaconInterval() time.Duration {
	return r.interval
}

// Start prepares a new transmission. When text is given its first block is
// returned so it can be placed in the initial LSF.
func (r *Rotator) Start(text string, gnss bool) (m17.TextBlock, bool) {
	r.counter = 0
	r.gnss = gnss
	r.blocks = SplitText(text)
	r.beacon.Start()
	if len(r.blocks) == 0 {
		r.next = noText
		return m17.TextBlock{}, false
	}
	r.advance(0)
	return r.blocks[0], true
}

// Rewind resets the text position without starting a transmission
func (r *Rotator) Rewind() {
	r.counter = 0
	r.beacon.Stop()
	if len(r.blocks) == 0 {
		r.next = noText
	} else {
		r.next = 0
	}
}

// Pending reports whether text blocks remain to be sent
func (r *Rotator) Pending() bool {
	return r.next != noText
}

func (r *Rotator) advance(sent int) {
	r.next = sent + 1
	if r.next >= len(r.blocks) {
		r.next = noText
	}
}

// Tick is called once per transmitted stream frame
func (r *Rotator) Tick() Slot {
	r.beacon.Clock(1)

	r.counter++
	if r.counter < SUPER_FRAME_LENGTH {
		return Slot{Claim: ClaimNone}
	}
	r.counter = 0

	if r.gnss && r.beacon.HasExpired() && (r.next == noText || r.next == 0) {
		r.beacon.Start()
		return Slot{Claim: ClaimGNSS, Update: true}
	}

	if r.next == noText {
		return Slot{Claim: ClaimNone, Update: true}
	}

	block := r.blocks[r.next]
	r.advance(r.next)
	return Slot{Claim: ClaimText, Update: true, Text: block}
}
