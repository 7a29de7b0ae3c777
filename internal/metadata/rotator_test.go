package metadata

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/m17link/internal/m17"
	"github.com/dbehnke/m17link/internal/timer"
)

func tickSuperFrame(t *testing.T, r *Rotator) Slot {
	t.Helper()
	for i := 0; i < SUPER_FRAME_LENGTH-1; i++ {
		require.False(t, r.Tick().Update, "update before super-frame boundary")
	}
	return r.Tick()
}

func TestRotatorNoText(t *testing.T) {
	r := NewRotator(5 * time.Second)
	_, ok := r.Start("", false)
	assert.False(t, ok)
	assert.False(t, r.Pending())

	s := tickSuperFrame(t, r)
	assert.True(t, s.Update)
	assert.Equal(t, ClaimNone, s.Claim)
}

func TestRotatorSendsTextOnce(t *testing.T) {
	r := NewRotator(5 * time.Second)
	text := strings.Repeat("a", 13) + strings.Repeat("b", 13) + "c"
	first, ok := r.Start(text, false)
	require.True(t, ok)
	assert.Equal(t, byte(0x71), first.Control)
	assert.True(t, r.Pending())

	s := tickSuperFrame(t, r)
	assert.Equal(t, ClaimText, s.Claim)
	assert.Equal(t, byte(0x72), s.Text.Control)

	s = tickSuperFrame(t, r)
	assert.Equal(t, ClaimText, s.Claim)
	assert.Equal(t, byte(0x74), s.Text.Control)
	assert.False(t, r.Pending())

	s = tickSuperFrame(t, r)
	assert.Equal(t, ClaimNone, s.Claim)
	assert.True(t, s.Update)
}

func TestRotatorGNSSBeacon(t *testing.T) {
	r := NewRotator(5 * time.Second)
	r.Start("", true)

	interval := timer.NewTimer(FRAMES_PER_SECOND, 5*time.Second).TimeoutTicks()
	beacons := 0
	for i := 0; i < interval*3; i++ {
		if r.Tick().Claim == ClaimGNSS {
			beacons++
		}
	}
	// The beacon is only taken at super-frame boundaries, so slightly fewer than three
	assert.GreaterOrEqual(t, beacons, 2)
	assert.LessOrEqual(t, beacons, 3)
}

func TestRotatorGNSSAfterText(t *testing.T) {
	r := NewRotator(5 * time.Second)
	r.Start(strings.Repeat("q", 52), true)

	var claims []SlotClaim
	for i := 0; i < 126; i++ {
		if s := r.Tick(); s.Update {
			claims = append(claims, s.Claim)
		}
	}
	require.Len(t, claims, 21)
	assert.Equal(t, []SlotClaim{ClaimText, ClaimText, ClaimText}, claims[:3])
	for _, c := range claims[3:20] {
		assert.Equal(t, ClaimNone, c)
	}
	assert.Equal(t, ClaimGNSS, claims[20])
}

func TestRotatorMinimumInterval(t *testing.T) {
	r := NewRotator(time.Second)
	assert.Equal(t, MIN_BEACON_INTERVAL, r.BeaconInterval())
}

func TestRotatorRewind(t *testing.T) {
	r := NewRotator(5 * time.Second)
	r.Start("hello", false)
	assert.False(t, r.Pending())
	r.Rewind()
	assert.True(t, r.Pending())
}

func TestClaimOf(t *testing.T) {
	lsf, err := m17.NewLSF("N0CALL", "", 0)
	require.NoError(t, err)
	assert.Equal(t, ClaimNone, ClaimOf(lsf))

	lsf.SetMeta(m17.META_TEXT, m17.NewTextBlock(0, 1, []byte("hi")).Meta())
	assert.Equal(t, ClaimText, ClaimOf(lsf))

	lsf.SetMeta(m17.META_GNSS, m17.GNSS{}.Meta())
	assert.Equal(t, ClaimGNSS, ClaimOf(lsf))

	meta, err := m17.ExtendedCallsign{Originator: "AB1CD", Reflector: "M17-XYZ"}.Meta()
	require.NoError(t, err)
	lsf.SetMeta(m17.META_EXTD_CALLSIGN, meta)
	assert.Equal(t, ClaimRelay, ClaimOf(lsf))
	assert.Equal(t, "relay", ClaimOf(lsf).String())
}
