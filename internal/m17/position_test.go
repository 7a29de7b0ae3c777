package m17

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// One quantum of the fixed-point representation, rounded up
const (
	latitudeTolerance  = 11
	longitudeTolerance = 22
)

func TestPositionRoundTripSamples(t *testing.T) {
	samples := []struct{ lat, lon int32 }{
		{0, 0},
		{90000000, 180000000},
		{-90000000, -180000000},
		{45123456, -93654321},
		{-33868820, 151209295},
		{1, -1},
	}

	for _, s := range samples {
		lat := DecodeLatitude(EncodeLatitude(s.lat))
		lon := DecodeLongitude(EncodeLongitude(s.lon))
		assert.InDelta(t, s.lat, lat, latitudeTolerance, "latitude %d", s.lat)
		assert.InDelta(t, s.lon, lon, longitudeTolerance, "longitude %d", s.lon)
	}
}

func TestPositionFullScale(t *testing.T) {
	assert.Equal(t, int32(FIXED_POINT_MAX), EncodeLatitude(MAX_LATITUDE_UDEG))
	assert.Equal(t, int32(-FIXED_POINT_MAX), EncodeLongitude(-MAX_LONGITUDE_UDEG))
	// Out of range input is clamped
	assert.Equal(t, int32(FIXED_POINT_MAX), EncodeLatitude(95000000))
}

func TestPositionRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat := rapid.Int32Range(-MAX_LATITUDE_UDEG, MAX_LATITUDE_UDEG).Draw(t, "lat")
		lon := rapid.Int32Range(-MAX_LONGITUDE_UDEG, MAX_LONGITUDE_UDEG).Draw(t, "lon")

		assert.InDelta(t, lat, DecodeLatitude(EncodeLatitude(lat)), latitudeTolerance)
		assert.InDelta(t, lon, DecodeLongitude(EncodeLongitude(lon)), longitudeTolerance)
	})
}

func TestInt24SignExtension(t *testing.T) {
	b := make([]byte, 3)
	for _, v := range []int32{0, 1, -1, FIXED_POINT_MAX, -FIXED_POINT_MAX} {
		putInt24(b, v)
		assert.Equal(t, v, int24(b))
	}
}
