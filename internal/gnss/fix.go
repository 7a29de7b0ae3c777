// Package gnss provides position fixes for GNSS beacons and the helpers used
// to display received ones.
package gnss

import (
	"math"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/dbehnke/m17link/internal/m17"
)

// FixType is the quality class of a position fix
type FixType uint8

const (
	FIX_NONE FixType = iota
	FIX_2D
	FIX_3D
)

func (t FixType) String() string {
	switch t {
	case FIX_2D:
		return "2D"
	case FIX_3D:
		return "3D"
	}
	return "none"
}

// Fix is a position report
type Fix struct {
	Latitude  float64 // Degrees, north positive
	Longitude float64 // Degrees, east positive
	Altitude  float64 // Metres above sea level
	Speed     float64 // km/h
	Bearing   float64 // Degrees true
	Type      FixType
	Time      time.Time

	hasSpeed   bool
	hasBearing bool
}

// Valid reports whether the fix carries a usable position
func (f Fix) Valid() bool {
	return f.Type != FIX_NONE
}

// WithMotion returns the fix with speed and bearing marked valid
func (f Fix) WithMotion(speed, bearing float64) Fix {
	f.Speed = speed
	f.Bearing = bearing
	f.hasSpeed = true
	f.hasBearing = true
	return f
}

// LatLng returns the fix position as an s2 point
func (f Fix) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(f.Latitude, f.Longitude)
}

func toMicroDegrees(deg float64) int32 {
	return int32(math.Round(deg * 1e6))
}

// Beacon encodes the fix as an LSF GNSS beacon
func (f Fix) Beacon(stationType uint8) m17.GNSS {
	g := m17.GNSS{
		DataSource:  m17.GNSS_SOURCE_OPENRTX,
		StationType: stationType,
	}
	if !f.Valid() {
		return g
	}

	g.Validity = m17.GNSS_VALID_LATLON
	g.Latitude = toMicroDegrees(f.Latitude)
	g.Longitude = toMicroDegrees(f.Longitude)

	if f.Type == FIX_3D {
		g.Validity |= m17.GNSS_VALID_ALTITUDE
		g.Altitude = float32(f.Altitude)
	}
	if f.hasSpeed {
		g.Validity |= m17.GNSS_VALID_SPEED
		g.Speed = float32(f.Speed)
	}
	if f.hasBearing {
		g.Validity |= m17.GNSS_VALID_BEARING
		g.Bearing = uint16(math.Mod(math.Round(f.Bearing)+360, 360))
	}
	return g
}

// FromBeacon converts a received GNSS beacon into a fix. Fields whose
// validity bit is clear are left unset.
func FromBeacon(g m17.GNSS, at time.Time) Fix {
	var f Fix
	if !g.Has(m17.GNSS_VALID_LATLON) {
		return f
	}

	f.Type = FIX_2D
	f.Time = at
	f.Latitude = float64(g.Latitude) / 1e6
	f.Longitude = float64(g.Longitude) / 1e6
	if g.Has(m17.GNSS_VALID_ALTITUDE) {
		f.Type = FIX_3D
		f.Altitude = float64(g.Altitude)
	}
	if g.Has(m17.GNSS_VALID_SPEED) {
		f.Speed = float64(g.Speed)
		f.hasSpeed = true
	}
	if g.Has(m17.GNSS_VALID_BEARING) {
		f.Bearing = float64(g.Bearing)
		f.hasBearing = true
	}
	return f
}

// EARTH_RADIUS_KM is the mean earth radius
const EARTH_RADIUS_KM = 6371.0088

// Distance returns the great circle distance between two fixes in km
func Distance(a, b Fix) float64 {
	return a.LatLng().Distance(b.LatLng()).Radians() * EARTH_RADIUS_KM
}

// Bearing returns the initial bearing from a to b in degrees true
func Bearing(a, b Fix) float64 {
	from, to := a.LatLng(), b.LatLng()
	dLng := to.Lng - from.Lng

	y := math.Sin(dLng.Radians()) * math.Cos(to.Lat.Radians())
	x := math.Cos(from.Lat.Radians())*math.Sin(to.Lat.Radians()) -
		math.Sin(from.Lat.Radians())*math.Cos(to.Lat.Radians())*math.Cos(dLng.Radians())

	deg := s1.Angle(math.Atan2(y, x)).Degrees()
	return math.Mod(deg+360, 360)
}
