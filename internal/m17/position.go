package m17

// Fixed-point position constants
const (
	FIXED_POINT_MAX    = 8388607 // 2^23 - 1
	MAX_LATITUDE_UDEG  = 90000000
	MAX_LONGITUDE_UDEG = 180000000
)

// EncodeLatitude converts micro-degrees into the 24-bit fixed-point form
func EncodeLatitude(microDeg int32) int32 {
	return encodeFixed(microDeg, MAX_LATITUDE_UDEG)
}

// DecodeLatitude converts the 24-bit fixed-point form into micro-degrees
func DecodeLatitude(fixed int32) int32 {
	return decodeFixed(fixed, MAX_LATITUDE_UDEG)
}

// EncodeLongitude converts micro-degrees into the 24-bit fixed-point form
func EncodeLongitude(microDeg int32) int32 {
	return encodeFixed(microDeg, MAX_LONGITUDE_UDEG)
}

// DecodeLongitude converts the 24-bit fixed-point form into micro-degrees
func DecodeLongitude(fixed int32) int32 {
	return decodeFixed(fixed, MAX_LONGITUDE_UDEG)
}

func encodeFixed(microDeg int32, fullScale int64) int32 {
	v := int64(microDeg)
	if v > fullScale {
		v = fullScale
	} else if v < -fullScale {
		v = -fullScale
	}
	return int32(divRound(v*FIXED_POINT_MAX, fullScale))
}

func decodeFixed(fixed int32, fullScale int64) int32 {
	v := int64(fixed)
	if v > FIXED_POINT_MAX {
		v = FIXED_POINT_MAX
	} else if v < -FIXED_POINT_MAX {
		v = -FIXED_POINT_MAX
	}
	return int32(divRound(v*fullScale, FIXED_POINT_MAX))
}

// divRound divides rounding half away from zero
func divRound(num, den int64) int64 {
	if num < 0 {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}

func putInt24(b []byte, v int32) {
	u := uint32(v) & 0xFFFFFF
	b[0] = byte(u >> 16)
	b[1] = byte(u >> 8)
	b[2] = byte(u)
}

func int24(b []byte) int32 {
	u := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	if u&0x800000 != 0 {
		u |= 0xFF000000
	}
	return int32(u)
}
