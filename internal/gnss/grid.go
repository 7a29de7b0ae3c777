package gnss

import (
	"fmt"

	"github.com/tzneal/coordconv"
)

// MGRS renders the fix as a Military Grid Reference System string.
// Precision is the number of digits per axis, 1 to 5.
func MGRS(f Fix, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		return "", fmt.Errorf("mgrs precision %d out of range", precision)
	}
	coord, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(f.LatLng(), precision)
	if err != nil {
		return "", fmt.Errorf("mgrs: %w", err)
	}
	return fmt.Sprint(coord), nil
}

// UTM renders the fix as a UTM zone, hemisphere, easting and northing
func UTM(f Fix) (string, error) {
	coord, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(f.LatLng(), 0)
	if err != nil {
		return "", fmt.Errorf("utm: %w", err)
	}

	hemi := 'N'
	if coord.Hemisphere == coordconv.HemisphereSouth {
		hemi = 'S'
	}
	return fmt.Sprintf("%d%c %.0f %.0f", coord.Zone, hemi, coord.Easting, coord.Northing), nil
}
