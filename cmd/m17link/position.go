package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dbehnke/m17link/internal/gnss"
	"github.com/dbehnke/m17link/internal/m17"
)

// latLonFlag parses "LAT,LON" in decimal degrees
type latLonFlag struct {
	fix gnss.Fix
	set bool
}

var _ pflag.Value = (*latLonFlag)(nil)

func (f *latLonFlag) String() string {
	if !f.set {
		return ""
	}
	return fmt.Sprintf("%.6f,%.6f", f.fix.Latitude, f.fix.Longitude)
}

func (f *latLonFlag) Set(value string) error {
	lat, lon, err := parseLatLon(value)
	if err != nil {
		return err
	}
	f.fix = gnss.NewStatic(lat, lon, 0).Position()
	f.set = true
	return nil
}

func (f *latLonFlag) Type() string { return "lat,lon" }

func parseLatLon(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected LAT,LON, got %q", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return lat, lon, nil
}

var (
	positionTo        latLonFlag
	positionDecode    string
	positionPrecision int
)

var positionCmd = &cobra.Command{
	Use:   "position [LAT,LON]",
	Short: "Show a position as grid references and as an M17 GNSS beacon",
	Long: `Show a position as MGRS and UTM references together with the LSF
metadata a GNSS beacon would carry. Without an argument the configured
station position is used. --decode reads a beacon from hex metadata instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showPosition,
}

func init() {
	positionCmd.Flags().Var(&positionTo, "to", "Also show distance and bearing to LAT,LON")
	positionCmd.Flags().StringVar(&positionDecode, "decode", "", "Decode 14 bytes of hex GNSS metadata")
	positionCmd.Flags().IntVar(&positionPrecision, "precision", 5, "MGRS digits per axis (1-5)")
	rootCmd.AddCommand(positionCmd)
}

func showPosition(cmd *cobra.Command, args []string) error {
	fix, err := positionFix(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "position  %.6f,%.6f (%s)\n", fix.Latitude, fix.Longitude, fix.Type)

	if ref, err := gnss.MGRS(fix, positionPrecision); err == nil {
		fmt.Fprintf(out, "mgrs      %s\n", ref)
	} else {
		fmt.Fprintf(out, "mgrs      %v\n", err)
	}
	if ref, err := gnss.UTM(fix); err == nil {
		fmt.Fprintf(out, "utm       %s\n", ref)
	} else {
		fmt.Fprintf(out, "utm       %v\n", err)
	}

	meta := fix.Beacon(m17.GNSS_STATION_FIXED).Meta()
	fmt.Fprintf(out, "beacon    %s\n", hex.EncodeToString(meta[:]))

	if positionTo.set {
		fmt.Fprintf(out, "distance  %.2f km\n", gnss.Distance(fix, positionTo.fix))
		fmt.Fprintf(out, "bearing   %.0f°\n", gnss.Bearing(fix, positionTo.fix))
	}
	return nil
}

func positionFix(args []string) (gnss.Fix, error) {
	if positionDecode != "" {
		raw, err := hex.DecodeString(positionDecode)
		if err != nil {
			return gnss.Fix{}, fmt.Errorf("invalid hex: %w", err)
		}
		var meta m17.Meta
		if len(raw) != len(meta) {
			return gnss.Fix{}, fmt.Errorf("metadata must be %d bytes, got %d", len(meta), len(raw))
		}
		copy(meta[:], raw)
		fix := gnss.FromBeacon(m17.ParseGNSS(meta), time.Now())
		if !fix.Valid() {
			return gnss.Fix{}, fmt.Errorf("beacon carries no position")
		}
		return fix, nil
	}

	if len(args) == 1 {
		lat, lon, err := parseLatLon(args[0])
		if err != nil {
			return gnss.Fix{}, err
		}
		return gnss.NewStatic(lat, lon, 0).Position(), nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return gnss.Fix{}, err
	}
	if !cfg.GetPositionEnabled() {
		return gnss.Fix{}, fmt.Errorf("no position configured in %s", cfg.GetFilename())
	}
	return gnss.NewStatic(cfg.GetLatitude(), cfg.GetLongitude(), cfg.GetAltitude()).Position(), nil
}
