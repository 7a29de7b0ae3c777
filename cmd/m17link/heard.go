package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbehnke/m17link/internal/database"
)

var (
	heardLimit   int
	heardSince   time.Duration
	heardPattern string
)

var heardCmd = &cobra.Command{
	Use:   "heard",
	Short: "List stations heard",
	Args:  cobra.NoArgs,
	RunE:  listHeard,
}

func init() {
	heardCmd.Flags().IntVarP(&heardLimit, "limit", "n", 20, "Maximum stations shown")
	heardCmd.Flags().DurationVar(&heardSince, "since", 0, "Only stations heard within this window")
	heardCmd.Flags().StringVar(&heardPattern, "callsign", "", "Callsign pattern, % matches anything")
	rootCmd.AddCommand(heardCmd)
}

func listHeard(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.Heard()
	var stations []database.HeardStation
	switch {
	case heardPattern != "":
		stations, err = repo.FindByCallsignPattern(heardPattern, heardLimit)
	case heardSince > 0:
		stations, err = repo.Since(time.Now().Add(-heardSince), heardLimit)
	default:
		stations, err = repo.Recent(heardLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range stations {
		fmt.Fprintln(out, s.String())
	}
	total, err := repo.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d stations\n", len(stations), total)
	return nil
}
