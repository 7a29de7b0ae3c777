package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbehnke/m17link/internal/m17"
)

var matchCmd = &cobra.Command{
	Use:   "match LOCAL INCOMING",
	Short: "Check whether a message to INCOMING would be accepted by LOCAL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if m17.MatchCallsign(args[0], args[1]) {
			fmt.Fprintln(cmd.OutOrStdout(), "match")
			return nil
		}
		return fmt.Errorf("%s does not match %s", args[1], args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
