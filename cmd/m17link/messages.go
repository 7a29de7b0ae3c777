package main

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/cobra"

	"github.com/dbehnke/m17link/internal/database"
)

var (
	messagesLimit  int
	messagesFrom   string
	messagesFormat string
	messagesPurge  time.Duration
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List archived short messages",
	Args:  cobra.NoArgs,
	RunE:  listMessages,
}

func init() {
	messagesCmd.Flags().IntVarP(&messagesLimit, "limit", "n", 20, "Maximum messages shown")
	messagesCmd.Flags().StringVar(&messagesFrom, "from", "", "Only messages from this callsign")
	messagesCmd.Flags().StringVar(&messagesFormat, "time-format", "%Y-%m-%d %H:%M:%S", "strftime layout for timestamps")
	messagesCmd.Flags().DurationVar(&messagesPurge, "purge", 0, "Delete messages older than this before listing")
	rootCmd.AddCommand(messagesCmd)
}

func listMessages(cmd *cobra.Command, args []string) error {
	stamp, err := strftime.New(messagesFormat)
	if err != nil {
		return fmt.Errorf("invalid time format: %w", err)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.Messages()
	if messagesPurge > 0 {
		n, err := repo.DeleteOlderThan(time.Now().Add(-messagesPurge))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d messages\n", n)
	}

	var msgs []database.ArchivedMessage
	if messagesFrom != "" {
		msgs, err = repo.BySender(messagesFrom, messagesLimit)
	} else {
		msgs, err = repo.Recent(messagesLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range msgs {
		fmt.Fprintf(out, "%s  %-9s %s\n", stamp.FormatString(m.ReceivedAt.Local()), m.Sender, m.Body)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, "no messages")
	}
	return nil
}
