package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runCallsign string
	runModem    string
	sendTo      string
	sendMessage string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the station",
	Long: `Run the station until interrupted.

Signals:
  SIGINT, SIGTERM  shut down
  SIGUSR1          toggle push-to-talk (when PTT is not on GPIO)
  SIGHUP           reload the configuration file`,
	Args: cobra.NoArgs,
	RunE: runStation,
}

func init() {
	runCmd.Flags().StringVar(&runCallsign, "callsign", "", "Override the configured callsign")
	runCmd.Flags().StringVar(&runModem, "modem", "", "Override the modem type (udp, serial, loopback)")
	runCmd.Flags().StringVar(&sendTo, "send-to", "", "Destination of a message sent at startup")
	runCmd.Flags().StringVar(&sendMessage, "message", "", "Message sent at startup")
	rootCmd.AddCommand(runCmd)
}

func runStation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runCallsign != "" {
		cfg.SetCallsign(runCallsign)
	}
	if runModem != "" {
		cfg.SetModemType(runModem)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)

	station, err := NewStation(cfg, logger)
	if err != nil {
		return err
	}

	if sendMessage != "" {
		if err := station.SendMessage(sendTo, sendMessage); err != nil {
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	go func() {
		for sig := range sigChan {
			switch sig {
			case syscall.SIGHUP:
				station.Reload()
			case syscall.SIGUSR1:
				station.TogglePTT()
			default:
				logger.Info("Received signal, shutting down", "signal", sig)
				station.Stop()
				return
			}
		}
	}()

	return station.Run()
}
