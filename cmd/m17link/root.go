package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dbehnke/m17link/internal/config"
	"github.com/dbehnke/m17link/internal/database"
)

const VERSION = "1.0.0"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "m17link",
	Short: "M17 digital voice and messaging station",
	Long: `m17link runs the M17 operating mode against a baseband modem: it receives
voice, free text, positions and short messages, and transmits voice streams
and short messages.

Modems:
  udp:      frames exchanged as datagrams with a modem process
  serial:   KISS framed frames over a serial port
  loopback: in-memory link, for trying the station without hardware`,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", getDefaultConfig(), "Configuration file (.ini or .yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// getDefaultConfig returns the default configuration file path
func getDefaultConfig() string {
	for _, path := range []string{"m17link.ini", "m17link.yaml", "/etc/m17link.ini", "/etc/m17link.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "m17link.ini"
}

func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig(configFile)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "m17link",
	})

	level := cfg.GetLogLevel()
	if logLevel != "" {
		level = logLevel
	}
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}

// openDatabase opens the configured database for the read-only commands
func openDatabase() (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.GetDatabaseEnabled() {
		return nil, fmt.Errorf("database disabled in %s", cfg.GetFilename())
	}
	return database.NewDB(database.Config{Path: cfg.GetDatabasePath()}, nil)
}
