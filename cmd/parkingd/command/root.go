// Package command provides the parkingd CLI. The root command runs the
// HTTP server together with the reconciler and the alert workers.
//
//	./parkingd [-c /path/to/config.yaml]            # start server
//	./parkingd seed [-c /path/to/config.yaml]       # insert missing slots
//	./parkingd reconcile [-c /path/to/config.yaml]  # one repair pass
package command

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campus-parking-backend/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "parkingd",
	Short: "Campus parking reservation backend",
	Long: `Campus parking reservation backend.
Serves the slot listing, statistics, reservation and contact endpoints,
keeps slot status consistent with recorded reservations through a
scheduled reconciler and notifies operators through web push, email
and SMS when a booking cannot be rolled back.`,
	SilenceUsage: true,
	RunE:         serve,
}

// Execute parses the CLI flags and runs the matching command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadEnv, fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// loadEnv reads a .env file when present. A missing file is not an error.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}
}

// fixConfigPath picks the config path from the flag, CONFIG_PATH, or the
// local development default, in that order.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_PATH"); !found {
		cfgPath = "./config/config.yaml"
	}
}

// loadConfig loads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("configuration loaded", "path", cfgPath)
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", "parkingd")
}
