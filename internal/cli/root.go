// Package cli wires the esmon commands: the spool daemon, the offline
// replay path, chain verification and configuration diagnostics.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avetisov/esmon/internal/config"
	"github.com/avetisov/esmon/internal/integrity"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "esmon",
	Short: "Security event record serialization for endpoint monitors",
	Long: "Turns captured security event descriptors into structured, versioned\n" +
		"records and delivers them to a configured destination. Records carry\n" +
		"full provenance; diagnostics go to stderr, records to the destination.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to esmon.yaml (default /etc/esmon/esmon.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config. A missing file
// yields defaults; a broken file is an error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger. Records never pass through
// it; it writes operator diagnostics to stderr.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	return zcfg.Build()
}
