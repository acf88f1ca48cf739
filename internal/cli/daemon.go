package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avetisov/esmon/internal/daemon"
	"github.com/avetisov/esmon/internal/systemd"
)

var (
	daemonSpool        string
	daemonState        string
	daemonPollMode     bool
	daemonPollInterval time.Duration
	daemonPrintUnit    bool
	daemonRecordUnit   bool
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().StringVar(&daemonSpool, "spool", "/var/spool/esmon", "spool directory for descriptor files")
	daemonCmd.Flags().StringVar(&daemonState, "state", "/var/lib/esmon", "state directory for pid file and quarantine")
	daemonCmd.Flags().BoolVar(&daemonPollMode, "poll", false, "use polling instead of inotify")
	daemonCmd.Flags().DurationVar(&daemonPollInterval, "poll-interval", 0, "polling interval (default 5s)")
	daemonCmd.Flags().BoolVar(&daemonPrintUnit, "print-unit", false, "print the systemd unit file and exit")
	daemonCmd.Flags().BoolVar(&daemonRecordUnit, "record-unit-hash", false, "store the installed unit file hash and exit")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the spool consumer",
	Long: `Watches the spool directory for descriptor files and serializes them
through the record pipeline to the configured destination, one record per
descriptor, in file order. Drained files are removed; files that cannot
be parsed move to the failed directory under the state directory.

SIGHUP reopens the destination for log rotation.

Examples:
  esmon daemon --spool /var/spool/esmon --state /var/lib/esmon
  esmon daemon --poll        # use polling instead of inotify
  esmon daemon --print-unit  # emit the systemd unit for installation`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if daemonPrintUnit {
		fmt.Print(systemd.DaemonTemplate())
		return nil
	}
	if daemonRecordUnit {
		// Install step: remember the unit file hash so doctor can
		// detect later tampering.
		return systemd.RecordUnitFileHash()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dcfg := daemon.Config{
		Dirs: daemon.DirConfig{
			Spool: daemonSpool,
			State: daemonState,
		},
		PollMode:     daemonPollMode,
		PollInterval: daemonPollInterval,
	}

	d, err := daemon.New(cfg, dcfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "esmon daemon: spool %s, destination %s, format %s\n",
		daemonSpool, cfg.Log.Dest, cfg.Log.Format)
	if daemonPollMode {
		fmt.Fprintln(os.Stderr, "esmon daemon: watcher polling")
	}

	return d.Run(ctx)
}
