// Package daemon runs the spool consumer: a watched directory of
// descriptor files, drained in name order through the record pipeline.
// Producers drop one .ndjson file per batch, written under a .tmp name
// and renamed into place; the daemon processes each file once and
// removes it, quarantining files it cannot parse.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/avetisov/esmon/internal/config"
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/pipeline"
)

// Config holds daemon runtime configuration beyond the monitor
// configuration file.
type Config struct {
	Dirs         DirConfig
	PollMode     bool
	PollInterval time.Duration
}

// Daemon watches the spool directory and feeds descriptor files to the
// record pipeline.
type Daemon struct {
	mcfg *config.Config
	dcfg Config
	pipe *pipeline.Pipeline
	proc *Processor
	log  *zap.Logger
}

// New creates a daemon, opening the record pipeline from the monitor
// configuration.
func New(mcfg *config.Config, dcfg Config, logger *zap.Logger) (*Daemon, error) {
	if dcfg.Dirs.Spool == "" || dcfg.Dirs.State == "" {
		return nil, fmt.Errorf("spool and state directories are required")
	}
	if dcfg.PollInterval == 0 {
		dcfg.PollInterval = pollDefault
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pipe, err := pipeline.Open(mcfg, logger)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		mcfg: mcfg,
		dcfg: dcfg,
		pipe: pipe,
		proc: NewProcessor(dcfg.Dirs, pipe, logger),
		log:  logger,
	}, nil
}

// Run starts the daemon. Blocks until ctx is cancelled. On startup,
// existing spool files are drained before the watcher takes over.
// SIGHUP reopens the destination for log rotation.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.dcfg.Dirs); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// Acquire PID file lock to prevent duplicate instances.
	pidPath := filepath.Join(d.dcfg.Dirs.State, "esmond.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	if d.mcfg.LimitNoFile > 0 {
		if err := setNoFileLimit(d.mcfg.LimitNoFile); err != nil {
			d.log.Warn("could not raise open file limit",
				zap.Uint64("limit", d.mcfg.LimitNoFile),
				zap.Error(err))
		}
	}

	if same, err := sameFilesystem(d.dcfg.Dirs.Spool, d.dcfg.Dirs.State); err == nil && !same {
		d.log.Warn("spool and state are on different filesystems, quarantine moves will copy")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				d.log.Info("reopening destination")
				if err := d.pipe.Reopen(); err != nil {
					d.log.Error("reopen failed", zap.Error(err))
				}
			}
		}
	}()

	if err := d.pipe.Log(d.opsEvent("start")); err != nil {
		d.log.Error("start record failed", zap.Error(err))
	}
	defer func() {
		if err := d.pipe.Log(d.opsEvent("stop")); err != nil {
			d.log.Error("stop record failed", zap.Error(err))
		}
		if err := d.pipe.Close(); err != nil {
			d.log.Error("destination close failed", zap.Error(err))
		}
	}()

	handler := func(path string) {
		if err := d.proc.Process(path); err != nil {
			d.log.Error("spool file failed",
				zap.String("file", filepath.Base(path)),
				zap.Error(err))
		}
	}

	// Drain files that arrived while the daemon was down.
	if err := ScanExisting(d.dcfg.Dirs.Spool, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if d.mcfg.StatsInterval > 0 {
		go d.runStatsSweeper(ctx)
	}

	if d.dcfg.PollMode {
		pw := NewPollWatcher(d.dcfg.Dirs.Spool, handler, d.dcfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewSpoolWatcher(d.dcfg.Dirs.Spool, handler)
	return w.Run(ctx)
}

// runStatsSweeper periodically emits a stats record through the
// pipeline itself.
func (d *Daemon) runStatsSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(d.mcfg.StatsInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.pipe.Log(d.statsEvent()); err != nil {
				d.log.Error("stats record failed", zap.Error(err))
			}
		}
	}
}

// opsEvent builds a lifecycle record for this daemon instance.
func (d *Daemon) opsEvent(op string) *event.Ops {
	return &event.Ops{
		Header: event.Header{Time: event.Now(), Code: event.CodeOps},
		Op:     op,
	}
}

// statsEvent assembles the counter snapshot. Counter groups for
// subsystems this consumer does not run stay zero.
func (d *Daemon) statsEvent() *event.Stats {
	st := &event.Stats{
		Header: event.Header{Time: event.Now(), Code: event.CodeStats},
	}
	st.Evtloop.Lost, st.Evtloop.Unknown = d.proc.Counters()
	st.LogQueue = d.pipe.Stats()
	st.LogQueue.Buckets = uint64(d.spoolBacklog())
	return st
}

// spoolBacklog counts spool files waiting to be drained.
func (d *Daemon) spoolBacklog() int {
	entries, err := os.ReadDir(d.dcfg.Dirs.Spool)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && isSpoolFile(e.Name()) {
			n++
		}
	}
	return n
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	// Check for existing PID file.
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			// Check if the process is still running.
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file, remove it.
		_ = os.Remove(path)
	}

	// Write our PID.
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
