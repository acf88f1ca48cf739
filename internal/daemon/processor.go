package daemon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/avetisov/esmon/internal/ingest"
	"github.com/avetisov/esmon/internal/pipeline"
)

// Processor drains spool files through the record pipeline. One file is
// one ordered batch of descriptors; descriptors reach the destination
// in line order.
type Processor struct {
	dirs DirConfig
	pipe *pipeline.Pipeline
	log  *zap.Logger

	mu      sync.Mutex
	lost    uint64
	unknown uint64
}

// NewProcessor creates a processor feeding the given pipeline.
func NewProcessor(dirs DirConfig, pipe *pipeline.Pipeline, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{dirs: dirs, pipe: pipe, log: logger}
}

// Process consumes a single spool file: every descriptor on it goes
// through the pipeline in line order, then the file is removed. A file
// that stops parsing is quarantined with its error; descriptors before
// the bad line are already delivered. Lines naming an event kind this
// build does not know are skipped and counted, so files from newer
// producers still drain.
func (p *Processor) Process(path string) error {
	base := filepath.Base(path)

	// Structural symlink defense: reject symlinks before reading. This
	// prevents an attacker from symlinking spool files to arbitrary
	// paths on the filesystem. Without this, a symlink to any NDJSON
	// file would be logged as legitimate events.
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat spool file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		p.countLost()
		return p.quarantine(path, fmt.Errorf("rejected symlink: %s", base))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open spool file: %w", err)
	}

	r := ingest.NewReader(f)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ingest.ErrUnknownKind) {
			p.countUnknown()
			p.log.Warn("skipping unknown event kind",
				zap.String("file", base),
				zap.Int("line", r.Line()))
			continue
		}
		if err != nil {
			_ = f.Close()
			p.countLost()
			return p.quarantine(path, err)
		}
		if err := p.pipe.Log(ev); err != nil {
			p.log.Error("record dropped",
				zap.String("file", base),
				zap.Int("line", r.Line()),
				zap.Error(err))
		}
	}
	_ = f.Close()

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove spool file: %w", err)
	}
	p.log.Debug("spool file drained", zap.String("file", base))
	return nil
}

// quarantine moves a bad spool file to the failed directory so it
// cannot wedge the consumer, keeping it for inspection.
func (p *Processor) quarantine(path string, cause error) error {
	base := filepath.Base(path)
	dst := filepath.Join(p.dirs.FailedDir(), base)
	if err := moveFile(path, dst); err != nil {
		p.log.Error("quarantine failed",
			zap.String("file", base),
			zap.Error(err))
		return fmt.Errorf("%w (quarantine failed: %v)", cause, err)
	}
	p.log.Warn("spool file quarantined",
		zap.String("file", base),
		zap.Error(cause))
	return cause
}

// Counters reports how many spool files were abandoned with events
// unread, and how many lines named an unknown event kind.
func (p *Processor) Counters() (lost, unknown uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lost, p.unknown
}

func (p *Processor) countLost() {
	p.mu.Lock()
	p.lost++
	p.mu.Unlock()
}

func (p *Processor) countUnknown() {
	p.mu.Lock()
	p.unknown++
	p.mu.Unlock()
}
