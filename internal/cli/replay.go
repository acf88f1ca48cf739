package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avetisov/esmon/internal/ingest"
	"github.com/avetisov/esmon/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay [file ...]",
	Short: "Serialize descriptor files through the configured pipeline",
	Long: `Reads NDJSON descriptor lines from the named files, or from stdin when
no file is given, and serializes each through the record pipeline to the
configured destination. The offline counterpart of the daemon: same
records, no watching, no lifecycle records.`,
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	pipe, err := pipeline.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pipe.Close(); cerr != nil {
			logger.Error("destination close failed", zap.Error(cerr))
		}
	}()

	var records, skipped, dropped int

	replayStream := func(name string, r io.Reader) error {
		in := ingest.NewReader(r)
		for {
			ev, err := in.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, ingest.ErrUnknownKind) {
				skipped++
				logger.Warn("skipping unknown event kind",
					zap.String("input", name),
					zap.Int("line", in.Line()))
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := pipe.Log(ev); err != nil {
				dropped++
				logger.Error("record dropped",
					zap.String("input", name),
					zap.Int("line", in.Line()),
					zap.Error(err))
				continue
			}
			records++
		}
	}

	if len(args) == 0 {
		if err := replayStream("stdin", os.Stdin); err != nil {
			return err
		}
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		err = replayStream(path, f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "replayed %d records", records)
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, ", %d unknown kinds skipped", skipped)
	}
	if dropped > 0 {
		fmt.Fprintf(os.Stderr, ", %d dropped", dropped)
	}
	fmt.Fprintln(os.Stderr)

	if dropped > 0 {
		return fmt.Errorf("%d records dropped", dropped)
	}
	return nil
}
