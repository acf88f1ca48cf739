package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/ident"
	"github.com/avetisov/esmon/internal/record"
	"github.com/avetisov/esmon/internal/sink"
	"github.com/avetisov/esmon/internal/systemd"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Print the effective configuration as an ops record",
	Long: `Loads the configuration and prints the ops record the daemon would emit
at startup: binary build, complete effective configuration with the hash
of the file it came from, and host identity. Nothing is written to the
configured destination. A broken configuration file is reported as the
error it would cause.

When the daemon is installed under systemd, doctor also checks the unit
file against the hash recorded at install time and warns on stderr if it
has been modified.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snk, err := sink.New("json", false)
	if err != nil {
		return err
	}
	em := record.NewEmitter(cfg, ident.System())

	ev := &event.Ops{
		Header: event.Header{Time: event.Now(), Code: event.CodeOps},
		Op:     "doctor",
	}
	if err := em.Emit(snk, ev); err != nil {
		return fmt.Errorf("emit ops record: %w", err)
	}
	if _, err := os.Stdout.Write(snk.Bytes()); err != nil {
		return err
	}

	if warning := systemd.CheckUnitFileIntegrity(); warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	return nil
}
