// Package dest delivers encoded records to the configured destination.
// A destination receives complete records, one Write per record, in
// emission order; it never inspects or reorders them.
package dest

import (
	"fmt"

	"github.com/avetisov/esmon/internal/config"
)

// Dest receives encoded records. The record slice is only valid for the
// duration of the call.
type Dest interface {
	Write(rec []byte) error
	Close() error
}

// Reopener is implemented by destinations that can release and reacquire
// their backing file, for log rotation.
type Reopener interface {
	Reopen() error
}

// New opens the destination selected by the configuration.
func New(cfg *config.Config) (Dest, error) {
	switch cfg.Log.Dest {
	case "stdout":
		return Stdout(), nil
	case "file":
		return OpenFile(cfg.Log.File)
	case "chain":
		return OpenChain(cfg.Log.File)
	case "syslog":
		return OpenSyslog(cfg.ID)
	case "sqlite":
		return OpenSQLite(cfg.Log.File)
	case "grpc":
		return DialCollector(cfg.Log.Addr)
	default:
		return nil, fmt.Errorf("dest: unknown destination %q", cfg.Log.Dest)
	}
}
