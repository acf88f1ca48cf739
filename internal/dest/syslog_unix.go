//go:build !windows && !plan9

package dest

import (
	"bytes"
	"fmt"
	"log/syslog"
)

type syslogDest struct {
	w *syslog.Writer
}

// OpenSyslog connects to the local syslog daemon. Records go out at
// LOG_INFO under the daemon facility, one message per record.
func OpenSyslog(tag string) (Dest, error) {
	if tag == "" {
		tag = "esmon"
	}
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, fmt.Errorf("dest: open syslog: %w", err)
	}
	return &syslogDest{w: w}, nil
}

func (d *syslogDest) Write(rec []byte) error {
	if err := d.w.Info(string(bytes.TrimRight(rec, "\n"))); err != nil {
		return fmt.Errorf("dest: write syslog: %w", err)
	}
	return nil
}

func (d *syslogDest) Close() error {
	return d.w.Close()
}
