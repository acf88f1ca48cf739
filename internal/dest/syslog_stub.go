//go:build windows || plan9

package dest

import "fmt"

// OpenSyslog is unavailable on platforms without a syslog daemon.
func OpenSyslog(tag string) (Dest, error) {
	return nil, fmt.Errorf("dest: syslog is not supported on this platform")
}
