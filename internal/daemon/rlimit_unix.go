//go:build unix

package daemon

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setNoFileLimit raises RLIMIT_NOFILE to n. An unprivileged process
// cannot raise the hard limit, so on failure the request is clamped to
// the current hard limit and retried.
func setNoFileLimit(n uint64) error {
	rl := unix.Rlimit{Cur: n, Max: n}
	err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rl)
	if err == nil {
		return nil
	}

	var cur unix.Rlimit
	if gerr := unix.Getrlimit(unix.RLIMIT_NOFILE, &cur); gerr != nil || n <= cur.Max {
		return fmt.Errorf("setrlimit nofile %d: %w", n, err)
	}
	rl = unix.Rlimit{Cur: cur.Max, Max: cur.Max}
	if rerr := unix.Setrlimit(unix.RLIMIT_NOFILE, &rl); rerr != nil {
		return fmt.Errorf("setrlimit nofile %d: %w", n, err)
	}
	return nil
}
