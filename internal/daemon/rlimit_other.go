//go:build !unix

package daemon

// setNoFileLimit is a no-op on platforms without setrlimit.
func setNoFileLimit(n uint64) error {
	return nil
}
