package dest

import "os"

// Stdout returns the standard output destination. Close is a no-op; the
// stream belongs to the process.
func Stdout() Dest { return stdoutDest{} }

type stdoutDest struct{}

func (stdoutDest) Write(rec []byte) error {
	_, err := os.Stdout.Write(rec)
	return err
}

func (stdoutDest) Close() error { return nil }
