package dest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File appends records to a regular file. Reopen releases the current
// file and reopens the path, so an external rotation can move the old
// one away.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenFile opens (or creates) the record file for appending.
func OpenFile(path string) (*File, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, f: f}, nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("dest: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("dest: open file: %w", err)
	}
	return f, nil
}

func (d *File) Write(rec []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return fmt.Errorf("dest: file %s is closed", d.path)
	}
	if _, err := d.f.Write(rec); err != nil {
		return fmt.Errorf("dest: write %s: %w", d.path, err)
	}
	return nil
}

// Reopen swaps in a fresh file handle for the same path.
func (d *File) Reopen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := openAppend(d.path)
	if err != nil {
		return err
	}
	if d.f != nil {
		d.f.Close()
	}
	d.f = f
	return nil
}

func (d *File) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
