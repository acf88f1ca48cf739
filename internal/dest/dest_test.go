package dest

import (
	"path/filepath"
	"testing"

	"github.com/avetisov/esmon/internal/config"
)

func TestNewSelectsDestination(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		dest string
		file string
		addr string
	}{
		{dest: "stdout"},
		{dest: "file", file: filepath.Join(dir, "records.json")},
		{dest: "chain", file: filepath.Join(dir, "records.chain")},
		{dest: "sqlite", file: filepath.Join(dir, "records.db")},
		{dest: "grpc", addr: "localhost:9443"},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			cfg := config.Default()
			cfg.Log.Dest = tt.dest
			cfg.Log.File = tt.file
			cfg.Log.Addr = tt.addr

			d, err := New(cfg)
			if err != nil {
				t.Fatalf("New(%s): %v", tt.dest, err)
			}
			if d == nil {
				t.Fatalf("New(%s): nil destination", tt.dest)
			}
			d.Close()
		})
	}
}

func TestNewRejectsUnknownDestination(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Dest = "carrier-pigeon"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown destination")
	}
}

func TestStdoutCloseIsNoop(t *testing.T) {
	d := Stdout()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}
