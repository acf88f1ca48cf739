package ingest

import (
	"testing"

	"github.com/avetisov/esmon/internal/event"
)

func FuzzParse(f *testing.F) {
	// Seed with a real exec line
	execLine, err := Marshal(&event.ImageExec{
		Header: event.Header{Time: event.Timespec{Sec: 1700000000}, Code: event.CodeImageExec},
		PID:    1234,
		Path:   "/bin/ls",
		Argv:   []string{"ls", "-l"},
		Subject: &event.Process{
			PID: 1234, AUID: 501, EUID: 501, EGID: 20, RUID: 501, RGID: 20,
			SID: 100001, Dev: event.NoDev,
		},
	})
	if err != nil {
		f.Fatal(err)
	}
	f.Add(execLine)

	f.Add([]byte(`{"event":"ops","data":{"op":"start"}}`))
	f.Add([]byte(`{"event":"socket_connect","data":{"proto":"tcp","peer_addr":"::1","peer_port":443}}`))

	// Empty
	f.Add([]byte{})

	// Unknown kind
	f.Add([]byte(`{"event":"image_raze","data":{}}`))

	// Totally invalid
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, line []byte) {
		// Must not panic
		ev, err := Parse(line)
		if err != nil {
			return
		}
		// Anything that parses must marshal back
		if _, err := Marshal(ev); err != nil {
			t.Fatalf("parsed descriptor does not marshal: %v", err)
		}
	})
}
