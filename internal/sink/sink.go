// Package sink turns the structural calls of the record engine into
// encoded bytes. A sink buffers exactly one record at a time: the engine
// drives the capability calls, the caller collects Bytes and calls Reset
// before the next record.
//
// Sinks carry a sticky error: the first failure is remembered, every
// later call is a no-op, and Err reports it after the record is complete.
package sink

import (
	"fmt"
	"time"

	"github.com/avetisov/esmon/internal/event"
)

// Sink receives one record as a sequence of structural and scalar calls.
//
// The call protocol mirrors the record shape: BeginRecord, one balanced
// BeginDict/EndDict tree with Key before every dict value and ListItem
// before every list element, then EndRecord. ListItem's label names the
// element for formats that display one; others ignore it.
type Sink interface {
	BeginRecord()
	EndRecord()

	BeginDict()
	EndDict()
	Key(name string)

	BeginList()
	EndList()
	ListItem(label string)

	String(v string)
	Int(v int64)
	Uint(v uint64)
	// Octal renders the value in octal digits. Formats without a native
	// octal representation carry it as a string.
	Octal(v uint32)
	Bool(v bool)
	Null()
	Time(ts event.Timespec)
	Hex(b []byte)
	Device(d event.Dev)

	// Err returns the first error encountered since the last Reset.
	Err() error
	// Bytes returns the encoded record after EndRecord. The slice is
	// valid until Reset.
	Bytes() []byte
	// Reset discards buffered output and clears the error.
	Reset()
}

// New returns the sink for a format name. With oneline, formats that can
// render compactly do so.
func New(format string, oneline bool) (Sink, error) {
	switch format {
	case "json":
		return NewJSON(!oneline), nil
	case "text":
		return NewText(), nil
	case "proto":
		return NewProto(), nil
	default:
		return nil, fmt.Errorf("sink: unknown format %q", format)
	}
}

// timeLayout pins record timestamps to UTC with full nanosecond digits so
// that equal instants always render equally.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(ts event.Timespec) string {
	return time.Unix(ts.Sec, ts.Nsec).UTC().Format(timeLayout)
}
