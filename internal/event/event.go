// Package event defines the descriptor types handed to the record engine.
// Descriptors are read-only snapshots assembled by a capture layer; nothing
// in this package mutates them. Optional data is modeled as nil pointers,
// empty strings or the sentinel constants below, never as fabricated zero
// values.
package event

import (
	"encoding/hex"
	"fmt"
	"time"
)

// NoID marks a user or group id the capture layer could not determine.
// Serializers render it as signed -1 and skip name resolution.
const NoID uint32 = 0xffffffff

// Timespec is a wall-clock instant with nanosecond precision.
type Timespec struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// Now returns the current instant.
func Now() Timespec {
	t := time.Now()
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// IsZero reports whether the instant is unset.
func (ts Timespec) IsZero() bool {
	return ts.Sec == 0 && ts.Nsec == 0
}

// Code identifies the record schema of an event. The numeric values are
// part of the record format and must not be reordered.
type Code uint

const (
	CodeOps Code = iota
	CodeStats
	CodeImageExec
	CodeProcessAccess
	CodeLaunchdAdd
	CodeSocketListen
	CodeSocketAccept
	CodeSocketConnect

	// CodeCount is the number of defined event codes.
	CodeCount
)

var codeNames = [CodeCount]string{
	CodeOps:           "ops",
	CodeStats:         "stats",
	CodeImageExec:     "image_exec",
	CodeProcessAccess: "process_access",
	CodeLaunchdAdd:    "launchd_add",
	CodeSocketListen:  "socket_listen",
	CodeSocketAccept:  "socket_accept",
	CodeSocketConnect: "socket_connect",
}

// String returns the canonical kind name for the code.
func (c Code) String() string {
	if c < CodeCount {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint(c))
}

// CodeByName maps a kind name back to its code.
func CodeByName(name string) (Code, bool) {
	for c, n := range codeNames {
		if n == name {
			return Code(c), true
		}
	}
	return 0, false
}

// Header carries the fields common to all events: the wall-clock time the
// event was observed and its record schema code.
type Header struct {
	Time Timespec `json:"time"`
	Code Code     `json:"-"`
}

// EventHeader returns the header. Embedding Header satisfies Event.
func (h Header) EventHeader() Header { return h }

// Event is implemented by every descriptor type in this package through an
// embedded Header. The record engine only serializes the types defined
// here; handing it anything else is a programming error.
type Event interface {
	EventHeader() Header
}

// NoDev marks an absent terminal device.
const NoDev Dev = -1

// Dev is a terminal device number in the darwin packed encoding: the top
// byte holds the major number, the lower 24 bits the minor number.
type Dev int32

// Major returns the device major number.
func (d Dev) Major() uint32 { return uint32(d>>24) & 0xff }

// Minor returns the device minor number.
func (d Dev) Minor() uint32 { return uint32(d) & 0xffffff }

// String renders the device as "major,minor".
func (d Dev) String() string {
	return fmt.Sprintf("%d,%d", d.Major(), d.Minor())
}

// Buf is a byte buffer that travels as a lowercase hex string in JSON.
// Digests and cdhashes use it so that spooled descriptors and emitted
// records spell hashes the same way.
type Buf []byte

// MarshalJSON renders the buffer as a hex string.
func (b Buf) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]byte, hex.EncodedLen(len(b))+2)
	out[0] = '"'
	hex.Encode(out[1:], b)
	out[len(out)-1] = '"'
	return out, nil
}

// UnmarshalJSON parses a hex string or null.
func (b *Buf) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("event: buf is not a hex string")
	}
	out := make([]byte, hex.DecodedLen(len(data)-2))
	if _, err := hex.Decode(out, data[1:len(data)-1]); err != nil {
		return fmt.Errorf("event: decode buf: %w", err)
	}
	*b = out
	return nil
}
