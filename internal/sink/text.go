package sink

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/avetisov/esmon/internal/event"
)

// Text encodes records as an indented key: value listing for operators.
// Nested dicts indent by two spaces, list elements carry their label and
// index, and records are separated by a blank line.
type Text struct {
	buf bytes.Buffer
	// counters holds one slot per open container: the element index for
	// lists, -1 for dicts.
	counters []int
	pending  bool
	err      error
}

// NewText returns a text sink.
func NewText() *Text {
	return &Text{}
}

func (s *Text) fail(msg string) {
	if s.err == nil {
		s.err = errors.New("sink: " + msg)
	}
}

func (s *Text) indent() {
	for i := 1; i < len(s.counters); i++ {
		s.buf.WriteString("  ")
	}
}

// value writes a rendered scalar after a pending key or list item.
func (s *Text) value(v string) {
	if s.err != nil {
		return
	}
	if !s.pending {
		s.fail("scalar without key")
		return
	}
	s.buf.WriteByte(' ')
	s.buf.WriteString(v)
	s.buf.WriteByte('\n')
	s.pending = false
}

func (s *Text) BeginRecord() {
	if s.err != nil {
		return
	}
	if len(s.counters) != 0 {
		s.fail("record begin inside container")
	}
}

func (s *Text) EndRecord() {
	if s.err != nil {
		return
	}
	if len(s.counters) != 0 {
		s.fail("record end inside container")
		return
	}
	s.buf.WriteByte('\n')
}

func (s *Text) BeginDict() {
	if s.err != nil {
		return
	}
	if s.pending {
		s.buf.WriteByte('\n')
		s.pending = false
	}
	s.counters = append(s.counters, -1)
}

func (s *Text) EndDict() {
	if s.err != nil {
		return
	}
	if len(s.counters) == 0 {
		s.fail("dict end without begin")
		return
	}
	s.counters = s.counters[:len(s.counters)-1]
}

func (s *Text) Key(name string) {
	if s.err != nil {
		return
	}
	if len(s.counters) == 0 {
		s.fail("key outside container")
		return
	}
	s.indent()
	s.buf.WriteString(name)
	s.buf.WriteByte(':')
	s.pending = true
}

func (s *Text) BeginList() {
	if s.err != nil {
		return
	}
	if s.pending {
		s.buf.WriteByte('\n')
		s.pending = false
	}
	s.counters = append(s.counters, 0)
}

func (s *Text) EndList() {
	if s.err != nil {
		return
	}
	if len(s.counters) == 0 {
		s.fail("list end without begin")
		return
	}
	s.counters = s.counters[:len(s.counters)-1]
}

func (s *Text) ListItem(label string) {
	if s.err != nil {
		return
	}
	top := len(s.counters) - 1
	if top < 0 || s.counters[top] < 0 {
		s.fail("list item outside list")
		return
	}
	s.indent()
	s.buf.WriteString(label)
	s.buf.WriteByte('[')
	s.buf.WriteString(strconv.Itoa(s.counters[top]))
	s.buf.WriteString("]:")
	s.counters[top]++
	s.pending = true
}

func (s *Text) String(v string) {
	if needsQuoting(v) {
		s.value(strconv.Quote(v))
		return
	}
	s.value(v)
}

func (s *Text) Int(v int64) { s.value(strconv.FormatInt(v, 10)) }

func (s *Text) Uint(v uint64) { s.value(strconv.FormatUint(v, 10)) }

func (s *Text) Octal(v uint32) { s.value(strconv.FormatUint(uint64(v), 8)) }

func (s *Text) Bool(v bool) { s.value(strconv.FormatBool(v)) }

// Null renders as a bare dash.
func (s *Text) Null() { s.value("-") }

func (s *Text) Time(ts event.Timespec) { s.value(formatTime(ts)) }

func (s *Text) Hex(b []byte) { s.value(hex.EncodeToString(b)) }

func (s *Text) Device(d event.Dev) { s.value(d.String()) }

func (s *Text) Err() error { return s.err }

func (s *Text) Bytes() []byte { return s.buf.Bytes() }

func (s *Text) Reset() {
	s.buf.Reset()
	s.counters = s.counters[:0]
	s.pending = false
	s.err = nil
}

// needsQuoting reports whether a string would be ambiguous or unprintable
// in the plain text layout.
func needsQuoting(v string) bool {
	if v == "" || v == "-" {
		return true
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] == 0x7f {
			return true
		}
	}
	return false
}
