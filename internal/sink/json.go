package sink

import (
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/mailru/easyjson/jwriter"

	"github.com/avetisov/esmon/internal/event"
)

// JSON encodes records as JSON objects with fields in exactly the order
// the engine emits them. Indented records span multiple lines; compact
// records take a single line. Every record ends with a newline.
type JSON struct {
	w      jwriter.Writer
	indent bool
	depth  int
	first  bool
	data   []byte
	err    error
}

// NewJSON returns a JSON sink.
func NewJSON(indent bool) *JSON {
	return &JSON{w: jwriter.Writer{NoEscapeHTML: true}, indent: indent}
}

func (s *JSON) fail(msg string) {
	if s.err == nil {
		s.err = errors.New("sink: " + msg)
	}
}

const indentStep = "  "

func (s *JSON) newline() {
	s.w.RawByte('\n')
	for i := 0; i < s.depth; i++ {
		s.w.RawString(indentStep)
	}
}

// BeginRecord starts a record. The buffer must be clean.
func (s *JSON) BeginRecord() {
	if s.err != nil {
		return
	}
	if s.depth != 0 {
		s.fail("record begin inside container")
	}
}

// EndRecord terminates the record with a newline.
func (s *JSON) EndRecord() {
	if s.err != nil {
		return
	}
	if s.depth != 0 {
		s.fail("record end inside container")
		return
	}
	s.w.RawByte('\n')
}

func (s *JSON) BeginDict() {
	if s.err != nil {
		return
	}
	s.w.RawByte('{')
	s.depth++
	s.first = true
}

func (s *JSON) EndDict() {
	if s.err != nil {
		return
	}
	if s.depth == 0 {
		s.fail("dict end without begin")
		return
	}
	wasEmpty := s.first
	s.depth--
	if s.indent && !wasEmpty {
		s.newline()
	}
	s.w.RawByte('}')
	s.first = false
}

func (s *JSON) Key(name string) {
	if s.err != nil {
		return
	}
	if s.depth == 0 {
		s.fail("key outside container")
		return
	}
	if !s.first {
		s.w.RawByte(',')
	}
	if s.indent {
		s.newline()
	}
	s.w.String(name)
	s.w.RawByte(':')
	if s.indent {
		s.w.RawByte(' ')
	}
	s.first = false
}

func (s *JSON) BeginList() {
	if s.err != nil {
		return
	}
	s.w.RawByte('[')
	s.depth++
	s.first = true
}

func (s *JSON) EndList() {
	if s.err != nil {
		return
	}
	if s.depth == 0 {
		s.fail("list end without begin")
		return
	}
	wasEmpty := s.first
	s.depth--
	if s.indent && !wasEmpty {
		s.newline()
	}
	s.w.RawByte(']')
	s.first = false
}

// ListItem introduces the next list element. JSON has no item labels.
func (s *JSON) ListItem(string) {
	if s.err != nil {
		return
	}
	if s.depth == 0 {
		s.fail("list item outside container")
		return
	}
	if !s.first {
		s.w.RawByte(',')
	}
	if s.indent {
		s.newline()
	}
	s.first = false
}

func (s *JSON) String(v string) {
	if s.err != nil {
		return
	}
	s.w.String(v)
}

func (s *JSON) Int(v int64) {
	if s.err != nil {
		return
	}
	s.w.Int64(v)
}

func (s *JSON) Uint(v uint64) {
	if s.err != nil {
		return
	}
	s.w.Uint64(v)
}

// Octal renders the value as a string of octal digits. JSON numbers have
// no octal form.
func (s *JSON) Octal(v uint32) {
	if s.err != nil {
		return
	}
	s.w.RawByte('"')
	s.w.RawString(strconv.FormatUint(uint64(v), 8))
	s.w.RawByte('"')
}

func (s *JSON) Bool(v bool) {
	if s.err != nil {
		return
	}
	s.w.Bool(v)
}

func (s *JSON) Null() {
	if s.err != nil {
		return
	}
	s.w.RawString("null")
}

func (s *JSON) Time(ts event.Timespec) {
	if s.err != nil {
		return
	}
	s.w.String(formatTime(ts))
}

func (s *JSON) Hex(b []byte) {
	if s.err != nil {
		return
	}
	s.w.RawByte('"')
	s.w.RawString(hex.EncodeToString(b))
	s.w.RawByte('"')
}

func (s *JSON) Device(d event.Dev) {
	if s.err != nil {
		return
	}
	s.w.String(d.String())
}

func (s *JSON) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.w.Error
}

func (s *JSON) Bytes() []byte {
	if s.data == nil {
		data, err := s.w.BuildBytes()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.data = data
	}
	return s.data
}

func (s *JSON) Reset() {
	s.w = jwriter.Writer{NoEscapeHTML: true}
	s.depth = 0
	s.first = false
	s.data = nil
	s.err = nil
}
