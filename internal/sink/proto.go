package sink

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strconv"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/avetisov/esmon/internal/event"
)

// Proto encodes records as varint-delimited protobuf Struct messages,
// suitable for streaming consumers. Struct fields are maps, so unlike the
// JSON and text sinks this format orders keys canonically rather than in
// emission order; marshaling is deterministic, so identical records still
// produce identical bytes.
type Proto struct {
	root    *structpb.Struct
	stack   []protoFrame
	key     string
	haveKey bool
	out     bytes.Buffer
	err     error
}

type protoFrame struct {
	dict *structpb.Struct
	list *structpb.ListValue
}

// NewProto returns a protobuf sink.
func NewProto() *Proto {
	return &Proto{}
}

func (s *Proto) fail(msg string) {
	if s.err == nil {
		s.err = errors.New("sink: " + msg)
	}
}

// attach places a finished value into the open container.
func (s *Proto) attach(v *structpb.Value) {
	if len(s.stack) == 0 {
		s.fail("value outside container")
		return
	}
	top := &s.stack[len(s.stack)-1]
	if top.dict != nil {
		if !s.haveKey {
			s.fail("value without key")
			return
		}
		top.dict.Fields[s.key] = v
		s.haveKey = false
		return
	}
	top.list.Values = append(top.list.Values, v)
}

func (s *Proto) BeginRecord() {
	if s.err != nil {
		return
	}
	if len(s.stack) != 0 {
		s.fail("record begin inside container")
	}
}

func (s *Proto) EndRecord() {
	if s.err != nil {
		return
	}
	if len(s.stack) != 0 {
		s.fail("record end inside container")
		return
	}
	if s.root == nil {
		s.fail("record without dict")
		return
	}
	opts := protodelim.MarshalOptions{
		MarshalOptions: proto.MarshalOptions{Deterministic: true},
	}
	if _, err := opts.MarshalTo(&s.out, s.root); err != nil && s.err == nil {
		s.err = err
	}
	s.root = nil
}

func (s *Proto) BeginDict() {
	if s.err != nil {
		return
	}
	st := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	if len(s.stack) == 0 {
		s.root = st
	} else {
		s.attach(structpb.NewStructValue(st))
	}
	s.stack = append(s.stack, protoFrame{dict: st})
}

func (s *Proto) EndDict() {
	if s.err != nil {
		return
	}
	if len(s.stack) == 0 || s.stack[len(s.stack)-1].dict == nil {
		s.fail("dict end without begin")
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Proto) Key(name string) {
	if s.err != nil {
		return
	}
	if len(s.stack) == 0 || s.stack[len(s.stack)-1].dict == nil {
		s.fail("key outside dict")
		return
	}
	s.key = name
	s.haveKey = true
}

func (s *Proto) BeginList() {
	if s.err != nil {
		return
	}
	lst := &structpb.ListValue{}
	if len(s.stack) == 0 {
		s.fail("list at record level")
		return
	}
	s.attach(structpb.NewListValue(lst))
	s.stack = append(s.stack, protoFrame{list: lst})
}

func (s *Proto) EndList() {
	if s.err != nil {
		return
	}
	if len(s.stack) == 0 || s.stack[len(s.stack)-1].list == nil {
		s.fail("list end without begin")
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// ListItem is positional in this format; the label is dropped.
func (s *Proto) ListItem(string) {}

func (s *Proto) String(v string) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewStringValue(v))
}

func (s *Proto) Int(v int64) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewNumberValue(float64(v)))
}

func (s *Proto) Uint(v uint64) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewNumberValue(float64(v)))
}

// Octal carries the value as a string of octal digits, like JSON.
func (s *Proto) Octal(v uint32) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewStringValue(strconv.FormatUint(uint64(v), 8)))
}

func (s *Proto) Bool(v bool) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewBoolValue(v))
}

func (s *Proto) Null() {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewNullValue())
}

func (s *Proto) Time(ts event.Timespec) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewStringValue(formatTime(ts)))
}

func (s *Proto) Hex(b []byte) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewStringValue(hex.EncodeToString(b)))
}

func (s *Proto) Device(d event.Dev) {
	if s.err != nil {
		return
	}
	s.attach(structpb.NewStringValue(d.String()))
}

func (s *Proto) Err() error { return s.err }

func (s *Proto) Bytes() []byte { return s.out.Bytes() }

func (s *Proto) Reset() {
	s.root = nil
	s.stack = s.stack[:0]
	s.haveKey = false
	s.out.Reset()
	s.err = nil
}
