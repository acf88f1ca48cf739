package sink

import (
	"bufio"
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

func decodeProtoRecord(t *testing.T, data []byte) *structpb.Struct {
	t.Helper()
	var st structpb.Struct
	r := bufio.NewReader(bytes.NewReader(data))
	if err := protodelim.UnmarshalFrom(r, &st); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return &st
}

func TestProtoRecordRoundtrip(t *testing.T) {
	s := NewProto()
	writeSample(s)
	if err := s.Err(); err != nil {
		t.Fatalf("sample record: %v", err)
	}
	st := decodeProtoRecord(t, s.Bytes())

	if got := st.Fields["version"].GetNumberValue(); got != 1 {
		t.Errorf("version = %v, want 1", got)
	}
	if got := st.Fields["time"].GetStringValue(); got != "2023-11-14T22:13:20.123456789Z" {
		t.Errorf("time = %q", got)
	}
	image := st.Fields["image"].GetStructValue()
	if image == nil {
		t.Fatal("image missing")
	}
	if got := image.Fields["path"].GetStringValue(); got != "/bin/ls" {
		t.Errorf("image path = %q", got)
	}
	if got := image.Fields["mode"].GetStringValue(); got != "100755" {
		t.Errorf("image mode = %q", got)
	}
	if got := image.Fields["sha256"].GetStringValue(); got != "dead" {
		t.Errorf("image sha256 = %q", got)
	}
	argv := st.Fields["argv"].GetListValue()
	if argv == nil || len(argv.Values) != 2 {
		t.Fatalf("argv = %v, want two elements", argv)
	}
	if argv.Values[0].GetStringValue() != "ls" || argv.Values[1].GetStringValue() != "-l" {
		t.Errorf("argv = [%q %q]", argv.Values[0].GetStringValue(), argv.Values[1].GetStringValue())
	}
	if st.Fields["nothing"].AsInterface() != nil {
		t.Errorf("nothing = %v, want null", st.Fields["nothing"].AsInterface())
	}
	if got := st.Fields["id"].GetNumberValue(); got != -1 {
		t.Errorf("id = %v, want -1", got)
	}
	if got := st.Fields["tty"].GetStringValue(); got != "16,5" {
		t.Errorf("tty = %q, want 16,5", got)
	}
}

func TestProtoDeterministic(t *testing.T) {
	a := NewProto()
	b := NewProto()
	writeSample(a)
	writeSample(b)
	if a.Err() != nil || b.Err() != nil {
		t.Fatalf("record errors: %v, %v", a.Err(), b.Err())
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical records produced different bytes")
	}
}

func TestProtoScalarWithoutKey(t *testing.T) {
	s := NewProto()
	s.BeginRecord()
	s.BeginDict()
	s.Uint(7)
	if s.Err() == nil {
		t.Error("expected error for scalar without key")
	}
}

func TestProtoUnbalancedEnd(t *testing.T) {
	s := NewProto()
	s.BeginRecord()
	s.EndDict()
	if s.Err() == nil {
		t.Error("expected error for dict end without begin")
	}
}

func TestProtoRecordWithoutDict(t *testing.T) {
	s := NewProto()
	s.BeginRecord()
	s.EndRecord()
	if s.Err() == nil {
		t.Error("expected error for record without top dict")
	}
}

func TestProtoReset(t *testing.T) {
	s := NewProto()
	s.BeginRecord()
	s.EndDict()
	if s.Err() == nil {
		t.Fatal("expected error before reset")
	}
	s.Reset()
	if s.Err() != nil {
		t.Fatalf("error after reset: %v", s.Err())
	}
	writeSample(s)
	if err := s.Err(); err != nil {
		t.Fatalf("record after reset: %v", err)
	}
	if len(s.Bytes()) == 0 {
		t.Error("expected bytes after reset")
	}
}
