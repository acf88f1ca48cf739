package sink

import (
	"strings"
	"testing"
)

func TestTextRecord(t *testing.T) {
	s := NewText()
	writeSample(s)
	if err := s.Err(); err != nil {
		t.Fatalf("sample record: %v", err)
	}
	want := strings.Join([]string{
		"version: 1",
		"time: 2023-11-14T22:13:20.123456789Z",
		"eventcode: 2",
		"image:",
		"  path: /bin/ls",
		"  mode: 100755",
		"  sha256: dead",
		"argv:",
		"  arg[0]: ls",
		"  arg[1]: -l",
		"flag: true",
		"nothing: -",
		"id: -1",
		"tty: 16,5",
		"",
		"",
	}, "\n")
	if got := string(s.Bytes()); got != want {
		t.Errorf("text record mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestTextNestedListOfDicts(t *testing.T) {
	s := NewText()
	s.BeginRecord()
	s.BeginDict()
	s.Key("ancestors")
	s.BeginList()
	s.ListItem("ancestor")
	s.BeginDict()
	s.Key("exec_pid")
	s.Int(100)
	s.EndDict()
	s.ListItem("ancestor")
	s.BeginDict()
	s.Key("exec_pid")
	s.Int(1)
	s.EndDict()
	s.EndList()
	s.EndDict()
	s.EndRecord()
	if err := s.Err(); err != nil {
		t.Fatalf("nested record: %v", err)
	}
	want := strings.Join([]string{
		"ancestors:",
		"  ancestor[0]:",
		"    exec_pid: 100",
		"  ancestor[1]:",
		"    exec_pid: 1",
		"",
		"",
	}, "\n")
	if got := string(s.Bytes()); got != want {
		t.Errorf("nested record mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestTextQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/bin/ls", "s: /bin/ls\n\n"},
		{"empty", "", "s: \"\"\n\n"},
		{"dash", "-", "s: \"-\"\n\n"},
		{"control", "a\nb", "s: \"a\\nb\"\n\n"},
		{"spaces kept", "a b", "s: a b\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewText()
			s.BeginRecord()
			s.BeginDict()
			s.Key("s")
			s.String(tt.in)
			s.EndDict()
			s.EndRecord()
			if err := s.Err(); err != nil {
				t.Fatalf("record: %v", err)
			}
			if got := string(s.Bytes()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextListItemOutsideList(t *testing.T) {
	s := NewText()
	s.BeginRecord()
	s.BeginDict()
	s.ListItem("arg")
	if s.Err() == nil {
		t.Error("expected error for list item inside dict")
	}
}

func TestTextScalarWithoutKey(t *testing.T) {
	s := NewText()
	s.BeginRecord()
	s.BeginDict()
	s.Uint(7)
	if s.Err() == nil {
		t.Error("expected error for scalar without key")
	}
}

func TestTextReset(t *testing.T) {
	s := NewText()
	writeSample(s)
	s.Reset()
	if s.Err() != nil {
		t.Fatalf("error after reset: %v", s.Err())
	}
	if len(s.Bytes()) != 0 {
		t.Errorf("expected empty buffer after reset, got %q", s.Bytes())
	}
	writeSample(s)
	if err := s.Err(); err != nil {
		t.Fatalf("record after reset: %v", err)
	}
}
