// Package ingest defines the wire format between producers and the
// record engine: newline-delimited JSON, one envelope per line, carrying
// the event kind and the descriptor. Producers are trusted, but spool
// files can be truncated or corrupted in transit, so parsing rejects
// unknown kinds and malformed lines instead of logging garbage.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avetisov/esmon/internal/event"
)

// envelope is one spool line: the kind name selects the descriptor type
// the data decodes into.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// maxLine bounds a single descriptor line. Exec events carry full argv
// and environment vectors, so the bound is generous.
const maxLine = 16 * 1024 * 1024

// ErrUnknownKind marks a well-formed envelope naming an event kind this
// build does not know. Consumers from newer producers skip these lines
// rather than quarantining the whole file.
var ErrUnknownKind = errors.New("unknown event kind")

// Parse decodes one envelope line into a typed descriptor. The header
// code is derived from the kind name, never from the data.
func Parse(line []byte) (event.Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	code, ok := event.CodeByName(env.Event)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, env.Event)
	}
	ev := newDescriptor(code)
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("parse %s data: %w", env.Event, err)
		}
	}
	return ev, nil
}

// newDescriptor returns a zero descriptor of the kind with the code
// pre-set. Unmarshaling never touches the code; it is excluded from the
// descriptor's JSON shape.
func newDescriptor(code event.Code) event.Event {
	hdr := event.Header{Code: code}
	switch code {
	case event.CodeOps:
		return &event.Ops{Header: hdr}
	case event.CodeStats:
		return &event.Stats{Header: hdr}
	case event.CodeImageExec:
		return &event.ImageExec{Header: hdr}
	case event.CodeProcessAccess:
		return &event.ProcessAccess{Header: hdr}
	case event.CodeLaunchdAdd:
		return &event.LaunchdAdd{Header: hdr}
	default:
		return &event.SocketOp{Header: hdr}
	}
}

// Marshal encodes a descriptor as one envelope line, newline included.
func Marshal(ev event.Event) ([]byte, error) {
	code := ev.EventHeader().Code
	if code >= event.CodeCount {
		return nil, fmt.Errorf("event code %d has no kind name", uint(code))
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", code, err)
	}
	line, err := json.Marshal(envelope{Event: code.String(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return append(line, '\n'), nil
}

// Reader streams descriptors from NDJSON input. Blank lines are skipped;
// any malformed line stops the stream with an error naming the line.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps an input stream.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next descriptor. io.EOF signals a clean end of input.
func (r *Reader) Next() (event.Event, error) {
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int { return r.line }

// WriteFile atomically writes descriptors as a spool file: the content
// goes to a temporary file in the target directory first, then renames
// into place, so a directory watcher never sees a half-written file.
func WriteFile(path string, evs []event.Event) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var buf bytes.Buffer
	for _, ev := range evs {
		line, err := Marshal(ev)
		if err != nil {
			return err
		}
		buf.Write(line)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename to final: %w", err)
	}
	return nil
}
