package event

import "net/netip"

// Ops is an operational state change of the monitor itself: startup,
// shutdown, or an explicit configuration dump. The record carries the
// effective configuration and build provenance alongside the op name.
type Ops struct {
	Header
	Op string `json:"op"`
}

// ProcessAccess describes one process acting on another through a
// debugger-style interface. Object identifies the target: either a full
// credential set in Object, or a bare pid in ObjectPID when that is all
// the audit record carried. ObjectImage overrides the image attached to
// Object, covering the bare-pid case.
type ProcessAccess struct {
	Header
	Method string `json:"method"`

	Object      *Process   `json:"object,omitempty"`
	ObjectPID   int32      `json:"object_pid,omitempty"`
	ObjectImage *ImageExec `json:"object_image,omitempty"`

	Subject *Process `json:"subject,omitempty"`
}

// LaunchdAdd describes the registration of a background service: a
// property list appearing or changing, and the program it points at.
// Program fields are individually optional; a malformed plist may yield
// any subset.
type LaunchdAdd struct {
	Header
	PlistPath string `json:"plist_path"`

	ProgramRPath string   `json:"program_rpath,omitempty"`
	ProgramPath  string   `json:"program_path,omitempty"`
	ProgramArgv  []string `json:"program_argv,omitempty"`

	// NoSubject suppresses the subject dict, for registrations replayed
	// from disk state where no acting process is known.
	NoSubject bool     `json:"no_subject,omitempty"`
	Subject   *Process `json:"subject,omitempty"`
}

// SocketOp describes a listen, accept, or connect on a network socket.
// The header code distinguishes the three; listen events have no peer.
// An unset address means the capture layer could not extract it, and the
// corresponding address and port pair is omitted from the record.
type SocketOp struct {
	Header
	Proto string `json:"proto,omitempty"`

	SockAddr netip.Addr `json:"sock_addr,omitzero"`
	SockPort uint16     `json:"sock_port,omitempty"`

	PeerAddr netip.Addr `json:"peer_addr,omitzero"`
	PeerPort uint16     `json:"peer_port,omitempty"`

	Subject *Process `json:"subject,omitempty"`
}
