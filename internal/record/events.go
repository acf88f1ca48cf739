package record

import (
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/sink"
)

// writeImageExec serializes an image execution: the invocation, the
// executed image and optional script as full objects, and the executing
// process as subject. Reconstructed executions carry no subject
// credentials; their subject dict holds only the execution context.
func (e *Emitter) writeImageExec(s sink.Sink, ev *event.ImageExec) {
	if ev.Reconstructed {
		s.Key("reconstructed")
		s.Bool(true)
	}
	if len(ev.Argv) > 0 {
		s.Key("argv")
		s.BeginList()
		for _, arg := range ev.Argv {
			s.ListItem("arg")
			s.String(arg)
		}
		s.EndList()
	}
	if len(ev.Env) > 0 {
		s.Key("env")
		s.BeginList()
		for _, v := range ev.Env {
			s.ListItem("var")
			s.String(v)
		}
		s.EndList()
	}
	if ev.CWD != "" {
		s.Key("cwd")
		s.String(ev.CWD)
	}
	s.Key("image")
	e.writeImage(s, ev)
	if ev.Script != nil {
		s.Key("script")
		e.writeImage(s, ev.Script)
	}
	subj := ev.Subject
	if ev.Reconstructed {
		subj = nil
	}
	s.Key("subject")
	e.writeProcess(s, subj, 0, ev.Prev)
}

// writeProcessAccess serializes one process acting on another. The
// object may be a full credential set or a bare pid; ObjectImage covers
// the image in the bare-pid case.
func (e *Emitter) writeProcessAccess(s sink.Sink, ev *event.ProcessAccess) {
	s.Key("method")
	s.String(ev.Method)
	s.Key("object")
	e.writeProcess(s, ev.Object, ev.ObjectPID, ev.ObjectImage)
	s.Key("subject")
	e.writeProcess(s, ev.Subject, 0, nil)
}

// writeLaunchdAdd serializes a background service registration. The
// program dict carries whatever subset of rpath, path and argv the plist
// yielded; the subject is dropped for registrations with no acting
// process.
func (e *Emitter) writeLaunchdAdd(s sink.Sink, ev *event.LaunchdAdd) {
	s.Key("plist")
	s.BeginDict()
	s.Key("path")
	s.String(ev.PlistPath)
	s.EndDict()

	s.Key("program")
	s.BeginDict()
	if ev.ProgramRPath != "" {
		s.Key("rpath")
		s.String(ev.ProgramRPath)
	}
	if ev.ProgramPath != "" {
		s.Key("path")
		s.String(ev.ProgramPath)
	}
	if len(ev.ProgramArgv) > 0 {
		s.Key("argv")
		s.BeginList()
		for _, arg := range ev.ProgramArgv {
			s.ListItem("arg")
			s.String(arg)
		}
		s.EndList()
	}
	s.EndDict()

	if !ev.NoSubject {
		s.Key("subject")
		e.writeProcess(s, ev.Subject, 0, nil)
	}
}

// writeSocketOp serializes a socket listen, accept or connect. Address
// and port travel as a pair: an address the capture layer could not
// extract drops its port too. Listen records never carry a peer.
func (e *Emitter) writeSocketOp(s sink.Sink, ev *event.SocketOp) {
	if ev.Proto != "" {
		s.Key("proto")
		s.String(ev.Proto)
	}
	if ev.SockAddr.IsValid() {
		s.Key("sockaddr")
		s.String(ev.SockAddr.String())
		s.Key("sockport")
		s.Uint(uint64(ev.SockPort))
	}
	if ev.Code != event.CodeSocketListen && ev.PeerAddr.IsValid() {
		s.Key("peeraddr")
		s.String(ev.PeerAddr.String())
		s.Key("peerport")
		s.Uint(uint64(ev.PeerPort))
	}
	s.Key("subject")
	e.writeProcess(s, ev.Subject, 0, nil)
}
