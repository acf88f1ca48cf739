// Package record turns event descriptors into structured records. The
// emitter owns the record layout: which fields appear, in which order,
// and how the redaction switches and identity resolution shape them.
// Encoding is the sink's job; the emitter only drives the structural
// calls.
//
// Field order is fixed per event kind, so two serializations of the same
// descriptor under the same configuration produce identical bytes on
// order-preserving formats.
package record

import (
	"fmt"

	"github.com/avetisov/esmon/internal/build"
	"github.com/avetisov/esmon/internal/config"
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/ident"
	"github.com/avetisov/esmon/internal/sink"
)

// Version is the record schema version carried in every envelope.
const Version = 1

// Emitter serializes event descriptors into records through a sink.
// Emitters are not safe for concurrent use; records are written strictly
// one after another.
type Emitter struct {
	cfg *config.Config
	ids ident.Resolver

	// Build and System are reported in ops records. NewEmitter fills
	// them with the binary's own provenance and the host identity.
	Build  build.Binary
	System build.System
}

// NewEmitter returns an emitter over the given configuration. A nil
// resolver, or resolution switched off in the configuration, disables
// name lookups.
func NewEmitter(cfg *config.Config, ids ident.Resolver) *Emitter {
	if ids == nil || !cfg.ResolveIDs {
		ids = ident.Disabled()
	}
	return &Emitter{
		cfg:    cfg,
		ids:    ids,
		Build:  build.Current(),
		System: build.Host(),
	}
}

// Emit writes one event as a complete record to the sink. The sink must
// be clean; the caller collects the bytes and resets it afterwards.
// Handing Emit an event type it has no serializer for is a programming
// error and panics.
func (e *Emitter) Emit(s sink.Sink, ev event.Event) error {
	hdr := ev.EventHeader()
	s.BeginRecord()
	s.BeginDict()
	s.Key("version")
	s.Uint(Version)
	s.Key("time")
	s.Time(hdr.Time)
	s.Key("eventcode")
	s.Uint(uint64(hdr.Code))

	switch ev := ev.(type) {
	case *event.Ops:
		e.writeOps(s, ev)
	case *event.Stats:
		e.writeStats(s, ev)
	case *event.ImageExec:
		e.writeImageExec(s, ev)
	case *event.ProcessAccess:
		e.writeProcessAccess(s, ev)
	case *event.LaunchdAdd:
		e.writeLaunchdAdd(s, ev)
	case *event.SocketOp:
		e.writeSocketOp(s, ev)
	default:
		panic(fmt.Sprintf("record: no serializer for %T", ev))
	}

	s.EndDict()
	s.EndRecord()
	return s.Err()
}

// writeUser emits an id field and, when resolution succeeds, the user
// name under nameKey. An unknown id renders as signed -1 and is never
// looked up.
func (e *Emitter) writeUser(s sink.Sink, idKey, nameKey string, id uint32) {
	s.Key(idKey)
	if id == event.NoID {
		s.Int(-1)
		return
	}
	s.Uint(uint64(id))
	if name, ok := e.ids.User(id); ok {
		s.Key(nameKey)
		s.String(name)
	}
}

// writeGroup is writeUser for group ids.
func (e *Emitter) writeGroup(s sink.Sink, idKey, nameKey string, id uint32) {
	s.Key(idKey)
	if id == event.NoID {
		s.Int(-1)
		return
	}
	s.Uint(uint64(id))
	if name, ok := e.ids.Group(id); ok {
		s.Key(nameKey)
		s.String(name)
	}
}

// writeHashes emits the digests of an image, honoring the platform image
// hash omission: a positively validated platform vendor image loses its
// hashes when omit.apple_hashes is on.
func (e *Emitter) writeHashes(s sink.Sink, img *event.ImageExec) {
	if img.Hashes == nil {
		return
	}
	if e.cfg.Omit.AppleHashes && img.Signature.Platform() {
		return
	}
	e.writeHashSet(s, img.Hashes)
}

// writeHashSet emits the digest kinds that are both configured and
// present. Script hashes come through here directly: scripts carry no
// signature, so the platform omission can never apply to them.
func (e *Emitter) writeHashSet(s sink.Sink, h *event.Hashes) {
	if e.cfg.Hashes.Has(config.HashMD5) && len(h.MD5) > 0 {
		s.Key("md5")
		s.Hex(h.MD5)
	}
	if e.cfg.Hashes.Has(config.HashSHA1) && len(h.SHA1) > 0 {
		s.Key("sha1")
		s.Hex(h.SHA1)
	}
	if e.cfg.Hashes.Has(config.HashSHA256) && len(h.SHA256) > 0 {
		s.Key("sha256")
		s.Hex(h.SHA256)
	}
}

// writeImage renders an image as a standalone object: the file it was
// loaded from, that file's attributes, content digests, and the code
// signature verdict. This is the rendering used for the image and script
// of an exec event.
func (e *Emitter) writeImage(s sink.Sink, img *event.ImageExec) {
	s.BeginDict()
	s.Key("path")
	s.String(img.Path)
	if st := img.Stat; st != nil {
		if !e.cfg.Omit.Mode {
			s.Key("mode")
			s.Octal(st.Mode)
		}
		e.writeUser(s, "uid", "uname", st.UID)
		if !e.cfg.Omit.Groups {
			e.writeGroup(s, "gid", "gname", st.GID)
		}
		if !e.cfg.Omit.Size {
			s.Key("size")
			s.Uint(st.Size)
		}
		if !e.cfg.Omit.Mtime {
			s.Key("mtime")
			s.Time(st.Mtime)
		}
		if !e.cfg.Omit.Ctime {
			s.Key("ctime")
			s.Time(st.Ctime)
		}
		if !e.cfg.Omit.Btime {
			s.Key("btime")
			s.Time(st.Btime)
		}
	}
	e.writeHashes(s, img)
	if sig := img.Signature; sig != nil {
		s.Key("signature")
		s.String(sig.Status.String())
		if sig.Origin != event.OriginUnknown {
			s.Key("origin")
			s.String(sig.Origin.String())
		}
		if len(sig.CDHash) > 0 {
			s.Key("cdhash")
			s.Hex(sig.CDHash)
		}
		if sig.Ident != "" {
			s.Key("ident")
			s.String(sig.Ident)
		}
		if sig.TeamID != "" {
			s.Key("teamid")
			s.String(sig.TeamID)
		}
		if sig.CertCN != "" {
			s.Key("certcn")
			s.String(sig.CertCN)
		}
	}
	s.EndDict()
}

// writeProcessImage renders an image as the execution context of a
// process: when and what it last executed, trimmed to the fields that
// identify the image. This is the rendering used for subject images and
// ancestry entries.
func (e *Emitter) writeProcessImage(s sink.Sink, img *event.ImageExec) {
	s.BeginDict()
	if !img.Reconstructed {
		s.Key("exec_time")
		s.Time(img.Time)
	}
	s.Key("exec_pid")
	s.Int(int64(img.PID))
	s.Key("path")
	s.String(img.Path)
	e.writeHashes(s, img)
	if sig := img.Signature; sig.Good() {
		if sig.Ident != "" {
			s.Key("ident")
			s.String(sig.Ident)
		}
		if sig.TeamID != "" {
			s.Key("teamid")
			s.String(sig.TeamID)
		}
	}
	if sc := img.Script; sc != nil {
		if sc.Signature != nil {
			panic("record: script image carries a signature")
		}
		s.Key("script")
		s.BeginDict()
		s.Key("path")
		s.String(sc.Path)
		if sc.Hashes != nil {
			e.writeHashSet(s, sc.Hashes)
		}
		s.EndDict()
	}
	s.EndDict()
}

// writeAncestors walks the prior image chain, newest first, bounded by
// the configured ancestor depth. The chain is not trusted to terminate;
// the depth counter is the only thing that stops the walk.
func (e *Emitter) writeAncestors(s sink.Sink, img *event.ImageExec) {
	s.BeginList()
	var depth config.Depth
	for cur := img; cur != nil && cur.PID > 0; cur = cur.Prev {
		if depth == e.cfg.Ancestors {
			break
		}
		s.ListItem("ancestor")
		e.writeProcessImage(s, cur)
		depth++
	}
	s.EndList()
}

// writeProcess renders a process dict: its identity, then its execution
// context. With pid > 0 only the bare pid is known and proc is ignored
// even when present. A nil img falls back to the image attached to proc;
// ancestry follows the image's prior chain when a depth is configured.
func (e *Emitter) writeProcess(s sink.Sink, proc *event.Process, pid int32, img *event.ImageExec) {
	if img == nil && proc != nil {
		img = proc.Image
	}
	s.BeginDict()
	if img != nil && img.Reconstructed {
		s.Key("reconstructed")
		s.Bool(true)
	}
	if pid > 0 {
		s.Key("pid")
		s.Int(int64(pid))
	} else if proc != nil {
		s.Key("pid")
		s.Int(int64(proc.PID))
		e.writeUser(s, "auid", "auname", proc.AUID)
		e.writeUser(s, "euid", "euname", proc.EUID)
		if !e.cfg.Omit.Groups {
			e.writeGroup(s, "egid", "egname", proc.EGID)
		}
		e.writeUser(s, "ruid", "runame", proc.RUID)
		if !e.cfg.Omit.Groups {
			e.writeGroup(s, "rgid", "rgname", proc.RGID)
		}
		if !e.cfg.Omit.SID {
			s.Key("sid")
			s.Uint(uint64(proc.SID))
		}
		if proc.Dev != event.NoDev {
			s.Key("dev")
			s.Device(proc.Dev)
		}
		if proc.Addr.IsValid() {
			s.Key("addr")
			s.String(proc.Addr.String())
		}
	}
	if img != nil {
		if img.ForkTime.Sec > 0 {
			s.Key("fork_time")
			s.Time(img.ForkTime)
		}
		s.Key("image")
		e.writeProcessImage(s, img)
		if e.cfg.Ancestors > 0 {
			s.Key("ancestors")
			e.writeAncestors(s, img.Prev)
		}
	}
	s.EndDict()
}
