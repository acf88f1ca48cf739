package record

import (
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/sink"
)

// writeOps serializes an operational state change. Beyond the op name,
// the record carries full provenance: the binary build, the complete
// effective configuration including the hash of the file it came from,
// and the host identity. Suppression lists report their sizes, not their
// contents.
func (e *Emitter) writeOps(s sink.Sink, ev *event.Ops) {
	cfg := e.cfg

	s.Key("op")
	s.String(ev.Op)

	s.Key("build")
	s.BeginDict()
	s.Key("version")
	s.String(e.Build.Version)
	s.Key("date")
	s.String(e.Build.Date)
	s.Key("info")
	s.String(e.Build.Info)
	s.EndDict()

	s.Key("config")
	s.BeginDict()
	s.Key("path")
	s.String(cfg.Path())
	s.Key("id")
	if cfg.ID != "" {
		s.String(cfg.ID)
	} else {
		s.Null()
	}
	s.Key("hash")
	s.String(cfg.Hash())
	s.Key("debug")
	s.Bool(cfg.Debug)
	s.Key("events")
	s.String(cfg.Events.String())
	s.Key("stats_interval")
	s.Uint(uint64(cfg.StatsInterval))
	s.Key("hashes")
	s.String(cfg.Hashes.String())
	s.Key("resolve_users_groups")
	s.Bool(cfg.ResolveIDs)
	s.Key("omit_mode")
	s.Bool(cfg.Omit.Mode)
	s.Key("omit_size")
	s.Bool(cfg.Omit.Size)
	s.Key("omit_mtime")
	s.Bool(cfg.Omit.Mtime)
	s.Key("omit_ctime")
	s.Bool(cfg.Omit.Ctime)
	s.Key("omit_btime")
	s.Bool(cfg.Omit.Btime)
	s.Key("omit_sid")
	s.Bool(cfg.Omit.SID)
	s.Key("omit_groups")
	s.Bool(cfg.Omit.Groups)
	s.Key("omit_apple_hashes")
	s.Bool(cfg.Omit.AppleHashes)
	s.Key("ancestors")
	if cfg.Ancestors.IsUnlimited() {
		s.String("unlimited")
	} else {
		s.Uint(uint64(cfg.Ancestors))
	}
	s.Key("logdst")
	s.String(cfg.Log.Dest)
	s.Key("logfmt")
	s.String(cfg.Log.Format)
	s.Key("logoneline")
	if cfg.Log.OneLine != nil {
		s.Bool(*cfg.Log.OneLine)
	} else {
		s.Null()
	}
	s.Key("logfile")
	if cfg.Log.File != "" {
		s.String(cfg.Log.File)
	} else {
		s.Null()
	}
	s.Key("logaddr")
	if cfg.Log.Addr != "" {
		s.String(cfg.Log.Addr)
	} else {
		s.Null()
	}
	s.Key("limit_nofile")
	s.Uint(cfg.LimitNoFile)
	s.Key("suppress_image_exec_at_start")
	s.Bool(cfg.Suppress.ImageExecAtStart)
	s.Key("suppress_image_exec_by_ident")
	s.Uint(uint64(len(cfg.Suppress.ImageExecByIdent)))
	s.Key("suppress_image_exec_by_path")
	s.Uint(uint64(len(cfg.Suppress.ImageExecByPath)))
	s.Key("suppress_image_exec_by_ancestor_ident")
	s.Uint(uint64(len(cfg.Suppress.ImageExecByAncestorIdent)))
	s.Key("suppress_image_exec_by_ancestor_path")
	s.Uint(uint64(len(cfg.Suppress.ImageExecByAncestorPath)))
	s.Key("suppress_process_access_by_subject_ident")
	s.Uint(uint64(len(cfg.Suppress.ProcessAccessBySubjectIdent)))
	s.Key("suppress_process_access_by_subject_path")
	s.Uint(uint64(len(cfg.Suppress.ProcessAccessBySubjectPath)))
	s.Key("suppress_socket_op_localhost")
	s.Bool(cfg.Suppress.SocketOpLocalhost)
	s.Key("suppress_socket_op_by_subject_ident")
	s.Uint(uint64(len(cfg.Suppress.SocketOpBySubjectIdent)))
	s.Key("suppress_socket_op_by_subject_path")
	s.Uint(uint64(len(cfg.Suppress.SocketOpBySubjectPath)))
	s.EndDict()

	s.Key("system")
	s.BeginDict()
	s.Key("name")
	s.String(e.System.Name)
	s.Key("version")
	s.String(e.System.Version)
	s.Key("build")
	s.String(e.System.Build)
	s.EndDict()
}
