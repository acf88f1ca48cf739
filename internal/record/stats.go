package record

import (
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/sink"
)

// writeStats serializes a monitoring counter bundle, one sub-dict per
// subsystem. Stats never pass through redaction; every counter of every
// group is emitted.
func (e *Emitter) writeStats(s sink.Sink, ev *event.Stats) {
	s.Key("evtloop")
	s.BeginDict()
	s.Key("lost")
	s.Uint(ev.Evtloop.Lost)
	s.Key("unknown")
	s.Uint(ev.Evtloop.Unknown)
	s.Key("failedsyscall")
	s.Uint(ev.Evtloop.FailedSyscalls)
	s.Key("missingtoken")
	s.Uint(ev.Evtloop.MissingToken)
	s.Key("oom")
	s.Uint(ev.Evtloop.OOM)
	s.EndDict()

	s.Key("procmon")
	s.BeginDict()
	s.Key("actprocs")
	s.Uint(ev.Procmon.Procs)
	s.Key("actexecimages")
	s.Uint(ev.Procmon.Images)
	s.Key("liveacq")
	s.Uint(ev.Procmon.Liveacq)
	s.Key("miss")
	s.BeginDict()
	s.Key("bypid")
	s.Uint(ev.Procmon.Miss.ByPID)
	s.Key("forksubj")
	s.Uint(ev.Procmon.Miss.ForkSubj)
	s.Key("execsubj")
	s.Uint(ev.Procmon.Miss.ExecSubj)
	s.Key("execinterp")
	s.Uint(ev.Procmon.Miss.ExecInterp)
	s.Key("chdirsubj")
	s.Uint(ev.Procmon.Miss.ChdirSubj)
	s.Key("getcwd")
	s.Uint(ev.Procmon.Miss.GetCWD)
	s.EndDict()
	s.Key("oom")
	s.Uint(ev.Procmon.OOM)
	s.EndDict()

	s.Key("accessmon")
	writeMonitor(s, ev.Accessmon)

	s.Key("servicemon")
	s.BeginDict()
	s.Key("recvd")
	s.Uint(ev.Servicemon.Recvd)
	s.Key("procd")
	s.Uint(ev.Servicemon.Procd)
	s.Key("lpmiss")
	s.Uint(ev.Servicemon.LPMiss)
	s.Key("oom")
	s.Uint(ev.Servicemon.OOM)
	s.EndDict()

	s.Key("sockmon")
	writeMonitor(s, ev.Sockmon)

	s.Key("work_queue")
	s.BeginDict()
	s.Key("buckets")
	s.Uint(ev.WorkQueue.Buckets)
	s.EndDict()

	s.Key("log_queue")
	s.BeginDict()
	s.Key("buckets")
	s.Uint(ev.LogQueue.Buckets)
	s.Key("events")
	s.BeginList()
	for _, n := range ev.LogQueue.Events {
		s.ListItem("event")
		s.Uint(n)
	}
	s.EndList()
	s.Key("errors")
	s.Uint(ev.LogQueue.Errors)
	s.EndDict()

	s.Key("hash_cache")
	writeCache(s, ev.HashCache)
	s.Key("csig_cache")
	writeCache(s, ev.CsigCache)
	s.Key("ldpl_cache")
	writeCache(s, ev.LdplCache)
}

func writeMonitor(s sink.Sink, m event.MonitorStats) {
	s.BeginDict()
	s.Key("recvd")
	s.Uint(m.Recvd)
	s.Key("procd")
	s.Uint(m.Procd)
	s.Key("oom")
	s.Uint(m.OOM)
	s.EndDict()
}

func writeCache(s sink.Sink, c event.CacheStats) {
	s.BeginDict()
	s.Key("buckets")
	s.Uint(c.Buckets)
	s.Key("bucketmax")
	s.Uint(c.BucketMax)
	s.Key("put")
	s.Uint(c.Puts)
	s.Key("get")
	s.Uint(c.Gets)
	s.Key("hit")
	s.Uint(c.Hits)
	s.Key("miss")
	s.Uint(c.Misses)
	s.Key("inv")
	s.Uint(c.Invalids)
	s.EndDict()
}
