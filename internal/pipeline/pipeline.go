// Package pipeline runs descriptors through the record engine and hands
// the encoded bytes to the configured destination. One Log call is one
// record; calls serialize on an internal mutex so records arrive at the
// destination in call order. Kind gating and suppression rules drop a
// descriptor before any serialization work happens.
package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/avetisov/esmon/internal/config"
	"github.com/avetisov/esmon/internal/dest"
	"github.com/avetisov/esmon/internal/event"
	"github.com/avetisov/esmon/internal/ident"
	"github.com/avetisov/esmon/internal/record"
	"github.com/avetisov/esmon/internal/sink"
)

// Pipeline owns one sink and one destination and keeps per-kind emission
// counters. Log may be called from multiple goroutines.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger

	mu  sync.Mutex
	em  *record.Emitter
	snk sink.Sink
	dst dest.Dest

	counts [event.CodeCount]uint64
	errors uint64
}

// New composes a pipeline from parts. A nil logger disables diagnostics.
func New(cfg *config.Config, em *record.Emitter, snk sink.Sink, dst dest.Dest, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: logger, em: em, snk: snk, dst: dst}
}

// Open builds the pipeline the configuration describes: the configured
// format, the configured destination, and the host identity resolver.
func Open(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	snk, err := sink.New(cfg.Log.Format, cfg.OneLine())
	if err != nil {
		return nil, err
	}
	dst, err := dest.New(cfg)
	if err != nil {
		return nil, err
	}
	em := record.NewEmitter(cfg, ident.System())
	return New(cfg, em, snk, dst, logger), nil
}

// Log serializes one event and delivers the record. Events of a kind the
// configuration disables, and events matching a suppression rule, are
// dropped without error.
func (p *Pipeline) Log(ev event.Event) error {
	code := ev.EventHeader().Code
	if !p.cfg.Events.Has(code) {
		return nil
	}
	if p.suppressed(ev) {
		p.log.Debug("record suppressed", zap.String("kind", code.String()))
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.serialize(ev); err != nil {
		p.snk.Reset()
		p.errors++
		return fmt.Errorf("pipeline: serialize %s record: %w", code, err)
	}
	rec := p.snk.Bytes()
	err := p.dst.Write(rec)
	p.snk.Reset()
	if err != nil {
		p.errors++
		return fmt.Errorf("pipeline: deliver %s record: %w", code, err)
	}
	p.counts[code]++
	return nil
}

// serialize runs the engine under a recover so a descriptor that trips
// an engine invariant surfaces as an error. The sink is reset by the
// caller either way; a half-written record never reaches the next one.
func (p *Pipeline) serialize(ev event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return p.em.Emit(p.snk, ev)
}

// Stats reports the emission counters since the pipeline was opened. The
// caller owns the queue depth; a synchronous pipeline has none.
func (p *Pipeline) Stats() event.LogQueueStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return event.LogQueueStats{Events: p.counts, Errors: p.errors}
}

// Reopen reopens a rotatable destination. Destinations holding no
// reopenable resource report success.
func (p *Pipeline) Reopen() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.dst.(dest.Reopener); ok {
		return r.Reopen()
	}
	return nil
}

// Close closes the destination.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dst.Close()
}

// suppressed applies the configured suppression rules to the descriptor.
func (p *Pipeline) suppressed(ev event.Event) bool {
	sup := &p.cfg.Suppress
	switch ev := ev.(type) {
	case *event.ImageExec:
		if sup.ImageExecAtStart && ev.Reconstructed {
			return true
		}
		if config.MatchAny(sup.ImageExecByPath, ev.Path) {
			return true
		}
		if config.MatchAny(sup.ImageExecByIdent, signingIdent(ev)) {
			return true
		}
		return p.ancestorMatches(ev)
	case *event.ProcessAccess:
		return subjectMatches(ev.Subject, sup.ProcessAccessBySubjectIdent, sup.ProcessAccessBySubjectPath)
	case *event.SocketOp:
		if sup.SocketOpLocalhost && localhostOp(ev) {
			return true
		}
		return subjectMatches(ev.Subject, sup.SocketOpBySubjectIdent, sup.SocketOpBySubjectPath)
	}
	return false
}

// ancestorMatches walks the ancestry the way the serializer does,
// starting at the previous image and bounded by the configured depth.
func (p *Pipeline) ancestorMatches(ev *event.ImageExec) bool {
	sup := &p.cfg.Suppress
	if len(sup.ImageExecByAncestorPath) == 0 && len(sup.ImageExecByAncestorIdent) == 0 {
		return false
	}
	var depth config.Depth
	for cur := ev.Prev; cur != nil && cur.PID > 0; cur = cur.Prev {
		if depth == p.cfg.Ancestors {
			break
		}
		if config.MatchAny(sup.ImageExecByAncestorPath, cur.Path) {
			return true
		}
		if config.MatchAny(sup.ImageExecByAncestorIdent, signingIdent(cur)) {
			return true
		}
		depth++
	}
	return false
}

// signingIdent returns the image's signing identifier when its signature
// verified good. Claimed identifiers on bad signatures never match
// suppression rules.
func signingIdent(img *event.ImageExec) string {
	if img.Signature.Good() {
		return img.Signature.Ident
	}
	return ""
}

func subjectMatches(subj *event.Process, idents, paths []string) bool {
	if subj == nil || subj.Image == nil {
		return false
	}
	if config.MatchAny(paths, subj.Image.Path) {
		return true
	}
	return config.MatchAny(idents, signingIdent(subj.Image))
}

// localhostOp reports whether the operation is confined to the loopback
// interface: the local address for a listen, the peer for an accept or
// connect.
func localhostOp(ev *event.SocketOp) bool {
	if ev.Code == event.CodeSocketListen {
		return ev.SockAddr.IsValid() && ev.SockAddr.IsLoopback()
	}
	return ev.PeerAddr.IsValid() && ev.PeerAddr.IsLoopback()
}
