// Package pipeline ties together the router, netio, session, and audio
// packages into the top-level receiver object: session groups owning
// sessions, slots owning endpoints, a receiver source aggregating slots
// through the mixer, and a task-scheduling loop bridging the I/O and
// sink threads, per spec 4.H-4.L. Grounded on
// roc_pipeline/receiver_session_group.h, receiver_slot.h,
// receiver_loop.h, and ipipeline_task_scheduler.h for naming and
// responsibility split, and on the teacher repo's AudioReceiver
// (madpsy-ka9q_ubersdr/audio.go) for the "one router, many live
// sessions, mix into one output" control flow.
package pipeline

import (
	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/netio"
	"github.com/roc-streaming/rocrecv/router"
	"github.com/roc-streaming/rocrecv/rtcp"
	"github.com/roc-streaming/rocrecv/rtp"
	"github.com/roc-streaming/rocrecv/session"
	"github.com/roc-streaming/rocrecv/status"
)

// SessionFactory creates a new session.Session for a newly admitted
// remote sender.
type SessionFactory func(sourceAddr string, ssrc uint32) *session.Session

// SessionGroup owns the sessions behind one slot's endpoints, routes
// inbound packets to them (creating sessions on demand), mixes their
// output, and drives RTCP reporting, per spec 4.H. It implements
// netio.ParserChain directly, so an Endpoint can route straight into
// it.
type SessionGroup struct {
	router      *router.Router
	sessions    map[*session.Session]struct{}
	mixer       *audio.Mixer
	newSession  SessionFactory
	rtcpSession *rtcp.Session

	// AllowSessionCreation gates whether a source-protocol packet with
	// no matching route is allowed to spawn a new session, per spec
	// 4.H: "further policy may restrict by address allowlist." A nil
	// value allows all addresses.
	AllowSessionCreation func(sourceAddr string) bool
}

// NewSessionGroup creates a SessionGroup mixing into mixer and using
// newSession to admit previously-unseen senders.
func NewSessionGroup(mixer *audio.Mixer, newSession SessionFactory) *SessionGroup {
	g := &SessionGroup{
		router:     router.New(),
		sessions:   make(map[*session.Session]struct{}),
		mixer:      mixer,
		newSession: newSession,
	}
	g.rtcpSession = rtcp.NewSession(g)
	return g
}

// HandleRTP implements netio.ParserChain: route a source packet
// (optionally FEC-footed) to its session, creating a session on demand
// when no route exists for the SSRC yet.
func (g *SessionGroup) HandleRTP(hdr rtp.Header, footer *fec.SourceFooter, payload []byte, srcAddr string, arrivalNs int64) status.Code {
	sess, ok := g.router.FindBySource(hdr.SSRC)
	if !ok {
		if g.AllowSessionCreation != nil && !g.AllowSessionCreation(srcAddr) {
			return status.NoRoute
		}
		if sess, ok = g.router.FindByAddress(srcAddr); !ok {
			newSess := g.newSession(srcAddr, hdr.SSRC)
			if newSess == nil {
				return status.NoMem
			}
			if code := g.router.AddSession(newSess, hdr.SSRC, srcAddr); code != status.OK {
				return code
			}
			g.sessions[newSess] = struct{}{}
			sess = newSess
		}
	}

	s, ok := sess.(*session.Session)
	if !ok {
		return status.NoRoute
	}

	s.PushSource(session.QueuedPacket{Header: hdr, Payload: payload, ArrivalNs: arrivalNs}, footer)
	return status.OK
}

// HandleRepair implements netio.ParserChain: route a repair shard to
// its session via source-address correlation (repair packets carry no
// SSRC of their own in this framing).
func (g *SessionGroup) HandleRepair(hdr fec.RepairHeader, shard []byte, srcAddr string, arrivalNs int64) status.Code {
	sessAny, ok := g.router.FindByAddress(srcAddr)
	if !ok {
		return status.NoRoute // spec 4.H: no session created from a lone repair packet
	}
	sess, ok := sessAny.(*session.Session)
	if !ok {
		return status.NoRoute
	}
	sess.PushRepair(hdr, shard)
	return status.OK
}

// HandleRTCP implements netio.ParserChain: feed an RTCP compound
// packet into the group's RTCP session, which drives OnUpdateSource /
// OnRemoveSource / OnAddSendingMetrics against this group.
func (g *SessionGroup) HandleRTCP(compound rtcp.Compound, srcAddr string) status.Code {
	for _, sr := range compound.SenderReports {
		if sessAny, ok := g.router.FindBySource(sr.SSRC); ok {
			if sess, ok := sessAny.(*session.Session); ok {
				sess.AddSendingMetrics(int64(sr.NTPTime))
			}
		}
	}
	for _, sd := range compound.SourceDescriptions {
		for _, chunk := range sd.Chunks {
			if chunk.CNAME != "" {
				g.OnUpdateSource(chunk.SSRC, chunk.CNAME)
			}
		}
	}
	for _, bye := range compound.Goodbyes {
		for _, ssrc := range bye.Sources {
			g.OnRemoveSource(ssrc)
		}
	}
	return status.OK
}

// OnUpdateSource implements rtcp.ReceiverHooks.
func (g *SessionGroup) OnUpdateSource(ssrc uint32, cname string) {
	g.router.LinkSource(ssrc, cname)
}

// OnRemoveSource implements rtcp.ReceiverHooks.
func (g *SessionGroup) OnRemoveSource(ssrc uint32) {
	g.router.UnlinkSource(ssrc)
}

// OnGetNumSources implements rtcp.ReceiverHooks.
func (g *SessionGroup) OnGetNumSources() int {
	return len(g.sessions)
}

// OnGetReceptionMetrics implements rtcp.ReceiverHooks.
func (g *SessionGroup) OnGetReceptionMetrics(ssrc uint32) (rtcp.ReceptionMetrics, bool) {
	sessAny, ok := g.router.FindBySource(ssrc)
	if !ok {
		return rtcp.ReceptionMetrics{}, false
	}
	sess, ok := sessAny.(*session.Session)
	if !ok {
		return rtcp.ReceptionMetrics{}, false
	}
	return rtcp.ReceptionMetrics{
		Jitter: uint32(sess.LatencyMeanJitterNs()),
	}, true
}

// OnAddSendingMetrics implements rtcp.ReceiverHooks.
func (g *SessionGroup) OnAddSendingMetrics(ssrc uint32, m rtcp.SendingMetrics) {
	if sessAny, ok := g.router.FindBySource(ssrc); ok {
		if sess, ok := sessAny.(*session.Session); ok {
			sess.AddSendingMetrics(int64(m.NTPTime))
		}
	}
}

// OnAddLinkMetrics implements rtcp.ReceiverHooks. Link metrics describe
// round-trip timing about the receiver's own sends, which this
// receive-only pipeline doesn't produce; present for interface
// completeness.
func (g *SessionGroup) OnAddLinkMetrics(ssrc uint32, m rtcp.LinkMetrics) {}

// RefreshSessions iterates sessions, removes terminated ones from both
// the group and the router, and returns the minimum refresh deadline
// across the remaining live sessions, per spec 4.H.
func (g *SessionGroup) RefreshSessions(now int64) int64 {
	var minDeadline int64 = -1
	for sess := range g.sessions {
		if sess.IsTerminated() {
			g.router.RemoveSession(sess)
			delete(g.sessions, sess)
			continue
		}
		d := sess.Refresh(now)
		if d >= 0 && (minDeadline == -1 || d < minDeadline) {
			minDeadline = d
		}
	}
	return minDeadline
}

// NumSessions reports the number of currently live sessions.
func (g *SessionGroup) NumSessions() int { return len(g.sessions) }

// ComposeRTCPReport builds an outbound RR+SDES report for ssrc.
func (g *SessionGroup) ComposeRTCPReport(ssrc uint32, cname string) ([]byte, error) {
	return g.rtcpSession.ComposeReport(ssrc, cname)
}

// FrameReaders returns the current sessions as audio.FrameReader
// inputs for the mixer.
func (g *SessionGroup) FrameReaders() []audio.FrameReader {
	readers := make([]audio.FrameReader, 0, len(g.sessions))
	for sess := range g.sessions {
		readers = append(readers, sess)
	}
	return readers
}

var _ netio.ParserChain = (*SessionGroup)(nil)
