// Package netio implements the inbound packet endpoint described in
// spec 4.E: a lock-free multi-producer queue that an external I/O
// collaborator (out of scope, per spec §1) writes into, and that the
// pipeline thread drains and parses on its own schedule. The queue
// itself is a Michael-Scott style lock-free linked list built on
// atomic.Pointer rather than the teacher repo's channel- and
// mutex-guarded shared state (see madpsy-ka9q_ubersdr's
// AudioReceiver/Session), so a slow reader never blocks a producer.
// A producer retries its compare-and-swap while other producers win
// the race, so pushing is lock-free but not wait-free.
package netio

import (
	"sync/atomic"

	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/rtcp"
	"github.com/roc-streaming/rocrecv/rtp"
	"github.com/roc-streaming/rocrecv/status"
)

// Protocol identifies which parser chain an Endpoint's packets go
// through, per spec 4.D's chainable-parser protocol ids.
type Protocol int

const (
	ProtoRTP Protocol = iota
	ProtoRTPRS8MSource
	ProtoRS8MRepair
	ProtoRTPLDPCSource
	ProtoLDPCRepair
	ProtoRTCP
)

// InPacket is one inbound datagram plus the address it arrived from,
// pushed into an Endpoint's queue by the I/O collaborator.
type InPacket struct {
	Buf       []byte
	SrcAddr   string
	ArrivalNs int64
}

type node struct {
	next atomic.Pointer[node]
	val  InPacket
}

// queue is a Michael-Scott lock-free MPSC/MPMC queue of InPacket. Push
// is lock-free for any number of concurrent producers but not
// wait-free: its CAS loop retries for as long as other producers win;
// Pop is lock-free (used from the single pipeline-thread consumer).
type queue struct {
	head atomic.Pointer[node]
	tail atomic.Pointer[node]
	size atomic.Int64
}

func newQueue() *queue {
	dummy := &node{}
	q := &queue{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

func (q *queue) push(p InPacket) {
	n := &node{val: p}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tail, n)
				q.size.Add(1)
				return
			}
		} else {
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

func (q *queue) pop() (InPacket, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				return InPacket{}, false
			}
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		val := next.val
		if q.head.CompareAndSwap(head, next) {
			q.size.Add(-1)
			return val, true
		}
	}
}

func (q *queue) len() int64 { return q.size.Load() }

// ParserChain decodes an InPacket down to whatever its protocol
// produces, and drives it into the session router / session group.
// This is the bridge between a parsed packet and spec 4.H's session
// group registration, kept as an interface so Endpoint stays
// independent of the pipeline package (avoiding an import cycle: the
// pipeline package owns session groups and imports netio, not the
// other way around).
type ParserChain interface {
	// HandleRTP is called for protocols ProtoRTP, ProtoRTPRS8MSource,
	// ProtoRTPLDPCSource after the RTP (and, for FEC source protocols,
	// FEC footer) layers have been parsed.
	HandleRTP(hdr rtp.Header, footer *fec.SourceFooter, payload []byte, srcAddr string, arrivalNs int64) status.Code
	// HandleRepair is called for protocols ProtoRS8MRepair /
	// ProtoLDPCRepair after the FEC header layer has been parsed.
	HandleRepair(hdr fec.RepairHeader, shard []byte, srcAddr string, arrivalNs int64) status.Code
	// HandleRTCP is called for protocol ProtoRTCP after the RTCP
	// compound packet has been parsed.
	HandleRTCP(compound rtcp.Compound, srcAddr string) status.Code
}

// Endpoint is one protocol interface of a Slot (spec 3 "Endpoint"):
// a lock-free inbound queue plus the parser chain for that protocol.
type Endpoint struct {
	proto   Protocol
	q       *queue
	chain   ParserChain
	fecSch  fec.Scheme
	rtpP    *rtp.Parser
	fecP    *fec.Parser
	rtcpP   *rtcp.Parser
	pending atomic.Int64

	droppedParse atomic.Int64
	droppedRoute atomic.Int64
}

// NewEndpoint creates an Endpoint for proto, wired to chain. fecScheme
// only matters for the FEC-bearing protocols.
func NewEndpoint(proto Protocol, fecScheme fec.Scheme, chain ParserChain) *Endpoint {
	return &Endpoint{
		proto:  proto,
		q:      newQueue(),
		chain:  chain,
		fecSch: fecScheme,
		rtpP:   rtp.NewParser(),
		fecP:   fec.NewParser(),
		rtcpP:  rtcp.NewParser(),
	}
}

// Writer returns a thread-safe, lock-free (not wait-free) handle the
// I/O collaborator uses to enqueue inbound packets. Per spec 4.E the
// returned handle is shareable across threads; Endpoint itself already
// satisfies that contract, so Writer just narrows the exposed surface.
func (e *Endpoint) Writer() Writer {
	return Writer{e: e}
}

// Writer is the narrow enqueue-only handle for an Endpoint.
type Writer struct{ e *Endpoint }

// Push enqueues a raw inbound packet. Called from the I/O thread.
func (w Writer) Push(p InPacket) {
	w.e.q.push(p)
	w.e.pending.Add(1)
}

// PendingPackets reports the number of packets enqueued but not yet
// pulled, per spec 4.E: "incremented at enqueue and decremented at
// successful pull".
func (e *Endpoint) PendingPackets() int64 { return e.pending.Load() }

// DroppedParse reports the cumulative count of packets dropped because
// they failed to parse.
func (e *Endpoint) DroppedParse() int64 { return e.droppedParse.Load() }

// DroppedRoute reports the cumulative count of packets dropped because
// the router rejected them with a non-fatal status.
func (e *Endpoint) DroppedRoute() int64 { return e.droppedRoute.Load() }

// PullPackets drains the queue head-to-tail, parsing and routing each
// packet, per spec 4.E. Called from the pipeline thread only. A fatal
// status from the parser chain stops the pull early and is returned to
// the caller; parse failures are absorbed and counted, never fatal.
func (e *Endpoint) PullPackets(now int64) status.Code {
	for {
		p, ok := e.q.pop()
		if !ok {
			return status.OK
		}
		e.pending.Add(-1)

		code := e.handleOne(p)
		switch code {
		case status.OK:
		case status.BadPacket:
			e.droppedParse.Add(1)
		case status.NoRoute, status.NoMem:
			e.droppedRoute.Add(1)
		default:
			return code
		}
	}
}

func (e *Endpoint) handleOne(p InPacket) status.Code {
	switch e.proto {
	case ProtoRTP:
		parsed, err := e.rtpP.Parse(p.Buf)
		if err != nil {
			return status.BadPacket
		}
		return e.chain.HandleRTP(parsed.Header, nil, parsed.Payload, p.SrcAddr, p.ArrivalNs)

	case ProtoRTPRS8MSource, ProtoRTPLDPCSource:
		parsed, err := e.rtpP.Parse(p.Buf)
		if err != nil {
			return status.BadPacket
		}
		scheme := fec.SchemeRS8M
		if e.proto == ProtoRTPLDPCSource {
			scheme = fec.SchemeLDPCStaircase
		}
		payload, footer, err := e.fecP.ParseSourceFooter(scheme, parsed.Payload)
		if err != nil {
			return status.BadPacket
		}
		return e.chain.HandleRTP(parsed.Header, &footer, payload, p.SrcAddr, p.ArrivalNs)

	case ProtoRS8MRepair, ProtoLDPCRepair:
		scheme := fec.SchemeRS8M
		if e.proto == ProtoLDPCRepair {
			scheme = fec.SchemeLDPCStaircase
		}
		shard, hdr, err := e.fecP.ParseRepairHeader(scheme, p.Buf)
		if err != nil {
			return status.BadPacket
		}
		return e.chain.HandleRepair(hdr, shard, p.SrcAddr, p.ArrivalNs)

	case ProtoRTCP:
		compound, err := e.rtcpP.Parse(p.Buf)
		if err != nil {
			return status.BadPacket
		}
		return e.chain.HandleRTCP(compound, p.SrcAddr)

	default:
		return status.BadPacket
	}
}
