// Package session implements the per-sender DSP chain described in
// spec 4.G. Session.ReadFrame runs sorted queue -> delayed reader ->
// validator -> depacketizer -> PLC -> resampler, updating the watchdog
// and taking the latency monitor's backlog deviation along the way.
// The FEC reader is fed every source and repair packet, but its
// recovered payloads are not put back into the sorted queue, so FEC
// recovery does not fill gaps in playback. It is grounded on the stage decomposition named by
// roc_pipeline/receiver_session_router.h's neighbor
// roc_pipeline/receiver_session.h (referenced but not included in the
// retrieved slice) and on spec 4.G's ASCII chain diagram; wire parsing
// itself is handled upstream by the rtp/rtcp/fec packages.
package session

import "github.com/roc-streaming/rocrecv/rtp"

// QueuedPacket is one packet waiting for in-order delivery, carrying
// just enough of the RTP header for sequencing plus the parsed payload
// bytes a depacketizer will later turn into samples.
type QueuedPacket struct {
	Header    rtp.Header
	Payload   []byte
	ArrivalNs int64
}

// seqDiff computes a-b as a signed 16-bit wraparound-aware difference,
// the standard RTP sequence comparison idiom (RFC 3550 §A.1).
func seqDiff(a, b uint16) int32 {
	return int32(int16(a - b))
}

// SortedQueue buffers inbound packets and emits them in RTP sequence
// order, discarding duplicates and packets older than the last
// delivered one, per spec 4.G: "inserts by RTP sequence number with
// wraparound-aware ordering; duplicates discarded; capacity bounded."
type SortedQueue struct {
	capacity int
	packets  []QueuedPacket
	hasHead  bool
	headSeq  uint16
}

// NewSortedQueue creates a SortedQueue bounded at capacity packets.
func NewSortedQueue(capacity int) *SortedQueue {
	if capacity <= 0 {
		panic("session: sorted queue: capacity must be > 0")
	}
	return &SortedQueue{capacity: capacity}
}

// Insert adds p to the queue in sequence order. It is silently dropped
// if it duplicates or precedes the last-delivered sequence number, or
// if the queue is at capacity and p sorts after every buffered packet
// with no room to grow (oldest-at-capacity admission policy).
func (q *SortedQueue) Insert(p QueuedPacket) {
	if q.hasHead && seqDiff(p.Header.SequenceNumber, q.headSeq) <= 0 {
		return // stale relative to what's already been delivered
	}

	// insertion sort by sequence number; queues are shallow in practice
	// (bounded by capacity, normally tens of packets), so O(n) insert is
	// simpler and fast enough than a heap.
	i := 0
	for ; i < len(q.packets); i++ {
		d := seqDiff(p.Header.SequenceNumber, q.packets[i].Header.SequenceNumber)
		if d == 0 {
			return // duplicate
		}
		if d < 0 {
			break
		}
	}

	if len(q.packets) >= q.capacity {
		if i == len(q.packets) {
			return // would be appended past capacity; drop the newcomer
		}
		q.packets = q.packets[:len(q.packets)-1] // drop the current tail
	}

	q.packets = append(q.packets, QueuedPacket{})
	copy(q.packets[i+1:], q.packets[i:])
	q.packets[i] = p
}

// Len reports how many packets are currently buffered.
func (q *SortedQueue) Len() int { return len(q.packets) }

// Head returns the earliest-sequenced packet without removing it.
func (q *SortedQueue) Head() (QueuedPacket, bool) {
	if len(q.packets) == 0 {
		return QueuedPacket{}, false
	}
	return q.packets[0], true
}

// Pop removes and returns the earliest-sequenced packet.
func (q *SortedQueue) Pop() (QueuedPacket, bool) {
	if len(q.packets) == 0 {
		return QueuedPacket{}, false
	}
	p := q.packets[0]
	q.packets = q.packets[1:]
	q.hasHead = true
	q.headSeq = p.Header.SequenceNumber
	return p, true
}
