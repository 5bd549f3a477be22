package pipeline

import (
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/netio"
)

// Interface enumerates the endpoint roles a Slot can hold, per spec 3
// "Slot... Interface enumeration: {AudioSource, AudioRepair,
// AudioControl}".
type Interface int

const (
	InterfaceAudioSource Interface = iota
	InterfaceAudioRepair
	InterfaceAudioControl
)

// Slot is a set of related endpoints (source/repair/control) sharing
// one session group, per spec 3 "Slot" and 4.I.
type Slot struct {
	Index int

	source  *netio.Endpoint
	repair  *netio.Endpoint
	control *netio.Endpoint

	group  *SessionGroup
	broken bool
}

// NewSlot creates a Slot at index, routing all endpoints it is given
// into group.
func NewSlot(index int, group *SessionGroup) *Slot {
	return &Slot{Index: index, group: group}
}

// AddEndpoint creates an endpoint for iface on proto, backed by fecScheme
// framing where relevant, and returns its writer handle for the I/O
// collaborator. A slot holds at most one endpoint per interface;
// calling again for an already-populated interface replaces it.
func (s *Slot) AddEndpoint(iface Interface, proto netio.Protocol, fecScheme fec.Scheme) netio.Writer {
	ep := netio.NewEndpoint(proto, fecScheme, s.group)
	switch iface {
	case InterfaceAudioSource:
		s.source = ep
	case InterfaceAudioRepair:
		s.repair = ep
	case InterfaceAudioControl:
		s.control = ep
	}
	return ep.Writer()
}

// Refresh pulls packets from every populated endpoint and then refreshes
// the slot's session group, per spec 4.I "Pull packets and refresh
// sessions." Returns the minimum refresh deadline across live sessions.
func (s *Slot) Refresh(now int64) int64 {
	for _, ep := range []*netio.Endpoint{s.source, s.repair, s.control} {
		if ep == nil {
			continue
		}
		if code := ep.PullPackets(now); code.IsError() {
			s.broken = true
		}
	}
	return s.group.RefreshSessions(now)
}

// Reclock adjusts the slot's session clocks to match the consumer
// (sink) clock, per spec 4.I.
func (s *Slot) Reclock(playbackNs int64) {
	for sess := range s.group.sessions {
		sess.Reclock(playbackNs)
	}
}

// NumSessions reports the number of alive sessions in the slot's group.
func (s *Slot) NumSessions() int { return s.group.NumSessions() }

// Broken reports whether the slot has hit a fatal endpoint failure and
// should be torn down by its owner.
func (s *Slot) Broken() bool { return s.broken }
