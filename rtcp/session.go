package rtcp

import "time"

// ReceptionMetrics is what a session group reports back to RTCP for one
// source id, filled by ReceiverHooks.OnGetReceptionMetrics.
type ReceptionMetrics struct {
	FractionLost       uint8
	TotalLost          uint32
	HighestSeqReceived uint32
	Jitter             uint32
	LastSR             uint32
	DelaySinceLastSR   uint32
}

// SendingMetrics is timing info derived from a peer's SR, handed to a
// session's latency monitor via ReceiverHooks.OnAddSendingMetrics.
type SendingMetrics struct {
	NTPTime     uint64
	RTPTime     uint32
	PacketCount uint32
	OctetCount  uint32
}

// LinkMetrics is timing info derived from a peer's RR about our own
// sends (round-trip estimation), handed to a session via
// ReceiverHooks.OnAddLinkMetrics. The receiver pipeline in this repo is
// receive-only, so this is populated only when the endpoint also carries
// outbound RTCP SR traffic (e.g. a bidirectional deployment); it is kept
// for interface completeness with the sender side, per spec §1 "symmetric
// but not specified here".
type LinkMetrics struct {
	RoundTripDelay time.Duration
}

// ReceiverHooks is the callback surface a Session Group implements so
// the RTCP layer can drive session-router updates and pull per-session
// telemetry, per spec 4.H: "Holds an RTCP session that implements
// IReceiverHooks".
type ReceiverHooks interface {
	// OnUpdateSource is called when an SDES chunk links ssrc to cname.
	OnUpdateSource(ssrc uint32, cname string)
	// OnRemoveSource is called when a BYE packet retires ssrc.
	OnRemoveSource(ssrc uint32)
	// OnGetNumSources reports how many sessions currently exist, for
	// SR/RR report-count sizing.
	OnGetNumSources() int
	// OnGetReceptionMetrics fills reception quality metrics for ssrc, if
	// a session exists for it.
	OnGetReceptionMetrics(ssrc uint32) (ReceptionMetrics, bool)
	// OnAddSendingMetrics delivers sender-side timing derived from an
	// inbound SR for ssrc.
	OnAddSendingMetrics(ssrc uint32, m SendingMetrics)
	// OnAddLinkMetrics delivers round-trip timing derived from an
	// inbound RR about our own sends.
	OnAddLinkMetrics(ssrc uint32, m LinkMetrics)
}

// Session processes inbound RTCP compound packets and drives a
// ReceiverHooks implementation, and composes outbound RR+SDES reports
// describing this receiver's view of its sessions.
type Session struct {
	hooks  ReceiverHooks
	parser *Parser
	comp   *Composer
}

// NewSession creates an RTCP session bound to hooks.
func NewSession(hooks ReceiverHooks) *Session {
	return &Session{hooks: hooks, parser: NewParser(), comp: NewComposer()}
}

// HandleInbound parses buf as an RTCP compound packet and drives hooks
// accordingly. Parse/validation failures are absorbed (spec 4.D: "Parse
// failure logs and drops the packet silently").
func (s *Session) HandleInbound(buf []byte) error {
	compound, err := s.parser.Parse(buf)
	if err != nil {
		return err
	}

	for _, sd := range compound.SourceDescriptions {
		for _, chunk := range sd.Chunks {
			if chunk.CNAME != "" {
				s.hooks.OnUpdateSource(chunk.SSRC, chunk.CNAME)
			}
		}
	}

	for _, sr := range compound.SenderReports {
		s.hooks.OnAddSendingMetrics(sr.SSRC, SendingMetrics{
			NTPTime:     sr.NTPTime,
			RTPTime:     sr.RTPTime,
			PacketCount: sr.PacketCount,
			OctetCount:  sr.OctetCount,
		})
		for _, r := range sr.Reports {
			s.hooks.OnAddLinkMetrics(r.SSRC, LinkMetrics{})
		}
	}
	for _, rr := range compound.ReceiverReports {
		for _, r := range rr.Reports {
			s.hooks.OnAddLinkMetrics(r.SSRC, LinkMetrics{})
		}
	}

	for _, bye := range compound.Goodbyes {
		for _, ssrc := range bye.Sources {
			s.hooks.OnRemoveSource(ssrc)
		}
	}

	return nil
}

// ComposeReport builds an outbound RR+SDES compound report for ssrc,
// using hooks.OnGetReceptionMetrics for the reception block.
func (s *Session) ComposeReport(ssrc uint32, cname string) ([]byte, error) {
	metrics, ok := s.hooks.OnGetReceptionMetrics(ssrc)
	if !ok {
		metrics = ReceptionMetrics{}
	}

	rrBytes, err := s.comp.ComposeReceiverReport(ReceiverReport{
		SSRC: ssrc,
		Reports: []ReceptionReport{{
			SSRC:               ssrc,
			FractionLost:       metrics.FractionLost,
			TotalLost:          metrics.TotalLost,
			HighestSeqReceived: metrics.HighestSeqReceived,
			Jitter:             metrics.Jitter,
			LastSR:             metrics.LastSR,
			DelaySinceLastSR:   metrics.DelaySinceLastSR,
		}},
	})
	if err != nil {
		return nil, err
	}

	sdesBytes, err := s.comp.ComposeSourceDescription(ssrc, cname)
	if err != nil {
		return nil, err
	}

	return append(rrBytes, sdesBytes...), nil
}
