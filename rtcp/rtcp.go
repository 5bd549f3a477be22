// Package rtcp parses and composes RTCP compound packets (RFC 3550): SR,
// RR, SDES (CNAME), and BYE, as required by spec §6. It builds on
// pion/rtcp's wire-format types for the compound-packet envelope, the
// same way this module's rtp package builds on pion/rtp — grounded on
// the pack's indirect pion/rtcp dependency (opd-ai-toxcore/go.sum) and
// the RTCP session patterns in other_examples/arzzra-soft_phone.
package rtcp

import (
	"fmt"
	"unicode"

	pionrtcp "github.com/pion/rtcp"
)

// ReceptionReport mirrors RFC 3550's per-source reception-quality block,
// carried inside both SR and RR packets.
type ReceptionReport struct {
	SSRC               uint32
	FractionLost       uint8
	TotalLost          uint32
	HighestSeqReceived uint32
	Jitter             uint32
	LastSR             uint32
	DelaySinceLastSR   uint32
}

// SenderReport is an RTCP SR packet: sender timing plus zero or more
// reception reports about sources it itself receives.
type SenderReport struct {
	SSRC        uint32
	NTPTime     uint64
	RTPTime     uint32
	PacketCount uint32
	OctetCount  uint32
	Reports     []ReceptionReport
}

// ReceiverReport is an RTCP RR packet: reception reports with no sender
// timing block, sent by a pure receiver.
type ReceiverReport struct {
	SSRC    uint32
	Reports []ReceptionReport
}

// SourceDescription is an RTCP SDES packet: per-SSRC descriptive items,
// of which the receiver pipeline only cares about CNAME (spec 4.F
// link_source uses it to correlate SSRCs).
type SourceDescription struct {
	Chunks []SDESChunk
}

// SDESChunk is one SSRC's worth of SDES items.
type SDESChunk struct {
	SSRC  uint32
	CNAME string
}

// Goodbye is an RTCP BYE packet.
type Goodbye struct {
	Sources []uint32
	Reason  string
}

// Compound is a parsed RTCP compound packet: zero or one of each packet
// type (RFC 3550 allows multiple RR/SDES per compound packet; the
// receiver pipeline only needs the union of all reports/chunks across
// them, so they're flattened here).
type Compound struct {
	SenderReports      []SenderReport
	ReceiverReports    []ReceiverReport
	SourceDescriptions []SourceDescription
	Goodbyes           []Goodbye
}

// Parser parses an RTCP compound packet.
type Parser struct{}

// NewParser creates an RTCP parser.
func NewParser() *Parser { return &Parser{} }

// Parse decodes buf into a Compound. Per spec 4.D, a malformed RTCP
// packet is a local parse failure: the caller logs and drops it, it is
// never fatal.
func (p *Parser) Parse(buf []byte) (Compound, error) {
	pkts, err := pionrtcp.Unmarshal(buf)
	if err != nil {
		return Compound{}, fmt.Errorf("rtcp: unmarshal: %w", err)
	}

	var out Compound
	for _, pkt := range pkts {
		switch v := pkt.(type) {
		case *pionrtcp.SenderReport:
			out.SenderReports = append(out.SenderReports, convertSR(v))
		case *pionrtcp.ReceiverReport:
			out.ReceiverReports = append(out.ReceiverReports, convertRR(v))
		case *pionrtcp.SourceDescription:
			out.SourceDescriptions = append(out.SourceDescriptions, convertSDES(v))
		case *pionrtcp.Goodbye:
			out.Goodbyes = append(out.Goodbyes, Goodbye{
				Sources: append([]uint32(nil), v.Sources...),
				Reason:  v.Reason,
			})
		}
	}
	return out, nil
}

func convertSR(v *pionrtcp.SenderReport) SenderReport {
	sr := SenderReport{
		SSRC:        v.SSRC,
		NTPTime:     v.NTPTime,
		RTPTime:     v.RTPTime,
		PacketCount: v.PacketCount,
		OctetCount:  v.OctetCount,
	}
	for _, r := range v.Reports {
		sr.Reports = append(sr.Reports, convertReceptionReport(r))
	}
	return sr
}

func convertRR(v *pionrtcp.ReceiverReport) ReceiverReport {
	rr := ReceiverReport{SSRC: v.SSRC}
	for _, r := range v.Reports {
		rr.Reports = append(rr.Reports, convertReceptionReport(r))
	}
	return rr
}

func convertReceptionReport(r pionrtcp.ReceptionReport) ReceptionReport {
	return ReceptionReport{
		SSRC:               r.SSRC,
		FractionLost:       r.FractionLost,
		TotalLost:          r.TotalLost,
		HighestSeqReceived: r.LastSequenceNumber,
		Jitter:             r.Jitter,
		LastSR:             r.LastSenderReport,
		DelaySinceLastSR:   r.Delay,
	}
}

func convertSDES(v *pionrtcp.SourceDescription) SourceDescription {
	var sd SourceDescription
	for _, chunk := range v.Chunks {
		c := SDESChunk{SSRC: chunk.Source}
		for _, item := range chunk.Items {
			if item.Type == pionrtcp.SDESCNAME {
				c.CNAME = SanitizeCNAME(item.Text)
			}
		}
		sd.Chunks = append(sd.Chunks, c)
	}
	return sd
}

// maxCNAMELen bounds CNAME length handed to the router. It equals the
// 255-byte cap that the SDES item's 8-bit length prefix already puts on
// wire CNAMEs; SanitizeCNAME truncates, rather than rejects, anything
// longer.
const maxCNAMELen = 255

// SanitizeCNAME validates and trims a CNAME string pulled from an SDES
// chunk, grounded on the original's dedicated roc_rtcp/cname.cpp
// validation unit (spec §3 supplemented features): non-printable bytes
// are stripped and the result is length-bounded, rather than trusting
// raw SDES bytes as a router key.
func SanitizeCNAME(raw string) string {
	if len(raw) > maxCNAMELen {
		raw = raw[:maxCNAMELen]
	}
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsPrint(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// Composer composes RTCP packets. The receiver pipeline uses it to
// compose outbound RR packets carrying per-session reception reports,
// driven by the session group's RTCP hooks (spec 4.H).
type Composer struct{}

// NewComposer creates an RTCP composer.
func NewComposer() *Composer { return &Composer{} }

// ComposeReceiverReport serializes a ReceiverReport to wire bytes.
func (c *Composer) ComposeReceiverReport(rr ReceiverReport) ([]byte, error) {
	pkt := &pionrtcp.ReceiverReport{SSRC: rr.SSRC}
	for _, r := range rr.Reports {
		pkt.Reports = append(pkt.Reports, pionrtcp.ReceptionReport{
			SSRC:               r.SSRC,
			FractionLost:       r.FractionLost,
			TotalLost:          r.TotalLost,
			LastSequenceNumber: r.HighestSeqReceived,
			Jitter:             r.Jitter,
			LastSenderReport:   r.LastSR,
			Delay:              r.DelaySinceLastSR,
		})
	}
	return pkt.Marshal()
}

// ComposeSourceDescription serializes an SDES packet carrying a single
// CNAME chunk for ssrc.
func (c *Composer) ComposeSourceDescription(ssrc uint32, cname string) ([]byte, error) {
	pkt := &pionrtcp.SourceDescription{
		Chunks: []pionrtcp.SourceDescriptionChunk{
			{
				Source: ssrc,
				Items: []pionrtcp.SourceDescriptionItem{
					{Type: pionrtcp.SDESCNAME, Text: cname},
				},
			},
		},
	}
	return pkt.Marshal()
}
