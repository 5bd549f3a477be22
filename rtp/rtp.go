// Package rtp parses and composes RTP headers (RFC 3550), and is the
// innermost layer of the chainable parser/composer stack described in
// spec 4.D. It is built directly on pion/rtp's wire-format types rather
// than hand-rolling RTP bit layout, mirroring how the teacher repo
// (madpsy-ka9q_ubersdr/audio.go) parses inbound audio with
// `(&rtp.Packet{}).Unmarshal(buf)`.
package rtp

import (
	"fmt"

	pionrtp "github.com/pion/rtp"
)

// Header is the subset of RTP header fields the receiver pipeline needs
// downstream of parsing, mirroring spec.md §3's "Packet... carries...
// parsed headers (RTP, ...)".
type Header struct {
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	Marker         bool
	CSRC           []uint32
}

// FromPion converts a pion/rtp.Header into our Header shape.
func FromPion(h pionrtp.Header) Header {
	return Header{
		PayloadType:    h.PayloadType,
		SequenceNumber: h.SequenceNumber,
		Timestamp:      h.Timestamp,
		SSRC:           h.SSRC,
		Marker:         h.Marker,
		CSRC:           append([]uint32(nil), h.CSRC...),
	}
}

// ToPion converts our Header shape to a pion/rtp.Header ready for
// marshaling, used by the Composer.
func (h Header) ToPion() pionrtp.Header {
	return pionrtp.Header{
		Version:        2,
		PayloadType:    h.PayloadType,
		SequenceNumber: h.SequenceNumber,
		Timestamp:      h.Timestamp,
		SSRC:           h.SSRC,
		Marker:         h.Marker,
		CSRC:           h.CSRC,
	}
}

// Parsed is the result of parsing an RTP packet: its header plus the
// remaining payload bytes (which, for an FEC-wrapped protocol, still
// contains the FEC footer/header that the next parser in the chain will
// strip).
type Parsed struct {
	Header  Header
	Payload []byte
}

// ErrTooShort is returned when a buffer is too small to contain a valid
// RTP header.
var ErrTooShort = fmt.Errorf("rtp: packet too short to contain a header")

// Parser parses the RTP layer of an inbound packet. It implements the
// base case of spec 4.D's chainable parser: "for a packet with protocol
// RTP+FEC-RS8M-Source, parsing proceeds RTP -> FEC footer".
type Parser struct{}

// NewParser creates an RTP parser.
func NewParser() *Parser { return &Parser{} }

// Parse extracts the RTP header and payload from buf. Per spec 4.D,
// parse failure is never fatal: the caller logs and drops the packet.
func (p *Parser) Parse(buf []byte) (Parsed, error) {
	if len(buf) < 12 {
		return Parsed{}, ErrTooShort
	}
	var pkt pionrtp.Packet
	if err := pkt.Unmarshal(buf); err != nil {
		return Parsed{}, fmt.Errorf("rtp: unmarshal: %w", err)
	}
	return Parsed{
		Header:  FromPion(pkt.Header),
		Payload: pkt.Payload,
	}, nil
}

// Composer composes an RTP header and payload into wire bytes. The
// symmetric counterpart used by the (out of scope, interfaced-only)
// sender pipeline, kept here because the receiver needs it to compose
// outbound RTCP reception reports that echo RTP timing fields.
type Composer struct{}

// NewComposer creates an RTP composer.
func NewComposer() *Composer { return &Composer{} }

// Compose serializes header+payload into an RTP packet.
func (c *Composer) Compose(header Header, payload []byte) ([]byte, error) {
	pkt := pionrtp.Packet{
		Header:  header.ToPion(),
		Payload: payload,
	}
	return pkt.Marshal()
}
