// Package fec parses and composes the payload-id framing that RS8M and
// LDPC-Staircase add around RTP payloads, per spec 4.D: "for a packet
// with protocol RTP+FEC-RS8M-Source, parsing proceeds RTP -> FEC
// footer; for FEC-RS8M-Repair it is FEC header only". The block codec
// math itself (Reed-Solomon / LDPC-Staircase reconstruction) is an
// out-of-scope external collaborator (spec §1 non-goals); this package
// only frames and unframes the payload-id metadata the FEC reader needs
// to group shards into blocks, grounded on the wire layout documented
// in spec §6.
package fec

import (
	"encoding/binary"
	"fmt"
)

// Scheme identifies which FEC codec produced a payload-id.
type Scheme int

const (
	// SchemeNone means the packet carries no FEC framing.
	SchemeNone Scheme = iota
	// SchemeRS8M is the Reed-Solomon 8-bit block scheme.
	SchemeRS8M
	// SchemeLDPCStaircase is the LDPC-Staircase scheme.
	SchemeLDPCStaircase
)

func (s Scheme) String() string {
	switch s {
	case SchemeRS8M:
		return "rs8m"
	case SchemeLDPCStaircase:
		return "ldpc-staircase"
	default:
		return "none"
	}
}

// rs8mSourceFooterLen is the size in bytes of an RS8M source payload-id
// footer: a 2-byte source block number (SBN) plus a 2-byte block length
// (number of source packets in the block).
const rs8mSourceFooterLen = 4

// rs8mRepairHeaderLen is the size in bytes of an RS8M repair payload-id
// header: SBN (2), encoding symbol ID / repair index (2), block source
// length (2), block repair length (2).
const rs8mRepairHeaderLen = 8

// ldpcSourceFooterLen is the size in bytes of an LDPC-Staircase source
// payload-id footer: SBN (4) plus source block length (2).
const ldpcSourceFooterLen = 6

// ldpcRepairHeaderLen is the size in bytes of an LDPC-Staircase repair
// payload-id header: SBN (4), encoding symbol ID (4), source block
// length (2), repair block length (2).
const ldpcRepairHeaderLen = 12

// SourceFooter is the payload-id trailer carried by an FEC source
// packet (an otherwise-ordinary RTP packet with a few extra trailing
// bytes identifying which FEC block it belongs to).
type SourceFooter struct {
	Scheme       Scheme
	BlockNum     uint32
	SourceBlkLen uint16
}

// RepairHeader is the payload-id header carried by a dedicated FEC
// repair packet (no RTP payload of its own — the header is the entire
// framing on top of the repair shard).
type RepairHeader struct {
	Scheme       Scheme
	BlockNum     uint32
	EncodingID   uint32
	SourceBlkLen uint16
	RepairBlkLen uint16
}

// ErrTooShort is returned when a buffer is too small to contain the
// requested payload-id framing.
var ErrTooShort = fmt.Errorf("fec: buffer too short for payload-id framing")

// ErrUnknownScheme is returned for a Scheme other than RS8M or
// LDPC-Staircase.
var ErrUnknownScheme = fmt.Errorf("fec: unknown scheme")

// Parser strips and decodes FEC payload-id framing. It composes with
// rtp.Parser to implement spec 4.D's chainable parser: an RTP source
// parse hands its payload to ParseSourceFooter, trimming the footer
// off the tail before the depacketizer sees it.
type Parser struct{}

// NewParser creates an FEC payload-id parser.
func NewParser() *Parser { return &Parser{} }

// ParseSourceFooter reads and strips the trailing payload-id footer
// from payload, for a source packet carrying scheme framing. It
// returns the remaining RTP payload (the actual audio bytes) and the
// decoded footer.
func (p *Parser) ParseSourceFooter(scheme Scheme, payload []byte) ([]byte, SourceFooter, error) {
	switch scheme {
	case SchemeRS8M:
		if len(payload) < rs8mSourceFooterLen {
			return nil, SourceFooter{}, ErrTooShort
		}
		n := len(payload) - rs8mSourceFooterLen
		tail := payload[n:]
		return payload[:n], SourceFooter{
			Scheme:       SchemeRS8M,
			BlockNum:     uint32(binary.BigEndian.Uint16(tail[0:2])),
			SourceBlkLen: binary.BigEndian.Uint16(tail[2:4]),
		}, nil
	case SchemeLDPCStaircase:
		if len(payload) < ldpcSourceFooterLen {
			return nil, SourceFooter{}, ErrTooShort
		}
		n := len(payload) - ldpcSourceFooterLen
		tail := payload[n:]
		return payload[:n], SourceFooter{
			Scheme:       SchemeLDPCStaircase,
			BlockNum:     binary.BigEndian.Uint32(tail[0:4]),
			SourceBlkLen: binary.BigEndian.Uint16(tail[4:6]),
		}, nil
	default:
		return nil, SourceFooter{}, ErrUnknownScheme
	}
}

// ParseRepairHeader reads and strips the leading payload-id header from
// payload, for a dedicated repair packet. It returns the remaining
// repair shard bytes and the decoded header.
func (p *Parser) ParseRepairHeader(scheme Scheme, payload []byte) ([]byte, RepairHeader, error) {
	switch scheme {
	case SchemeRS8M:
		if len(payload) < rs8mRepairHeaderLen {
			return nil, RepairHeader{}, ErrTooShort
		}
		h := payload[:rs8mRepairHeaderLen]
		return payload[rs8mRepairHeaderLen:], RepairHeader{
			Scheme:       SchemeRS8M,
			BlockNum:     uint32(binary.BigEndian.Uint16(h[0:2])),
			EncodingID:   uint32(binary.BigEndian.Uint16(h[2:4])),
			SourceBlkLen: binary.BigEndian.Uint16(h[4:6]),
			RepairBlkLen: binary.BigEndian.Uint16(h[6:8]),
		}, nil
	case SchemeLDPCStaircase:
		if len(payload) < ldpcRepairHeaderLen {
			return nil, RepairHeader{}, ErrTooShort
		}
		h := payload[:ldpcRepairHeaderLen]
		return payload[ldpcRepairHeaderLen:], RepairHeader{
			Scheme:       SchemeLDPCStaircase,
			BlockNum:     binary.BigEndian.Uint32(h[0:4]),
			EncodingID:   binary.BigEndian.Uint32(h[4:8]),
			SourceBlkLen: binary.BigEndian.Uint16(h[8:10]),
			RepairBlkLen: binary.BigEndian.Uint16(h[10:12]),
		}, nil
	default:
		return nil, RepairHeader{}, ErrUnknownScheme
	}
}

// Composer appends/prepends FEC payload-id framing, the symmetric
// counterpart of Parser used by the (out-of-scope) sender side and by
// tests that need to synthesize framed packets.
type Composer struct{}

// NewComposer creates an FEC payload-id composer.
func NewComposer() *Composer { return &Composer{} }

// ComposeSourceFooter appends a source footer to payload.
func (c *Composer) ComposeSourceFooter(f SourceFooter, payload []byte) ([]byte, error) {
	switch f.Scheme {
	case SchemeRS8M:
		out := make([]byte, len(payload)+rs8mSourceFooterLen)
		copy(out, payload)
		tail := out[len(payload):]
		binary.BigEndian.PutUint16(tail[0:2], uint16(f.BlockNum))
		binary.BigEndian.PutUint16(tail[2:4], f.SourceBlkLen)
		return out, nil
	case SchemeLDPCStaircase:
		out := make([]byte, len(payload)+ldpcSourceFooterLen)
		copy(out, payload)
		tail := out[len(payload):]
		binary.BigEndian.PutUint32(tail[0:4], f.BlockNum)
		binary.BigEndian.PutUint16(tail[4:6], f.SourceBlkLen)
		return out, nil
	default:
		return nil, ErrUnknownScheme
	}
}

// ComposeRepairHeader prepends a repair header to shard.
func (c *Composer) ComposeRepairHeader(h RepairHeader, shard []byte) ([]byte, error) {
	switch h.Scheme {
	case SchemeRS8M:
		out := make([]byte, rs8mRepairHeaderLen+len(shard))
		binary.BigEndian.PutUint16(out[0:2], uint16(h.BlockNum))
		binary.BigEndian.PutUint16(out[2:4], uint16(h.EncodingID))
		binary.BigEndian.PutUint16(out[4:6], h.SourceBlkLen)
		binary.BigEndian.PutUint16(out[6:8], h.RepairBlkLen)
		copy(out[rs8mRepairHeaderLen:], shard)
		return out, nil
	case SchemeLDPCStaircase:
		out := make([]byte, ldpcRepairHeaderLen+len(shard))
		binary.BigEndian.PutUint32(out[0:4], h.BlockNum)
		binary.BigEndian.PutUint32(out[4:8], h.EncodingID)
		binary.BigEndian.PutUint16(out[8:10], h.SourceBlkLen)
		binary.BigEndian.PutUint16(out[10:12], h.RepairBlkLen)
		copy(out[ldpcRepairHeaderLen:], shard)
		return out, nil
	default:
		return nil, ErrUnknownScheme
	}
}

// HeaderLen returns the framing size in bytes for a repair header of
// the given scheme, used by callers sizing reassembly buffers.
func HeaderLen(scheme Scheme) int {
	switch scheme {
	case SchemeRS8M:
		return rs8mRepairHeaderLen
	case SchemeLDPCStaircase:
		return ldpcRepairHeaderLen
	default:
		return 0
	}
}

// FooterLen returns the framing size in bytes for a source footer of
// the given scheme.
func FooterLen(scheme Scheme) int {
	switch scheme {
	case SchemeRS8M:
		return rs8mSourceFooterLen
	case SchemeLDPCStaircase:
		return ldpcSourceFooterLen
	default:
		return 0
	}
}
