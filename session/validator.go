package session

import "github.com/roc-streaming/rocrecv/rtp"

// ValidationError names which invariant a packet violated.
type ValidationError int

const (
	// ErrNone means the packet passed validation.
	ErrNone ValidationError = iota
	// ErrPayloadTypeChanged means the stream switched payload type
	// mid-session without renegotiation.
	ErrPayloadTypeChanged
	// ErrTimestampNonMonotonic means the RTP timestamp moved backwards
	// relative to sequence order.
	ErrTimestampNonMonotonic
	// ErrGapTooLarge means the sequence-number gap since the last
	// accepted packet exceeds the configured bound.
	ErrGapTooLarge
)

// Validator checks a session's packet stream for payload type
// stability, timestamp monotonicity and sequence gap bounds. It does
// not compare sample rates, and it does not terminate the session
// itself: Check returns a ValidationError, and Session.ReadFrame
// terminates the session on ErrPayloadTypeChanged or
// ErrTimestampNonMonotonic.
type Validator struct {
	maxSeqGap uint16

	hasPrev     bool
	prevSeq     uint16
	prevTS      uint32
	payloadType uint8
}

// NewValidator creates a Validator that tolerates sequence-number gaps
// up to maxSeqGap packets.
func NewValidator(maxSeqGap uint16) *Validator {
	return &Validator{maxSeqGap: maxSeqGap}
}

// Check validates hdr against the session's running state and updates
// that state if the packet is accepted. A non-ErrNone result other
// than a gap is a gross violation the caller should treat as grounds
// for session termination.
func (v *Validator) Check(hdr rtp.Header) ValidationError {
	if !v.hasPrev {
		v.hasPrev = true
		v.prevSeq = hdr.SequenceNumber
		v.prevTS = hdr.Timestamp
		v.payloadType = hdr.PayloadType
		return ErrNone
	}

	if hdr.PayloadType != v.payloadType {
		return ErrPayloadTypeChanged
	}

	gap := seqDiff(hdr.SequenceNumber, v.prevSeq)
	if gap < 0 {
		// reordered within tolerance; sorted queue already handles
		// ordering, so an out-of-order arrival here is not itself fatal.
		return ErrNone
	}
	if uint16(gap) > v.maxSeqGap {
		return ErrGapTooLarge
	}

	// timestamp must not move backwards across forward sequence progress.
	if gap > 0 && int32(hdr.Timestamp-v.prevTS) < 0 {
		return ErrTimestampNonMonotonic
	}

	v.prevSeq = hdr.SequenceNumber
	v.prevTS = hdr.Timestamp
	return ErrNone
}
