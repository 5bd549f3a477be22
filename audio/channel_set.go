// Package audio implements the audio data model and DSP building blocks
// of the receiver pipeline: channel identity (spec 4.B), the channel
// mapper (spec 4.C), sample specs, and the mixer (spec 4.J).
package audio

import (
	"fmt"
	"math/bits"
)

// Layout identifies how the bits of a ChannelSet should be interpreted.
type Layout int

const (
	// LayoutInvalid marks an unset or malformed channel set.
	LayoutInvalid Layout = iota
	// LayoutMono is a single-channel layout.
	LayoutMono
	// LayoutSurround is one of the standard surround layouts (stereo,
	// 5.1, 7.1, ...), identified by a well-known channel position mask.
	LayoutSurround
	// LayoutMultitrack is an opaque N-channel layout with no implied
	// speaker positions.
	LayoutMultitrack
)

func (l Layout) String() string {
	switch l {
	case LayoutMono:
		return "mono"
	case LayoutSurround:
		return "surround"
	case LayoutMultitrack:
		return "multitrack"
	default:
		return "invalid"
	}
}

// Order identifies the serialization order of channels within a layout.
type Order int

const (
	// OrderNone means no particular order is defined (e.g. multitrack).
	OrderNone Order = iota
	// OrderSMPTE is the SMPTE channel ordering used by most PC audio
	// stacks (L, R, C, LFE, Ls, Rs, ...).
	OrderSMPTE
	// OrderALSA is ALSA's channel ordering, which differs from SMPTE in
	// the placement of center/LFE relative to the surround channels.
	OrderALSA
)

// ChanPos enumerates well-known surround channel positions. The values
// double as bit indexes into a ChannelSet's mask for LayoutSurround sets.
type ChanPos int

const (
	ChanPosFrontLeft ChanPos = iota
	ChanPosFrontRight
	ChanPosFrontCenter
	ChanPosLowFrequency
	ChanPosBackLeft
	ChanPosBackRight
	ChanPosBackCenter
	ChanPosSideLeft
	ChanPosSideRight
	ChanPosTopFrontLeft
	ChanPosTopFrontRight
	ChanPosTopMidLeft
	ChanPosTopMidRight
	ChanPosTopBackLeft
	ChanPosTopBackRight

	// ChanPosMax is one past the last defined surround position. The
	// channel mapper's coefficient matrix is ChanPosMax x ChanPosMax.
	ChanPosMax
)

const (
	maxChannels = 1024
	wordBits    = 64
	numWords    = maxChannels / wordBits
)

// ChannelSet is a 1024-bit channel mask combined with a Layout and an
// Order, per spec 4.B / spec.md §3. The zero value is an empty, invalid
// set (LayoutInvalid, no bits set).
type ChannelSet struct {
	words  [numWords]uint64
	layout Layout
	order  Order
}

// NewChannelSet builds a ChannelSet from a 32-bit mask, mirroring the
// original's "first 32 channels only" convenience constructor.
func NewChannelSet(layout Layout, order Order, mask32 uint32) ChannelSet {
	var cs ChannelSet
	cs.layout = layout
	cs.order = order
	cs.words[0] = uint64(mask32)
	return cs
}

// IsValid reports whether the set has a non-invalid layout and at least
// one enabled channel.
func (c ChannelSet) IsValid() bool {
	return c.layout != LayoutInvalid && c.NumChannels() > 0
}

// Layout returns the set's layout tag.
func (c ChannelSet) Layout() Layout { return c.layout }

// SetLayout replaces the set's layout tag, leaving the mask untouched.
func (c *ChannelSet) SetLayout(l Layout) { c.layout = l }

// Order returns the set's serialization order tag.
func (c ChannelSet) Order() Order { return c.order }

// SetOrder replaces the set's order tag.
func (c *ChannelSet) SetOrder(o Order) { c.order = o }

// MaxChannels returns the maximum representable channel count.
func MaxChannels() int { return maxChannels }

// NumChannels returns the number of enabled channels.
func (c ChannelSet) NumChannels() int {
	n := 0
	for _, w := range c.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// HasChannel reports whether channel n is enabled.
func (c ChannelSet) HasChannel(n int) bool {
	if n < 0 || n >= maxChannels {
		return false
	}
	return c.words[n/wordBits]&(1<<uint(n%wordBits)) != 0
}

// FirstChannel returns the index of the first enabled channel. Panics if
// the set is empty, matching the original's documented precondition.
func (c ChannelSet) FirstChannel() int {
	for wi, w := range c.words {
		if w != 0 {
			return wi*wordBits + bits.TrailingZeros64(w)
		}
	}
	panic("audio: FirstChannel called on empty ChannelSet")
}

// LastChannel returns the index of the last enabled channel. Panics if
// the set is empty.
func (c ChannelSet) LastChannel() int {
	for wi := numWords - 1; wi >= 0; wi-- {
		w := c.words[wi]
		if w != 0 {
			return wi*wordBits + (63 - bits.LeadingZeros64(w))
		}
	}
	panic("audio: LastChannel called on empty ChannelSet")
}

// ToggleChannel enables or disables a single channel.
func (c *ChannelSet) ToggleChannel(n int, enabled bool) {
	if n < 0 || n >= maxChannels {
		return
	}
	bit := uint64(1) << uint(n%wordBits)
	if enabled {
		c.words[n/wordBits] |= bit
	} else {
		c.words[n/wordBits] &^= bit
	}
}

// ToggleChannelRange enables or disables every channel in [from, to]
// inclusive.
func (c *ChannelSet) ToggleChannelRange(from, to int, enabled bool) {
	for n := from; n <= to; n++ {
		c.ToggleChannel(n, enabled)
	}
}

// SetMask replaces the first 32 channels with mask and clears the rest.
func (c *ChannelSet) SetMask(mask uint32) {
	c.words[0] = uint64(mask)
	for i := 1; i < numWords; i++ {
		c.words[i] = 0
	}
}

// SetRange enables exactly the channels in [from, to] and disables all
// others.
func (c *ChannelSet) SetRange(from, to int) {
	for i := range c.words {
		c.words[i] = 0
	}
	c.ToggleChannelRange(from, to, true)
}

// SetCount enables the first count channels and disables the rest, the
// fallback behavior documented for callers with no specific layout in
// mind.
func (c *ChannelSet) SetCount(count int) {
	c.SetRange(0, count-1)
}

// IsEqual reports whether the set equals the given 32-bit mask exactly
// (no channels enabled outside 0-31).
func (c ChannelSet) IsEqual(mask uint32) bool {
	if c.hasChannelsOutside32() {
		return false
	}
	return uint32(c.words[0]) == mask
}

// IsSubset reports whether the set's channels are all contained in mask.
func (c ChannelSet) IsSubset(mask uint32) bool {
	if c.hasChannelsOutside32() {
		return false
	}
	return uint32(c.words[0])&^mask == 0
}

// IsSuperset reports whether mask's channels are all contained in the
// set. Channels outside 0-31 never block this check (the original's
// documented asymmetry with IsSubset).
func (c ChannelSet) IsSuperset(mask uint32) bool {
	return mask&^uint32(c.words[0]) == 0
}

func (c ChannelSet) hasChannelsOutside32() bool {
	if c.words[0]>>32 != 0 {
		return true
	}
	for i := 1; i < numWords; i++ {
		if c.words[i] != 0 {
			return true
		}
	}
	return false
}

// BitwiseAnd ANDs other into c in place, preserving c's own layout tag
// (spec 4.B: "bitmask operations preserve layout tag of the left
// operand").
func (c *ChannelSet) BitwiseAnd(other ChannelSet) {
	for i := range c.words {
		c.words[i] &= other.words[i]
	}
}

// BitwiseOr ORs other into c in place, preserving c's layout tag.
func (c *ChannelSet) BitwiseOr(other ChannelSet) {
	for i := range c.words {
		c.words[i] |= other.words[i]
	}
}

// BitwiseXor XORs other into c in place, preserving c's layout tag.
func (c *ChannelSet) BitwiseXor(other ChannelSet) {
	for i := range c.words {
		c.words[i] ^= other.words[i]
	}
}

// Equal reports whether c and other have the same layout, order, and
// mask.
func (c ChannelSet) Equal(other ChannelSet) bool {
	return c.layout == other.layout && c.order == other.order && c.words == other.words
}

// NumBytes returns the number of bytes needed to serialize the mask.
func (c ChannelSet) NumBytes() int { return maxChannels / 8 }

// ByteAt returns byte n of the serialized mask, little-endian within
// each 64-bit word (matching the original's byte_at accessor).
func (c ChannelSet) ByteAt(n int) byte {
	word := c.words[n/8]
	shift := uint((n % 8) * 8)
	return byte(word >> shift)
}

// String renders the channel set for logs and error messages.
func (c ChannelSet) String() string {
	return fmt.Sprintf("ChannelSet{layout=%s order=%d n=%d first=%s}",
		c.layout, c.order, c.NumChannels(), firstChannelSafe(c))
}

func firstChannelSafe(c ChannelSet) string {
	if c.NumChannels() == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", c.FirstChannel())
}

