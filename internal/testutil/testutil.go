// Package testutil provides small packet/frame builders shared across
// package tests, grounded on the table-driven style the rest of this
// repo tests with (bare stdlib testing, no assertion library, since the
// teacher repo ships no tests of its own to imitate beyond that).
package testutil

import (
	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/rtp"
)

// ComposeRTP builds a minimal RTP packet with the given sequence
// number, SSRC, and payload length, for tests that only care about
// header fields reaching the router/session layer intact.
func ComposeRTP(seq uint16, ssrc uint32, payloadLen int) ([]byte, error) {
	c := rtp.NewComposer()
	return c.Compose(rtp.Header{
		PayloadType:    10,
		SequenceNumber: seq,
		SSRC:           ssrc,
	}, make([]byte, payloadLen))
}

// StereoSpec returns a 2-channel, 8kHz, float32 SampleSpec convenient
// for session/pipeline tests that don't care about a specific layout
// beyond "stereo".
func StereoSpec() audio.SampleSpec {
	cs := audio.NewChannelSet(audio.LayoutSurround, audio.OrderSMPTE, 0x3)
	return audio.SampleSpec{SampleRate: 8000, SampleType: audio.SampleFloat32, Channels: cs}
}

// SilentDecode is a PayloadDecodeFunc that ignores the payload and
// returns a silent frame of the requested shape, for tests exercising
// routing/scheduling rather than codec behavior.
func SilentDecode(samplesPerPacket int) func(payload []byte, numChannels int) []float32 {
	return func(_ []byte, numChannels int) []float32 {
		return make([]float32, samplesPerPacket*numChannels)
	}
}
