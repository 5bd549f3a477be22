//go:build opus
// +build opus

package audio

import (
	"log"

	opus "gopkg.in/hraban/opus.v2"
)

// NewOpusConcealBackend returns a concealment backend driven by an
// Opus decoder's built-in packet-loss concealment: decoding with a nil
// payload makes the codec synthesize a plausible continuation from its
// internal state rather than the caller's rolling history buffer, per
// the teacher's opus_support.go build-tag gating pattern.
//
// It falls back to silence if the decoder cannot be constructed for
// sampleRate/numChannels.
func NewOpusConcealBackend(sampleRate, numChannels int) func(history []float32, numSamples, numChannels int) []float32 {
	dec, err := opus.NewDecoder(sampleRate, numChannels)
	if err != nil {
		log.Printf("opus PLC backend unavailable, falling back to silence: %v", err)
		return NewZeroFillConceal()
	}

	return func(_ []float32, numSamples, numChannels int) []float32 {
		pcm := make([]float32, numSamples*numChannels)
		if _, err := dec.DecodeFloat32(nil, pcm); err != nil {
			return make([]float32, numSamples*numChannels)
		}
		return pcm
	}
}
