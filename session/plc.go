package session

import "github.com/roc-streaming/rocrecv/audio"

// ConcealFunc synthesizes replacement samples for a gap given the
// most recent original samples as context. It is the pluggable PLC
// backend (e.g. audio.NewZeroFillConceal, which cmd/roc-receiver
// wires in, or the opus.v2 backend in audio/plc_backend_opus.go); the
// block codec math itself is an external collaborator.
type ConcealFunc func(history []float32, numSamples int, numChannels int) []float32

// PLC replaces gap frames with synthesized samples via a pluggable
// backend, never extending concealment beyond a configured horizon, per
// spec 4.G: "replaces gaps with synthesized samples via a pluggable
// backend; never extends beyond a configured horizon."
type PLC struct {
	conceal       ConcealFunc
	horizonFrames int

	history         []float32
	historyLen      int
	consecutiveGaps int
}

// NewPLC creates a PLC stage backed by conceal, which will synthesize
// at most horizonFrames consecutive gap frames before giving up and
// passing plain silence through instead.
func NewPLC(conceal ConcealFunc, historyLen, horizonFrames int) *PLC {
	return &PLC{
		conceal:       conceal,
		horizonFrames: horizonFrames,
		history:       make([]float32, historyLen),
	}
}

// Process replaces f in place if it is a gap frame and the backend and
// horizon permit concealment; otherwise it updates the rolling history
// from f's original samples.
func (p *PLC) Process(f *audio.Frame) {
	if !f.Flags.HasGap() {
		p.pushHistory(f.Samples)
		p.consecutiveGaps = 0
		return
	}

	p.consecutiveGaps++
	if p.conceal == nil || p.consecutiveGaps > p.horizonFrames {
		return // leave as plain silence
	}

	numCh := f.Spec.NumChannels()
	synthesized := p.conceal(p.history[:p.historyLen], int(f.Duration), numCh)
	n := len(f.Samples)
	if len(synthesized) < n {
		n = len(synthesized)
	}
	copy(f.Samples, synthesized[:n])
	f.Flags = audio.FlagPLC
}

func (p *PLC) pushHistory(samples []float32) {
	n := len(samples)
	if n >= len(p.history) {
		copy(p.history, samples[n-len(p.history):])
		p.historyLen = len(p.history)
		return
	}
	copy(p.history, p.history[n:])
	copy(p.history[len(p.history)-n:], samples)
	if p.historyLen < len(p.history) {
		p.historyLen += n
		if p.historyLen > len(p.history) {
			p.historyLen = len(p.history)
		}
	}
}
