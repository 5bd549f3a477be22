package session

import "github.com/roc-streaming/rocrecv/audio"

// PayloadDecodeFunc turns a raw RTP payload into interleaved PCM
// samples for the given channel count. It is the external RTP-payload
// codec collaborator (PCM/G.711 decoding, out of scope per spec §1).
type PayloadDecodeFunc func(payload []byte, numChannels int) []float32

// Depacketizer converts RTP payload bytes into audio.Frame samples,
// filling gaps left by missing sequence numbers with silence flagged
// for PLC to later replace, per spec 4.G: "converts RTP payload to
// frames; emits silence for missing samples with a 'gap' flag."
type Depacketizer struct {
	spec             audio.SampleSpec
	decode           PayloadDecodeFunc
	samplesPerPacket uint32
}

// NewDepacketizer creates a Depacketizer producing frames at spec,
// decoding payloads with decode. samplesPerPacket is the expected
// per-channel sample count of one RTP packet at this payload type,
// used to size the silence gap inserted for a missing packet.
func NewDepacketizer(spec audio.SampleSpec, samplesPerPacket uint32, decode PayloadDecodeFunc) *Depacketizer {
	return &Depacketizer{spec: spec, decode: decode, samplesPerPacket: samplesPerPacket}
}

// Read decodes the next packet (if p is non-nil) or, if p is nil,
// synthesizes one silent gap frame of samplesPerPacket samples per
// channel. The caller (resampler stage) decides whether a gap should
// be filled via PLC instead of raw silence.
func (d *Depacketizer) Read(p *QueuedPacket) *audio.Frame {
	n := d.samplesPerPacket
	numCh := d.spec.NumChannels()
	f := audio.NewFrame(d.spec, n)

	if p == nil {
		f.Flags = audio.FlagSilence
		return f
	}

	samples := d.decode(p.Payload, numCh)
	copy(f.Samples, samples)
	f.Flags = audio.FlagOriginal
	f.CaptureNs = p.ArrivalNs
	return f
}
