package audio

// FrameWriter is the push-based sink a ChannelMapperWriter forwards
// mapped frames to.
type FrameWriter interface {
	WriteFrame(f *Frame) error
}

// ChannelMapperWriter wraps an output FrameWriter, remapping every frame
// written to it from inSpec's channel layout to outSpec's before
// forwarding. It batches through a fixed-size scratch buffer so the
// caller can write arbitrarily long frames without per-call allocation.
//
// Per spec §9's documented open question, the original's batching loop
// computed its batch size with std::max(n_samples, max_batch), which
// would let a single call write more samples than the scratch buffer
// holds. This port uses min, as the spec instructs.
type ChannelMapperWriter struct {
	output   FrameWriter
	mapper   *ChannelMapper
	enabled  bool
	inSpec   SampleSpec
	outSpec  SampleSpec
	scratch  []float32
	maxBatch int
}

// NewChannelMapperWriter builds a ChannelMapperWriter. inSpec and outSpec
// must share the same sample rate; channel mapping only ever operates
// within one sample-rate domain (resampling is a separate stage).
func NewChannelMapperWriter(output FrameWriter, frameLen uint32, inSpec, outSpec SampleSpec) *ChannelMapperWriter {
	if inSpec.SampleRate != outSpec.SampleRate {
		panic("audio: channel mapper writer: input and output sample rate must be equal")
	}

	w := &ChannelMapperWriter{
		output:  output,
		mapper:  NewChannelMapper(inSpec.Channels, outSpec.Channels),
		enabled: !inSpec.Channels.Equal(outSpec.Channels),
		inSpec:  inSpec,
		outSpec: outSpec,
	}

	if w.enabled {
		frameSize := int(frameLen) * outSpec.NumChannels()
		if frameSize == 0 {
			frameSize = outSpec.NumChannels()
		}
		w.maxBatch = frameSize / outSpec.NumChannels()
		if w.maxBatch == 0 {
			w.maxBatch = 1
		}
		w.scratch = make([]float32, w.maxBatch*outSpec.NumChannels())
	}

	return w
}

// WriteFrame maps in and forwards the result downstream.
func (w *ChannelMapperWriter) WriteFrame(in *Frame) error {
	if !w.enabled {
		return w.output.WriteFrame(in)
	}

	inChans := w.inSpec.NumChannels()
	if inChans == 0 || len(in.Samples)%inChans != 0 {
		panic("audio: channel mapper writer: unexpected frame size")
	}

	nSamples := len(in.Samples) / inChans
	offset := 0

	for nSamples != 0 {
		nWrite := nSamples
		if nWrite > w.maxBatch {
			nWrite = w.maxBatch
		}

		outChans := w.outSpec.NumChannels()
		outFrame := &Frame{
			Spec:      w.outSpec,
			Samples:   w.scratch[:nWrite*outChans],
			Duration:  uint32(nWrite),
			Flags:     in.Flags,
			CaptureNs: in.CaptureNs,
		}

		inSlice := in.Samples[offset*inChans : (offset+nWrite)*inChans]
		w.mapper.Map(inSlice, outFrame.Samples, nWrite)

		if err := w.output.WriteFrame(outFrame); err != nil {
			return err
		}

		offset += nWrite
		nSamples -= nWrite
	}
	return nil
}
