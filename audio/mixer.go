package audio

// FrameReader is the pull-based source a Mixer input sums. Sessions and
// any other per-stream DSP chain implement this to hand the mixer their
// next chunk of samples.
type FrameReader interface {
	// ReadFrame fills samples (already sized for duration*NumChannels)
	// with the next duration samples-per-channel and reports how many
	// samples-per-channel were actually written. A reader with nothing
	// to contribute returns 0, n with n==0 meaning "silence, skip me for
	// this read" rather than an error.
	ReadFrame(samples []float32, duration uint32) (n uint32, captureNs int64, ok bool)
}

// Mixer sums N input frame streams of identical SampleSpec into one
// output frame (spec 4.J). For each output sample position,
// out = sum(in_i), saturation-clamped to the sample type's range. Empty
// inputs contribute zero. The output frame's capture timestamp is the
// average of the non-zero inputs' timestamps, for telemetry only.
type Mixer struct {
	spec    SampleSpec
	clamp   bool
	scratch []float32
}

// NewMixer creates a Mixer for streams of the given spec. clamp enables
// saturation clamping to the sample type's representable range; it
// should be left on for integer PCM sample types and may be left off for
// SampleFloat32 pipelines that tolerate values outside [-1, 1] until a
// later stage clips them.
func NewMixer(spec SampleSpec, clamp bool) *Mixer {
	return &Mixer{spec: spec, clamp: clamp}
}

// Mix reads duration samples-per-channel from every reader in inputs and
// sums them into out, which must already be sized for
// duration*spec.NumChannels(). It returns the number of inputs that
// contributed non-silent samples.
func (m *Mixer) Mix(inputs []FrameReader, out *Frame, duration uint32) int {
	n := int(duration) * m.spec.NumChannels()
	if cap(out.Samples) < n {
		out.Samples = make([]float32, n)
	} else {
		out.Samples = out.Samples[:n]
	}
	for i := range out.Samples {
		out.Samples[i] = 0
	}
	out.Spec = m.spec
	out.Duration = duration

	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	scratch := m.scratch[:n]

	active := 0
	var tsSum int64
	var tsCount int64
	allOriginal := true

	for _, in := range inputs {
		if in == nil {
			continue
		}
		got, captureNs, ok := in.ReadFrame(scratch, duration)
		if !ok || got == 0 {
			allOriginal = false
			continue
		}
		active++
		tsSum += captureNs
		tsCount++
		width := int(got) * m.spec.NumChannels()
		for i := 0; i < width && i < n; i++ {
			out.Samples[i] += scratch[i]
		}
		if got < duration {
			allOriginal = false
		}
	}

	if m.clamp {
		lo, hi := sampleRange(m.spec.SampleType)
		for i, v := range out.Samples {
			if v < lo {
				out.Samples[i] = lo
			} else if v > hi {
				out.Samples[i] = hi
			}
		}
	}

	out.Flags = FlagOriginal
	if active == 0 {
		out.Flags = FlagSilence
	} else if !allOriginal {
		out.Flags = FlagPLC
	}

	if tsCount > 0 {
		out.CaptureNs = tsSum / tsCount
	}
	return active
}

func sampleRange(t SampleType) (lo, hi float32) {
	switch t {
	case SampleInt16:
		return -1, 32767.0 / 32768.0
	case SampleInt24:
		return -1, 8388607.0 / 8388608.0
	case SampleInt32:
		return -1, 1
	default: // SampleFloat32
		return -1, 1
	}
}
