package audio

import "testing"

type constReader struct {
	val float32
	n   uint32
}

func (c constReader) ReadFrame(samples []float32, duration uint32) (uint32, int64, bool) {
	for i := range samples {
		samples[i] = c.val
	}
	return c.n, 0, true
}

func stereoSpec() SampleSpec {
	return SampleSpec{SampleRate: 48000, SampleType: SampleFloat32, Channels: stereoSet()}
}

func TestMixerLinearity(t *testing.T) {
	spec := stereoSpec()
	m := NewMixer(spec, false)

	f1 := constReader{val: 0.1, n: 4}
	f2 := constReader{val: 0.2, n: 4}

	both := NewFrame(spec, 4)
	m.Mix([]FrameReader{f1, f2}, both, 4)

	onlyF1 := NewFrame(spec, 4)
	m2 := NewMixer(spec, false)
	m2.Mix([]FrameReader{f1}, onlyF1, 4)

	onlyF2 := NewFrame(spec, 4)
	m3 := NewMixer(spec, false)
	m3.Mix([]FrameReader{f2}, onlyF2, 4)

	for i := range both.Samples {
		sum := onlyF1.Samples[i] + onlyF2.Samples[i]
		if diff := both.Samples[i] - sum; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("mixer not linear at %d: mix(f1,f2)=%v != mix(f1)+mix(f2)=%v",
				i, both.Samples[i], sum)
		}
	}
}

func TestMixerEmptyInputsAreSilent(t *testing.T) {
	spec := stereoSpec()
	m := NewMixer(spec, false)
	out := NewFrame(spec, 4)

	active := m.Mix(nil, out, 4)
	if active != 0 {
		t.Fatalf("active = %d, want 0", active)
	}
	for _, s := range out.Samples {
		if s != 0 {
			t.Fatalf("expected silence, got %v", s)
		}
	}
	if out.Flags != FlagSilence {
		t.Fatalf("flags = %v, want FlagSilence", out.Flags)
	}
}

func TestMixerSaturationClamp(t *testing.T) {
	spec := SampleSpec{SampleRate: 48000, SampleType: SampleInt16, Channels: monoSet()}
	m := NewMixer(spec, true)

	loud := constReader{val: 0.9, n: 2}
	out := NewFrame(spec, 2)
	m.Mix([]FrameReader{loud, loud}, out, 2)

	_, hi := sampleRange(SampleInt16)
	for _, s := range out.Samples {
		if s > hi {
			t.Fatalf("sample %v exceeds clamp %v", s, hi)
		}
	}
}
