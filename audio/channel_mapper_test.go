package audio

import (
	"math"
	"testing"
)

func stereoSet() ChannelSet {
	return NewChannelSet(LayoutSurround, OrderSMPTE, mask(ChanPosFrontLeft, ChanPosFrontRight))
}

func monoSet() ChannelSet {
	return NewChannelSet(LayoutSurround, OrderSMPTE, mask(ChanPosFrontLeft))
}

func TestChannelMapperNormalizesRows(t *testing.T) {
	m := NewChannelMapper(stereoSet(), monoSet())

	for out := ChanPos(0); out < ChanPosMax; out++ {
		var sum float32
		for in := ChanPos(0); in < ChanPosMax; in++ {
			sum += m.Coeff(out, in)
		}
		if sum != 0 && math.Abs(float64(sum-1)) > 1e-6 {
			t.Fatalf("row %d sums to %v, want 1 +/- 1e-6", out, sum)
		}
	}
}

func TestChannelMapperDownmixStereoToMono(t *testing.T) {
	m := NewChannelMapper(stereoSet(), monoSet())

	in := []float32{1, 0, 0, 1} // L=1,R=0 ; L=0,R=1
	out := make([]float32, 2)
	m.Map(in, out, 2)

	want := []float32{0.5, 0.5}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestChannelMapperIdentityPassthrough(t *testing.T) {
	m := NewChannelMapper(stereoSet(), stereoSet())
	in := []float32{0.1, 0.2, 0.3, 0.4}
	out := make([]float32, 4)
	m.Map(in, out, 2)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("identity map mismatch at %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestChannelMapperNeverFabricatesLFE(t *testing.T) {
	in51 := NewChannelSet(LayoutSurround, OrderSMPTE, mask(
		ChanPosFrontLeft, ChanPosFrontRight, ChanPosFrontCenter,
		ChanPosLowFrequency, ChanPosBackLeft, ChanPosBackRight))
	outStereo := stereoSet()

	m := NewChannelMapper(in51, outStereo)
	for in := ChanPos(0); in < ChanPosMax; in++ {
		if in == ChanPosLowFrequency {
			continue
		}
		if m.Coeff(ChanPosLowFrequency, in) != 0 {
			t.Fatalf("LFE output channel has nonzero coeff from non-LFE input %d", in)
		}
	}
}

func TestChannelMapperWriterMinBatching(t *testing.T) {
	var collected []int
	sink := writerFunc(func(f *Frame) error {
		collected = append(collected, int(f.Duration))
		return nil
	})

	inSpec := SampleSpec{SampleRate: 48000, SampleType: SampleFloat32, Channels: stereoSet()}
	outSpec := SampleSpec{SampleRate: 48000, SampleType: SampleFloat32, Channels: monoSet()}

	w := NewChannelMapperWriter(sink, 3, inSpec, outSpec) // maxBatch == 3

	frame := &Frame{Spec: inSpec, Samples: make([]float32, 2*10), Duration: 10}
	if err := w.WriteFrame(frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	total := 0
	for _, n := range collected {
		if n > 3 {
			t.Fatalf("batch of %d exceeds maxBatch 3 (min-not-max regression)", n)
		}
		total += n
	}
	if total != 10 {
		t.Fatalf("total samples forwarded = %d, want 10", total)
	}
}

type writerFunc func(f *Frame) error

func (w writerFunc) WriteFrame(f *Frame) error { return w(f) }
