package audio

import "time"

// SampleType identifies the in-memory representation of one PCM sample.
type SampleType int

const (
	// SampleFloat32 stores samples as normalized float32 in [-1, 1].
	SampleFloat32 SampleType = iota
	// SampleInt16 stores samples as signed 16-bit PCM.
	SampleInt16
	// SampleInt24 stores samples as signed 24-bit PCM packed in int32.
	SampleInt24
	// SampleInt32 stores samples as signed 32-bit PCM.
	SampleInt32
)

// SampleSpec describes the format of a PCM stream: its rate, sample
// representation, and channel layout (spec.md §3 "Sample Spec").
type SampleSpec struct {
	SampleRate uint32
	SampleType SampleType
	Channels   ChannelSet
}

// NumChannels is a convenience accessor over Channels.NumChannels.
func (s SampleSpec) NumChannels() int {
	return s.Channels.NumChannels()
}

// NsPerSample returns the duration, in nanoseconds, of one sample frame
// (one sample on every channel) at this spec's sample rate.
func (s SampleSpec) NsPerSample() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Second / time.Duration(s.SampleRate)
}

// NsToSamples converts a duration to a number of samples-per-channel at
// this spec's rate, rounding to the nearest sample.
func (s SampleSpec) NsToSamples(d time.Duration) uint64 {
	if s.SampleRate == 0 {
		return 0
	}
	return uint64((d.Seconds() * float64(s.SampleRate)) + 0.5)
}

// SamplesToNs converts a sample-per-channel count to a duration at this
// spec's rate.
func (s SampleSpec) SamplesToNs(samples uint64) time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(s.SampleRate) * float64(time.Second))
}

// IsValid reports whether the spec has a non-zero rate and a valid
// channel set.
func (s SampleSpec) IsValid() bool {
	return s.SampleRate > 0 && s.Channels.IsValid()
}

// Equal reports whether two specs describe the same rate, sample type,
// and channel set.
func (s SampleSpec) Equal(other SampleSpec) bool {
	return s.SampleRate == other.SampleRate &&
		s.SampleType == other.SampleType &&
		s.Channels.Equal(other.Channels)
}
